// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package capfeed

import (
	"strings"
	"testing"
)

const prefixedAlertXML = `<?xml version="1.0" encoding="UTF-8"?>
<cap:alert xmlns:cap="urn:oasis:names:tc:emergency:cap:1.2">
  <cap:identifier>EXAMPLE-1</cap:identifier>
  <cap:sender>example@publisher.test</cap:sender>
  <cap:sent>2024-01-01T00:00:00+00:00</cap:sent>
  <cap:status>Actual</cap:status>
  <cap:msgType>Alert</cap:msgType>
  <cap:scope>Public</cap:scope>
  <cap:info>
    <cap:event>Flood</cap:event>
    <cap:urgency>Immediate</cap:urgency>
    <cap:severity>Severe</cap:severity>
    <cap:certainty>Observed</cap:certainty>
    <cap:effective>2024-01-01T00:00:00+00:00</cap:effective>
    <cap:expires>2024-01-01T06:00:00+00:00</cap:expires>
    <cap:headline>Flood warning</cap:headline>
    <cap:area>
      <cap:areaDesc>Example region</cap:areaDesc>
      <cap:polygon>10,20 10,30 20,30 20,20</cap:polygon>
    </cap:area>
  </cap:info>
</cap:alert>`

const unprefixedAlertXML = `<?xml version="1.0" encoding="UTF-8"?>
<alert>
  <identifier>EXAMPLE-2</identifier>
  <sender>example@publisher.test</sender>
  <sent>2024-01-01T00:00:00+00:00</sent>
  <status>Actual</status>
  <msgType>Alert</msgType>
  <scope>Public</scope>
  <info>
    <event>Flood</event>
    <urgency>Immediate</urgency>
    <severity>Severe</severity>
    <certainty>Observed</certainty>
    <effective>2024-01-01T00:00:00+00:00</effective>
    <expires>2024-01-01T06:00:00+00:00</expires>
    <headline>Flood warning</headline>
    <area>
      <areaDesc>Example region</areaDesc>
      <polygon>10,20 10,30 20,30 20,20</polygon>
    </area>
  </info>
</alert>`

func TestDecodeNamespaceStripped_PrefixedAndUnprefixed(t *testing.T) {
	t.Parallel()

	for name, xmlDoc := range map[string]string{"prefixed": prefixedAlertXML, "unprefixed": unprefixedAlertXML} {
		xmlDoc := xmlDoc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var raw capAlert
			if err := decodeNamespaceStripped(strings.NewReader(xmlDoc), &raw); err != nil {
				t.Fatalf("decodeNamespaceStripped() error = %v", err)
			}
			if len(raw.Info) != 1 {
				t.Fatalf("Info length = %d, want 1", len(raw.Info))
			}
			if raw.Info[0].Event != "Flood" {
				t.Errorf("Event = %q, want %q", raw.Info[0].Event, "Flood")
			}
			if len(raw.Info[0].Area) != 1 || len(raw.Info[0].Area[0].Polygon) != 1 {
				t.Fatalf("Area/Polygon not decoded: %+v", raw.Info[0].Area)
			}
		})
	}
}
