// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package capfeed

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tomtom215/capalert/internal/models"
)

const rssIndexXML = `<?xml version="1.0"?>
<rss><channel>
  <item>
    <title>Flood warning</title>
    <link>https://example.org/view?identifier=111</link>
    <guid>111</guid>
    <description>details</description>
  </item>
</channel></rss>`

func TestFetchAlerts_HappyPath(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/rss", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rssIndexXML))
	})
	mux.HandleFunc("/detail/111", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(unprefixedAlertXML))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	parser := NewParser(&models.ParserStats{})
	alerts, err := parser.FetchAlerts(t.Context(), "src-1", srv.URL+"/rss", srv.URL+"/detail/")
	if err != nil {
		t.Fatalf("FetchAlerts() error = %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("alerts length = %d, want 1", len(alerts))
	}
	if alerts[0].Identifier != "111" {
		t.Errorf("Identifier = %q, want %q", alerts[0].Identifier, "111")
	}
	if alerts[0].SourceID != "src-1" {
		t.Errorf("SourceID = %q, want %q", alerts[0].SourceID, "src-1")
	}
	if len(alerts[0].Info) != 1 || alerts[0].Info[0].Event != "Flood" {
		t.Fatalf("Info not transformed correctly: %+v", alerts[0].Info)
	}
	if len(alerts[0].Info[0].Area) != 1 || len(alerts[0].Info[0].Area[0].Polygon) != 1 {
		t.Fatalf("Area not preserved for C1: %+v", alerts[0].Info[0].Area)
	}
}

func TestFetchAlerts_CachesRepeatedDetailFetch(t *testing.T) {
	t.Parallel()

	var detailHits int
	mux := http.NewServeMux()
	mux.HandleFunc("/rss", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rssIndexXML))
	})
	mux.HandleFunc("/detail/111", func(w http.ResponseWriter, r *http.Request) {
		detailHits++
		w.Write([]byte(unprefixedAlertXML))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	parser := NewParser(&models.ParserStats{})
	ctx := t.Context()
	if _, err := parser.FetchAlerts(ctx, "src-1", srv.URL+"/rss", srv.URL+"/detail/"); err != nil {
		t.Fatalf("first FetchAlerts() error = %v", err)
	}
	if _, err := parser.FetchAlerts(ctx, "src-1", srv.URL+"/rss", srv.URL+"/detail/"); err != nil {
		t.Fatalf("second FetchAlerts() error = %v", err)
	}
	if detailHits != 1 {
		t.Errorf("detail endpoint hit %d times, want 1 (second call should be served from cache)", detailHits)
	}
}

func TestFetchOneAlert_HTMLFallbackOn404(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/detail/111", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/page/111", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>` + unprefixedAlertXML + `</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	parser := NewParser(&models.ParserStats{})
	body, err := parser.htmlFallback(t.Context(), "src-1", srv.URL+"/page/111")
	if err != nil {
		t.Fatalf("htmlFallback() error = %v", err)
	}
	if len(body) == 0 {
		t.Fatal("htmlFallback() returned empty body")
	}
}
