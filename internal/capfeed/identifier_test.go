// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package capfeed

import "testing"

func TestExtractIdentifier_FromLink(t *testing.T) {
	t.Parallel()

	item := rssItem{Link: "https://example.org/cap/view?identifier=12345"}
	if got := extractIdentifier(item); got != "12345" {
		t.Errorf("extractIdentifier() = %q, want %q", got, "12345")
	}
}

func TestExtractIdentifier_FromGUID(t *testing.T) {
	t.Parallel()

	item := rssItem{GUID: "98765"}
	if got := extractIdentifier(item); got != "98765" {
		t.Errorf("extractIdentifier() = %q, want %q", got, "98765")
	}
}

func TestExtractIdentifier_LongDigitRun(t *testing.T) {
	t.Parallel()

	item := rssItem{
		Title:       "Flood warning",
		Description: "ref 1234567890123456 issued",
	}
	if got := extractIdentifier(item); got != "1234567890123456" {
		t.Errorf("extractIdentifier() = %q, want %q", got, "1234567890123456")
	}
}

func TestExtractIdentifier_NoMatch(t *testing.T) {
	t.Parallel()

	item := rssItem{Title: "no identifiers here", GUID: "not-all-digits"}
	if got := extractIdentifier(item); got != "" {
		t.Errorf("extractIdentifier() = %q, want empty", got)
	}
}
