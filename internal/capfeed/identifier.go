// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package capfeed

import "regexp"

var (
	identifierInLinkRe = regexp.MustCompile(`identifier=(\d+)`)
	longDigitRunRe     = regexp.MustCompile(`\d{16,}`)
)

// extractIdentifier runs the fallback cascade: (a)
// identifier=(\d+) in link, (b) a pure-digit guid or the same pattern in
// guid, (c) a run of 16+ digits anywhere in title+description. The first
// match wins; an empty return means the item is dropped.
func extractIdentifier(item rssItem) string {
	if m := identifierInLinkRe.FindStringSubmatch(item.Link); m != nil {
		return m[1]
	}

	if isAllDigits(item.GUID) {
		return item.GUID
	}
	if m := identifierInLinkRe.FindStringSubmatch(item.GUID); m != nil {
		return m[1]
	}

	if m := longDigitRunRe.FindString(item.Title + item.Description); m != "" {
		return m
	}

	return ""
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
