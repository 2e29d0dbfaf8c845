// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package capfeed

import (
	"bytes"
	"context"
	"fmt"
	"regexp"

	"golang.org/x/net/html"
)

// fetchXMLFileRe matches the human-facing page's link to the XML detail
// document. This pattern is NDMA-specific and best-effort for other
// publishers.
var fetchXMLFileRe = regexp.MustCompile(`href=["']([^"']*FetchXMLFile[^"']*identifier[^"']*)["']`)

var inlineAlertRe = regexp.MustCompile(`(?s)<alert[^>]*>.*?</alert>`)

// htmlFallback scrapes a 404'd detail page for either a FetchXMLFile link
// (re-fetched as XML) or an inline <alert>…</alert> block, returning the
// raw CAP XML bytes to decode. When neither pattern matches it returns a
// nil slice and an errNoFallbackMatch error.
func (p *Parser) htmlFallback(ctx context.Context, sourceID, pageURL string) ([]byte, error) {
	body, err := p.client.Fetch(ctx, sourceID, pageURL)
	if err != nil {
		return nil, fmt.Errorf("capfeed: html fallback fetch %s: %w", pageURL, err)
	}

	if m := fetchXMLFileRe.FindSubmatch(body); m != nil {
		xmlURL := resolveHTMLEntities(string(m[1]))
		xmlBody, err := p.client.Fetch(ctx, sourceID, xmlURL)
		if err != nil {
			return nil, fmt.Errorf("capfeed: html fallback xml link %s: %w", xmlURL, err)
		}
		return xmlBody, nil
	}

	if m := inlineAlertRe.Find(body); m != nil {
		return m, nil
	}

	return nil, errNoFallbackMatch{pageURL: pageURL}
}

// resolveHTMLEntities unescapes the handful of entities (&amp; chiefly)
// that commonly appear in an href attribute extracted by regex rather
// than a full HTML parse.
func resolveHTMLEntities(s string) string {
	var buf bytes.Buffer
	buf.WriteString(html.UnescapeString(s))
	return buf.String()
}

type errNoFallbackMatch struct{ pageURL string }

func (e errNoFallbackMatch) Error() string {
	return fmt.Sprintf("capfeed: no FetchXMLFile link or inline alert block found on %s", e.pageURL)
}
