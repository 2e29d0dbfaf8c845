// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package capfeed

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/capalert/internal/logging"
	"github.com/tomtom215/capalert/internal/metrics"
	"github.com/tomtom215/capalert/internal/models"
)

// MaxItemsPerFetch caps a single fetchAlerts call to the most recent RSS
// items.
const MaxItemsPerFetch = 20

// DetailFetchPaceInterval is the minimum spacing between successive detail
// fetch starts within one cycle.
const DetailFetchPaceInterval = 100 * time.Millisecond

// Parser implements C2: RSS index fetch, identifier extraction, paced
// per-identifier detail fetches with response caching, namespace-stripped
// XML decode, and HTML fallback.
type Parser struct {
	client *client
	cache  *responseCache
	stats  *models.ParserStats
}

// NewParser constructs a Parser with its own HTTP client (and therefore its
// own set of per-source circuit breakers) and response cache.
func NewParser(stats *models.ParserStats) *Parser {
	return &Parser{
		client: newClient(),
		cache:  newResponseCache(DefaultCacheTTL),
		stats:  stats,
	}
}

// FetchAlerts fetches one source's feed: GET the
// source's RSS index, extract up to MaxItemsPerFetch items, and fetch each
// item's detail concurrently, paced at DetailFetchPaceInterval between
// request starts. A single item's failure never fails the batch.
func (p *Parser) FetchAlerts(ctx context.Context, sourceID, feedURL, baseURL string) ([]models.Alert, error) {
	start := time.Now()
	defer func() {
		metrics.ParserFetchDuration.WithLabelValues(sourceID).Observe(time.Since(start).Seconds())
	}()

	body, err := p.client.Fetch(ctx, sourceID, feedURL)
	if err != nil {
		return nil, fmt.Errorf("capfeed: fetch index %s: %w", feedURL, err)
	}

	var feed rssChannel
	if err := decodeNamespaceStripped(bytes.NewReader(body), &feed); err != nil {
		return nil, fmt.Errorf("capfeed: decode rss index %s: %w", feedURL, err)
	}

	items := feed.Items
	if len(items) > MaxItemsPerFetch {
		items = items[:MaxItemsPerFetch]
	}

	identifiers := make([]string, 0, len(items))
	for _, item := range items {
		id := extractIdentifier(item)
		if id == "" {
			logging.Debug().Str("source", sourceID).Str("title", item.Title).Msg("capfeed: dropping item with no extractable identifier")
			continue
		}
		identifiers = append(identifiers, id)
	}

	alerts := p.fetchDetailsPaced(ctx, sourceID, baseURL, identifiers)
	metrics.ParserItemsFetched.WithLabelValues(sourceID).Add(float64(len(alerts)))
	return alerts, nil
}

// fetchDetailsPaced fetches one detail document per identifier, starting a
// new fetch at most every DetailFetchPaceInterval, then awaits all of them
// together — individual item failures do not fail the batch.
func (p *Parser) fetchDetailsPaced(ctx context.Context, sourceID, baseURL string, identifiers []string) []models.Alert {
	limiter := rate.NewLimiter(rate.Every(DetailFetchPaceInterval), 1)

	var wg sync.WaitGroup
	var mu sync.Mutex
	alerts := make([]models.Alert, 0, len(identifiers))

	for _, id := range identifiers {
		if err := limiter.Wait(ctx); err != nil {
			break
		}

		wg.Add(1)
		go func(identifier string) {
			defer wg.Done()

			alert, err := p.fetchOneAlert(ctx, sourceID, identifier, baseURL)
			if err != nil {
				logging.Debug().Str("source", sourceID).Str("identifier", identifier).Err(err).Msg("capfeed: detail fetch failed")
				return
			}
			if alert == nil {
				return
			}

			mu.Lock()
			alerts = append(alerts, *alert)
			mu.Unlock()
		}(id)
	}

	wg.Wait()
	return alerts
}

// fetchOneAlert resolves one alert's detail: cache lookup, detail GET,
// 404 → HTML fallback, namespace-stripped XML decode, transformation
// into the canonical Alert shape.
func (p *Parser) fetchOneAlert(ctx context.Context, sourceID, identifier, baseURL string) (*models.Alert, error) {
	now := time.Now()

	if cached, ok := p.cache.Get(identifier); ok {
		p.stats.IncCacheHit()
		p.stats.IncRequest(true)
		metrics.ParserCacheHits.Inc()
		return &cached, nil
	}
	metrics.ParserCacheMisses.Inc()

	detailURL := baseURL + identifier
	body, err := p.client.Fetch(ctx, sourceID, detailURL)
	if err != nil && isNotFound(err) {
		fallbackBody, fbErr := p.htmlFallback(ctx, sourceID, detailURL)
		if fbErr != nil {
			p.stats.IncRequest(false)
			metrics.ParserDetailFailures.WithLabelValues(sourceID).Inc()
			return nil, fmt.Errorf("capfeed: %s: %w", identifier, fbErr)
		}
		p.stats.IncHTMLFallback()
		metrics.ParserHTMLFallbacks.WithLabelValues(sourceID).Inc()
		body = fallbackBody
	} else if err != nil {
		p.stats.IncRequest(false)
		metrics.ParserDetailFailures.WithLabelValues(sourceID).Inc()
		return nil, err
	}

	var raw capAlert
	if err := decodeNamespaceStripped(bytes.NewReader(body), &raw); err != nil {
		p.stats.IncRequest(false)
		metrics.ParserDetailFailures.WithLabelValues(sourceID).Inc()
		return nil, fmt.Errorf("capfeed: decode detail %s: %w", identifier, err)
	}

	alert, err := transformAlert(sourceID, identifier, raw, now)
	if err != nil {
		p.stats.IncRequest(false)
		metrics.ParserDetailFailures.WithLabelValues(sourceID).Inc()
		return nil, fmt.Errorf("capfeed: transform %s: %w", identifier, err)
	}

	p.cache.Set(identifier, *alert, now)
	p.stats.IncRequest(true)
	return alert, nil
}

// transformAlert coerces a decoded CAP document into the canonical
// models.Alert shape: absolute timestamps, defaulted senderName, raw
// polygon/circle strings preserved for C1.
func transformAlert(sourceID, identifier string, raw capAlert, fetchedAt time.Time) (*models.Alert, error) {
	sent, err := parseCAPTime(raw.Sent)
	if err != nil {
		return nil, fmt.Errorf("parsing sent timestamp %q: %w", raw.Sent, err)
	}

	infos := make([]models.Info, 0, len(raw.Info))
	for _, ci := range raw.Info {
		info, err := transformInfo(ci, raw.Sender)
		if err != nil {
			logging.Debug().Str("identifier", identifier).Err(err).Msg("capfeed: dropping unparseable info block")
			continue
		}
		infos = append(infos, info)
	}

	return &models.Alert{
		SourceID:   sourceID,
		Identifier: identifier,
		Sender:     raw.Sender,
		Sent:       sent,
		Status:     models.Status(raw.Status),
		MsgType:    models.MsgType(raw.MsgType),
		Scope:      models.Scope(raw.Scope),
		Code:       raw.Code,
		Note:       raw.Note,
		References: raw.References,
		Incidents:  raw.Incidents,
		Info:       infos,
		FetchedAt:  fetchedAt,
	}, nil
}

func transformInfo(ci capInfo, sender string) (models.Info, error) {
	effective, err := parseOptionalCAPTime(ci.Effective)
	if err != nil {
		return models.Info{}, fmt.Errorf("effective: %w", err)
	}
	expires, err := parseCAPTime(ci.Expires)
	if err != nil {
		return models.Info{}, fmt.Errorf("expires: %w", err)
	}

	var onset *time.Time
	if ci.Onset != "" {
		t, err := parseCAPTime(ci.Onset)
		if err == nil {
			onset = &t
		}
	}

	senderName := ci.SenderName
	if senderName == "" {
		senderName = sender
	}

	areas := make([]models.Area, 0, len(ci.Area))
	for _, ca := range ci.Area {
		areas = append(areas, transformArea(ca))
	}

	params := make([]models.Parameter, 0, len(ci.Parameter))
	for _, cp := range ci.Parameter {
		params = append(params, models.Parameter{ValueName: cp.ValueName, Value: cp.Value})
	}

	return models.Info{
		Language:     ci.Language,
		Category:     ci.Category,
		Event:        ci.Event,
		ResponseType: ci.ResponseType,
		Urgency:      models.Urgency(ci.Urgency),
		Severity:     models.Severity(ci.Severity),
		Certainty:    models.Certainty(ci.Certainty),
		Effective:    effective,
		Onset:        onset,
		Expires:      expires,
		SenderName:   senderName,
		Headline:     ci.Headline,
		Description:  ci.Description,
		Instruction:  ci.Instruction,
		Web:          ci.Web,
		Contact:      ci.Contact,
		Parameter:    params,
		Area:         areas,
	}, nil
}

func transformArea(ca capArea) models.Area {
	area := models.Area{
		AreaDesc: ca.AreaDesc,
		Polygon:  ca.Polygon,
		Circle:   ca.Circle,
		Geocode:  ca.Geocode,
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(ca.Altitude), 64); err == nil {
		area.Altitude = &f
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(ca.Ceiling), 64); err == nil {
		area.Ceiling = &f
	}
	return area
}

// capTimeLayouts covers the CAP 1.2 dateTime profile (RFC 3339 with a
// numeric zone offset) and a UTC "Z" variant some publishers emit.
var capTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04:05Z",
}

func parseCAPTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	var lastErr error
	for _, layout := range capTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}

func parseOptionalCAPTime(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return parseCAPTime(s)
}
