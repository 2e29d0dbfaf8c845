// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package scheduler

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/capalert/internal/geo"
	"github.com/tomtom215/capalert/internal/logging"
	"github.com/tomtom215/capalert/internal/metrics"
	"github.com/tomtom215/capalert/internal/models"
)

// cycleCounts tracks the per-source count used for the "every 10 cycles,
// dump a statistics snapshot" rule.
var cycleCountMu sync.Mutex
var cycleCounts = make(map[string]int)

// runCycle runs one fetch cycle for a source. It never overlaps with
// another in-flight cycle for the same sourceID — TriggerFetch and the
// regular timer both funnel through this same per-source lock.
func (s *Scheduler) runCycle(ctx context.Context, sourceID string) {
	muAny, _ := s.cycleMu.LoadOrStore(sourceID, &sync.Mutex{})
	mu := muAny.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	cycleStart := time.Now()
	now := cycleStart.UTC()
	cycleID := uuid.New().String()

	// Step 1: re-read the source; bail out if inactive or not due yet.
	source, err := s.registry.GetByID(ctx, sourceID)
	if err != nil {
		logging.Warn().Str("source", sourceID).Str("cycleId", cycleID).Err(err).Msg("scheduler: source vanished mid-cycle, cancelling timer")
		s.RemoveSourceInterval(sourceID)
		return
	}
	if !source.Active {
		s.RemoveSourceInterval(sourceID)
		return
	}
	if !s.registry.NeedsFetching(source, now) {
		return
	}

	failed := false

	// Step 2: fetch, recording the attempt on exit regardless of outcome.
	alerts, fetchErr := s.fetcher.FetchAlerts(ctx, source.ID, source.FeedURL, deriveBaseURL(source))
	if fetchErr != nil {
		failed = true
		logging.Warn().Str("source", source.ID).Str("cycleId", cycleID).Err(fetchErr).Msg("scheduler: fetch failed")
	}
	if recErr := s.registry.RecordFetchAttempt(ctx, source.ID, now, fetchErr == nil, errString(fetchErr)); recErr != nil {
		logging.Warn().Str("source", source.ID).Str("cycleId", cycleID).Err(recErr).Msg("scheduler: recordFetchAttempt failed")
	}

	var newCount, updatedCount int

	// Steps 4-5: reconcile against the store, unless the fetch itself failed
	// (step 3: even on failure we still proceed to step 6's expired-bit repair).
	if !failed {
		newCount, updatedCount = s.reconcile(ctx, source.ID, alerts)
	}

	// Step 6: expired-bit repair, always runs. Every transitioned row gets
	// its own alert.expire, completing the new -> update -> expire ordering
	// guarantee for alerts that simply age out of the feed.
	expired, expErr := s.store.MarkExpired(ctx, now, source.ID)
	if expErr != nil {
		logging.Warn().Str("source", source.ID).Err(expErr).Msg("scheduler: markExpired failed")
	}
	for _, a := range expired {
		s.broadcaster.PublishAlertExpire(a)
	}
	expiredCount := int64(len(expired))

	s.stats.IncCycle(failed)
	s.stats.AddNew(int64(newCount))
	s.stats.AddUpdated(int64(updatedCount))
	s.stats.AddExpired(expiredCount)

	metrics.RecordFetchCycle(source.ID, failed, time.Since(cycleStart))
	metrics.RecordAlertTransition("new", newCount)
	metrics.RecordAlertTransition("updated", updatedCount)
	metrics.RecordAlertTransition("expired", int(expiredCount))

	// Step 7: one-line summary, and a periodic full snapshot.
	logging.Info().Str("source", source.ID).Str("cycleId", cycleID).Bool("failed", failed).Int("new", newCount).
		Int("updated", updatedCount).Int64("expired", expiredCount).Msg("scheduler: cycle complete")

	cycleCountMu.Lock()
	cycleCounts[source.ID]++
	n := cycleCounts[source.ID]
	cycleCountMu.Unlock()

	if n%s.statsLogEveryNCycles == 0 {
		snap := s.stats.Snapshot()
		logging.Info().Str("source", source.ID).Int("cycle", n).
			Int64("cyclesTotal", snap.CyclesTotal).Int64("cyclesFailed", snap.CyclesFailed).
			Int64("alertsNew", snap.AlertsNew).Int64("alertsUpdated", snap.AlertsUpdated).
			Int64("alertsExpired", snap.AlertsExpired).Msg("scheduler: statistics snapshot")
	}
}

// reconcile classifies parsed alerts
// against existing rows in batches of s.batchSize, skip unchanged
// records, upsert changed ones with geometry stripped, bulk-insert new
// ones, then populate geometry for the freshly inserted records one at
// a time so a single bad polygon never aborts its siblings.
func (s *Scheduler) reconcile(ctx context.Context, sourceID string, parsed []models.Alert) (newCount, updatedCount int) {
	identifiers := make([]string, len(parsed))
	for i, a := range parsed {
		identifiers[i] = a.Identifier
	}

	existing, err := s.store.FindByIdentifiers(ctx, sourceID, identifiers)
	if err != nil {
		logging.Warn().Str("source", sourceID).Err(err).Msg("scheduler: findByIdentifiers failed, skipping reconciliation")
		return 0, 0
	}

	for batchStart := 0; batchStart < len(parsed); batchStart += s.batchSize {
		batchEnd := batchStart + s.batchSize
		if batchEnd > len(parsed) {
			batchEnd = len(parsed)
		}
		batch := parsed[batchStart:batchEnd]

		var toInsert, toUpdate []models.Alert
		for _, a := range batch {
			// "Active" is computed at write time from the parsed expiry
			// timestamps; capfeed never
			// sets it.
			a.Active = a.IsActiveAt(time.Now().UTC())

			prior, found := existing[a.Identifier]
			if found && prior.Sent.Equal(a.Sent) && prior.Active == a.Active {
				continue
			}

			cleaned := stripGeoJSON(a)
			if found {
				cleaned.ID = prior.ID
				cleaned.CreatedAt = prior.CreatedAt
				toUpdate = append(toUpdate, cleaned)
			} else {
				cleaned.ID = newAlertID()
				toInsert = append(toInsert, cleaned)
			}
		}

		if len(toUpdate) > 0 {
			if err := s.store.BulkUpsertAlerts(ctx, toUpdate); err != nil {
				logging.Warn().Str("source", sourceID).Err(err).Msg("scheduler: bulkUpsert failed")
			} else {
				updatedCount += len(toUpdate)
				for i := range toUpdate {
					s.populateGeometryAndEmit(ctx, &toUpdate[i], s.broadcaster.PublishAlertUpdate)
				}
			}
		}

		if len(toInsert) > 0 {
			if err := s.store.BulkInsertAlerts(ctx, toInsert); err != nil {
				logging.Warn().Str("source", sourceID).Err(err).Msg("scheduler: bulkInsert failed")
			} else {
				newCount += len(toInsert)
				for i := range toInsert {
					s.populateGeometryAndEmit(ctx, &toInsert[i], s.broadcaster.PublishAlertNew)
				}
			}
		}
	}

	return newCount, updatedCount
}

// stripGeoJSON returns a copy of a with every area's GeoJSON cleared:
// sending a possibly-invalid pre-computed geometry into a spatially
// indexed upsert risks rejecting the whole batch.
func stripGeoJSON(a models.Alert) models.Alert {
	infos := make([]models.Info, len(a.Info))
	for i, info := range a.Info {
		areas := make([]models.Area, len(info.Area))
		for j, area := range info.Area {
			area.GeoJSON = nil
			areas[j] = area
		}
		info.Area = areas
		infos[i] = info
	}
	a.Info = infos
	return a
}

// populateGeometryAndEmit runs C1 normalization for every area in alert,
// persists the result via SetAlertGeometry, and on success emits the
// given event. A normalization or spatial-index failure for this record
// is logged and swallowed — it never aborts sibling records in the batch.
func (s *Scheduler) populateGeometryAndEmit(ctx context.Context, alert *models.Alert, emit func(models.Alert)) {
	var allPolygons, allCircles []string

	for i := range alert.Info {
		info := &alert.Info[i]
		for j := range info.Area {
			area := &info.Area[j]
			g, errs := geo.NormalizeArea(area.Polygon, area.Circle)
			for _, e := range errs {
				logging.Debug().Str("alertId", alert.ID).Err(e).Msg("scheduler: area geometry normalization issue")
			}
			area.GeoJSON = g
			if g != nil {
				allPolygons = append(allPolygons, area.Polygon...)
				allCircles = append(allCircles, area.Circle...)
			}
		}
	}

	combined, errs := geo.NormalizeArea(allPolygons, allCircles)
	for _, e := range errs {
		logging.Debug().Str("alertId", alert.ID).Err(e).Msg("scheduler: combined geometry normalization issue")
	}

	geometryJSON := ""
	if combined != nil {
		if b, err := marshalGeoJSON(combined); err == nil {
			geometryJSON = b
		}
	}

	if err := s.store.SetAlertGeometry(ctx, alert.ID, alert.Info, geometryJSON); err != nil {
		logging.Warn().Str("alertId", alert.ID).Err(err).Msg("scheduler: setAlertGeometry failed")
		return
	}

	emit(*alert)
}

// deriveBaseURL computes the detail-fetch base URL for a source: an
// explicit override in Metadata["baseUrl"], or else the feed URL's
// directory (scheme://host/path/), matching publishers whose detail
// documents live alongside the RSS index.
func deriveBaseURL(source *models.Source) string {
	if base, ok := source.Metadata["baseUrl"]; ok && base != "" {
		return base
	}

	u, err := url.Parse(source.FeedURL)
	if err != nil {
		return source.FeedURL
	}
	dir := u.Path
	if idx := strings.LastIndex(dir, "/"); idx >= 0 {
		dir = dir[:idx+1]
	}
	u.Path = dir
	u.RawQuery = ""
	return u.String()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
