// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/capalert/internal/logging"
	"github.com/tomtom215/capalert/internal/metrics"
	"github.com/tomtom215/capalert/internal/models"
	"github.com/tomtom215/capalert/internal/sources"
	"github.com/tomtom215/capalert/internal/store"
	"github.com/tomtom215/capalert/internal/validation"
)

// AlertStore is the subset of internal/store.DB the Query API reads from.
type AlertStore interface {
	FindActive(ctx context.Context) ([]models.Alert, error)
	FindByID(ctx context.Context, id string) (*models.Alert, error)
	FindByPoint(ctx context.Context, lon, lat float64) ([]models.Alert, error)
	FindBySeverity(ctx context.Context, level models.Severity) ([]models.Alert, error)
	CountTotal(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// SourceRegistry is the subset of internal/sources.Registry the Query API
// uses for source CRUD.
type SourceRegistry interface {
	GetActive(ctx context.Context) ([]models.Source, error)
	GetAll(ctx context.Context) ([]models.Source, error)
	GetByID(ctx context.Context, id string) (*models.Source, error)
	Create(ctx context.Context, s *models.Source) error
	Update(ctx context.Context, s *models.Source) error
	Delete(ctx context.Context, id string) error
}

// Scheduler is the subset of internal/scheduler.Scheduler the Query API
// drives for manual-refresh and fetch-trigger endpoints.
type Scheduler interface {
	TriggerFetch(ctx context.Context, sourceID string) error
}

// EventPublisher is the subset of internal/broadcaster.Hub the Query API
// uses to announce source mutations made through the HTTP surface.
type EventPublisher interface {
	PublishSourceNew(source models.Source)
	PublishSourceUpdate(source models.Source)
	PublishSourceDelete(source models.Source)
}

// Handler implements every /cap-alerts and /cap-sources route.
type Handler struct {
	store          AlertStore
	registry       SourceRegistry
	scheduler      Scheduler
	publisher      EventPublisher
	parserStats    *models.ParserStats
	schedulerStats *models.SchedulerStats
}

// NewHandler wires a Handler over the alert store, source registry,
// scheduler, and event hub.
func NewHandler(store AlertStore, registry SourceRegistry, scheduler Scheduler, publisher EventPublisher, parserStats *models.ParserStats, schedulerStats *models.SchedulerStats) *Handler {
	return &Handler{
		store:          store,
		registry:       registry,
		scheduler:      scheduler,
		publisher:      publisher,
		parserStats:    parserStats,
		schedulerStats: schedulerStats,
	}
}

// ================================================================================
// Alerts
// ================================================================================

// ListActive handles GET /cap-alerts/active.
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	alerts, err := h.store.FindActive(r.Context())
	if err != nil {
		rw.InternalError(err)
		return
	}
	rw.Alerts(alerts)
}

// GetByID handles GET /cap-alerts/{id}.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := chi.URLParam(r, "id")

	alert, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.NotFound(ErrAlertNotFound.Error())
			return
		}
		rw.InternalError(err)
		return
	}
	rw.Alert(*alert)
}

// FindByArea handles GET /cap-alerts/area/{lat}/{lng}.
func (h *Handler) FindByArea(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	lat, err := strconv.ParseFloat(chi.URLParam(r, "lat"), 64)
	if err != nil {
		rw.BadRequest("lat must be a number")
		return
	}
	lng, err := strconv.ParseFloat(chi.URLParam(r, "lng"), 64)
	if err != nil {
		rw.BadRequest("lng must be a number")
		return
	}
	if !isValidLatLng(lat, lng) {
		rw.BadRequest("lat must be in [-90,90] and lng in [-180,180]")
		return
	}

	alerts, err := h.store.FindByPoint(r.Context(), lng, lat)
	if err != nil {
		rw.InternalError(err)
		return
	}
	rw.Alerts(alerts)
}

// FindBySeverity handles GET /cap-alerts/severity/{level}.
func (h *Handler) FindBySeverity(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	level := chi.URLParam(r, "level")

	if !isValidSeverity(level) {
		rw.BadRequest("severity must be one of Extreme, Severe, Moderate, Minor, Unknown")
		return
	}

	alerts, err := h.store.FindBySeverity(r.Context(), models.Severity(level))
	if err != nil {
		rw.InternalError(err)
		return
	}
	rw.Alerts(alerts)
}

// Stats handles GET /cap-alerts/stats, aggregating store counts with the
// parser's and scheduler's process-lifetime counters.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ctx := r.Context()

	total, err := h.store.CountTotal(ctx)
	if err != nil {
		rw.InternalError(err)
		return
	}
	active, err := h.store.CountActive(ctx)
	if err != nil {
		rw.InternalError(err)
		return
	}
	metrics.AlertsActive.Set(float64(active))

	activeAlerts, err := h.store.FindActive(ctx)
	if err != nil {
		rw.InternalError(err)
		return
	}

	bySeverity := make(map[string]int64)
	byCategory := make(map[string]int64)
	for _, a := range activeAlerts {
		bySeverity[string(a.HighestSeverity())]++
		for _, info := range a.Info {
			for _, cat := range info.Category {
				byCategory[cat]++
			}
		}
	}

	stats := models.Stats{
		TotalAlerts:  total,
		ActiveAlerts: active,
		BySeverity:   bySeverity,
		ByCategory:   byCategory,
	}
	if h.parserStats != nil {
		stats.Parser = h.parserStats.Snapshot()
	}
	if h.schedulerStats != nil {
		stats.Scheduler = h.schedulerStats.Snapshot()
	}

	rw.Stats(stats)
}

// TriggerFetch handles GET /cap-alerts/fetch?sourceId=…, a lightweight
// manual-refresh trigger sharing a code path with POST /cap-alerts/refresh.
func (h *Handler) TriggerFetch(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	sourceID := r.URL.Query().Get("sourceId")

	if err := h.scheduler.TriggerFetch(r.Context(), sourceID); err != nil {
		rw.InternalError(err)
		return
	}
	rw.Message("fetch triggered")
}

// Refresh handles POST /cap-alerts/refresh, the synchronous manual-refresh
// variant — same underlying call as TriggerFetch, echoing a stats snapshot
// on success.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	sourceID := r.URL.Query().Get("sourceId")

	if err := h.scheduler.TriggerFetch(r.Context(), sourceID); err != nil {
		rw.InternalError(err)
		return
	}

	var snap models.SchedulerStats
	if h.schedulerStats != nil {
		snap = h.schedulerStats.Snapshot()
	}
	rw.Stats(snap)
}

// ================================================================================
// Sources
// ================================================================================

// ListSources handles GET /cap-sources. Pass ?active=true to filter.
func (h *Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var (
		list []models.Source
		err  error
	)
	if r.URL.Query().Get("active") == "true" {
		list, err = h.registry.GetActive(r.Context())
	} else {
		list, err = h.registry.GetAll(r.Context())
	}
	if err != nil {
		rw.InternalError(err)
		return
	}
	rw.Sources(list)
}

// GetSource handles GET /cap-sources/{id}.
func (h *Handler) GetSource(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := chi.URLParam(r, "id")

	s, err := h.registry.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sources.ErrNotFound) {
			rw.NotFound(ErrSourceNotFound.Error())
			return
		}
		rw.InternalError(err)
		return
	}
	rw.Source(*s)
}

// CreateSource handles POST /cap-sources.
func (h *Handler) CreateSource(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req CreateSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("invalid request body")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr.Error())
		return
	}

	source := req.ToModel()
	if err := h.registry.Create(r.Context(), source); err != nil {
		if isDuplicateNameError(err) {
			rw.Conflict(ErrDuplicateSourceName.Error())
			return
		}
		rw.InternalError(err)
		return
	}

	if h.publisher != nil {
		h.publisher.PublishSourceNew(*source)
	}
	rw.SourceCreated(*source)
}

// UpdateSource handles PUT /cap-sources/{id}.
func (h *Handler) UpdateSource(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := chi.URLParam(r, "id")

	var req UpdateSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("invalid request body")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr.Error())
		return
	}

	existing, err := h.registry.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sources.ErrNotFound) {
			rw.NotFound(ErrSourceNotFound.Error())
			return
		}
		rw.InternalError(err)
		return
	}

	req.ApplyTo(existing)
	if err := h.registry.Update(r.Context(), existing); err != nil {
		if isDuplicateNameError(err) {
			rw.Conflict(ErrDuplicateSourceName.Error())
			return
		}
		rw.InternalError(err)
		return
	}

	if h.publisher != nil {
		h.publisher.PublishSourceUpdate(*existing)
	}
	rw.Source(*existing)
}

// DeleteSource handles DELETE /cap-sources/{id}.
func (h *Handler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := chi.URLParam(r, "id")

	existing, err := h.registry.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sources.ErrNotFound) {
			rw.NotFound(ErrSourceNotFound.Error())
			return
		}
		rw.InternalError(err)
		return
	}

	if err := h.registry.Delete(r.Context(), id); err != nil {
		if errors.Is(err, sources.ErrLastDefault) {
			rw.Conflict(ErrLastDefaultSource.Error())
			return
		}
		if errors.Is(err, sources.ErrNotFound) {
			rw.NotFound(ErrSourceNotFound.Error())
			return
		}
		rw.InternalError(err)
		return
	}

	if h.publisher != nil {
		h.publisher.PublishSourceDelete(*existing)
	}
	rw.Message("source deleted")
}

// defaultSeedSources is the fixed set seedDefaults inserts when the
// registry is empty.
var defaultSeedSources = []models.Source{
	{
		Name:                 "NWS All Alerts",
		FeedURL:              "https://alerts.weather.gov/cap/us.php?x=0",
		Country:              "US",
		Language:             "en-US",
		Active:               true,
		Default:              true,
		FetchIntervalSeconds: 120,
	},
	{
		Name:                 "Environment Canada Alerts",
		FeedURL:              "https://www.weather.gc.ca/rss/battleboard/on-33_e.xml",
		Country:              "CA",
		Language:             "en-CA",
		Active:               true,
		FetchIntervalSeconds: 300,
	},
}

// SeedDefaults handles POST /cap-sources/seed: inserts the fixed default
// source set only if the registry is currently empty.
func (h *Handler) SeedDefaults(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ctx := r.Context()

	existing, err := h.registry.GetAll(ctx)
	if err != nil {
		rw.InternalError(err)
		return
	}
	if len(existing) > 0 {
		rw.Message("sources already configured, nothing seeded")
		return
	}

	for i := range defaultSeedSources {
		s := defaultSeedSources[i]
		if err := h.registry.Create(ctx, &s); err != nil {
			rw.InternalError(err)
			return
		}
		if h.publisher != nil {
			h.publisher.PublishSourceNew(s)
		}
	}
	rw.Created("default sources seeded")
}

// ================================================================================
// Health
// ================================================================================

// HealthCheck handles GET /healthz: liveness plus a store round-trip for
// readiness.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		logging.Warn().Err(err).Msg("api: health check failed")
		rw.Error(http.StatusServiceUnavailable, "database unreachable")
		return
	}
	rw.Message("ok")
}

func isDuplicateNameError(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}
