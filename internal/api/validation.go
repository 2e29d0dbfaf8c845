// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package api

import (
	"github.com/tomtom215/capalert/internal/models"
	"github.com/tomtom215/capalert/internal/validation"
)

// CreateSourceRequest is the POST /cap-sources payload.
type CreateSourceRequest struct {
	Name                 string            `json:"name" validate:"required,min=1,max=255"`
	FeedURL              string            `json:"feedUrl" validate:"required,url"`
	Country              string            `json:"country" validate:"omitempty,max=64"`
	Language             string            `json:"language" validate:"omitempty,max=16"`
	Active               *bool             `json:"active"`
	Default              bool              `json:"default"`
	FetchIntervalSeconds int               `json:"fetchIntervalSeconds" validate:"omitempty,min=0"`
	Metadata             map[string]string `json:"metadata"`
}

// UpdateSourceRequest is the PUT /cap-sources/{id} payload. An update
// replaces every mutable field wholesale, mirroring
// internal/sources.Registry.Update's full-overwrite semantics, so an omitted
// field is written as its zero value. Only name and feedUrl are required.
type UpdateSourceRequest struct {
	Name                 string            `json:"name" validate:"required,min=1,max=255"`
	FeedURL              string            `json:"feedUrl" validate:"required,url"`
	Country              string            `json:"country" validate:"omitempty,max=64"`
	Language             string            `json:"language" validate:"omitempty,max=16"`
	Active               bool              `json:"active"`
	Default              bool              `json:"default"`
	FetchIntervalSeconds int               `json:"fetchIntervalSeconds" validate:"omitempty,min=0"`
	Metadata             map[string]string `json:"metadata"`
}

// ToModel builds a models.Source from a create request, leaving ID and
// timestamps for the registry to assign.
func (req *CreateSourceRequest) ToModel() *models.Source {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return &models.Source{
		Name:                 req.Name,
		FeedURL:              req.FeedURL,
		Country:              req.Country,
		Language:             req.Language,
		Active:               active,
		Default:              req.Default,
		FetchIntervalSeconds: req.FetchIntervalSeconds,
		Metadata:             req.Metadata,
	}
}

// ApplyTo overwrites the mutable fields of an existing source with the
// request's values, keeping ID/counters/timestamps untouched.
func (req *UpdateSourceRequest) ApplyTo(s *models.Source) {
	s.Name = req.Name
	s.FeedURL = req.FeedURL
	s.Country = req.Country
	s.Language = req.Language
	s.Active = req.Active
	s.Default = req.Default
	s.FetchIntervalSeconds = req.FetchIntervalSeconds
	s.Metadata = req.Metadata
}

// validSeverities enumerates the CAP severity levels findBySeverity accepts.
var validSeverities = map[models.Severity]bool{
	models.SeverityExtreme:  true,
	models.SeveritySevere:   true,
	models.SeverityModerate: true,
	models.SeverityMinor:    true,
	models.SeverityUnknown:  true,
}

func isValidSeverity(level string) bool {
	return validSeverities[models.Severity(level)]
}

func isValidLatLng(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
