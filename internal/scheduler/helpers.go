// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package scheduler

import (
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/capalert/internal/models"
)

func newAlertID() string {
	return uuid.New().String()
}

func marshalGeoJSON(g *models.GeoJSON) (string, error) {
	b, err := json.Marshal(g)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
