// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package geo

import (
	"github.com/tomtom215/capalert/internal/models"
)

// NormalizeArea turns an area's raw polygon/circle strings into a
// models.GeoJSON, or nil if no candidate produces a valid ring. Each
// candidate is parsed and, if self-intersecting, winding-reversed once;
// candidates that still fail are dropped — callers are expected to log
// the per-candidate errs returned here and continue, never abort the
// enclosing alert.
func NormalizeArea(polygons, circles []string) (*models.GeoJSON, []error) {
	var rings []Ring
	var errs []error

	for _, p := range polygons {
		ring, err := ParsePolygon(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		repaired, ok := validateOrRepair(ring)
		if !ok {
			errs = append(errs, errSelfIntersecting(p))
			continue
		}
		rings = append(rings, repaired)
	}

	for _, c := range circles {
		ring, err := ParseCircle(c)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		repaired, ok := validateOrRepair(ring)
		if !ok {
			errs = append(errs, errSelfIntersecting(c))
			continue
		}
		rings = append(rings, repaired)
	}

	if len(rings) == 0 {
		return nil, errs
	}

	if len(rings) == 1 {
		return &models.GeoJSON{
			Type:        "Polygon",
			Coordinates: [][][]float64{rings[0].coordinates()},
		}, errs
	}

	coords := make([][][][]float64, len(rings))
	for i, r := range rings {
		coords[i] = [][][]float64{r.coordinates()}
	}
	return &models.GeoJSON{Type: "MultiPolygon", Coordinates: coords}, errs
}

type intersectionError struct{ raw string }

func (e intersectionError) Error() string {
	return "geo: ring from " + e.raw + " self-intersects and winding-reversal repair failed"
}

func errSelfIntersecting(raw string) error { return intersectionError{raw} }

// ContainsPoint reports whether pt lies within geojson (Polygon or
// MultiPolygon), using the standard ray-casting algorithm per ring. Used by
// the store's point-in-area lookup consistency checks and tests; the
// production findByPoint query itself runs in SQL against the spatial
// index (see internal/store).
func ContainsPoint(g *models.GeoJSON, pt Point) bool {
	if g == nil {
		return false
	}
	switch g.Type {
	case "Polygon":
		rings, ok := g.Coordinates.([][][]float64)
		if !ok {
			return false
		}
		return polygonContains(rings, pt)
	case "MultiPolygon":
		polys, ok := g.Coordinates.([][][][]float64)
		if !ok {
			return false
		}
		for _, rings := range polys {
			if polygonContains(rings, pt) {
				return true
			}
		}
	}
	return false
}

// polygonContains implements even-odd ray casting against the outer ring
// (rings[0]); CAP areas in this system never carry interior holes.
func polygonContains(rings [][][]float64, pt Point) bool {
	if len(rings) == 0 {
		return false
	}
	outer := rings[0]
	inside := false
	n := len(outer)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := outer[i][0], outer[i][1]
		xj, yj := outer[j][0], outer[j][1]
		if (yi > pt.Lat) != (yj > pt.Lat) &&
			pt.Lon < (xj-xi)*(pt.Lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
