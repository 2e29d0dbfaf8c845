// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package geo

import (
	"fmt"
	"strconv"
	"strings"
)

// Ring is a closed sequence of [lon,lat] points forming one polygon ring.
type Ring []Point

// ParsePolygon decodes a CAP polygon string — whitespace-separated
// "lat1,lon1 lat2,lon2 ... latN,lonN" pairs (some feeds space-separate lat
// and lon instead of comma-separating; both are accepted) — into a closed
// Ring. Points with non-finite or out-of-range coordinates are dropped.
// Returns an error if fewer than 3 unique points survive.
func ParsePolygon(s string) (Ring, error) {
	fields := tokenizeCoordPairs(s)

	points := make([]Point, 0, len(fields))
	for _, f := range fields {
		lat, lon, ok := parseLatLon(f.a, f.b)
		if !ok || !valid(lat, lon) {
			continue
		}
		points = append(points, Point{Lon: lon, Lat: lat})
	}

	points = dedupeConsecutive(points)
	if len(points) >= 2 && points[0].equal(points[len(points)-1]) {
		points = points[:len(points)-1]
	}

	if len(points) < 3 {
		return nil, fmt.Errorf("geo: polygon has %d usable points, need >= 3", len(points))
	}

	ring := Ring(points)
	ring = append(ring, ring[0]) // close the ring
	return ring, nil
}

// coordField is one whitespace/comma token pair before it's known which of
// the two tokens is latitude vs longitude convention.
type coordField struct{ a, b string }

// tokenizeCoordPairs splits a CAP polygon/point string into coordinate-pair
// tokens. CAP feeds either comma-join each pair ("lat,lon lat,lon ...") or
// space-separate every number ("lat lon lat lon ..."); both are accepted.
func tokenizeCoordPairs(s string) []coordField {
	fields := strings.Fields(s)
	var out []coordField

	if strings.Contains(s, ",") {
		for _, f := range fields {
			parts := strings.SplitN(f, ",", 2)
			if len(parts) == 2 {
				out = append(out, coordField{parts[0], parts[1]})
			}
		}
		return out
	}

	for i := 0; i+1 < len(fields); i += 2 {
		out = append(out, coordField{fields[i], fields[i+1]})
	}
	return out
}

// parseLatLon parses the "lat,lon"-order token pair CAP uses.
func parseLatLon(latStr, lonStr string) (lat, lon float64, ok bool) {
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// dedupeConsecutive drops consecutive duplicate points.
func dedupeConsecutive(points []Point) []Point {
	if len(points) == 0 {
		return points
	}
	out := points[:1]
	for _, p := range points[1:] {
		if !p.equal(out[len(out)-1]) {
			out = append(out, p)
		}
	}
	return out
}

// String re-serializes a ring to CAP polygon-string form ("lat,lon
// lat,lon ..."), used by round-trip tests.
func (r Ring) String() string {
	parts := make([]string, len(r))
	for i, p := range r {
		parts[i] = strconv.FormatFloat(p.Lat, 'g', -1, 64) + "," + strconv.FormatFloat(p.Lon, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

// coordinates returns the ring's points as GeoJSON-shaped [lon,lat] arrays.
func (r Ring) coordinates() [][]float64 {
	out := make([][]float64, len(r))
	for i, p := range r {
		out[i] = p.ToArray()
	}
	return out
}
