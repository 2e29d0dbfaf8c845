// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package geo

// orientation classifies the turn (p,q,r) makes: 0 collinear, 1 clockwise,
// 2 counter-clockwise. Standard cross-product orientation test.
func orientation(p, q, r Point) int {
	val := (q.Lat-p.Lat)*(r.Lon-q.Lon) - (q.Lon-p.Lon)*(r.Lat-q.Lat)
	switch {
	case val == 0:
		return 0
	case val > 0:
		return 1
	default:
		return 2
	}
}

// onSegment reports whether point q lies on segment p-r, given the three
// points are already known to be collinear.
func onSegment(p, q, r Point) bool {
	return q.Lon <= max(p.Lon, r.Lon) && q.Lon >= min(p.Lon, r.Lon) &&
		q.Lat <= max(p.Lat, r.Lat) && q.Lat >= min(p.Lat, r.Lat)
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// segmentsIntersect reports whether segment p1-q1 crosses segment p2-q2,
// including the collinear-overlap case.
func segmentsIntersect(p1, q1, p2, q2 Point) bool {
	o1 := orientation(p1, q1, p2)
	o2 := orientation(p1, q1, q2)
	o3 := orientation(p2, q2, p1)
	o4 := orientation(p2, q2, q1)

	if o1 != o2 && o3 != o4 {
		return true
	}

	if o1 == 0 && onSegment(p1, p2, q1) {
		return true
	}
	if o2 == 0 && onSegment(p1, q2, q1) {
		return true
	}
	if o3 == 0 && onSegment(p2, p1, q2) {
		return true
	}
	if o4 == 0 && onSegment(p2, q1, q2) {
		return true
	}
	return false
}

// selfIntersects reports whether any two non-adjacent edges of a closed
// ring cross. r must already be closed (first point == last point).
func selfIntersects(r Ring) bool {
	n := len(r) - 1 // number of edges in a closed ring of n+1 points
	if n < 3 {
		return true
	}
	for i := 0; i < n; i++ {
		a1, a2 := r[i], r[i+1]
		for j := i + 1; j < n; j++ {
			// Adjacent edges (including the wrap-around pair) share an
			// endpoint by construction and are never considered crossing.
			if j == i || j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			b1, b2 := r[j], r[j+1]
			if segmentsIntersect(a1, a2, b1, b2) {
				return true
			}
		}
	}
	return false
}

// reverseWinding returns a new ring with point order reversed, used as the
// repair attempt for a self-intersecting ring.
func reverseWinding(r Ring) Ring {
	out := make(Ring, len(r))
	for i, p := range r {
		out[len(r)-1-i] = p
	}
	return out
}

// validateOrRepair checks a ring for self-intersection; if invalid, it
// tries reversing winding order once. Returns the usable ring and true, or
// (nil, false) if both attempts fail.
func validateOrRepair(r Ring) (Ring, bool) {
	if !selfIntersects(r) {
		return r, true
	}
	reversed := reverseWinding(r)
	if !selfIntersects(reversed) {
		return reversed, true
	}
	return nil, false
}
