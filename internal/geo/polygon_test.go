// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package geo

import "testing"

func TestParsePolygon_HappyPath(t *testing.T) {
	t.Parallel()

	ring, err := ParsePolygon("10,20 10,30 20,30 20,20")
	if err != nil {
		t.Fatalf("ParsePolygon() error = %v", err)
	}

	want := Ring{
		{Lon: 20, Lat: 10},
		{Lon: 30, Lat: 10},
		{Lon: 30, Lat: 20},
		{Lon: 20, Lat: 20},
		{Lon: 20, Lat: 10},
	}
	if len(ring) != len(want) {
		t.Fatalf("ring length = %d, want %d", len(ring), len(want))
	}
	for i, p := range ring {
		if p != want[i] {
			t.Errorf("ring[%d] = %+v, want %+v", i, p, want[i])
		}
	}
}

func TestContainsPoint_PolygonInteriorAndExterior(t *testing.T) {
	t.Parallel()

	g, errs := NormalizeArea([]string{"10,20 10,30 20,30 20,20"}, nil)
	if g == nil {
		t.Fatalf("NormalizeArea() = nil, errs=%v", errs)
	}
	if g.Type != "Polygon" {
		t.Fatalf("Type = %q, want Polygon", g.Type)
	}

	if !ContainsPoint(g, Point{Lon: 25, Lat: 15}) {
		t.Error("ContainsPoint() = false for a point inside the square, want true")
	}
	if ContainsPoint(g, Point{Lon: 40, Lat: 15}) {
		t.Error("ContainsPoint() = true for a point outside the square, want false")
	}
}

func TestParsePolygon_SpaceSeparated(t *testing.T) {
	t.Parallel()

	ring, err := ParsePolygon("10 20 10 30 20 30 20 20")
	if err != nil {
		t.Fatalf("ParsePolygon() error = %v", err)
	}
	if len(ring) != 5 {
		t.Fatalf("ring length = %d, want 5 (closed)", len(ring))
	}
}

func TestParsePolygon_DropsInvalidPoints(t *testing.T) {
	t.Parallel()

	ring, err := ParsePolygon("10,20 999,999 10,30 20,30 20,20")
	if err != nil {
		t.Fatalf("ParsePolygon() error = %v", err)
	}
	if len(ring) != 5 {
		t.Fatalf("ring length = %d, want 5 after dropping the out-of-range point", len(ring))
	}
}

func TestParsePolygon_TooFewPoints(t *testing.T) {
	t.Parallel()

	if _, err := ParsePolygon("10,20 10,30"); err == nil {
		t.Fatal("ParsePolygon() want error for < 3 unique points, got nil")
	}
}

func TestParsePolygon_SelfIntersectingBowtie(t *testing.T) {
	t.Parallel()

	// bowtie "0,0 0,10 10,0 10,10"
	ring, err := ParsePolygon("0,0 0,10 10,0 10,10")
	if err != nil {
		t.Fatalf("ParsePolygon() error = %v", err)
	}
	repaired, ok := validateOrRepair(ring)
	if ok {
		t.Fatalf("validateOrRepair() = %v, true; want repair to fail for an unrepairable bowtie", repaired)
	}
}

func TestRing_RoundTrip(t *testing.T) {
	t.Parallel()

	original := "10,20 10,30 20,30 20,20"
	ring, err := ParsePolygon(original)
	if err != nil {
		t.Fatalf("ParsePolygon() error = %v", err)
	}

	// Round trip modulo closure: re-parsing the re-serialized ring yields
	// the same vertex set.
	reparsed, err := ParsePolygon(ring.String())
	if err != nil {
		t.Fatalf("ParsePolygon(ring.String()) error = %v", err)
	}
	if len(reparsed) != len(ring) {
		t.Fatalf("reparsed length = %d, want %d", len(reparsed), len(ring))
	}
}

func FuzzParsePolygon(f *testing.F) {
	f.Add("10,20 10,30 20,30 20,20")
	f.Add("0,0 0,10 10,0 10,10")
	f.Add("not,a,polygon")
	f.Add("")

	f.Fuzz(func(t *testing.T, s string) {
		// Must never panic regardless of input.
		ring, err := ParsePolygon(s)
		if err == nil && len(ring) < 4 {
			t.Errorf("ParsePolygon(%q) returned a ring with %d points and no error", s, len(ring))
		}
	})
}
