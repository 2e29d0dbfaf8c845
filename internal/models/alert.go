// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package models defines the canonical domain types for the CAP alert
// pipeline: Alert, Source, and their CAP-defined enumerations. These are
// plain records with a few small helper methods (expiry, severity and
// activity checks on Alert, fetch bookkeeping on Source); geometry
// normalization lives in internal/geo, and no storage-engine details
// appear in the domain model.
package models

import "time"

// Status is the CAP alert message status.
type Status string

// CAP-defined status values.
const (
	StatusActual   Status = "Actual"
	StatusExercise Status = "Exercise"
	StatusSystem   Status = "System"
	StatusTest     Status = "Test"
	StatusDraft    Status = "Draft"
)

// MsgType is the CAP alert message type.
type MsgType string

// CAP-defined message types.
const (
	MsgTypeAlert  MsgType = "Alert"
	MsgTypeUpdate MsgType = "Update"
	MsgTypeCancel MsgType = "Cancel"
	MsgTypeAck    MsgType = "Ack"
	MsgTypeError  MsgType = "Error"
)

// Scope is the CAP alert audience scope.
type Scope string

// CAP-defined scope values.
const (
	ScopePublic     Scope = "Public"
	ScopeRestricted Scope = "Restricted"
	ScopePrivate    Scope = "Private"
)

// Urgency is the CAP info urgency.
type Urgency string

// CAP-defined urgency values.
const (
	UrgencyImmediate Urgency = "Immediate"
	UrgencyExpected  Urgency = "Expected"
	UrgencyFuture    Urgency = "Future"
	UrgencyPast      Urgency = "Past"
	UrgencyUnknown   Urgency = "Unknown"
)

// Severity is the CAP info severity.
type Severity string

// CAP-defined severity values, ordered most to least severe for sorting.
const (
	SeverityExtreme  Severity = "Extreme"
	SeveritySevere   Severity = "Severe"
	SeverityModerate Severity = "Moderate"
	SeverityMinor    Severity = "Minor"
	SeverityUnknown  Severity = "Unknown"
)

// severityRank gives the severity sort order used by Rank and
// HighestSeverity; Store.FindActive's SQL orders by the same ranking.
// Lower rank sorts first.
var severityRank = map[Severity]int{
	SeverityExtreme:  0,
	SeveritySevere:   1,
	SeverityModerate: 2,
	SeverityMinor:    3,
	SeverityUnknown:  4,
}

// Rank returns the sort priority of a severity level; unrecognized values
// sort last, alongside Unknown.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}

// Certainty is the CAP info certainty.
type Certainty string

// CAP-defined certainty values.
const (
	CertaintyObserved Certainty = "Observed"
	CertaintyLikely   Certainty = "Likely"
	CertaintyPossible Certainty = "Possible"
	CertaintyUnlikely Certainty = "Unlikely"
	CertaintyUnknown  Certainty = "Unknown"
)

// GeoJSON is a minimal GeoJSON Polygon/MultiPolygon geometry object, in
// [lon, lat] coordinate order per RFC 7946. Absent (nil) until C1
// normalization succeeds for an area.
type GeoJSON struct {
	// Type is "Polygon" or "MultiPolygon".
	Type string `json:"type"`

	// Coordinates holds ring data. For Polygon: [][]("[lon,lat]" pairs).
	// For MultiPolygon: [][][]("[lon,lat]" pairs). Represented generically
	// since the two shapes differ in nesting depth.
	Coordinates interface{} `json:"coordinates"`
}

// Area is one CAP <area> block within an Info segment.
type Area struct {
	AreaDesc string   `json:"areaDesc"`
	Polygon  []string `json:"polygon,omitempty"`
	Circle   []string `json:"circle,omitempty"`
	Geocode  []string `json:"geocode,omitempty"`
	Altitude *float64 `json:"altitude,omitempty"`
	Ceiling  *float64 `json:"ceiling,omitempty"`

	// GeoJSON is populated by internal/geo; absent if normalization failed
	// for every polygon/circle candidate in this area.
	GeoJSON *GeoJSON `json:"geoJson,omitempty"`
}

// Info is one CAP <info> block within an Alert.
type Info struct {
	Language     string    `json:"language,omitempty"`
	Category     []string  `json:"category"`
	Event        string    `json:"event"`
	ResponseType []string  `json:"responseType,omitempty"`
	Urgency      Urgency   `json:"urgency"`
	Severity     Severity  `json:"severity"`
	Certainty    Certainty `json:"certainty"`

	Effective time.Time  `json:"effective"`
	Onset     *time.Time `json:"onset,omitempty"`
	Expires   time.Time  `json:"expires"`

	SenderName  string `json:"senderName"`
	Headline    string `json:"headline,omitempty"`
	Description string `json:"description,omitempty"`
	Instruction string `json:"instruction,omitempty"`
	Web         string `json:"web,omitempty"`
	Contact     string `json:"contact,omitempty"`

	Parameter []Parameter `json:"parameter,omitempty"`
	Area      []Area      `json:"area"`
}

// Parameter is a free-form CAP <parameter> name/value pair.
type Parameter struct {
	ValueName string `json:"valueName"`
	Value     string `json:"value"`
}

// Alert is the canonical persisted alert record. Identity is
// (SourceID, Identifier).
type Alert struct {
	ID         string `json:"id"`
	SourceID   string `json:"sourceId"`
	Identifier string `json:"identifier"`

	Sender  string  `json:"sender"`
	Sent    time.Time `json:"sent"`
	Status  Status  `json:"status"`
	MsgType MsgType `json:"msgType"`
	Scope   Scope   `json:"scope"`

	Code       []string `json:"code,omitempty"`
	Note       string   `json:"note,omitempty"`
	References string   `json:"references,omitempty"`
	Incidents  string   `json:"incidents,omitempty"`

	Info []Info `json:"info"`

	FetchedAt time.Time `json:"fetchedAt"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LatestExpiry returns the latest Expires timestamp across all Info blocks,
// or the zero time if there are none. Used by active-bit computation and
// by the janitor's retention cutoff check.
func (a *Alert) LatestExpiry() time.Time {
	var latest time.Time
	for _, info := range a.Info {
		if info.Expires.After(latest) {
			latest = info.Expires
		}
	}
	return latest
}

// HighestSeverity returns the most severe Severity across all Info blocks,
// or SeverityUnknown if there are none. Used for findActive's sort order.
func (a *Alert) HighestSeverity() Severity {
	best := SeverityUnknown
	bestRank := best.Rank()
	for _, info := range a.Info {
		if r := info.Severity.Rank(); r < bestRank {
			best = info.Severity
			bestRank = r
		}
	}
	return best
}

// IsActiveAt reports whether at least one Info block's Expires is after
// the given instant — the definition of "active".
func (a *Alert) IsActiveAt(now time.Time) bool {
	for _, info := range a.Info {
		if info.Expires.After(now) {
			return true
		}
	}
	return false
}
