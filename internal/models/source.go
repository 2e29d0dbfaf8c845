// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package models

import "time"

// MinFetchIntervalSeconds is the floor enforced on Source.FetchIntervalSeconds.
const MinFetchIntervalSeconds = 30

// Source is an upstream CAP feed publisher's configuration and counters.
type Source struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	FeedURL  string `json:"feedUrl"`
	Country  string `json:"country,omitempty"`
	Language string `json:"language,omitempty"`

	Active  bool `json:"active"`
	Default bool `json:"default"`

	FetchIntervalSeconds int `json:"fetchIntervalSeconds"`

	TotalFetches      int64 `json:"totalFetches"`
	SuccessfulFetches int64 `json:"successfulFetches"`
	FailedFetches     int64 `json:"failedFetches"`

	LastFetchedAt         *time.Time `json:"lastFetchedAt,omitempty"`
	LastSuccessfulFetchAt  *time.Time `json:"lastSuccessfulFetchAt,omitempty"`
	LastErrorMessage       string     `json:"lastErrorMessage,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NeedsFetching reports whether enough time has passed since the source's
// last fetch attempt to warrant another cycle.
func (s *Source) NeedsFetching(now time.Time) bool {
	if s.LastFetchedAt == nil {
		return true
	}
	interval := time.Duration(s.FetchIntervalSeconds) * time.Second
	return now.Sub(*s.LastFetchedAt) >= interval
}

// RecordFetchAttempt updates counters and timestamps for one fetch attempt.
// Called by the scheduler on every cycle exit, success or failure.
func (s *Source) RecordFetchAttempt(now time.Time, success bool, errMsg string) {
	s.TotalFetches++
	s.LastFetchedAt = &now
	if success {
		s.SuccessfulFetches++
		s.LastSuccessfulFetchAt = &now
		s.LastErrorMessage = ""
	} else {
		s.FailedFetches++
		s.LastErrorMessage = errMsg
	}
}
