// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package capfeed

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_RetriesOn5xx(t *testing.T) {
	t.Parallel()

	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := newClient()
	body, err := c.Fetch(t.Context(), "src-1", srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("body = %q, want %q", body, "ok")
	}
	if attempts < 2 {
		t.Errorf("attempts = %d, want >= 2 (retry on 5xx)", attempts)
	}
}

func TestClient_404ReturnsNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := newClient()
	_, err := c.Fetch(t.Context(), "src-1", srv.URL)
	if err == nil || !isNotFound(err) {
		t.Fatalf("Fetch() error = %v, want errNotFound", err)
	}
}

func TestClient_4xxDoesNotRetry(t *testing.T) {
	t.Parallel()

	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newClient()
	_, err := c.Fetch(t.Context(), "src-1", srv.URL)
	if err == nil {
		t.Fatal("Fetch() error = nil, want error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (4xx must not retry)", attempts)
	}
}
