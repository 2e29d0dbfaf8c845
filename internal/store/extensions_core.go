// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
extensions_core.go - Core Extension Installation Logic

Table-driven installer for DuckDB core extensions, shared by every
extension this store loads (spatial, icu, json, inet). Each follows the
same fallback cascade: INSTALL, then LOAD (already installed), then FORCE
INSTALL; optional extensions degrade to "unavailable" instead of failing
startup.
*/

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/capalert/internal/logging"
)

// extensionContext returns a context with timeout for extension operations.
func extensionContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// extensionSpec defines the specification for installing a DuckDB extension.
type extensionSpec struct {
	Name                string
	VerifyQuery         string
	VerifyResultHandler func(interface{}) bool
	AvailabilityField   func(*DB) *bool
	WarningMessage      string
}

// installCoreExtension installs a core extension using the standard
// INSTALL -> LOAD -> FORCE INSTALL pattern, with retry on the network
// steps to absorb transient download failures.
func (db *DB) installCoreExtension(spec *extensionSpec, optional bool) error {
	if isExtensionInstalledLocally(spec.Name) {
		logging.Debug().Str("extension", spec.Name).Msg("Extension found locally, skipping download")
	}

	var installErr error

	if err := db.execWithRetry(fmt.Sprintf("INSTALL %s;", spec.Name), defaultRetryConfig); err != nil {
		installErr = err
		if loadErr := db.execWithHardTimeout(fmt.Sprintf("LOAD %s;", spec.Name)); loadErr != nil {
			if forceErr := db.execWithRetry(fmt.Sprintf("FORCE INSTALL %s;", spec.Name), defaultRetryConfig); forceErr != nil {
				if optional {
					db.setExtensionUnavailable(spec)
					return nil
				}
				return fmt.Errorf("failed to install %s extension after retries: install error: %w, load error: %w, force install error: %w",
					spec.Name, installErr, loadErr, forceErr)
			}
		} else {
			if spec.VerifyQuery != "" {
				ctx, cancel := extensionContext()
				defer cancel()
				return db.verifyExtension(ctx, spec, optional)
			}
			db.setExtensionAvailable(spec)
			return nil
		}
	}

	if err := db.execWithHardTimeout(fmt.Sprintf("LOAD %s;", spec.Name)); err != nil {
		if optional {
			db.setExtensionUnavailable(spec)
			logging.Warn().Str("extension", spec.Name).Err(err).Msg("Failed to load extension")
			return nil
		}
		return fmt.Errorf("failed to load %s extension: %w", spec.Name, err)
	}

	if spec.VerifyQuery != "" {
		ctx, cancel := extensionContext()
		defer cancel()
		return db.verifyExtension(ctx, spec, optional)
	}

	db.setExtensionAvailable(spec)
	return nil
}

func (db *DB) setExtensionUnavailable(spec *extensionSpec) {
	if field := spec.AvailabilityField; field != nil {
		*field(db) = false
	}
	if spec.WarningMessage != "" {
		logging.Warn().Str("extension", spec.Name).Msg(spec.WarningMessage)
	}
}

func (db *DB) setExtensionAvailable(spec *extensionSpec) {
	if field := spec.AvailabilityField; field != nil {
		*field(db) = true
	}
}

// verifyExtension runs spec.VerifyQuery with a hard timeout, since CGO
// calls into DuckDB don't respect context cancellation.
func (db *DB) verifyExtension(_ context.Context, spec *extensionSpec, optional bool) error {
	result, err := db.queryRowWithHardTimeout(spec.VerifyQuery)
	if err != nil {
		if optional {
			db.setExtensionUnavailable(spec)
			logging.Warn().Str("extension", spec.Name).Err(err).Msg("Extension functions unavailable")
			return nil
		}
		return fmt.Errorf("%s extension loaded but functions unavailable: %w", spec.Name, err)
	}

	if spec.VerifyResultHandler != nil && !spec.VerifyResultHandler(result) {
		if optional {
			db.setExtensionUnavailable(spec)
			logging.Warn().Str("extension", spec.Name).Msg("Extension verification failed")
			return nil
		}
		return fmt.Errorf("%s extension verification failed", spec.Name)
	}

	db.setExtensionAvailable(spec)
	return nil
}
