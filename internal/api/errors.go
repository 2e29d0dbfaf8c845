// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package api

import "errors"

// Sentinel errors surfaced by handlers as error-envelope messages.
var (
	ErrSourceNotFound     = errors.New("source not found")
	ErrAlertNotFound      = errors.New("alert not found")
	ErrLastDefaultSource  = errors.New("cannot delete the only default source")
	ErrDuplicateSourceName = errors.New("a source with this name already exists")
)
