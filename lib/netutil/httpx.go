// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides HTTP I/O helpers for bimsync.
//
// Response reads are bounded at MaxResponseSize so a misbehaving
// backend cannot exhaust memory with an unbounded body. The helpers
// are for JSON API responses, not streaming downloads.
package netutil

import (
	"io"
)

// MaxResponseSize is the bound on API response body reads: 64 MB.
// Element lists for large models run to a few megabytes; the limit is
// generous enough to never interfere with legitimate responses.
const MaxResponseSize int64 = 64 << 20

// ReadResponse reads an API response body up to MaxResponseSize bytes.
// Use instead of io.ReadAll when reading HTTP response bodies.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}
