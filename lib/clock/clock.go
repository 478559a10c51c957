// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts wall-clock reads for testability. Production
// code injects Real(); tests inject a Fake with deterministic time
// control. Session validity is defined as a window relative to "now",
// so every validity check must go through an injected Clock rather
// than calling time.Now directly.
package clock

import "time"

// Clock provides the current time.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// Real returns a Clock backed by the system clock.
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
