// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package extract

// Document is the boundary to the host application's object model.
// Implementations enumerate opaque record handles by kind and answer
// guarded per-property reads; the host's own types never cross this
// interface. snapshot.Snapshot implements Document over an exported
// model file.
type Document interface {
	// Kinds lists the record kinds the document can enumerate
	// (e.g. "wall", "door", "schedule").
	Kinds() []string

	// Records enumerates the handles of the given kind in document
	// order. An unknown kind is an error; an empty kind is an empty
	// slice.
	Records(kind string) ([]Handle, error)
}

// Handle is one opaque host record.
type Handle interface {
	// ID returns the host's stable identifier for the record.
	ID() string

	// Name returns the record's display name, or "" if the host has
	// none.
	Name() string

	// Property reads a named property. It returns (nil, nil) when the
	// property is absent, and an error when the host-level read itself
	// fails. Callers treat both the same way — the value becomes null.
	Property(name string) (any, error)
}
