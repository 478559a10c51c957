// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

// Package extract converts host-document records into the canonical
// element schema the backend understands.
//
// Two source kinds feed the same output: typed elements (walls, doors,
// windows, framing — enumerated by kind and read property-by-property)
// and tabular schedules (header row plus data rows). Both produce
// ordered sequences of Record. Extraction is deliberately forgiving at
// the per-property level: a missing parameter, a type the host cannot
// read, or a host-level read failure yields a null value for that key,
// never a dropped record. One malformed record must not block its
// siblings.
//
// The host application itself stays behind the Document interface.
// This package never touches host object-model types — a Document may
// be a live bridge into the host process or a snapshot file on disk.
package extract
