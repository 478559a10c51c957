// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapshot stores exported host models as single files.
//
// Host documents live inside the BIM application; everything outside
// it works on snapshots. A snapshot freezes every record a selector
// set can reach — stable IDs, display names, ordered property values —
// so the sync CLI can extract and upload without the host present. The
// on-disk format is a small header (magic, version, compression tag)
// over a deterministic CBOR payload; see file.go.
//
// An opened Snapshot implements extract.Document, which makes it
// interchangeable with a live host document for every extraction path.
package snapshot

import (
	"fmt"
	"time"

	"github.com/baps-project/bimsync/extract"
)

// Snapshot is an exported host model.
type Snapshot struct {
	model       string
	createdAt   time.Time
	compression CompressionTag

	kinds []kindRecords
	index map[string]int
}

// kindRecords holds the captured records of one kind in document
// order.
type kindRecords struct {
	name    string
	records []capturedRecord
}

// capturedRecord is one frozen host record.
type capturedRecord struct {
	id         string
	name       string
	properties extract.Fields
}

// Capture exports a document into a snapshot. For each selector it
// enumerates the selector's kind and reads the union of the selector's
// property and metadata names on every handle. Unreadable properties
// freeze as null, the same degradation extraction applies.
//
// Selectors must not repeat a kind: a snapshot stores one record set
// per kind.
func Capture(model string, doc extract.Document, selectors []extract.Selector, now time.Time) (*Snapshot, error) {
	snap := &Snapshot{
		model:     model,
		createdAt: now,
		index:     make(map[string]int, len(selectors)),
	}

	for _, selector := range selectors {
		if _, exists := snap.index[selector.Kind]; exists {
			return nil, fmt.Errorf("snapshot: duplicate kind %q in selector set", selector.Kind)
		}

		handles, err := doc.Records(selector.Kind)
		if err != nil {
			return nil, fmt.Errorf("snapshot: enumerating %q records: %w", selector.Kind, err)
		}

		names := propertyUnion(selector)
		records := make([]capturedRecord, 0, len(handles))
		for _, handle := range handles {
			record := capturedRecord{
				id:   handle.ID(),
				name: handle.Name(),
			}
			for _, name := range names {
				value, err := handle.Property(name)
				if err != nil {
					value = nil
				}
				record.properties = record.properties.Set(name, value)
			}
			records = append(records, record)
		}

		snap.index[selector.Kind] = len(snap.kinds)
		snap.kinds = append(snap.kinds, kindRecords{name: selector.Kind, records: records})
	}

	return snap, nil
}

// propertyUnion merges a selector's property and metadata names,
// preserving order and dropping repeats.
func propertyUnion(selector extract.Selector) []string {
	seen := make(map[string]bool, len(selector.Properties)+len(selector.Metadata))
	union := make([]string, 0, len(selector.Properties)+len(selector.Metadata))
	for _, name := range selector.Properties {
		if !seen[name] {
			seen[name] = true
			union = append(union, name)
		}
	}
	for _, name := range selector.Metadata {
		if !seen[name] {
			seen[name] = true
			union = append(union, name)
		}
	}
	return union
}

// Model returns the host model name recorded at capture time.
func (s *Snapshot) Model() string { return s.model }

// CreatedAt returns the capture time.
func (s *Snapshot) CreatedAt() time.Time { return s.createdAt }

// Compression returns the payload compression of the file the
// snapshot was opened from, or the zero tag for a fresh capture.
func (s *Snapshot) Compression() CompressionTag { return s.compression }

// Kinds lists the captured kinds in capture order.
func (s *Snapshot) Kinds() []string {
	kinds := make([]string, len(s.kinds))
	for i, kind := range s.kinds {
		kinds[i] = kind.name
	}
	return kinds
}

// Count returns the number of captured records of one kind, or 0 for
// an unknown kind.
func (s *Snapshot) Count(kind string) int {
	i, ok := s.index[kind]
	if !ok {
		return 0
	}
	return len(s.kinds[i].records)
}

// Records enumerates the captured handles of the given kind in
// document order. An unknown kind is an error.
func (s *Snapshot) Records(kind string) ([]extract.Handle, error) {
	i, ok := s.index[kind]
	if !ok {
		return nil, fmt.Errorf("snapshot: unknown kind %q", kind)
	}

	handles := make([]extract.Handle, len(s.kinds[i].records))
	for j := range s.kinds[i].records {
		handles[j] = snapHandle{record: &s.kinds[i].records[j]}
	}
	return handles, nil
}

// snapHandle adapts one captured record to extract.Handle.
type snapHandle struct {
	record *capturedRecord
}

func (h snapHandle) ID() string   { return h.record.id }
func (h snapHandle) Name() string { return h.record.name }

// Property reads a frozen property value. A name the capture never
// read is absent, reported as (nil, nil) like a live host would.
func (h snapHandle) Property(name string) (any, error) {
	value, _ := h.record.properties.Get(name)
	return value, nil
}
