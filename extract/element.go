// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"fmt"
)

// unnamedFallback is the display name for host records that carry
// none.
const unnamedFallback = "Unnamed"

// Elements extracts every record of one selector from the document.
// The full sequence is materialized — each record triggers guarded
// per-property host reads, so there is nothing to gain from laziness.
//
// Per-property failures (absent, type mismatch, host read error) yield
// a null value for that key; the record is still emitted. Only the
// kind-level enumeration failing is an error.
func Elements(doc Document, selector Selector) ([]Record, error) {
	handles, err := doc.Records(selector.Kind)
	if err != nil {
		return nil, fmt.Errorf("enumerating %q records: %w", selector.Kind, err)
	}

	records := make([]Record, 0, len(handles))
	for _, handle := range handles {
		records = append(records, elementRecord(handle, selector))
	}
	return records, nil
}

// elementRecord builds one canonical record from a host handle. Never
// fails: partial data is acceptable, a skipped record is not.
func elementRecord(handle Handle, selector Selector) Record {
	name := handle.Name()
	if name == "" {
		name = unnamedFallback
	}

	record := NewRecord(handle.ID(), name, selector.Category)

	for _, property := range selector.Properties {
		record.Properties = record.Properties.Set(property, readProperty(handle, property))
	}
	for _, property := range selector.Metadata {
		record.Metadata = record.Metadata.Set(property, readProperty(handle, property))
	}
	return record
}

// readProperty performs one guarded host read. Any failure — absent
// property, type the host cannot surface, read error — degrades to
// nil rather than aborting the record.
func readProperty(handle Handle, name string) any {
	value, err := handle.Property(name)
	if err != nil {
		return nil
	}
	return value
}
