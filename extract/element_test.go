// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"errors"
	"testing"
)

// fakeDocument implements Document over in-memory handles.
type fakeDocument struct {
	records map[string][]Handle
}

func (d *fakeDocument) Kinds() []string {
	kinds := make([]string, 0, len(d.records))
	for kind := range d.records {
		kinds = append(kinds, kind)
	}
	return kinds
}

func (d *fakeDocument) Records(kind string) ([]Handle, error) {
	handles, ok := d.records[kind]
	if !ok {
		return nil, errors.New("unknown kind: " + kind)
	}
	return handles, nil
}

// fakeHandle is one in-memory host record. Properties in failures
// return an error from Property, simulating a host-level read fault.
type fakeHandle struct {
	id         string
	name       string
	properties map[string]any
	failures   map[string]bool
}

func (h *fakeHandle) ID() string   { return h.id }
func (h *fakeHandle) Name() string { return h.name }

func (h *fakeHandle) Property(name string) (any, error) {
	if h.failures[name] {
		return nil, errors.New("read failed")
	}
	value, ok := h.properties[name]
	if !ok {
		return nil, nil
	}
	return value, nil
}

func doorSelector() Selector {
	return Selector{
		Name:       "doors",
		Kind:       "door",
		Category:   "Doors",
		Properties: []string{"Mark", "Width", "Height"},
		Metadata:   []string{"Level"},
	}
}

func TestElements(t *testing.T) {
	doc := &fakeDocument{records: map[string][]Handle{
		"door": {
			&fakeHandle{id: "1001", name: "Single Door", properties: map[string]any{
				"Mark": "D-01", "Width": 0.9, "Height": 2.1, "Level": "Level 1",
			}},
			&fakeHandle{id: "1002", name: "Double Door", properties: map[string]any{
				"Mark": "D-02", "Width": 1.8, "Height": 2.1, "Level": "Level 2",
			}},
		},
	}}

	records, err := Elements(doc, doorSelector())
	if err != nil {
		t.Fatalf("Elements: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	first := records[0]
	if first.ExternalID != "1001" || first.Category != "Doors" {
		t.Errorf("first record = %+v", first)
	}
	if first.Quantity != 1 || first.Unit != DefaultUnit {
		t.Errorf("defaults not applied: quantity=%v unit=%q", first.Quantity, first.Unit)
	}
	width, ok := first.Properties.Get("Width")
	if !ok || width != 0.9 {
		t.Errorf("Width = %v, %v", width, ok)
	}
	level, ok := first.Metadata.Get("Level")
	if !ok || level != "Level 1" {
		t.Errorf("Level = %v, %v", level, ok)
	}
}

func TestElementsPropertyFaultYieldsNull(t *testing.T) {
	// One handle where a read throws and one where the property is
	// absent: both records still appear, with the affected property
	// null. Extraction count is unaffected by per-property failures.
	doc := &fakeDocument{records: map[string][]Handle{
		"door": {
			&fakeHandle{
				id:         "2001",
				name:       "Broken Door",
				properties: map[string]any{"Mark": "D-09"},
				failures:   map[string]bool{"Width": true},
			},
			&fakeHandle{id: "2002", name: "Bare Door", properties: map[string]any{}},
		},
	}}

	records, err := Elements(doc, doorSelector())
	if err != nil {
		t.Fatalf("Elements: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	width, ok := records[0].Properties.Get("Width")
	if !ok {
		t.Fatal("faulted property key missing from record")
	}
	if width != nil {
		t.Errorf("faulted property = %v, want nil", width)
	}

	for _, property := range []string{"Mark", "Width", "Height"} {
		value, ok := records[1].Properties.Get(property)
		if !ok {
			t.Errorf("absent property %q missing from record", property)
		}
		if value != nil {
			t.Errorf("absent property %q = %v, want nil", property, value)
		}
	}
}

func TestElementsUnnamedFallback(t *testing.T) {
	doc := &fakeDocument{records: map[string][]Handle{
		"door": {&fakeHandle{id: "3001", name: ""}},
	}}

	records, err := Elements(doc, doorSelector())
	if err != nil {
		t.Fatalf("Elements: %v", err)
	}
	if records[0].Name != "Unnamed" {
		t.Errorf("Name = %q, want Unnamed", records[0].Name)
	}
}

func TestElementsUnknownKind(t *testing.T) {
	doc := &fakeDocument{records: map[string][]Handle{}}
	if _, err := Elements(doc, doorSelector()); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
