// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"encoding/json"
	"testing"
)

func TestFieldsSetAndGet(t *testing.T) {
	var fields Fields
	fields = fields.Set("Mark", "D-01")
	fields = fields.Set("Width", 0.9)
	fields = fields.Set("Mark", "D-02") // replace, not append

	if len(fields) != 2 {
		t.Fatalf("len = %d, want 2", len(fields))
	}
	value, ok := fields.Get("Mark")
	if !ok || value != "D-02" {
		t.Errorf("Get(Mark) = %v, %v; want D-02, true", value, ok)
	}
	if _, ok := fields.Get("Height"); ok {
		t.Error("Get(Height) reported present for absent key")
	}
}

func TestFieldsJSONPreservesOrder(t *testing.T) {
	var fields Fields
	fields = fields.Set("Zeta", "1")
	fields = fields.Set("Alpha", nil)
	fields = fields.Set("Mid", 3.5)

	encoded, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"Zeta":"1","Alpha":null,"Mid":3.5}`
	if string(encoded) != want {
		t.Errorf("Marshal = %s, want %s", encoded, want)
	}
}

func TestFieldsJSONRoundTrip(t *testing.T) {
	var fields Fields
	fields = fields.Set("Mark", "W-07")
	fields = fields.Set("Area", 12.25)
	fields = fields.Set("Count", int64(3))
	fields = fields.Set("Phase", nil)

	encoded, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded Fields
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if got, want := len(decoded), len(fields); got != want {
		t.Fatalf("decoded %d fields, want %d", got, want)
	}
	for i, field := range fields {
		if decoded[i].Key != field.Key {
			t.Errorf("key %d = %q, want %q", i, decoded[i].Key, field.Key)
		}
		if decoded[i].Value != field.Value {
			t.Errorf("value for %q = %v (%T), want %v (%T)",
				field.Key, decoded[i].Value, decoded[i].Value, field.Value, field.Value)
		}
	}
}

func TestNewRecordDefaults(t *testing.T) {
	record := NewRecord("12345", "Basic Door", "Doors")
	if record.Quantity != 1 {
		t.Errorf("Quantity = %v, want 1", record.Quantity)
	}
	if record.Unit != DefaultUnit {
		t.Errorf("Unit = %q, want %q", record.Unit, DefaultUnit)
	}
}

func TestRecordJSONFieldNames(t *testing.T) {
	record := NewRecord("88201", "W1", "Walls")
	record.Properties = record.Properties.Set("Length", 4.2)
	record.Metadata = record.Metadata.Set("Level", "Level 1")

	encoded, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var generic map[string]any
	if err := json.Unmarshal(encoded, &generic); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	// The wire names are the backend's, not this package's.
	for _, key := range []string{"revitId", "name", "category", "quantity", "unit", "properties", "bimMetadata"} {
		if _, ok := generic[key]; !ok {
			t.Errorf("encoded record missing %q: %s", key, encoded)
		}
	}
}
