// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DefaultUnit is the unit assigned to records whose source does not
// carry one. The backend treats it as "count of items".
const DefaultUnit = "Item"

// Record is the canonical, backend-agnostic representation of one
// extracted item — a typed building element or a schedule row.
type Record struct {
	// ExternalID is the stable identifier of the record in its source
	// (host element ID, or synthesized table#row for schedule rows).
	// Unique within one sync batch.
	ExternalID string `json:"revitId" cbor:"external_id"`

	// Name is the display name shown to users.
	Name string `json:"name" cbor:"name"`

	// Category is an enum-like label ("Doors", "Walls", ...). For
	// typed elements it is assigned by the selector that fetched the
	// record, not inferred from host metadata.
	Category string `json:"category" cbor:"category"`

	// Quantity defaults to 1 when the source has no quantity column.
	Quantity float64 `json:"quantity" cbor:"quantity"`

	// Unit defaults to DefaultUnit.
	Unit string `json:"unit" cbor:"unit"`

	// Properties holds source-schema values (parameter names or
	// schedule column headers). Keys vary per record; order follows
	// the source schema.
	Properties Fields `json:"properties" cbor:"properties"`

	// Metadata holds host bookkeeping values (level, phase) kept
	// separate from the element's own properties.
	Metadata Fields `json:"bimMetadata" cbor:"metadata"`
}

// NewRecord returns a Record with the quantity and unit defaults
// applied.
func NewRecord(externalID, name, category string) Record {
	return Record{
		ExternalID: externalID,
		Name:       name,
		Category:   category,
		Quantity:   1,
		Unit:       DefaultUnit,
	}
}

// Field is one key/value entry of an ordered mapping. Values are
// scalars (string, float64, int64, bool) or nil for an absent or
// unreadable source property.
type Field struct {
	Key   string `cbor:"key"`
	Value any    `cbor:"value"`
}

// Fields is an ordered string→scalar mapping. Order follows the source
// schema (parameter list or column headers), so it is preserved rather
// than sorted. Keys are unique; Set replaces in place.
type Fields []Field

// Get returns the value for key and whether the key is present.
func (f Fields) Get(key string) (any, bool) {
	for _, field := range f {
		if field.Key == key {
			return field.Value, true
		}
	}
	return nil, false
}

// Set replaces the value for key if present, otherwise appends a new
// entry, and returns the updated mapping.
func (f Fields) Set(key string, value any) Fields {
	for i, field := range f {
		if field.Key == key {
			f[i].Value = value
			return f
		}
	}
	return append(f, Field{Key: key, Value: value})
}

// Keys returns the keys in mapping order.
func (f Fields) Keys() []string {
	keys := make([]string, len(f))
	for i, field := range f {
		keys[i] = field.Key
	}
	return keys
}

// MarshalJSON encodes the mapping as a JSON object with keys in
// mapping order. The backend receives plain objects — the ordered
// representation is an implementation detail of this package.
func (f Fields) MarshalJSON() ([]byte, error) {
	var buffer bytes.Buffer
	buffer.WriteByte('{')
	for i, field := range f {
		if i > 0 {
			buffer.WriteByte(',')
		}
		key, err := json.Marshal(field.Key)
		if err != nil {
			return nil, err
		}
		buffer.Write(key)
		buffer.WriteByte(':')
		value, err := json.Marshal(field.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field.Key, err)
		}
		buffer.Write(value)
	}
	buffer.WriteByte('}')
	return buffer.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into the mapping. Go's map
// iteration would scramble key order, so the object is tokenized
// directly to preserve it.
func (f *Fields) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	token, err := decoder.Token()
	if err != nil {
		return err
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("fields: expected JSON object, got %v", token)
	}

	fields := Fields{}
	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			return err
		}
		key, ok := keyToken.(string)
		if !ok {
			return fmt.Errorf("fields: expected string key, got %v", keyToken)
		}

		var raw any
		if err := decoder.Decode(&raw); err != nil {
			return fmt.Errorf("fields: value for %q: %w", key, err)
		}
		fields = fields.Set(key, normalizeScalar(raw))
	}

	*f = fields
	return nil
}

// normalizeScalar converts json.Number values into int64 when they
// are integral, float64 otherwise. Non-numeric values pass through.
func normalizeScalar(value any) any {
	number, ok := value.(json.Number)
	if !ok {
		return value
	}
	if integer, err := number.Int64(); err == nil {
		return integer
	}
	if float, err := number.Float64(); err == nil {
		return float
	}
	return number.String()
}
