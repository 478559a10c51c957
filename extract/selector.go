// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package extract

// Selector describes one typed-element extraction pass: which host
// kind to enumerate, the category label to stamp on every record, and
// which properties to read. The category comes from the selector by
// construction — all records obtained via the "doors" selector are
// tagged "Doors" regardless of what the host says.
type Selector struct {
	// Name identifies the selector in configuration and CLI flags
	// (e.g. "doors").
	Name string `json:"name"`

	// Kind is the host record kind passed to Document.Records.
	Kind string `json:"kind"`

	// Category is the canonical category label for extracted records.
	Category string `json:"category"`

	// Properties are the parameter names read into Record.Properties,
	// in order.
	Properties []string `json:"properties"`

	// Metadata are the parameter names read into Record.Metadata,
	// in order.
	Metadata []string `json:"metadata"`
}

// DefaultSelectors mirrors the extraction passes of the original
// host-side extractor: common parameters plus per-category extras.
func DefaultSelectors() []Selector {
	common := []string{"Mark", "Comments", "Type"}
	metadata := []string{"Level", "Phase Created"}

	return []Selector{
		{
			Name:       "walls",
			Kind:       "wall",
			Category:   "Walls",
			Properties: append(append([]string{}, common...), "Unconnected Height", "Length", "Area", "Volume"),
			Metadata:   metadata,
		},
		{
			Name:       "doors",
			Kind:       "door",
			Category:   "Doors",
			Properties: append(append([]string{}, common...), "Width", "Height"),
			Metadata:   metadata,
		},
		{
			Name:       "windows",
			Kind:       "window",
			Category:   "Windows",
			Properties: append(append([]string{}, common...), "Width", "Height"),
			Metadata:   metadata,
		},
		{
			Name:       "structural",
			Kind:       "structural-framing",
			Category:   "Structural Framing",
			Properties: append(append([]string{}, common...), "Length", "Structural Material"),
			Metadata:   metadata,
		},
	}
}
