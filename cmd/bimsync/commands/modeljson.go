// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/baps-project/bimsync/cmd/bimsync/cli"
	"github.com/baps-project/bimsync/extract"
	"github.com/baps-project/bimsync/snapshot"
)

// modelDocument is an extract.Document over a plain JSON model export,
// the format host-side plugins dump when they cannot write snapshot
// files themselves:
//
//	{
//	  "model": "Office Tower",
//	  "kinds": {
//	    "wall": [
//	      {"id": "100", "name": "Wall A", "properties": {"Mark": "W-01"}}
//	    ]
//	  }
//	}
//
// JSONC comments and trailing commas are accepted. Kind order follows
// the sorted kind names, since JSON objects carry none.
type modelDocument struct {
	model   string
	kinds   []string
	records map[string][]modelHandle
}

type modelHandle struct {
	id, name   string
	properties map[string]any
}

func (h modelHandle) ID() string   { return h.id }
func (h modelHandle) Name() string { return h.name }

func (h modelHandle) Property(name string) (any, error) {
	value, ok := h.properties[name]
	if !ok {
		return nil, nil
	}
	return value, nil
}

func (d *modelDocument) Kinds() []string { return d.kinds }

func (d *modelDocument) Records(kind string) ([]extract.Handle, error) {
	handles, ok := d.records[kind]
	if !ok {
		return nil, fmt.Errorf("model has no kind %q", kind)
	}
	result := make([]extract.Handle, len(handles))
	for i := range handles {
		result[i] = handles[i]
	}
	return result, nil
}

// loadModelJSON parses a JSON model export.
func loadModelJSON(path string) (*modelDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model %s: %w", path, err)
	}

	var file struct {
		Model string `json:"model"`
		Kinds map[string][]struct {
			ID         string         `json:"id"`
			Name       string         `json:"name"`
			Properties map[string]any `json:"properties"`
		} `json:"kinds"`
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), &file); err != nil {
		return nil, fmt.Errorf("parsing model %s: %w", path, err)
	}
	if len(file.Kinds) == 0 {
		return nil, fmt.Errorf("model %s: no kinds", path)
	}

	doc := &modelDocument{
		model:   file.Model,
		records: make(map[string][]modelHandle, len(file.Kinds)),
	}
	for kind, entries := range file.Kinds {
		handles := make([]modelHandle, len(entries))
		for i, entry := range entries {
			if entry.ID == "" {
				return nil, fmt.Errorf("model %s: kind %q record %d has no id", path, kind, i)
			}
			handles[i] = modelHandle{id: entry.ID, name: entry.Name, properties: entry.Properties}
		}
		doc.kinds = append(doc.kinds, kind)
		doc.records[kind] = handles
	}
	sort.Strings(doc.kinds)
	return doc, nil
}

// modelSelectors derives one selector per kind from a JSON model: the
// property list is the union of keys across the kind's records, in
// sorted order. Used by snapshot import, where everything present
// should be frozen.
func modelSelectors(doc *modelDocument) []extract.Selector {
	selectors := make([]extract.Selector, 0, len(doc.kinds))
	for _, kind := range doc.kinds {
		keys := make(map[string]bool)
		for _, handle := range doc.records[kind] {
			for key := range handle.properties {
				keys[key] = true
			}
		}
		properties := make([]string, 0, len(keys))
		for key := range keys {
			properties = append(properties, key)
		}
		sort.Strings(properties)

		selectors = append(selectors, extract.Selector{
			Name:       kind,
			Kind:       kind,
			Category:   kind,
			Properties: properties,
		})
	}
	return selectors
}

// openDocument opens a model file as an extract.Document: .bsnp files
// as snapshots, .json/.jsonc files as plain model exports.
func openDocument(path string) (extract.Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bsnp":
		return snapshot.Open(path)
	case ".json", ".jsonc":
		return loadModelJSON(path)
	default:
		return nil, cli.Validation("unsupported model file %s (expected .bsnp, .json, or .jsonc)", path)
	}
}
