// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/baps-project/bimsync/extract"
)

// LoadSelectors reads a selector definition file. The format is JSONC
// (JSON with comments and trailing commas) holding a list of selector
// objects, so the file can document why a category or property is
// extracted. An empty path returns the built-in selector set.
func LoadSelectors(path string) ([]extract.Selector, error) {
	if path == "" {
		return extract.DefaultSelectors(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading selectors %s: %w", path, err)
	}

	stripped := jsonc.ToJSON(data)

	var selectors []extract.Selector
	if err := json.Unmarshal(stripped, &selectors); err != nil {
		return nil, fmt.Errorf("parsing selectors %s: %w", path, err)
	}
	if len(selectors) == 0 {
		return nil, fmt.Errorf("selectors %s: no selectors defined", path)
	}

	seen := make(map[string]bool, len(selectors))
	for i, sel := range selectors {
		if sel.Name == "" {
			return nil, fmt.Errorf("selectors %s: selector %d has no name", path, i)
		}
		if sel.Category == "" {
			return nil, fmt.Errorf("selectors %s: selector %q has no category", path, sel.Name)
		}
		if seen[sel.Name] {
			return nil, fmt.Errorf("selectors %s: duplicate selector %q", path, sel.Name)
		}
		seen[sel.Name] = true
	}
	return selectors, nil
}
