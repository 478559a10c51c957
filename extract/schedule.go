// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"fmt"
	"strings"
)

// ScheduleTable is a headers+rows tabular extract from a host
// document's schedule view. Headers are unique within a table; row
// width ties to header width at extraction time, with missing cells
// represented as "".
type ScheduleTable struct {
	// Name is the schedule's title in the host document.
	Name string `json:"schedule_name" cbor:"name"`

	// Headers are the column names, in column order.
	Headers []string `json:"headers" cbor:"headers"`

	// Rows are the data rows (the header row is not included).
	Rows [][]string `json:"data" cbor:"rows"`
}

// Records converts the table into canonical records, one per data row,
// with properties[header[i]] = row[i]. An empty table (no data rows)
// yields zero records, not an error.
//
// Short rows are padded: a row narrower than the header set still gets
// every header key, with "" for the missing cells. This matches the
// original system's row-to-dict conversion and keeps the property
// schema uniform across one table's records.
func (t ScheduleTable) Records() []Record {
	if len(t.Rows) == 0 || len(t.Headers) == 0 {
		return nil
	}

	records := make([]Record, 0, len(t.Rows))
	for rowIndex, row := range t.Rows {
		record := NewRecord(t.rowID(rowIndex), t.rowName(row), t.Name)
		for columnIndex, header := range t.Headers {
			cell := ""
			if columnIndex < len(row) {
				cell = row[columnIndex]
			}
			record.Properties = record.Properties.Set(header, cell)
		}
		records = append(records, record)
	}
	return records
}

// rowID synthesizes a stable per-row identifier. Schedule rows have no
// host element ID, so the table name plus the 1-based row position
// stands in; it is unique within the batch as long as each table is
// extracted once.
func (t ScheduleTable) rowID(rowIndex int) string {
	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(t.Name), " ", "-"))
	return fmt.Sprintf("%s#%d", slug, rowIndex+1)
}

// rowName uses the first non-empty cell as the display name.
func (t ScheduleTable) rowName(row []string) string {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return cell
		}
	}
	return unnamedFallback
}
