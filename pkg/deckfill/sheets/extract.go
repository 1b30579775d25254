// Package sheets reads spreadsheet inputs into ordered row datasets.
package sheets

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"deckfill/pkg/deckfill/mapping"
	"deckfill/pkg/deckfill/models"
)

// ExtractDataset reads the rows a target needs from one input file.
// fields is the set of header names the target's columns reference; any
// missing header is a schema mismatch, reported rather than skipped.
// The returned dataset is fully materialized, aggregated and capped.
func ExtractDataset(path string, src mapping.SourceSpec, fields []string) (models.Dataset, error) {
	rows, err := readRows(path, src.Sheet)
	if err != nil {
		return models.Dataset{}, err
	}

	base := filepath.Base(path)
	headerIdx, header, err := findHeader(rows, src.HeaderAnchor, base, src.Sheet)
	if err != nil {
		return models.Dataset{}, err
	}

	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, seen := colIndex[name]; !seen {
			colIndex[name] = i
		}
	}

	required := fields
	if src.GroupBy != "" {
		required = []string{src.GroupBy}
	}
	for _, f := range required {
		if f == mapping.Count {
			continue
		}
		if _, ok := colIndex[f]; !ok {
			return models.Dataset{}, &models.SchemaError{File: base, Sheet: src.Sheet, Column: f}
		}
	}

	var records []models.RowRecord
	for _, row := range rows[headerIdx+1:] {
		rec := make(models.RowRecord, len(required))
		empty := true
		for _, f := range required {
			if f == mapping.Count {
				continue
			}
			v := cellAt(row, colIndex[f])
			if v != "" {
				empty = false
			}
			rec[f] = v
		}
		// Repeated header rows inside the data region are noise from the
		// source report layout; drop them alongside blank rows.
		if empty || rec[required[0]] == required[0] {
			continue
		}
		records = append(records, rec)
	}

	if src.GroupBy != "" {
		records = groupCount(records, src.GroupBy)
	}
	if src.MaxRows > 0 && len(records) > src.MaxRows {
		records = records[:src.MaxRows]
	}

	return models.Dataset{Role: src.Role, Sheet: src.Sheet, Records: records}, nil
}

// readRows loads all rows of one sheet. The binary workbook variant needs
// its own parser; everything else goes through excelize.
func readRows(path, sheet string) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsb") {
		return readBinaryRows(path, sheet)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, fmt.Errorf("%s: %w", path, models.ErrInvalidFormat)
		}
		sheet = list[0]
	}
	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return nil, &models.SchemaError{File: filepath.Base(path), Sheet: sheet}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q of %s: %w", sheet, path, err)
	}
	return rows, nil
}

// findHeader locates the header row. With no anchor the first row is the
// header; with an anchor the first row containing that text wins.
func findHeader(rows [][]string, anchor, file, sheet string) (int, []string, error) {
	if anchor == "" {
		if len(rows) == 0 {
			return 0, nil, &models.SchemaError{File: file, Sheet: sheet}
		}
		return 0, rows[0], nil
	}
	for i, row := range rows {
		for _, cell := range row {
			if strings.Contains(cell, anchor) {
				return i, row, nil
			}
		}
	}
	return 0, nil, &models.SchemaError{File: file, Sheet: sheet, Column: anchor}
}

// groupCount aggregates records by key column into (key, Count) records,
// ordered by count descending, then key, so output is deterministic.
func groupCount(records []models.RowRecord, key string) []models.RowRecord {
	counts := make(map[string]int)
	var order []string
	for _, rec := range records {
		k := strings.TrimSpace(rec[key])
		if k == "" {
			continue
		}
		if _, seen := counts[k]; !seen {
			order = append(order, k)
		}
		counts[k]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return order[i] < order[j]
	})

	out := make([]models.RowRecord, len(order))
	for i, k := range order {
		out[i] = models.RowRecord{key: k, mapping.Count: strconv.Itoa(counts[k])}
	}
	return out
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
