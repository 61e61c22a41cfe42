// Package xlsx generates the blank data-entry spreadsheet for a template's
// variables and parses filled-in uploads back into batch records.
package xlsx

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/slipforge/payslip-app/internal/engine"
	"github.com/slipforge/payslip-app/internal/schema"
)

const (
	// MaxUploadBytes caps an uploaded workbook before parsing.
	MaxUploadBytes = 10 << 20

	sheetName = "Sheet1"
	minColW   = 18.0
)

// BuildTemplate emits a one-row header workbook whose columns are the literal
// delimited variable keys, sorted by category then key. This is the exact
// column contract ParseUpload expects back.
func BuildTemplate(variables []schema.Variable) ([]byte, error) {
	sorted := make([]schema.Variable, len(variables))
	copy(sorted, variables)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Category != sorted[j].Category {
			return sorted[i].Category < sorted[j].Category
		}
		return sorted[i].Key < sorted[j].Key
	})

	f := excelize.NewFile()
	defer f.Close()
	for i, v := range sorted {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		header := "{{" + v.Key + "}}"
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, err
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		width := float64(len(header)) + 4
		if width < minColW {
			width = minColW
		}
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return nil, err
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseUpload reads a filled workbook: first row headers (variable keys),
// each following row one record. Blank cells are absent from the record, not
// empty strings, so resolution treats missing and blank the same way.
func ParseUpload(data []byte) ([]engine.Record, error) {
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("xlsx: upload exceeds %d bytes", MaxUploadBytes)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("xlsx: not a valid workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("xlsx: workbook has no header row")
	}
	headers := rows[0]
	records := make([]engine.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := engine.Record{}
		for i, header := range headers {
			key := strings.TrimSpace(header)
			if key == "" || i >= len(row) {
				continue
			}
			val := strings.TrimSpace(row[i])
			if val == "" {
				continue
			}
			rec[key] = val
		}
		if len(rec) > 0 {
			records = append(records, rec)
		}
	}
	return records, nil
}
