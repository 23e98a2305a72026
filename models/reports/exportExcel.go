package reports

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	reportSheet     = "Report"
	summarySheet    = "Summary"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportExcel writes the report table to a workbook: the table on one sheet with
// headers in row 1, and the JSON summary values, if any, on a second sheet.
func ExportExcel(r *Report, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return err
	}
	if err := writeSheetRow(f, reportSheet, 1, stringsToAny(r.Table.Headers)); err != nil {
		return err
	}
	for i, row := range r.Table.Data {
		if err := writeSheetRow(f, reportSheet, i+2, excelRow(row)); err != nil {
			return err
		}
	}

	summary, err := summaryValues(r.Payload)
	if err != nil {
		return err
	}
	if len(summary) > 0 {
		if _, err := f.NewSheet(summarySheet); err != nil {
			return err
		}
		keys := make([]string, 0, len(summary))
		for k := range summary {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			if err := writeSheetRow(f, summarySheet, i+1, []any{k, summary[k]}); err != nil {
				return err
			}
		}
	}

	_, err = f.WriteTo(w)
	return err
}

func writeSheetRow(f *excelize.File, sheet string, rowNo int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNo)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// excelRow keeps numbers numeric in the sheet.
func excelRow(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		switch x := v.(type) {
		case decimal.Decimal:
			out[i] = x.InexactFloat64()
		case nil:
			out[i] = ""
		default:
			out[i] = v
		}
	}
	return out
}

// summaryValues flattens payload.summary into scalar cells. Nested breakdowns are
// written as "name.key".
func summaryValues(payload any) (map[string]any, error) {
	if payload == nil {
		return nil, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var top struct {
		Summary map[string]any `json:"summary"`
	}
	if err := json.Unmarshal(b, &top); err != nil {
		return nil, err
	}
	out := map[string]any{}
	for k, v := range top.Summary {
		if nested, ok := v.(map[string]any); ok {
			for nk, nv := range nested {
				out[fmt.Sprintf("%s.%s", k, nk)] = nv
			}
			continue
		}
		out[k] = v
	}
	return out, nil
}
