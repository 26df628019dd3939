package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/roach88/simcheck/internal/bounds"
	"github.com/roach88/simcheck/internal/simerr"
)

// readRecords returns the header and the non-blank data rows of a file.
// Rows shorter than the header are padded with empty cells.
func readRecords(path string, opts Options) (header []string, rows [][]string, err error) {
	var records [][]string
	switch opts.Format {
	case Spreadsheet:
		records, err = readSheet(path, opts.Sheet)
	case CSV, TSV:
		records, err = readDelimited(path, opts.Format)
	default:
		return nil, nil, simerr.Configuration("tabular.read", "unknown format %d", int(opts.Format))
	}
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, simerr.Parse("tabular.read", "%s: file has no header row", path)
	}

	header = make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	for _, rec := range records[1:] {
		if blankRecord(rec) {
			continue
		}
		row := make([]string, len(header))
		copy(row, rec)
		rows = append(rows, row)
	}
	return header, rows, nil
}

func readDelimited(path string, format Format) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	if format == TSV {
		reader.Comma = '\t'
		reader.LazyQuotes = true
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, simerr.Wrap(simerr.CodeParse, "tabular.read", fmt.Errorf("%s: %w", path, err))
		}
		records = append(records, record)
	}
	return records, nil
}

func readSheet(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	if !slices.Contains(f.GetSheetList(), sheet) {
		return nil, simerr.Configuration("tabular.read", "%s: workbook has no sheet %q", path, sheet)
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, simerr.Wrap(simerr.CodeParse, "tabular.read", fmt.Errorf("%s: %w", path, err))
	}
	return rows, nil
}

// writeRecords writes a header and rows. Cells are strings or float64;
// spreadsheets store finite floats as numbers.
func writeRecords(path string, opts Options, header []string, rows [][]any) error {
	switch opts.Format {
	case Spreadsheet:
		return writeSheet(path, opts.Sheet, header, rows)
	case CSV, TSV:
		return writeDelimited(path, opts.Format, header, rows)
	default:
		return simerr.Configuration("tabular.write", "unknown format %d", int(opts.Format))
	}
}

func writeDelimited(path string, format Format, header []string, rows [][]any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if format == TSV {
		w.Comma = '\t'
	}
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	for _, row := range rows {
		rec := make([]string, len(row))
		for i, cell := range row {
			rec[i] = cellText(cell)
		}
		if err := w.Write(rec); err != nil {
			f.Close()
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func writeSheet(path, sheet string, header []string, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet %q: %w", sheet, err)
	}

	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := setRow(f, sheet, 1, headerRow); err != nil {
		return err
	}
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, cell := range row {
			if v, ok := cell.(float64); ok && !math.IsInf(v, 0) && !math.IsNaN(v) {
				cells[j] = v
			} else {
				cells[j] = cellText(cell)
			}
		}
		if err := setRow(f, sheet, i+2, cells); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func cellText(cell any) string {
	switch v := cell.(type) {
	case string:
		return v
	case float64:
		if math.IsNaN(v) {
			return ""
		}
		return bounds.FormatBound(v)
	default:
		return fmt.Sprint(v)
	}
}

// parseCell parses a numeric cell. Empty cells yield empty.
func parseCell(s string, empty float64) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return empty, nil
	}
	return strconv.ParseFloat(s, 64)
}

// columnIndex maps header names (case and space insensitive) to positions.
func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

func blankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
