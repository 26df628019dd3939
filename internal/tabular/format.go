// Package tabular reads and writes bounds tables, scenario matrices and
// result series as spreadsheets, comma-separated or tab-separated files.
package tabular

import (
	"path/filepath"
	"strings"

	"github.com/roach88/simcheck/internal/simerr"
)

// Format is a tabular file format.
type Format int

const (
	// Spreadsheet is an Office Open XML workbook (.xlsx).
	Spreadsheet Format = iota + 1
	// CSV is comma-separated text.
	CSV
	// TSV is tab-separated text.
	TSV
)

func (f Format) String() string {
	switch f {
	case Spreadsheet:
		return "xlsx"
	case CSV:
		return "csv"
	case TSV:
		return "tsv"
	default:
		return "unknown"
	}
}

// ParseFormat resolves a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xlsx", "spreadsheet", "excel":
		return Spreadsheet, nil
	case "csv":
		return CSV, nil
	case "tsv", "tab":
		return TSV, nil
	default:
		return 0, simerr.Configuration("tabular.ParseFormat", "unknown tabular format %q", s)
	}
}

// FormatForPath infers the format from a file extension.
func FormatForPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xlsx", ".xlsm":
		return Spreadsheet, nil
	case ".xls":
		return 0, simerr.Configuration("tabular.FormatForPath",
			"%s: legacy .xls workbooks are not supported, save the file as .xlsx", path)
	case ".csv":
		return CSV, nil
	case ".tab", ".tsv":
		return TSV, nil
	default:
		return 0, simerr.Configuration("tabular.FormatForPath",
			"%s: unsupported file extension %q (want .xlsx, .csv, .tab or .tsv)", path, ext)
	}
}

// Options selects how a file is read or written. The zero value infers the
// format from the extension and uses the default sheet of each kind.
type Options struct {
	Format Format
	Sheet  string

	// Wildcard is the "don't care" cell in scenario matrices.
	Wildcard string
}

func (o Options) resolve(path, defaultSheet string) (Options, error) {
	if o.Format == 0 {
		f, err := FormatForPath(path)
		if err != nil {
			return o, err
		}
		o.Format = f
	}
	if o.Sheet == "" {
		o.Sheet = defaultSheet
	}
	return o, nil
}
