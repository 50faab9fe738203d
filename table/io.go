package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for file extensions the package cannot read or write.
var ErrUnsupportedFormat = errors.New("unsupported table format")

// DefaultSheet is the worksheet name used when saving a grid that was not
// loaded from a workbook.
const DefaultSheet = "Sheet1"

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads a table from path. For workbooks, sheet selects the worksheet
// (empty = first sheet); it is ignored for delimited files.
func Load(path, sheet string) (*Grid, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		return loadWorkbook(path, sheet)
	case ".csv":
		return loadDelimited(path, ',')
	case ".tsv":
		return loadDelimited(path, '\t')
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func loadDelimited(path string, comma rune) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return FromStrings(records), nil
}

func loadWorkbook(path, sheet string) (*Grid, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%s: workbook has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q of %s: %w", sheet, path, err)
	}

	cells := make([][]Cell, len(rows))
	for r, row := range rows {
		cells[r] = make([]Cell, len(row))
		for c, raw := range row {
			if raw == "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			typ, err := f.GetCellType(sheet, axis)
			if err != nil {
				return nil, fmt.Errorf("reading %s!%s: %w", sheet, axis, err)
			}
			cells[r][c] = workbookCell(typ, raw)
		}
	}

	g := NewGrid(cells)
	g.sheet = sheet
	return g, nil
}

// workbookCell classifies a raw workbook value. Cells without an explicit
// type attribute are numbers in the OOXML schema. Error values such as
// #N/A carry no content and load as Empty.
func workbookCell(typ excelize.CellType, raw string) Cell {
	switch typ {
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return NumberCell(f)
		}
	case excelize.CellTypeBool:
		return BoolCell(raw == "1" || strings.EqualFold(raw, "true"))
	case excelize.CellTypeError:
		return EmptyCell()
	}
	return TextCell(raw)
}

// ---------------------------------------------------------------------------
// Saving
// ---------------------------------------------------------------------------

// Save writes t to path, choosing the format from the extension.
// Workbooks keep the sheet name of a Grid loaded from a workbook.
func Save(t Table, path string) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		return saveWorkbook(t, path)
	case ".csv":
		return saveDelimited(t, path, ',')
	case ".tsv":
		return saveDelimited(t, path, '\t')
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func saveDelimited(t Table, path string, comma rune) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	w.Comma = comma
	if err := w.WriteAll(Strings(t)); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

func saveWorkbook(t Table, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := DefaultSheet
	if s, ok := t.(interface{ Sheet() string }); ok && s.Sheet() != "" && s.Sheet() != DefaultSheet {
		if err := f.SetSheetName(DefaultSheet, s.Sheet()); err != nil {
			return fmt.Errorf("naming sheet %q: %w", s.Sheet(), err)
		}
		sheet = s.Sheet()
	}

	for r := 0; r < t.Rows(); r++ {
		for c := 0; c < t.Cols(); c++ {
			cell := t.Get(r, c)
			if cell.IsEmpty() {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			switch cell.Kind() {
			case Number:
				n, _ := cell.Number()
				err = f.SetCellFloat(sheet, axis, n, -1, 64)
			case Bool:
				b, _ := cell.Bool()
				err = f.SetCellBool(sheet, axis, b)
			default:
				err = f.SetCellStr(sheet, axis, cell.String())
			}
			if err != nil {
				return fmt.Errorf("writing %s!%s: %w", sheet, axis, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
