// Package table is the tabular data source/sink used by the translation
// pipeline. A table is a plain grid of cells addressed by (row, col); row 0
// is the header row. Each cell is classified exactly once, when the table is
// loaded, as Empty, Number, Bool or Text.
//
// Supported file formats:
//   - .xlsx: Excel workbooks (one sheet per table)
//   - .csv:  comma separated values
//   - .tsv:  tab separated values
package table

import (
	"math"
	"strconv"
	"strings"
)

// Kind discriminates the content of a Cell.
type Kind uint8

const (
	Empty Kind = iota
	Number
	Text
	// Bool only comes from typed workbook cells; delimited files have no
	// boolean type.
	Bool
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case Text:
		return "text"
	case Bool:
		return "bool"
	default:
		return "empty"
	}
}

// Cell is a single table value. The zero value is an empty cell.
type Cell struct {
	kind Kind
	text string // Text content, or the original spelling of a Number
	num  float64
	b    bool
}

// EmptyCell returns an empty cell.
func EmptyCell() Cell { return Cell{} }

// TextCell returns a text cell holding s.
func TextCell(s string) Cell { return Cell{kind: Text, text: s} }

// NumberCell returns a numeric cell.
func NumberCell(f float64) Cell { return Cell{kind: Number, num: f} }

// BoolCell returns a boolean cell.
func BoolCell(b bool) Cell { return Cell{kind: Bool, b: b} }

// numberCell keeps the spelling the number had in the source file so that
// values like "007" or "1.50" survive a load/save round trip.
func numberCell(raw string, f float64) Cell {
	return Cell{kind: Number, text: raw, num: f}
}

// Kind reports what the cell holds.
func (c Cell) Kind() Kind { return c.kind }

// IsEmpty reports whether the cell has no value.
func (c Cell) IsEmpty() bool { return c.kind == Empty }

// Text returns the string content of a Text cell.
func (c Cell) Text() (string, bool) {
	if c.kind != Text {
		return "", false
	}
	return c.text, true
}

// Number returns the value of a Number cell.
func (c Cell) Number() (float64, bool) {
	if c.kind != Number {
		return 0, false
	}
	return c.num, true
}

// Bool returns the value of a Bool cell.
func (c Cell) Bool() (bool, bool) {
	if c.kind != Bool {
		return false, false
	}
	return c.b, true
}

// String renders the cell the way it is written to delimited files.
// Integral numbers are rendered without a fractional part and booleans as
// TRUE or FALSE.
func (c Cell) String() string {
	switch c.kind {
	case Text:
		return c.text
	case Number:
		if c.text != "" {
			return c.text
		}
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case Bool:
		if c.b {
			return "TRUE"
		}
		return "FALSE"
	default:
		return ""
	}
}

// Classify turns a raw string from a delimited file into a Cell.
// Blank strings are Empty, finite decimal numbers are Number, and
// everything else (including "NaN" and "Inf" spellings) is Text.
func Classify(raw string) Cell {
	if raw == "" {
		return EmptyCell()
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		// Whitespace-only content is still text; the scanner skips it.
		return TextCell(raw)
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return numberCell(raw, f)
	}
	return TextCell(raw)
}
