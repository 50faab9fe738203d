// Package semtype maps concept ids in a table to semantic type labels.
//
// The map file is pipe-delimited, one concept per line:
//
//	C0018681|T184|Sign or Symptom
//
// Lines that do not have exactly three fields are ignored.
package semtype

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/NextAI9707/XRAG/table"
)

// Map resolves a concept id (CID) to its semantic type (STY).
type Map map[string]string

// Load reads a map file.
func Load(path string) (Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening semantic type map: %w", err)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return m, nil
}

// Parse reads CID|STYID|STY lines from r. Later lines win on duplicate ids.
func Parse(r io.Reader) (Map, error) {
	m := make(Map)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		parts := strings.Split(strings.TrimSpace(sc.Text()), "|")
		if len(parts) != 3 {
			continue
		}
		m[parts[0]] = parts[2]
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// Lookup returns the label for the value held by c. Numbers match by
// their written spelling or, failing that, their shortest decimal form.
func (m Map) Lookup(c table.Cell) (string, bool) {
	if c.IsEmpty() {
		return "", false
	}
	if sty, ok := m[c.String()]; ok {
		return sty, true
	}
	if f, ok := c.Number(); ok {
		sty, ok := m[strconv.FormatFloat(f, 'f', -1, 64)]
		return sty, ok
	}
	return "", false
}

// Remap replaces every data-row cell in cols whose value is a known
// concept id with its semantic type, and returns the number of cells
// changed. The header row and columns outside the table are left alone.
func Remap(t table.Table, cols []int, m Map) int {
	if len(m) == 0 {
		return 0
	}
	seen := make(map[int]bool, len(cols))
	changed := 0
	for _, col := range cols {
		if col < 0 || col >= t.Cols() || seen[col] {
			continue
		}
		seen[col] = true
		for row := 1; row < t.Rows(); row++ {
			if sty, ok := m.Lookup(t.Get(row, col)); ok {
				t.Set(row, col, table.TextCell(sty))
				changed++
			}
		}
	}
	return changed
}
