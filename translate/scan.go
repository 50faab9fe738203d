package translate

import (
	"strings"

	"github.com/NextAI9707/XRAG/table"
)

// Position is a cell address in a table.
type Position struct {
	Col int
	Row int
}

// Replacer substitutes known terminology in a text. *termstore.Store
// implements it.
type Replacer interface {
	Replace(text string) string
}

// ScriptDetector reports whether a text is already written in the target
// language. langmeta.Script implements it.
type ScriptDetector interface {
	Contains(text string) bool
}

// mentioner is implemented by replacers that can also list the terms a
// text contains. Scan uses it to count term usage.
type mentioner interface {
	Mentions(text string) []string
}

// SkipCounts tallies the cells Scan left alone, by reason.
type SkipCounts struct {
	Empty  int `yaml:"empty"`
	Number int `yaml:"number"`
	Bool   int `yaml:"bool"`
	Blank  int `yaml:"blank"`
	Target int `yaml:"target_script"`
}

// WorkIndex maps every distinct candidate text to the cells it came from,
// keeping the order in which candidates were first seen. It is read-only
// once Scan returns.
type WorkIndex struct {
	order     []string
	positions map[string][]Position

	cells   int
	skipped SkipCounts
	missing []int
	termUse map[string]int
}

func newWorkIndex() *WorkIndex {
	return &WorkIndex{positions: make(map[string][]Position)}
}

func (w *WorkIndex) add(candidate string, p Position) {
	if _, ok := w.positions[candidate]; !ok {
		w.order = append(w.order, candidate)
	}
	w.positions[candidate] = append(w.positions[candidate], p)
	w.cells++
}

// Len returns the number of distinct candidates.
func (w *WorkIndex) Len() int { return len(w.order) }

// Cells returns the number of cells that produced a candidate.
func (w *WorkIndex) Cells() int { return w.cells }

// Candidates returns the distinct candidates in first-seen order.
func (w *WorkIndex) Candidates() []string {
	out := make([]string, len(w.order))
	copy(out, w.order)
	return out
}

// Positions returns the cells holding candidate, in scan order.
func (w *WorkIndex) Positions(candidate string) []Position {
	ps := w.positions[candidate]
	out := make([]Position, len(ps))
	copy(out, ps)
	return out
}

// Skipped returns how many cells were skipped and why.
func (w *WorkIndex) Skipped() SkipCounts { return w.skipped }

// MissingColumns returns the requested columns that lie outside the table.
func (w *WorkIndex) MissingColumns() []int {
	out := make([]int, len(w.missing))
	copy(out, w.missing)
	return out
}

// TermUse returns how many scanned cells mention each term. It is empty
// unless the Replacer can list mentions.
func (w *WorkIndex) TermUse() map[string]int {
	out := make(map[string]int, len(w.termUse))
	for k, v := range w.termUse {
		out[k] = v
	}
	return out
}

// Scan builds the work index for the given columns of t. Row 0 is the
// header and is never scanned. A cell is skipped when it is empty, a
// number or boolean, blank after trimming, or already contains
// target-script text according to skip. Survivors are trimmed, passed through terms and
// indexed under the substituted text. terms and skip may be nil.
//
// Scan does not modify t and returns the same index for the same input.
func Scan(t table.Table, columns []int, terms Replacer, skip ScriptDetector) *WorkIndex {
	idx := newWorkIndex()
	m, _ := terms.(mentioner)

	for _, col := range dedupColumns(columns) {
		if col < 0 || col >= t.Cols() {
			idx.missing = append(idx.missing, col)
			continue
		}
		for row := 1; row < t.Rows(); row++ {
			cell := t.Get(row, col)
			text, ok := cell.Text()
			switch {
			case cell.IsEmpty():
				idx.skipped.Empty++
				continue
			case cell.Kind() == table.Bool:
				idx.skipped.Bool++
				continue
			case !ok:
				idx.skipped.Number++
				continue
			}

			stripped := strings.TrimSpace(text)
			if stripped == "" {
				idx.skipped.Blank++
				continue
			}
			if skip != nil && skip.Contains(stripped) {
				idx.skipped.Target++
				continue
			}

			candidate := stripped
			if terms != nil {
				if m != nil {
					for _, term := range m.Mentions(stripped) {
						if idx.termUse == nil {
							idx.termUse = make(map[string]int)
						}
						idx.termUse[term]++
					}
				}
				candidate = terms.Replace(stripped)
			}
			idx.add(candidate, Position{Col: col, Row: row})
		}
	}
	return idx
}

// dedupColumns drops repeated column numbers, keeping the first occurrence,
// so a cell is never indexed twice.
func dedupColumns(columns []int) []int {
	seen := make(map[int]bool, len(columns))
	out := make([]int, 0, len(columns))
	for _, c := range columns {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
