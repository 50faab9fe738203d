package table

// Table is the narrow contract the translation pipeline needs from a
// tabular data source: index-based reads and writes plus the dimensions.
type Table interface {
	Rows() int
	Cols() int
	Get(row, col int) Cell
	Set(row, col int, c Cell)
}

// Grid is an in-memory Table. Rows may be ragged; missing cells read as
// Empty and writes outside the current bounds grow the grid.
type Grid struct {
	sheet string
	cells [][]Cell
	cols  int
}

// NewGrid builds a grid from rows of cells. The slices are used as is.
func NewGrid(rows [][]Cell) *Grid {
	g := &Grid{cells: rows}
	for _, r := range rows {
		if len(r) > g.cols {
			g.cols = len(r)
		}
	}
	return g
}

// FromStrings builds a grid from raw string rows, classifying every cell.
func FromStrings(rows [][]string) *Grid {
	cells := make([][]Cell, len(rows))
	for i, r := range rows {
		cells[i] = make([]Cell, len(r))
		for j, v := range r {
			cells[i][j] = Classify(v)
		}
	}
	return NewGrid(cells)
}

// Rows returns the number of rows including the header row.
func (g *Grid) Rows() int { return len(g.cells) }

// Cols returns the width of the widest row.
func (g *Grid) Cols() int { return g.cols }

// Sheet returns the worksheet name the grid was loaded from, if any.
func (g *Grid) Sheet() string { return g.sheet }

// Get returns the cell at (row, col), or an empty cell when out of range.
func (g *Grid) Get(row, col int) Cell {
	if row < 0 || row >= len(g.cells) || col < 0 || col >= len(g.cells[row]) {
		return EmptyCell()
	}
	return g.cells[row][col]
}

// Set stores c at (row, col), growing the grid if needed.
// Negative coordinates are ignored.
func (g *Grid) Set(row, col int, c Cell) {
	if row < 0 || col < 0 {
		return
	}
	for row >= len(g.cells) {
		g.cells = append(g.cells, nil)
	}
	if col >= len(g.cells[row]) {
		grown := make([]Cell, col+1)
		copy(grown, g.cells[row])
		g.cells[row] = grown
	}
	g.cells[row][col] = c
	if col+1 > g.cols {
		g.cols = col + 1
	}
}

// Strings renders the grid as rectangular string rows.
func Strings(t Table) [][]string {
	out := make([][]string, t.Rows())
	for r := range out {
		out[r] = make([]string, t.Cols())
		for c := range out[r] {
			out[r][c] = t.Get(r, c).String()
		}
	}
	return out
}
