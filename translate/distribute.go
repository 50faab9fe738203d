package translate

import "github.com/NextAI9707/XRAG/table"

// Apply writes every cached translation into all cells that held its
// candidate and returns the number of cells written. Candidates missing from
// the cache keep their original cell contents.
func Apply(t table.Table, idx *WorkIndex, cache *Cache) int {
	written := 0
	for _, candidate := range idx.order {
		tr, ok := cache.Get(candidate)
		if !ok {
			continue
		}
		for _, p := range idx.positions[candidate] {
			t.Set(p.Row, p.Col, table.TextCell(tr))
			written++
		}
	}
	return written
}
