package translate

import (
	"reflect"
	"testing"

	"github.com/NextAI9707/XRAG/langmeta"
	"github.com/NextAI9707/XRAG/table"
	"github.com/NextAI9707/XRAG/termstore"
)

// triples builds a small knowledge-graph style table:
//
//	RID | HEAD | REL | TAIL
func triples() *table.Grid {
	return table.NewGrid([][]table.Cell{
		{table.TextCell("RID"), table.TextCell("HEAD"), table.TextCell("REL"), table.TextCell("TAIL")},
		{table.NumberCell(1), table.TextCell("fever"), table.TextCell("symptom of"), table.TextCell("influenza")},
		{table.NumberCell(2), table.TextCell(" fever "), table.TextCell("symptom of"), table.TextCell("冠心病")},
		{table.NumberCell(3), table.TextCell("heart attack today"), table.EmptyCell(), table.TextCell("   ")},
		{table.NumberCell(4), table.NumberCell(42), table.TextCell("treated by"), table.TextCell("aspirin")},
	})
}

func medicalTerms() *termstore.Store {
	return termstore.New([]termstore.Entry{
		{Source: "heart attack", Target: "心脏病发作"},
		{Source: "attack", Target: "发作"},
	})
}

func TestScan(t *testing.T) {
	idx := Scan(triples(), []int{1, 2, 3}, medicalTerms(), langmeta.Han)

	wantOrder := []string{"fever", "心脏病发作 today", "symptom of", "treated by", "influenza", "aspirin"}
	if got := idx.Candidates(); !reflect.DeepEqual(got, wantOrder) {
		t.Errorf("Candidates() = %q, want %q", got, wantOrder)
	}

	if got := idx.Positions("fever"); !reflect.DeepEqual(got, []Position{{Col: 1, Row: 1}, {Col: 1, Row: 2}}) {
		t.Errorf("Positions(fever) = %v", got)
	}
	if idx.Cells() != 8 {
		t.Errorf("Cells() = %d, want 8", idx.Cells())
	}

	want := SkipCounts{Empty: 1, Number: 1, Blank: 1, Target: 1}
	if got := idx.Skipped(); got != want {
		t.Errorf("Skipped() = %+v, want %+v", got, want)
	}
	if use := idx.TermUse(); use["heart attack"] != 1 || use["attack"] != 1 {
		t.Errorf("TermUse() = %v", use)
	}
}

func TestScanSkipsBooleans(t *testing.T) {
	g := table.NewGrid([][]table.Cell{
		{table.TextCell("ID"), table.TextCell("ACTIVE")},
		{table.NumberCell(1), table.BoolCell(true)},
		{table.NumberCell(2), table.BoolCell(false)},
		{table.NumberCell(3), table.TextCell("TRUE")},
	})
	idx := Scan(g, []int{1}, nil, nil)

	if got := idx.Candidates(); !reflect.DeepEqual(got, []string{"TRUE"}) {
		t.Errorf("Candidates() = %q, want only the text cell", got)
	}
	if got := idx.Skipped(); got != (SkipCounts{Bool: 2}) {
		t.Errorf("Skipped() = %+v, want two booleans", got)
	}
}

func TestScanSkipsTargetScript(t *testing.T) {
	g := table.FromStrings([][]string{
		{"ID", "NAME"},
		{"1", "冠心病"},
		{"2", "coronary 冠心病"},
	})
	idx := Scan(g, []int{1}, nil, langmeta.ScriptFor("zh-CN"))
	if idx.Len() != 0 {
		t.Errorf("target-script cells should be skipped, got %q", idx.Candidates())
	}
	if idx.Skipped().Target != 2 {
		t.Errorf("Skipped().Target = %d, want 2", idx.Skipped().Target)
	}

	// A Latin-script target never skips by script.
	if idx := Scan(g, []int{1}, nil, langmeta.ScriptFor("de")); idx.Len() != 2 {
		t.Errorf("Len() with de target = %d, want 2", idx.Len())
	}
}

func TestScanIdempotent(t *testing.T) {
	g := triples()
	before := table.Strings(g)

	a := Scan(g, []int{1, 3}, medicalTerms(), langmeta.Han)
	b := Scan(g, []int{1, 3}, medicalTerms(), langmeta.Han)

	if !reflect.DeepEqual(a.Candidates(), b.Candidates()) {
		t.Fatalf("candidates differ: %q vs %q", a.Candidates(), b.Candidates())
	}
	for _, c := range a.Candidates() {
		if !reflect.DeepEqual(a.Positions(c), b.Positions(c)) {
			t.Errorf("positions of %q differ", c)
		}
	}
	if !reflect.DeepEqual(before, table.Strings(g)) {
		t.Error("Scan modified the table")
	}
}

func TestScanColumns(t *testing.T) {
	g := triples()
	idx := Scan(g, []int{1, 1, 9, -1}, nil, nil)

	if got := idx.MissingColumns(); !reflect.DeepEqual(got, []int{9, -1}) {
		t.Errorf("MissingColumns() = %v", got)
	}
	if got := idx.Positions("fever"); len(got) != 2 {
		t.Errorf("repeated column indexed twice: %v", got)
	}
	// Without a detector nothing is skipped by script and the header row
	// stays out.
	if len(idx.Positions("HEAD")) != 0 {
		t.Error("header row must not be scanned")
	}
}

func TestApply(t *testing.T) {
	g := triples()
	idx := Scan(g, []int{1}, medicalTerms(), langmeta.Han)

	cache := NewCache()
	cache.Put("fever", "发热")

	if n := Apply(g, idx, cache); n != 2 {
		t.Errorf("Apply() = %d, want 2", n)
	}
	for _, row := range []int{1, 2} {
		if s, _ := g.Get(row, 1).Text(); s != "发热" {
			t.Errorf("row %d = %q, want 发热", row, s)
		}
	}
	if s, _ := g.Get(3, 1).Text(); s != "heart attack today" {
		t.Errorf("untranslated cell changed to %q", s)
	}
}

func TestCache(t *testing.T) {
	c := NewCache()
	if c.Put("fever", "") {
		t.Error("empty translation should not be stored")
	}
	if _, ok := c.Get("fever"); ok {
		t.Error("empty translation leaked into cache")
	}
	c.Put("fever", "发热")
	c.Put("fever", "高热")
	if got, _ := c.Get("fever"); got != "高热" || c.Len() != 1 {
		t.Errorf("Get = %q, Len = %d", got, c.Len())
	}
	snap := c.Snapshot()
	snap["x"] = "y"
	if c.Len() != 1 {
		t.Error("Snapshot should be a copy")
	}
}
