package termstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"
)

func medicalStore() *Store {
	return New([]Entry{
		{Source: "heart attack", Target: "心脏病发作"},
		{Source: "attack", Target: "发作"},
		{Source: "Fever", Target: "发热"},
		{Source: "na", Target: "钠"},
	})
}

func TestReplace(t *testing.T) {
	s := medicalStore()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"longest term wins", "heart attack today", "心脏病发作 today"},
		{"shorter term alone", "an attack", "an 发作"},
		{"case insensitive", "Heart ATTACK", "心脏病发作"},
		{"repeated", "fever, fever", "发热, 发热"},
		{"inside word untouched", "attacker", "attacker"},
		{"unicode boundary", "naïve na", "naïve 钠"},
		{"no terms", "cough", "cough"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Replace(tt.in); got != tt.want {
				t.Errorf("Replace(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestReplaceEmptyStore(t *testing.T) {
	if got := Empty().Replace("heart attack"); got != "heart attack" {
		t.Errorf("empty store changed text: %q", got)
	}
	if got := New(nil).Replace("x"); got != "x" {
		t.Errorf("New(nil) changed text: %q", got)
	}
}

func TestStore(t *testing.T) {
	convey.Convey("building a store", t, func() {
		s := New([]Entry{
			{Source: "Fever", Target: "A"},
			{Source: "fever ", Target: "B"},
			{Source: "  ", Target: "blank"},
			{Source: "heart attack", Target: "C"},
		})

		convey.Convey("collisions keep the last target", func() {
			got, ok := s.Lookup("FEVER")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(got, convey.ShouldEqual, "B")
		})

		convey.Convey("blank sources are dropped", func() {
			convey.So(s.Len(), convey.ShouldEqual, 2)
		})

		convey.Convey("entries come longest first", func() {
			entries := s.Entries()
			convey.So(entries[0].Source, convey.ShouldEqual, "heart attack")
			convey.So(entries[1].Source, convey.ShouldEqual, "fever")
		})

		convey.Convey("mentions report substrings", func() {
			convey.So(s.Mentions("High FEVER"), convey.ShouldResemble, []string{"fever"})
			convey.So(s.Mentions("cough"), convey.ShouldBeEmpty)
		})
	})
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFormats(t *testing.T) {
	convey.Convey("loading term sources", t, func() {
		convey.Convey("csv with reordered header", func() {
			path := writeFile(t, "terms.csv", "note,Target,Source\nx,心脏病发作,heart attack\ny,,\n")
			s, err := Load(path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(s.Len(), convey.ShouldEqual, 1)
			convey.So(s.Replace("heart attack"), convey.ShouldEqual, "心脏病发作")
		})

		convey.Convey("tsv", func() {
			path := writeFile(t, "terms.tsv", "source\ttarget\nfever\t发热\n")
			s, err := Load(path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(s.Replace("fever"), convey.ShouldEqual, "发热")
		})

		convey.Convey("yaml mapping", func() {
			path := writeFile(t, "terms.yaml", "terms:\n  - source: cough\n    target: 咳嗽\n")
			s, err := Load(path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(s.Replace("dry cough"), convey.ShouldEqual, "dry 咳嗽")
		})

		convey.Convey("yaml list", func() {
			path := writeFile(t, "terms.yml", "- source: cough\n  target: 咳嗽\n- source: fever\n  target: 发热\n")
			s, err := Load(path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(s.Len(), convey.ShouldEqual, 2)
		})

		convey.Convey("po skips untranslated", func() {
			path := writeFile(t, "terms.po", `msgid ""
msgstr ""
"Content-Type: text/plain; charset=UTF-8\n"

msgid "fever"
msgstr "发热"

msgid "cough"
msgstr ""
`)
			s, err := Load(path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(s.Len(), convey.ShouldEqual, 1)
			got, _ := s.Lookup("fever")
			convey.So(got, convey.ShouldEqual, "发热")
		})
	})
}

func TestLoadWorkbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	for cell, v := range map[string]string{
		"A1": "source", "B1": "target",
		"A2": "heart attack", "B2": "心脏病发作",
	} {
		if err := f.SetCellStr("Sheet1", cell, v); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "terms.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := s.Replace("Heart attack"); got != "心脏病发作" {
		t.Errorf("Replace = %q", got)
	}
}

func TestLoadFailures(t *testing.T) {
	cases := map[string]string{
		"missing":     filepath.Join(t.TempDir(), "nope.csv"),
		"no header":   writeFile(t, "bad.csv", "a,b\n1,2\n"),
		"bad yaml":    writeFile(t, "bad.yaml", "terms: [\n"),
		"scalar":      writeFile(t, "scalar.yaml", "just text\n"),
		"unknown ext": writeFile(t, "terms.json", "{}"),
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			s, err := Load(path)
			if !errors.Is(err, ErrTermSource) {
				t.Fatalf("err = %v, want ErrTermSource", err)
			}
			if s == nil || s.Len() != 0 {
				t.Fatalf("expected empty store, got %v", s)
			}
		})
	}
}

func TestLoadOrEmpty(t *testing.T) {
	var warned int
	s := LoadOrEmpty(filepath.Join(t.TempDir(), "missing.csv"), func(string, ...any) { warned++ })
	if s.Len() != 0 || warned != 1 {
		t.Errorf("Len = %d, warned = %d", s.Len(), warned)
	}
	if got := LoadOrEmpty(filepath.Join(t.TempDir(), "missing.csv"), nil).Replace("x"); got != "x" {
		t.Errorf("Replace on fallback store = %q", got)
	}
}
