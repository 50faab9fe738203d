package termstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leonelquinteros/gotext"
	"gopkg.in/yaml.v3"

	"github.com/NextAI9707/XRAG/table"
)

// ErrTermSource wraps every failure to read or parse a term source.
var ErrTermSource = errors.New("term source")

// Load reads a term source. The format follows the extension:
//
//   - .csv, .tsv, .xlsx: a table whose header row names a "source" and a
//     "target" column (any case, any position).
//   - .yaml, .yml: either {terms: [{source, target}, ...]} or a bare list.
//   - .po: msgid → msgstr, untranslated entries skipped.
//
// On failure Load returns an empty store together with an error wrapping
// ErrTermSource, so callers may keep going with no terms.
func Load(path string) (*Store, error) {
	entries, err := readEntries(path)
	if err != nil {
		return Empty(), fmt.Errorf("%w: %s: %v", ErrTermSource, path, err)
	}
	return New(entries), nil
}

// LoadOrEmpty is Load for callers that treat a broken term source as a
// warning. warn may be nil.
func LoadOrEmpty(path string, warn func(format string, args ...any)) *Store {
	s, err := Load(path)
	if err != nil && warn != nil {
		warn("Term store unavailable, continuing without terms: %v", err)
	}
	return s
}

func readEntries(path string) ([]Entry, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".tsv", ".xlsx", ".xlsm":
		return readTable(path)
	case ".yaml", ".yml":
		return readYAML(path)
	case ".po":
		return readPO(path)
	default:
		return nil, fmt.Errorf("unsupported extension %q", ext)
	}
}

func readTable(path string) ([]Entry, error) {
	g, err := table.Load(path, "")
	if err != nil {
		return nil, err
	}
	if g.Rows() == 0 {
		return nil, errors.New("empty table")
	}

	srcCol, tgtCol := -1, -1
	for c := 0; c < g.Cols(); c++ {
		switch strings.ToLower(strings.TrimSpace(g.Get(0, c).String())) {
		case "source":
			if srcCol < 0 {
				srcCol = c
			}
		case "target":
			if tgtCol < 0 {
				tgtCol = c
			}
		}
	}
	if srcCol < 0 || tgtCol < 0 {
		return nil, errors.New(`header must contain "source" and "target" columns`)
	}

	entries := make([]Entry, 0, g.Rows()-1)
	for r := 1; r < g.Rows(); r++ {
		src := g.Get(r, srcCol)
		if src.IsEmpty() {
			continue
		}
		entries = append(entries, Entry{
			Source: src.String(),
			Target: g.Get(r, tgtCol).String(),
		})
	}
	return entries, nil
}

type yamlFile struct {
	Terms []Entry `yaml:"terms"`
}

func readYAML(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var entries []Entry
		if err := root.Decode(&entries); err != nil {
			return nil, err
		}
		return entries, nil
	case yaml.MappingNode:
		var f yamlFile
		if err := root.Decode(&f); err != nil {
			return nil, err
		}
		return f.Terms, nil
	default:
		return nil, errors.New("expected a mapping with 'terms' or a list of entries")
	}
}

func readPO(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	po := gotext.NewPo()
	po.Parse(data)

	var entries []Entry
	for id, tr := range po.GetDomain().GetTranslations() {
		if id == "" || tr == nil {
			continue
		}
		msgstr := tr.Trs[0]
		if strings.TrimSpace(msgstr) == "" {
			continue
		}
		entries = append(entries, Entry{Source: id, Target: msgstr})
	}
	// Map order is random; sort so case-colliding ids resolve the same way every run.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Source < entries[j].Source })
	return entries, nil
}
