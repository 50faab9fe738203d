// Package termstore holds the source→target terminology dictionary that is
// applied to text before it is sent for translation, so that domain terms
// come out as the approved target-language wording.
//
// Matching is case-insensitive, anchored at word boundaries and always
// prefers the longest term: with "heart attack" and "attack" both in the
// store, "heart attack today" becomes "<heart attack target> today".
package termstore

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	aho "github.com/anknown/ahocorasick"
)

// Entry is one terminology pair.
type Entry struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

// Store is an immutable terminology dictionary with a compiled matcher.
// It is safe for concurrent use.
type Store struct {
	entries []Entry           // longest source first
	lookup  map[string]string // lowercased source -> target

	pattern *regexp.Regexp
	machine *aho.Machine
}

// Empty returns a store without terms. Replace is the identity on it.
func Empty() *Store {
	return &Store{lookup: map[string]string{}}
}

// New builds a store from entries. Sources are compared in lower case;
// when two entries collide the later one wins. Entries with a blank source
// are dropped.
func New(entries []Entry) *Store {
	s := &Store{lookup: make(map[string]string, len(entries))}
	for _, e := range entries {
		src := strings.ToLower(strings.TrimSpace(e.Source))
		if src == "" {
			continue
		}
		s.lookup[src] = e.Target
	}
	if len(s.lookup) == 0 {
		return s
	}

	s.entries = make([]Entry, 0, len(s.lookup))
	for src, tgt := range s.lookup {
		s.entries = append(s.entries, Entry{Source: src, Target: tgt})
	}
	// Longest first so alternation tries multi-word terms before any of
	// their substrings. Ties are broken lexically to keep the pattern stable.
	sort.Slice(s.entries, func(i, j int) bool {
		li, lj := len(s.entries[i].Source), len(s.entries[j].Source)
		if li != lj {
			return li > lj
		}
		return s.entries[i].Source < s.entries[j].Source
	})

	alts := make([]string, len(s.entries))
	sources := make([]string, len(s.entries))
	for i, e := range s.entries {
		alts[i] = regexp.QuoteMeta(e.Source)
		sources[i] = e.Source
	}
	s.pattern = regexp.MustCompile(`(?i)(?:^|[^\pL\pN_])(` + strings.Join(alts, "|") + `)(?:[^\pL\pN_]|$)`)

	sort.Strings(sources)
	keys := make([][]rune, len(sources))
	for i, src := range sources {
		keys[i] = []rune(src)
	}
	m := new(aho.Machine)
	if err := m.Build(keys); err == nil {
		s.machine = m
	}
	return s
}

// Len returns the number of distinct terms.
func (s *Store) Len() int { return len(s.entries) }

// Entries returns the terms in matching order (longest source first).
// Sources are lowercased.
func (s *Store) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Lookup returns the target for a source term, ignoring case.
func (s *Store) Lookup(source string) (string, bool) {
	t, ok := s.lookup[strings.ToLower(source)]
	return t, ok
}

// Replace substitutes every whole-word occurrence of a known term in text
// with its target. Text between matches is kept verbatim.
func (s *Store) Replace(text string) string {
	if s.pattern == nil || text == "" {
		return text
	}
	var b strings.Builder
	copied, pos := 0, 0
	for pos < len(text) {
		loc := s.pattern.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[2], pos+loc[3]
		if start == pos && pos > 0 {
			// ^ matched the start of the slice, not of the text.
			if r, _ := utf8.DecodeLastRuneInString(text[:pos]); isWord(r) {
				_, size := utf8.DecodeRuneInString(text[pos:])
				pos += size
				continue
			}
		}
		b.WriteString(text[copied:start])
		if t, ok := s.lookup[strings.ToLower(text[start:end])]; ok {
			b.WriteString(t)
		} else {
			b.WriteString(text[start:end])
		}
		copied, pos = end, end
	}
	if copied == 0 {
		return text
	}
	b.WriteString(text[copied:])
	return b.String()
}

// Mentions returns the distinct terms occurring anywhere in text, as
// lowercased substrings, in first-seen order. Unlike Replace it ignores word
// boundaries; it is meant for reporting.
func (s *Store) Mentions(text string) []string {
	if s.machine == nil || text == "" {
		return nil
	}
	hits := s.machine.MultiPatternSearch([]rune(strings.ToLower(text)), false)
	var out []string
	seen := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		w := string(h.Word)
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// isWord reports whether r counts as part of a word for boundary checks.
func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
