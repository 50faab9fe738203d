// Package report writes the YAML summary of a translation run: what was
// scanned, what was translated, and which batches failed, so a partial run
// can be inspected without digging through logs.
package report

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Version is the report format version.
const Version = 1

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// Summary is the report of one run.
type Summary struct {
	Version    int       `yaml:"version"`
	RunID      string    `yaml:"run_id"`
	StartedAt  time.Time `yaml:"started_at"`
	Duration   string    `yaml:"duration"`
	Input      string    `yaml:"input,omitempty"`
	Output     string    `yaml:"output,omitempty"`
	Provider   string    `yaml:"provider,omitempty"`
	SourceLang string    `yaml:"source_lang,omitempty"`
	TargetLang string    `yaml:"target_lang,omitempty"`
	Columns    []int     `yaml:"columns,flow"`

	Terms   int       `yaml:"terms"`
	TermUse []TermUse `yaml:"term_use,omitempty"`

	Cells      int          `yaml:"cells"`
	Candidates int          `yaml:"candidates"`
	Batches    int          `yaml:"batches"`
	Attempts   int          `yaml:"attempts"`
	Translated int          `yaml:"translated"`
	Written    int          `yaml:"written"`
	Skipped    Skipped      `yaml:"skipped"`
	Missing    []int        `yaml:"missing_columns,flow,omitempty"`
	Cancelled  bool         `yaml:"cancelled,omitempty"`
	Failed     []BatchEntry `yaml:"failed,omitempty"`
}

// TermUse counts how many scanned cells mentioned a term.
type TermUse struct {
	Term  string `yaml:"term"`
	Cells int    `yaml:"cells"`
}

// Skipped counts cells that were not sent for translation.
type Skipped struct {
	Empty        int `yaml:"empty"`
	Number       int `yaml:"number"`
	Boolean      int `yaml:"boolean"`
	Blank        int `yaml:"blank"`
	TargetScript int `yaml:"target_script"`
}

// BatchEntry records a batch that stayed untranslated.
type BatchEntry struct {
	Index       int      `yaml:"index"`
	Fingerprint string   `yaml:"fingerprint"`
	Attempts    int      `yaml:"attempts"`
	Error       string   `yaml:"error"`
	Texts       []string `yaml:"texts"`
}

// New starts a summary with a fresh run id.
func New(now time.Time) *Summary {
	return &Summary{Version: Version, RunID: NewRunID(), StartedAt: now.UTC()}
}

// NewRunID returns a random identifier for correlating a run's log lines
// with its report.
func NewRunID() string {
	return uuid.NewString()
}

// OK reports whether every batch was translated and the run finished.
func (s *Summary) OK() bool {
	return len(s.Failed) == 0 && !s.Cancelled
}

// Untranslated returns the number of candidates left in failed batches.
func (s *Summary) Untranslated() int {
	n := 0
	for _, f := range s.Failed {
		n += len(f.Texts)
	}
	return n
}

// SetTermUse stores term counts sorted by descending use, then term.
func (s *Summary) SetTermUse(use map[string]int) {
	s.TermUse = s.TermUse[:0]
	for term, n := range use {
		s.TermUse = append(s.TermUse, TermUse{Term: term, Cells: n})
	}
	sort.Slice(s.TermUse, func(i, j int) bool {
		if s.TermUse[i].Cells != s.TermUse[j].Cells {
			return s.TermUse[i].Cells > s.TermUse[j].Cells
		}
		return s.TermUse[i].Term < s.TermUse[j].Term
	})
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Write saves the summary to path.
func Write(path string, s *Summary) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Read loads a summary written by Write.
func Read(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var s Summary
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if s.Version > Version {
		return nil, fmt.Errorf("%s: report version %d is newer than supported version %d", path, s.Version, Version)
	}
	return &s, nil
}
