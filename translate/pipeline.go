package translate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NextAI9707/XRAG/langmeta"
	"github.com/NextAI9707/XRAG/report"
	"github.com/NextAI9707/XRAG/table"
	"github.com/NextAI9707/XRAG/termstore"
)

// Job describes one end-to-end run over a table file.
type Job struct {
	// Input and Output are table paths (.xlsx, .csv or .tsv).
	Input  string
	Output string
	// Sheet selects the worksheet of a workbook input (empty = first).
	Sheet string
	// Columns are the zero-based columns to translate.
	Columns []int
	// TermSource is the terminology file. Empty means no terms.
	TermSource string
	// RequireTerms turns a broken term source into a failed run.
	RequireTerms bool
	// SourceLang and TargetLang are recorded in the report; TargetLang
	// also selects the script used to skip already-translated cells.
	SourceLang string
	TargetLang string
	// ProviderName is recorded in the report.
	ProviderName string
	// ReportPath, when set, receives the YAML run summary.
	ReportPath string
	// RunID correlates the report with log lines. Generated when empty.
	RunID string

	Options Options
}

// Result is the outcome of Process.
type Result struct {
	Index   *WorkIndex
	Cache   *Cache
	Stats   Stats
	Written int
}

// Process runs scan, translate and apply over an in-memory table.
func Process(ctx context.Context, t table.Table, terms Replacer, columns []int, skip ScriptDetector, opts Options) Result {
	idx := Scan(t, columns, terms, skip)
	if missing := idx.MissingColumns(); len(missing) > 0 {
		opts.debug("Columns %v are outside the table (%d columns), ignored", missing, t.Cols())
	}
	opts.log("Texts to translate: %d unique out of %d cells", idx.Len(), idx.Cells())

	cache, stats := Translate(ctx, idx, opts)
	written := Apply(t, idx, cache)
	return Result{Index: idx, Cache: cache, Stats: stats, Written: written}
}

// Run loads the terms and the input table, translates the configured
// columns, saves the output table and, if requested, the report.
//
// Failed batches do not make Run fail; they are listed in the returned
// summary. Errors are returned for unusable input or output paths, an
// empty column list, or a broken term source when RequireTerms is set.
func Run(ctx context.Context, job Job) (*report.Summary, error) {
	if len(job.Columns) == 0 {
		return nil, errors.New("no target columns configured")
	}
	if job.Input == "" || job.Output == "" {
		return nil, errors.New("input and output paths are required")
	}

	summary := report.New(time.Now())
	if job.RunID != "" {
		summary.RunID = job.RunID
	}
	summary.Input = job.Input
	summary.Output = job.Output
	summary.Provider = job.ProviderName
	summary.SourceLang = job.SourceLang
	summary.TargetLang = job.TargetLang
	summary.Columns = append([]int(nil), job.Columns...)

	terms := termstore.Empty()
	if job.TermSource != "" {
		var err error
		terms, err = termstore.Load(job.TermSource)
		if err != nil {
			if job.RequireTerms {
				return nil, err
			}
			job.Options.logError("Term store unavailable, continuing without terms: %v", err)
		} else {
			job.Options.log("Loaded %d terms from %s", terms.Len(), job.TermSource)
		}
	}
	summary.Terms = terms.Len()

	t, err := table.Load(job.Input, job.Sheet)
	if err != nil {
		return nil, fmt.Errorf("loading input: %w", err)
	}

	res := Process(ctx, t, terms, job.Columns, langmeta.ScriptFor(job.TargetLang), job.Options)
	fillSummary(summary, res)

	if err := table.Save(t, job.Output); err != nil {
		return summary, fmt.Errorf("saving output: %w", err)
	}
	job.Options.log("Saved %s (%d cells updated)", job.Output, res.Written)

	if job.ReportPath != "" {
		if err := report.Write(job.ReportPath, summary); err != nil {
			return summary, err
		}
		job.Options.log("Report written to %s", job.ReportPath)
	}
	return summary, nil
}

func fillSummary(s *report.Summary, res Result) {
	idx, st := res.Index, res.Stats
	skipped := idx.Skipped()

	s.Duration = st.Duration.Round(time.Millisecond).String()
	s.SetTermUse(idx.TermUse())
	s.Cells = idx.Cells()
	s.Candidates = st.Candidates
	s.Batches = st.Batches
	s.Attempts = st.Attempts
	s.Translated = st.Translated
	s.Written = res.Written
	s.Skipped = report.Skipped{
		Empty:        skipped.Empty,
		Number:       skipped.Number,
		Boolean:      skipped.Bool,
		Blank:        skipped.Blank,
		TargetScript: skipped.Target,
	}
	s.Missing = idx.MissingColumns()
	s.Cancelled = st.Cancelled
	for _, f := range st.Failed {
		s.Failed = append(s.Failed, report.BatchEntry{
			Index:       f.Index,
			Fingerprint: f.Fingerprint,
			Attempts:    f.Attempts,
			Error:       firstLine(f.Err.Error()),
			Texts:       f.Texts,
		})
	}
}
