package translate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/NextAI9707/XRAG/provider"
	"github.com/NextAI9707/XRAG/resilience"
)

// ErrLengthMismatch is reported when a translator returns a different number
// of results than texts it was given.
var ErrLengthMismatch = errors.New("translation count does not match batch size")

// BatchError describes a batch that could not be translated.
type BatchError struct {
	// Index is the zero-based batch number.
	Index int
	// Size is the number of texts in the batch.
	Size int
	// Attempts is how many times the translator was called.
	Attempts int
	// Fingerprint identifies the batch contents across runs.
	Fingerprint string
	// Texts are the candidates left untranslated.
	Texts []string
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %d (%d texts, %d attempt(s)): %v", e.Index+1, e.Size, e.Attempts, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// Stats summarises a Translate call.
type Stats struct {
	Candidates int
	Batches    int
	Translated int
	Attempts   int
	// Failed lists the failed batches ordered by index.
	Failed    []*BatchError
	Cancelled bool
	Duration  time.Duration
}

// Split partitions texts into consecutive batches of at most size texts.
func Split(texts []string, size int) [][]string {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var batches [][]string
	for i := 0; i < len(texts); i += size {
		end := i + size
		if end > len(texts) {
			end = len(texts)
		}
		batches = append(batches, texts[i:end])
	}
	return batches
}

// Fingerprint returns a short stable hash of a batch, used to correlate log
// lines and report entries.
func Fingerprint(batch []string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(strings.Join(batch, "\x00")))
}

// Translate sends the candidates of idx to opts.Translator in batches and
// returns the filled cache. Failed batches are logged and recorded in
// Stats; they never abort the run. When ctx is cancelled, Translate stops
// between batches and returns what it has.
//
// Zero-valued Options fields take the package defaults. For MaxRetries this
// means 3 retries; callers that want a single attempt must pass a negative
// value.
func Translate(ctx context.Context, idx *WorkIndex, opts Options) (*Cache, Stats) {
	start := time.Now()
	cache := NewCache()
	candidates := idx.Candidates()
	batches := Split(candidates, opts.effectiveBatchSize())
	stats := Stats{Candidates: len(candidates), Batches: len(batches)}

	if len(batches) == 0 {
		return cache, stats
	}
	if opts.Translator == nil {
		opts.logError("No translator configured; nothing translated")
		for i, b := range batches {
			stats.Failed = append(stats.Failed, newBatchError(i, b, 0, errors.New("no translator configured")))
		}
		return cache, stats
	}

	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.effectiveMaxConcurrent())

	for i, batch := range batches {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			results, attempts, err := translateBatch(gctx, i, batch, &opts)

			stored := 0
			if err == nil {
				for j, src := range batch {
					if cache.Put(src, results[j]) {
						stored++
					}
				}
			}

			// Progress is reported under the lock so callers see done grow
			// monotonically.
			mu.Lock()
			defer mu.Unlock()
			stats.Attempts += attempts
			stats.Translated += stored
			done += len(batch)
			switch {
			case err == nil:
				opts.log("Translated %d/%d", done, len(candidates))
			case ctx.Err() == nil:
				stats.Failed = append(stats.Failed, newBatchError(i, batch, attempts, err))
				opts.logError("Batch %d/%d failed after %d attempt(s): %v", i+1, len(batches), attempts, err)
			}
			opts.progress(done, len(candidates))
			return nil
		})
	}
	g.Wait()

	sort.Slice(stats.Failed, func(a, b int) bool { return stats.Failed[a].Index < stats.Failed[b].Index })
	stats.Cancelled = ctx.Err() != nil
	stats.Duration = time.Since(start)
	return cache, stats
}

// translateBatch calls the translator until it succeeds, the retry budget
// is spent, or the error is permanent. The wait before attempt n+1 is
// n × RetryDelay.
func translateBatch(ctx context.Context, index int, batch []string, opts *Options) ([]string, int, error) {
	maxRetries := opts.effectiveMaxRetries()
	delay := opts.effectiveRetryDelay()
	fp := Fingerprint(batch)

	for attempt := 1; ; attempt++ {
		results, err := opts.Translator.TranslateBatch(ctx, batch)
		if err == nil && len(results) != len(batch) {
			err = fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, len(results), len(batch))
		}
		if err == nil {
			opts.debug("Batch %d [%s]: %d texts translated on attempt %d", index+1, fp, len(batch), attempt)
			return results, attempt, nil
		}
		if ctx.Err() != nil {
			return nil, attempt, ctx.Err()
		}
		if attempt > maxRetries {
			return nil, attempt, err
		}
		// An open circuit closes again after its timeout, even when a
		// translator reports it as permanent.
		if provider.IsPermanent(err) && !errors.Is(err, resilience.ErrCircuitOpen) {
			opts.debug("Batch %d [%s]: permanent error, not retrying: %v", index+1, fp, err)
			return nil, attempt, err
		}

		wait := time.Duration(attempt) * delay
		opts.log("Batch %d: retry %d/%d in %s (%s)", index+1, attempt, maxRetries, wait, firstLine(err.Error()))
		if serr := opts.sleep(ctx, wait); serr != nil {
			return nil, attempt, serr
		}
	}
}

func newBatchError(index int, batch []string, attempts int, err error) *BatchError {
	texts := make([]string, len(batch))
	copy(texts, batch)
	return &BatchError{
		Index:       index,
		Size:        len(batch),
		Attempts:    attempts,
		Fingerprint: Fingerprint(batch),
		Texts:       texts,
		Err:         err,
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
