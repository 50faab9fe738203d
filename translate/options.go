// Package translate implements the term-aware batch translation pipeline:
// it scans a table for text that still needs translating, protects domain
// terminology, deduplicates the texts, sends them to a remote translator in
// batches with retries, and writes the results back into every cell that
// held the same text.
package translate

import (
	"context"
	"time"

	"github.com/NextAI9707/XRAG/provider"
	"github.com/NextAI9707/XRAG/resilience"
)

// Defaults applied when the corresponding Options field is zero.
const (
	DefaultBatchSize  = 30
	DefaultMaxRetries = 3
	DefaultRetryDelay = 5 * time.Second
)

// NoRetries is the MaxRetries value for one attempt per batch.
const NoRetries = -1

// Options configures the batch translator.
type Options struct {
	// Translator performs the remote translation. Required.
	Translator provider.Translator
	// BatchSize is how many texts go into one remote call. Default: 30.
	BatchSize int
	// MaxRetries is how many times a failed batch is retried. The zero
	// value means the default of 3, not "no retries"; pass a negative value
	// (NoRetries) for a single attempt per batch.
	MaxRetries int
	// RetryDelay is the base wait between batch attempts; the wait before
	// attempt n+1 is n × RetryDelay. Default: 5s.
	RetryDelay time.Duration
	// MaxConcurrent is the number of batches in flight. Default: 1.
	MaxConcurrent int
	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnProgress is called after each batch with the number of texts
	// processed so far and the total.
	OnProgress func(done, total int)
	// OnLog emits log messages during translation.
	OnLog func(format string, args ...any)
	// OnError emits error messages during translation.
	OnError func(format string, args ...any)
	// OnDebug emits per-attempt details.
	OnDebug func(format string, args ...any)
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) logError(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
	} else if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) debug(format string, args ...any) {
	if o.OnDebug != nil {
		o.OnDebug(format, args...)
	}
}

func (o *Options) progress(done, total int) {
	if o.OnProgress != nil {
		o.OnProgress(done, total)
	}
}

func (o *Options) effectiveBatchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return DefaultBatchSize
}

func (o *Options) effectiveMaxRetries() int {
	switch {
	case o.MaxRetries > 0:
		return o.MaxRetries
	case o.MaxRetries < 0:
		return 0
	}
	return DefaultMaxRetries
}

func (o *Options) effectiveRetryDelay() time.Duration {
	if o.RetryDelay > 0 {
		return o.RetryDelay
	}
	return DefaultRetryDelay
}

func (o *Options) effectiveMaxConcurrent() int {
	if o.MaxConcurrent > 0 {
		return o.MaxConcurrent
	}
	return 1
}

func (o *Options) sleep(ctx context.Context, d time.Duration) error {
	if o.Sleep != nil {
		return o.Sleep(ctx, d)
	}
	return resilience.SleepContext(ctx, d)
}
