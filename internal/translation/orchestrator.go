package translation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"dualsub/internal/cue"
	"dualsub/internal/logging"
)

// Translator is the external translation collaborator. It returns one
// translated string per input, in input order, or an error classified with
// Transient or Permanent.
type Translator interface {
	Translate(ctx context.Context, texts []string, targetLanguage string) ([]string, error)
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(ctx context.Context, texts []string, targetLanguage string) ([]string, error)

func (f TranslatorFunc) Translate(ctx context.Context, texts []string, targetLanguage string) ([]string, error) {
	return f(ctx, texts, targetLanguage)
}

// Defaults for Options.
const (
	DefaultWorkers        = 4
	DefaultMaxAttempts    = 5
	DefaultBackoffBase    = time.Second
	DefaultBackoffMax     = 30 * time.Second
	DefaultAttemptTimeout = 60 * time.Second
)

// Options tunes batching, concurrency and retry.
type Options struct {
	Budget         Budget
	Workers        int
	MaxAttempts    int
	BackoffBase    time.Duration
	BackoffMax     time.Duration
	AttemptTimeout time.Duration
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{
		Budget:         Budget{MaxChars: DefaultMaxChars, MaxCues: DefaultMaxCues},
		Workers:        DefaultWorkers,
		MaxAttempts:    DefaultMaxAttempts,
		BackoffBase:    DefaultBackoffBase,
		BackoffMax:     DefaultBackoffMax,
		AttemptTimeout: DefaultAttemptTimeout,
	}
}

func (o Options) normalized() Options {
	o.Budget = o.Budget.normalized()
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 1
	}
	if o.BackoffBase < 0 {
		o.BackoffBase = 0
	}
	return o
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger used for batch lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logging.NewComponentLogger(logger, "translation")
	}
}

// WithSleeper replaces the backoff wait (useful for tests).
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(o *Orchestrator) {
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

// WithJitter replaces the jitter applied to backoff delays.
func WithJitter(jitter func(time.Duration) time.Duration) Option {
	return func(o *Orchestrator) {
		o.backoff.Jitter = jitter
	}
}

// WithProgress registers a callback invoked after each successful batch.
func WithProgress(fn func(done, total int)) Option {
	return func(o *Orchestrator) {
		o.progress = fn
	}
}

// Orchestrator translates documents batch by batch.
type Orchestrator struct {
	translator Translator
	opts       Options
	backoff    Backoff
	logger     *slog.Logger
	sleep      func(context.Context, time.Duration) error
	progress   func(done, total int)
}

// New builds an orchestrator around translator.
func New(translator Translator, opts Options, options ...Option) *Orchestrator {
	opts = opts.normalized()
	o := &Orchestrator{
		translator: translator,
		opts:       opts,
		backoff:    Backoff{Base: opts.BackoffBase, Max: opts.BackoffMax},
		logger:     logging.NewComponentLogger(nil, "translation"),
		sleep:      sleepContext,
	}
	for _, opt := range options {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// Options returns the effective tuning.
func (o *Orchestrator) Options() Options { return o.opts }

type batchResult struct {
	batch Batch
	texts []string
	err   error
}

// slot is one translated cue tagged with its source index.
type slot struct {
	index    int
	position int
	lines    []string
}

// Translate returns a new document with the same cues as doc carrying
// translated text and the target language tag. Any batch failure fails the
// whole call; no partial document is returned.
func (o *Orchestrator) Translate(ctx context.Context, doc cue.Document, targetLanguage string) (cue.Document, error) {
	if o == nil || o.translator == nil {
		return cue.Document{}, ErrNoTranslator
	}
	target := strings.TrimSpace(targetLanguage)
	if target == "" {
		return cue.Document{}, errors.New("translation: target language required")
	}
	if doc.Len() == 0 {
		return doc.WithLanguage(target), nil
	}

	batches := Partition(doc, o.opts.Budget)
	workers := min(o.opts.Workers, len(batches))
	o.logger.Info("translation started",
		logging.String(logging.FieldEventType, "translation_started"),
		logging.Int("cues", doc.Len()),
		logging.Int("batches", len(batches)),
		logging.Int("workers", workers),
		logging.String("target_language", target),
	)
	started := time.Now()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan Batch)
	results := make(chan batchResult, len(batches))
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range jobs {
				texts, err := o.runBatch(runCtx, target, b)
				if err != nil {
					// Stop this worker and its peers from picking up more batches.
					cancel()
				}
				results <- batchResult{batch: b, texts: texts, err: err}
			}
		}()
	}
	go func() {
		defer close(jobs)
		for _, b := range batches {
			select {
			case jobs <- b:
			case <-runCtx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	arena := make([]slot, 0, doc.Len())
	var firstErr error
	completed := 0
	for res := range results {
		if res.err != nil {
			// Peers canceled by a failing batch may report before it does.
			if firstErr == nil || (errors.Is(firstErr, context.Canceled) && !errors.Is(res.err, context.Canceled)) {
				firstErr = res.err
			}
			continue
		}
		if firstErr != nil {
			continue
		}
		for i, pos := range res.batch.Positions {
			arena = append(arena, slot{index: res.batch.Indices[i], position: pos, lines: splitLines(res.texts[i])})
		}
		completed++
		if o.progress != nil {
			o.progress(completed, len(batches))
		}
	}

	if firstErr == nil && ctx.Err() != nil {
		firstErr = ctx.Err()
	}
	if firstErr != nil {
		logging.ErrorWithContext(o.logger, "translation failed", "translation_failed",
			logging.Error(firstErr),
			logging.Int("batches_completed", completed),
			logging.Int("batches", len(batches)),
			logging.String(logging.FieldErrorHint, "check translation provider credentials and connectivity"),
		)
		if errors.Is(firstErr, context.Canceled) {
			return cue.Document{}, fmt.Errorf("translation canceled: %w", firstErr)
		}
		return cue.Document{}, firstErr
	}

	out, err := reassemble(doc, arena, target)
	if err != nil {
		return cue.Document{}, err
	}
	o.logger.Info("translation completed",
		logging.String(logging.FieldEventType, "translation_completed"),
		logging.Int("cues", out.Len()),
		logging.Duration("elapsed", time.Since(started)),
	)
	return out, nil
}

// reassemble sorts the arena by cue index and scatters text onto the source
// cues.
func reassemble(doc cue.Document, arena []slot, target string) (cue.Document, error) {
	slices.SortFunc(arena, func(a, b slot) int { return a.index - b.index })
	if len(arena) != doc.Len() {
		return cue.Document{}, fmt.Errorf("translation: reassembled %d of %d cues", len(arena), doc.Len())
	}
	cues := make([]cue.Cue, doc.Len())
	for i, s := range arena {
		src := doc.At(i)
		if s.index != src.Index() || s.position != i {
			return cue.Document{}, fmt.Errorf("translation: slot %d holds cue %d, want cue %d", i, s.index, src.Index())
		}
		cues[i] = src.WithLines(s.lines...)
	}
	return cue.NewDocument(cues, doc.Format(), target)
}

// runBatch drives one batch through the retry state machine.
func (o *Orchestrator) runBatch(ctx context.Context, target string, b Batch) ([]string, error) {
	t := &tracker{state: StatePending, maxAttempts: o.opts.MaxAttempts}
	logger := o.logger.With(logging.Int(logging.FieldBatchID, b.ID))
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := t.fire(EventDispatch); err != nil {
			return nil, err
		}
		logger.Debug("batch dispatched",
			logging.Int("attempt", t.attempts),
			logging.Int("cues", b.Len()),
			logging.Int("chars", b.Chars()),
		)
		texts, err := o.attempt(ctx, target, b)
		if err == nil {
			if err := t.fire(EventSuccess); err != nil {
				return nil, err
			}
			return texts, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		ev := EventTransientFailure
		if KindOf(err) == KindPermanent {
			ev = EventPermanentFailure
		}
		if ferr := t.fire(ev); ferr != nil {
			return nil, ferr
		}
		switch t.state {
		case StateFailedPermanent:
			return nil, &ServiceError{Kind: KindPermanent, BatchID: b.ID, Attempts: t.attempts, Detail: "rejected by translation service", Err: err}
		case StateFailedExhausted:
			return nil, &ServiceError{Kind: KindTransient, BatchID: b.ID, Attempts: t.attempts, Detail: "retries exhausted", Err: err}
		}

		delay := o.backoff.Delay(t.attempts)
		logging.WarnWithContext(logger, "translation batch retrying", "translation_batch_retry",
			logging.Int("attempt", t.attempts),
			logging.Int("max_attempts", t.maxAttempts),
			logging.Duration("delay", delay),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "transient provider failure; retrying with backoff"),
			logging.String(logging.FieldImpact, "translation slows down until the provider recovers"),
		)
		if err := o.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func (o *Orchestrator) attempt(ctx context.Context, target string, b Batch) ([]string, error) {
	attemptCtx := ctx
	if o.opts.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, o.opts.AttemptTimeout)
		defer cancel()
	}
	texts, err := o.translator.Translate(attemptCtx, slices.Clone(b.Texts), target)
	if err != nil {
		if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return nil, Transient(fmt.Errorf("attempt timed out after %s: %w", o.opts.AttemptTimeout, err))
		}
		return nil, err
	}
	if len(texts) != b.Len() {
		return nil, Transient(fmt.Errorf("%w: sent %d, received %d", ErrCountMismatch, b.Len(), len(texts)))
	}
	for i, text := range texts {
		if strings.TrimSpace(text) == "" && strings.TrimSpace(b.Texts[i]) != "" {
			return nil, Transient(fmt.Errorf("%w: batch position %d", ErrEmptyTranslation, i))
		}
	}
	return texts, nil
}

// splitLines turns collaborator output into cue lines, dropping blank lines
// so the result stays representable in every timed format.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
