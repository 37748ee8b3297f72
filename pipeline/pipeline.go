// Package pipeline orchestrates one extraction run: navigate, then loop
// snapshot → parse → dedup → reveal until the feed is exhausted or a
// budget runs out. Transient failures are retried with exponential
// backoff; every exit path returns the records emitted so far.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hazyhaar/revpull/reveal"
	"github.com/hazyhaar/revpull/review"
	"github.com/hazyhaar/revpull/session"
)

// Status is the terminal state of a run.
type Status string

const (
	// StatusCompleted: the feed was exhausted normally.
	StatusCompleted Status = "completed"
	// StatusCompletedPartial: a budget or transient-failure limit cut the
	// run short; the returned records are valid but possibly incomplete.
	StatusCompletedPartial Status = "completed_partial"
	// StatusAborted: navigation never succeeded, the page layout was not
	// recognized, or the caller cancelled. Records collected before the
	// abort are still returned.
	StatusAborted Status = "aborted"
)

// Budget sentinels. A budget hit is a controlled stop, not a failure.
var (
	ErrDurationBudget  = errors.New("pipeline: duration budget exceeded")
	ErrIterationBudget = errors.New("pipeline: iteration budget exceeded")
)

// Config bounds a run.
type Config struct {
	// MaxIterations caps extraction loop iterations. Default: 100.
	MaxIterations int

	// MaxDuration caps wall-clock time for the whole run. Default: 10m.
	MaxDuration time.Duration

	// NoNewThreshold: consecutive iterations without a new record before
	// the run completes. Default: 3.
	NoNewThreshold int

	// RetryAttempts bounds navigation retries and, separately, transient
	// failure retries inside the loop. Default: 5.
	RetryAttempts int

	// RetryBackoffBase is the first backoff delay; it doubles per attempt.
	// Default: 500ms.
	RetryBackoffBase time.Duration

	// ExpandSelector locates body-truncation controls clicked before the
	// final snapshot. Empty disables the expand pass.
	ExpandSelector string

	// ExpandMaxPasses bounds the expand pass. Default: 10.
	ExpandMaxPasses int
}

func (c *Config) defaults() {
	if c.MaxIterations <= 0 {
		c.MaxIterations = 100
	}
	if c.MaxDuration <= 0 {
		c.MaxDuration = 10 * time.Minute
	}
	if c.NoNewThreshold <= 0 {
		c.NoNewThreshold = 3
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 5
	}
	if c.RetryBackoffBase <= 0 {
		c.RetryBackoffBase = 500 * time.Millisecond
	}
	if c.ExpandMaxPasses <= 0 {
		c.ExpandMaxPasses = 10
	}
}

// DefaultExpandSelector matches the body-truncation controls of the
// supported map-listing page.
const DefaultExpandSelector = `.business-review-view__expand[aria-hidden="false"]`

// Parser converts one markup snapshot into candidate records.
type Parser interface {
	Parse(markup string) ([]review.Record, error)
}

// Result is everything a run produces. Records is never discarded on
// failure: partial success beats total failure.
type Result struct {
	RunID      string          `json:"run_id"`
	URL        string          `json:"url"`
	Records    []review.Record `json:"records"`
	Status     Status          `json:"status"`
	Class      Class           `json:"error_class,omitempty"`
	Err        error           `json:"-"`
	Error      string          `json:"error,omitempty"`
	Iterations int             `json:"iterations"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}

// Controller runs the extraction state machine. One controller per run;
// it owns the session for the duration and releases it on every exit
// path.
type Controller struct {
	sess   session.Session
	strat  reveal.Strategy
	parser Parser
	cfg    Config
	logger *slog.Logger
	newID  func() string
}

// New creates a Controller. The session must not be opened yet; Run opens
// and closes it.
func New(sess session.Session, strat reveal.Strategy, parser Parser, cfg Config, logger *slog.Logger) *Controller {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		sess:   sess,
		strat:  strat,
		parser: parser,
		cfg:    cfg,
		logger: logger,
		newID:  uuid.NewString,
	}
}

// Run executes the pipeline against url. The returned Result is always
// non-nil and carries whatever records were emitted, alongside the
// terminal status and, on failure, the error classification.
func (c *Controller) Run(ctx context.Context, url string) *Result {
	st := newExtractionState()
	res := &Result{
		RunID:     c.newID(),
		URL:       url,
		StartedAt: time.Now(),
	}
	log := c.logger.With("run_id", res.RunID, "url", url)

	// Scoped acquisition: the session is released on every exit path,
	// including panics inside the loop.
	defer c.sess.Close()

	if err := c.navigate(ctx, url, log); err != nil {
		return c.finish(res, st, StatusAborted, err, log)
	}

	deadline := res.StartedAt.Add(c.cfg.MaxDuration)
	parseFailures := 0
	retries := 0

	for iter := 1; iter <= c.cfg.MaxIterations; iter++ {
		res.Iterations = iter

		// Cooperative cancellation, checked at the top of each iteration.
		if err := ctx.Err(); err != nil {
			return c.finish(res, st, StatusAborted, err, log)
		}
		if time.Now().After(deadline) {
			return c.finish(res, st, StatusCompletedPartial, ErrDurationBudget, log)
		}

		markup, err := c.sess.HTML(ctx)
		if err != nil {
			retries++
			log.Warn("pipeline: snapshot failed", "iteration", iter,
				"retry", retries, "error", err)
			if retries > c.cfg.RetryAttempts {
				return c.finish(res, st, StatusCompletedPartial, err, log)
			}
			if serr := sleepCtx(ctx, backoffDelay(c.cfg.RetryBackoffBase, retries-1)); serr != nil {
				return c.finish(res, st, StatusAborted, serr, log)
			}
			continue
		}

		snap := Snapshot{HTML: markup, Seq: st.nextSeq()}
		newCount := 0

		candidates, perr := c.parser.Parse(snap.HTML)
		if perr != nil {
			parseFailures++
			log.Warn("pipeline: parse failed", "seq", snap.Seq, "error", perr)
			// Two consecutive structural misses mean the layout is not
			// recognized at all.
			if parseFailures >= 2 {
				return c.finish(res, st, StatusAborted, perr, log)
			}
		} else {
			parseFailures = 0
			newCount = st.absorb(candidates)
			if newCount > 0 {
				log.Debug("pipeline: emitted records", "seq", snap.Seq,
					"new", newCount, "total", len(st.records))
			}
		}

		out := c.strat.Advance(ctx, c.sess)
		switch out.Kind {
		case reveal.Advanced:
			if newCount > 0 {
				st.noNew = 0
			} else {
				st.noNew++
			}
		case reveal.NoChange:
			st.noNew++
		case reveal.EndOfContent:
			c.finalHarvest(ctx, st, log)
			return c.finish(res, st, StatusCompleted, nil, log)
		case reveal.Failed:
			retries++
			log.Warn("pipeline: reveal failed", "iteration", iter,
				"retry", retries, "error", out.Err)
			if retries > c.cfg.RetryAttempts {
				return c.finish(res, st, StatusCompletedPartial, out.Err, log)
			}
			if serr := sleepCtx(ctx, backoffDelay(c.cfg.RetryBackoffBase, retries-1)); serr != nil {
				return c.finish(res, st, StatusAborted, serr, log)
			}
			continue
		}

		if st.noNew >= c.cfg.NoNewThreshold {
			c.finalHarvest(ctx, st, log)
			return c.finish(res, st, StatusCompleted, nil, log)
		}
	}

	return c.finish(res, st, StatusCompletedPartial, ErrIterationBudget, log)
}

// navigate opens the session with bounded exponential backoff.
func (c *Controller) navigate(ctx context.Context, url string, log *slog.Logger) error {
	var err error
	for attempt := 0; attempt < c.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			if serr := sleepCtx(ctx, backoffDelay(c.cfg.RetryBackoffBase, attempt-1)); serr != nil {
				return serr
			}
		}
		err = c.sess.Open(ctx, url)
		if err == nil {
			return nil
		}
		log.Warn("pipeline: navigation failed", "attempt", attempt+1, "error", err)
	}
	return err
}

// finalHarvest runs after the feed stops growing: expand truncated bodies
// and reconcile one last snapshot. Expanding a body changes its derived
// id, so the final candidates go through mergeExpanded rather than the
// plain seen-filter. Best-effort; the records already emitted stand
// regardless.
func (c *Controller) finalHarvest(ctx context.Context, st *extractionState, log *slog.Logger) {
	if err := reveal.ExpandAll(ctx, c.sess, c.cfg.ExpandSelector, c.cfg.ExpandMaxPasses); err != nil {
		return
	}
	markup, err := c.sess.HTML(ctx)
	if err != nil {
		log.Debug("pipeline: final snapshot failed", "error", err)
		return
	}
	candidates, err := c.parser.Parse(markup)
	if err != nil {
		return
	}
	if n := st.mergeExpanded(candidates); n > 0 {
		log.Debug("pipeline: final harvest", "new", n)
	}
}

func (c *Controller) finish(res *Result, st *extractionState, status Status, cause error, log *slog.Logger) *Result {
	res.Records = st.records
	res.Status = status
	res.Err = cause
	if cause != nil {
		res.Class = Classify(cause)
		res.Error = cause.Error()
	}
	res.FinishedAt = time.Now()

	log.Info("pipeline: finished",
		"status", status,
		"records", len(res.Records),
		"iterations", res.Iterations,
		"class", res.Class,
		"elapsed", res.FinishedAt.Sub(res.StartedAt))
	return res
}
