// Package runner resolves a batch of queries, sequentially on one shared
// session or in parallel with one session per query. Every query yields its
// own Outcome; a failing query never stops its siblings.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"seatfinder/internal/logging"
	"seatfinder/internal/surface"
	"seatfinder/internal/timetable"

	"golang.org/x/sync/errgroup"
)

// Session is a document the runner owns and must close.
type Session interface {
	surface.Document
	Close() error
}

// SessionFactory opens a fresh, independent session.
type SessionFactory func(ctx context.Context) (Session, error)

// Resolver runs the resolution pipeline for one query on one document.
type Resolver interface {
	Resolve(ctx context.Context, doc surface.Document, q timetable.Query) (*timetable.Allocation, error)
}

// Status classifies an Outcome.
type Status string

const (
	StatusFound  Status = "found"
	StatusAbsent Status = "absent" // activity full or not on the query's day
	StatusFailed Status = "failed"
)

// Outcome is the result of one query.
type Outcome struct {
	Index      int // position in the batch
	Query      timetable.Query
	Allocation *timetable.Allocation
	Err        error
	Duration   time.Duration
}

func (o Outcome) Status() Status {
	switch {
	case o.Err != nil:
		return StatusFailed
	case o.Allocation != nil:
		return StatusFound
	default:
		return StatusAbsent
	}
}

// Options tunes a Runner.
type Options struct {
	Parallel bool
	// MaxParallel caps concurrent sessions in parallel mode; <= 0 means one
	// per query.
	MaxParallel int
	// QueryTimeout bounds each query's resolution; zero means no bound.
	QueryTimeout time.Duration
	// OnOutcome, if set, is called once per query as soon as it finishes.
	// Calls are serialized.
	OnOutcome func(Outcome)
}

// Runner resolves batches of queries.
type Runner struct {
	resolver Resolver
	sessions SessionFactory
	opts     Options
	log      *logging.Logger

	notifyMu sync.Mutex
}

func New(resolver Resolver, sessions SessionFactory, opts Options) *Runner {
	return &Runner{
		resolver: resolver,
		sessions: sessions,
		opts:     opts,
		log:      logging.Get(logging.CategoryRunner),
	}
}

// Run resolves every query and returns their outcomes in input order.
func (r *Runner) Run(ctx context.Context, queries []timetable.Query) []Outcome {
	timer := logging.StartTimer(logging.CategoryRunner, fmt.Sprintf("run of %d queries", len(queries)))
	defer timer.Stop()

	if r.opts.Parallel {
		return r.runParallel(ctx, queries)
	}
	return r.runSequential(ctx, queries)
}

func (r *Runner) runSequential(ctx context.Context, queries []timetable.Query) []Outcome {
	outcomes := make([]Outcome, len(queries))

	var session Session
	defer func() {
		if session != nil {
			if err := session.Close(); err != nil {
				r.log.Warn("close session: %v", err)
			}
		}
	}()

	for i, q := range queries {
		if session == nil && ctx.Err() == nil {
			s, err := r.sessions(ctx)
			if err != nil {
				outcomes[i] = r.finish(Outcome{Index: i, Query: q, Err: fmt.Errorf("open session: %w", err)})
				continue
			}
			session = s
		}
		outcomes[i] = r.finish(r.resolve(ctx, session, i, q))
	}
	return outcomes
}

func (r *Runner) runParallel(ctx context.Context, queries []timetable.Query) []Outcome {
	outcomes := make([]Outcome, len(queries))

	eg, egCtx := errgroup.WithContext(ctx)
	if r.opts.MaxParallel > 0 {
		eg.SetLimit(r.opts.MaxParallel)
	}
	for i, q := range queries {
		i, q := i, q
		eg.Go(func() error {
			outcomes[i] = r.finish(r.resolveIsolated(egCtx, i, q))
			return nil
		})
	}
	_ = eg.Wait()
	return outcomes
}

// resolveIsolated opens a session just for q.
func (r *Runner) resolveIsolated(ctx context.Context, i int, q timetable.Query) Outcome {
	if err := ctx.Err(); err != nil {
		return Outcome{Index: i, Query: q, Err: err}
	}
	session, err := r.sessions(ctx)
	if err != nil {
		return Outcome{Index: i, Query: q, Err: fmt.Errorf("open session: %w", err)}
	}
	defer func() {
		if err := session.Close(); err != nil {
			r.log.Warn("close session for query %d: %v", i+1, err)
		}
	}()
	return r.resolve(ctx, session, i, q)
}

func (r *Runner) resolve(ctx context.Context, doc surface.Document, i int, q timetable.Query) Outcome {
	start := time.Now()
	out := Outcome{Index: i, Query: q}
	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}
	if r.opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.QueryTimeout)
		defer cancel()
	}
	out.Allocation, out.Err = r.resolver.Resolve(ctx, doc, q)
	out.Duration = time.Since(start)
	return out
}

func (r *Runner) finish(o Outcome) Outcome {
	switch o.Status() {
	case StatusFailed:
		r.log.Error("query %d (%s) failed: %v", o.Index+1, o.Query, o.Err)
	default:
		r.log.Info("query %d (%s): %s in %v", o.Index+1, o.Query, o.Status(), o.Duration)
	}
	if r.opts.OnOutcome != nil {
		r.notifyMu.Lock()
		r.opts.OnOutcome(o)
		r.notifyMu.Unlock()
	}
	return o
}

// Summary counts outcomes by status.
type Summary struct {
	Found, Absent, Failed int
}

// Summarize tallies outcomes.
func Summarize(outcomes []Outcome) Summary {
	var s Summary
	for _, o := range outcomes {
		switch o.Status() {
		case StatusFound:
			s.Found++
		case StatusAbsent:
			s.Absent++
		default:
			s.Failed++
		}
	}
	return s
}
