package service

import (
	"context"
	"sync"
	"time"

	"github.com/valueprobe/backend/internal/constant"
	"github.com/valueprobe/backend/internal/model"
)

type fetchAnalysisFunc func(ctx context.Context) (*model.AnalysisResult, error)
type triggerRecomputeFunc func(ctx context.Context) error

// ObserverSnapshot is the externally visible state of an Observer at one
// point in time.
type ObserverSnapshot struct {
	Analysis    *model.AnalysisResult
	Loading     bool
	Err         error
	Recomputing bool
}

// Observer keeps one run's analysis fresh while its computation settles.
// It drives at most one timer at any moment: a slow cadence while the
// analysis is PENDING or COMPUTING, and a bounded fast cadence right after
// a recompute has been requested, while the new record has not yet
// appeared. When neither condition holds the observer is idle.
//
// All mutation happens under o.mu. Every scheduling decision bumps a
// generation counter, and both timer callbacks and fetch responses carry
// the generation they were issued under; a stale generation means the
// observation was superseded and the callback drops itself. This is what
// makes Dispose and rapid status flips race-free without waiting for
// in-flight fetches.
type Observer struct {
	ctx     context.Context
	fetch   fetchAnalysisFunc
	trigger triggerRecomputeFunc

	watchInterval time.Duration
	fastInterval  time.Duration
	fastBudget    int

	mu            sync.Mutex
	gen           uint64
	timer         *time.Timer
	disposed      bool
	status        string
	fastRemaining int
	recomputing   bool
	loading       bool
	analysis      *model.AnalysisResult
	err           error
}

func newObserver(ctx context.Context, fetch fetchAnalysisFunc, trigger triggerRecomputeFunc, status string, watchInterval, fastInterval time.Duration, fastBudget int) *Observer {
	o := &Observer{
		ctx:           ctx,
		fetch:         fetch,
		trigger:       trigger,
		watchInterval: watchInterval,
		fastInterval:  fastInterval,
		fastBudget:    fastBudget,
		status:        status,
	}

	o.mu.Lock()
	o.supersede()
	gen := o.gen
	o.mu.Unlock()

	go o.refresh(gen)
	return o
}

// Snapshot returns the current observation state.
func (o *Observer) Snapshot() ObserverSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return ObserverSnapshot{
		Analysis:    o.analysis,
		Loading:     o.loading,
		Err:         o.err,
		Recomputing: o.recomputing,
	}
}

// SetStatus feeds the observer a status reported from outside, e.g. from a
// run listing that is polled independently, and reschedules accordingly.
func (o *Observer) SetStatus(status string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.disposed {
		return
	}
	o.status = status
	o.arm()
}

// Refetch forces an immediate refresh, superseding any scheduled one.
func (o *Observer) Refetch() {
	o.mu.Lock()
	if o.disposed {
		o.mu.Unlock()
		return
	}
	o.supersede()
	gen := o.gen
	o.mu.Unlock()

	o.refresh(gen)
}

// Recompute requests a recomputation of the analysis and switches the
// observer to the fast cadence until the fresh record shows up or the
// attempt budget runs out. The refresh issued right away does not count
// against the budget.
func (o *Observer) Recompute() error {
	o.mu.Lock()
	if o.disposed {
		o.mu.Unlock()
		return nil
	}
	o.recomputing = true
	o.mu.Unlock()

	if err := o.trigger(o.ctx); err != nil {
		o.mu.Lock()
		o.recomputing = false
		o.err = err
		o.mu.Unlock()
		return err
	}

	o.mu.Lock()
	if o.disposed {
		o.mu.Unlock()
		return nil
	}
	o.analysis = nil
	o.fastRemaining = o.fastBudget
	o.supersede()
	gen := o.gen
	o.mu.Unlock()

	o.refresh(gen)
	return nil
}

// Dispose permanently stops the observer. Any in-flight fetch result is
// discarded on arrival.
func (o *Observer) Dispose() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.disposed = true
	o.supersede()
}

// supersede cancels the scheduled tick, if any, and invalidates every
// outstanding callback. Callers must hold o.mu.
func (o *Observer) supersede() {
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	o.gen++
}

// arm supersedes the current schedule and plants the next tick if either
// polling condition holds. Callers must hold o.mu.
func (o *Observer) arm() {
	o.supersede()
	if o.disposed {
		return
	}

	var interval time.Duration
	switch {
	case o.fastRemaining > 0:
		interval = o.fastInterval
	case o.status == constant.AnalysisStatusPending || o.status == constant.AnalysisStatusComputing:
		interval = o.watchInterval
	default:
		return
	}

	gen := o.gen
	o.timer = time.AfterFunc(interval, func() {
		o.tick(gen)
	})
}

func (o *Observer) tick(gen uint64) {
	o.mu.Lock()
	if o.disposed || gen != o.gen {
		o.mu.Unlock()
		return
	}
	if o.fastRemaining > 0 {
		o.fastRemaining--
	}
	o.mu.Unlock()

	o.refresh(gen)
}

func (o *Observer) refresh(gen uint64) {
	o.mu.Lock()
	if o.disposed || gen != o.gen {
		o.mu.Unlock()
		return
	}
	o.loading = true
	o.mu.Unlock()

	analysis, err := o.fetch(o.ctx)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.disposed || gen != o.gen {
		return
	}

	o.loading = false
	o.err = err
	if analysis != nil {
		o.analysis = analysis
		o.status = analysis.Status
	}
	if o.recomputing && (analysis != nil || o.fastRemaining == 0) {
		// either the fresh record arrived or the budget ran out
		o.fastRemaining = 0
		o.recomputing = false
	}
	o.arm()
}
