// Package scheduler runs report jobs for a watch list on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/seenimoa/futuresagent/internal/infra"
	"github.com/seenimoa/futuresagent/pkg/utils"
)

// Job produces and saves the report for one symbol.
type Job func(ctx context.Context, symbol string) error

// Scheduler triggers Job for every watched symbol, one after another, on
// each cron tick. A run is skipped while the previous one is still going,
// whether it came from a tick or from RunNow.
type Scheduler struct {
	cron    *cron.Cron
	ctx     context.Context
	job     Job
	symbols []string
	running atomic.Bool
	log     *slog.Logger
}

// New creates a Scheduler whose jobs run under ctx. The cron spec has a
// leading seconds field, e.g. "0 30 15 * * 1-5".
func New(ctx context.Context, job Job) *Scheduler {
	log := infra.Logger().With("component", "scheduler")
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(utils.CST),
			cron.WithChain(cron.Recover(cronLogger{log}), cron.SkipIfStillRunning(cronLogger{log})),
		),
		ctx: ctx,
		job: job,
		log: log,
	}
}

// Watch registers the watch list under spec.
func (s *Scheduler) Watch(spec string, symbols []string) error {
	if len(symbols) == 0 {
		return errors.New("watch list is empty")
	}
	s.symbols = append([]string(nil), symbols...)
	if _, err := s.cron.AddFunc(spec, func() { s.RunNow() }); err != nil {
		return fmt.Errorf("register watch task %q: %w", spec, err)
	}
	return nil
}

// Next returns the next scheduled tick, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", "symbols", s.symbols, "next", s.Next())
}

// Stop stops the scheduler and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunNow runs the watch list once, sequentially. Failures are logged and do
// not stop the remaining symbols. It returns false without running when
// another run is in progress.
func (s *Scheduler) RunNow() bool {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn("watch run skipped, previous run still in progress")
		return false
	}
	defer s.running.Store(false)

	start := time.Now()
	failed := 0
	for _, sym := range s.symbols {
		if s.ctx.Err() != nil {
			return true
		}
		s.log.Info("watch job started", "symbol", sym)
		if err := s.job(s.ctx, sym); err != nil {
			failed++
			s.log.Error("watch job failed", "symbol", sym, "error", err)
		}
	}
	s.log.Info("watch tick finished", "symbols", len(s.symbols), "failed", failed, "elapsed", time.Since(start).Round(time.Millisecond))
	return true
}

// ValidateSpec reports whether spec parses as a seconds-field cron expression.
func ValidateSpec(spec string) error {
	p := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := p.Parse(spec); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, kv ...interface{}) { c.l.Debug(msg, kv...) }
func (c cronLogger) Error(err error, msg string, kv ...interface{}) {
	c.l.Error(msg, append(kv, "error", err)...)
}
