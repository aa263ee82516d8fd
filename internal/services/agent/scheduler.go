package agent

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vshulcz/resquewatch/internal/domain"
	"github.com/vshulcz/resquewatch/pkg/observer"
)

// Runner executes one pipeline iteration.
type Runner interface {
	RunOnce(ctx context.Context) (Result, error)
}

// Scheduler drives a Runner either once or every interval.
//
// In interval mode each iteration runs in its own goroutine and the next one starts
// interval after the previous one started, whether or not it has finished, so slow
// iterations overlap. The first failing iteration ends Run with its error.
type Scheduler struct {
	run      Runner
	events   *observer.Subject[domain.IterationEvent]
	log      *zap.Logger
	seq      atomic.Uint64
	interval time.Duration
}

// NewScheduler returns a scheduler; a non-positive interval selects one-shot mode.
// events may be nil.
func NewScheduler(r Runner, interval time.Duration, events *observer.Subject[domain.IterationEvent], log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{run: r, events: events, log: log, interval: interval}
}

// Run blocks until the single iteration completes (one-shot), an iteration fails, or
// ctx is done. Cancelling ctx stops scheduling; iterations already running are not
// cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return s.iterate(ctx)
	}

	work := context.WithoutCancel(ctx)
	errCh := make(chan error, 1)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		go func() {
			if err := s.iterate(work); err != nil {
				select {
				case errCh <- err:
				default:
				}
			}
		}()

		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped", zap.Uint64("iterations", s.seq.Load()))
			return nil
		case err := <-errCh:
			return err
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) iterate(ctx context.Context) error {
	seq := s.seq.Add(1)
	start := time.Now()
	s.events.Publish(ctx, domain.IterationEvent{
		Seq:       seq,
		Phase:     domain.PhaseStarted,
		StartedAt: start,
	})

	res, err := s.run.RunOnce(ctx)

	s.events.Publish(ctx, domain.IterationEvent{
		Seq:        seq,
		Phase:      domain.PhaseFinished,
		StartedAt:  start,
		Duration:   time.Since(start),
		Namespaces: res.Namespaces,
		Points:     res.Points,
		Batches:    res.Batches,
		DryRun:     res.DryRun,
		Err:        err,
	})
	if err != nil {
		return fmt.Errorf("iteration %d: %w", seq, err)
	}
	return nil
}
