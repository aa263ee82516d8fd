package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vshulcz/resquewatch/internal/domain"
	"github.com/vshulcz/resquewatch/pkg/observer"
)

type fakeRunner struct {
	failAt      int64
	hold        time.Duration
	calls       atomic.Int64
	inflight    atomic.Int64
	maxInflight atomic.Int64
	cancelled   atomic.Int64
}

func (r *fakeRunner) RunOnce(ctx context.Context) (Result, error) {
	n := r.calls.Add(1)
	cur := r.inflight.Add(1)
	defer r.inflight.Add(-1)
	for {
		old := r.maxInflight.Load()
		if cur <= old || r.maxInflight.CompareAndSwap(old, cur) {
			break
		}
	}
	if r.failAt > 0 && n == r.failAt {
		return Result{}, errors.New("redis down")
	}
	select {
	case <-ctx.Done():
		r.cancelled.Add(1)
	case <-time.After(r.hold):
	}
	return Result{Namespaces: []domain.Namespace{"resque"}, Points: 8, Batches: 1}, nil
}

type eventLog struct {
	events []domain.IterationEvent
	mu     sync.Mutex
}

func (l *eventLog) Notify(_ context.Context, evt domain.IterationEvent) error {
	l.mu.Lock()
	l.events = append(l.events, evt)
	l.mu.Unlock()
	return nil
}

func (l *eventLog) snapshot() []domain.IterationEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.IterationEvent(nil), l.events...)
}

func TestScheduler_OneShot(t *testing.T) {
	r := &fakeRunner{}
	log := &eventLog{}
	s := NewScheduler(r, 0, observer.NewSubject[domain.IterationEvent](log), nil)

	if err := s.Run(t.Context()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.calls.Load() != 1 {
		t.Fatalf("expected a single iteration, got %d", r.calls.Load())
	}
	evts := log.snapshot()
	if len(evts) != 2 || evts[0].Phase != domain.PhaseStarted || evts[1].Phase != domain.PhaseFinished {
		t.Fatalf("unexpected events %+v", evts)
	}
	if evts[1].Seq != 1 || evts[1].Points != 8 || evts[1].Err != nil {
		t.Fatalf("unexpected finish event %+v", evts[1])
	}
}

func TestScheduler_OneShotError(t *testing.T) {
	r := &fakeRunner{failAt: 1}
	log := &eventLog{}
	s := NewScheduler(r, 0, observer.NewSubject[domain.IterationEvent](log), zap.NewNop())

	err := s.Run(t.Context())
	if err == nil || err.Error() != "iteration 1: redis down" {
		t.Fatalf("unexpected error %v", err)
	}
	evts := log.snapshot()
	if len(evts) != 2 || evts[1].Err == nil {
		t.Fatalf("failure must be reported in the finish event: %+v", evts)
	}
}

func TestScheduler_IntervalOverlaps(t *testing.T) {
	r := &fakeRunner{hold: 60 * time.Millisecond}
	s := NewScheduler(r, 10*time.Millisecond, nil, nil)

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()
	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.calls.Load() < 3 {
		t.Fatalf("expected iterations every interval, got %d", r.calls.Load())
	}
	if r.maxInflight.Load() < 2 {
		t.Fatalf("slow iterations must overlap, max inflight %d", r.maxInflight.Load())
	}
}

func TestScheduler_StopLeavesInFlightRunning(t *testing.T) {
	r := &fakeRunner{hold: 50 * time.Millisecond}
	s := NewScheduler(r, time.Hour, nil, nil)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.Now().Add(time.Second)
	for r.inflight.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	for r.inflight.Load() > 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if r.cancelled.Load() != 0 {
		t.Fatal("in-flight iteration must not be cancelled on shutdown")
	}
}

func TestScheduler_IntervalErrorStops(t *testing.T) {
	r := &fakeRunner{failAt: 2, hold: time.Millisecond}
	s := NewScheduler(r, 5*time.Millisecond, nil, nil)

	done := make(chan error, 1)
	go func() { done <- s.Run(t.Context()) }()

	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), "redis down") {
			t.Fatalf("unexpected error %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run kept going after a failed iteration")
	}
}

func TestLogObserver(t *testing.T) {
	obs := LogObserver(zap.NewNop())
	for _, evt := range []domain.IterationEvent{
		{Phase: domain.PhaseStarted, Seq: 1},
		{Phase: domain.PhaseFinished, Seq: 1},
		{Phase: domain.PhaseFinished, Seq: 2, Err: errors.New("boom")},
	} {
		if err := obs.Notify(t.Context(), evt); err != nil {
			t.Fatalf("Notify: %v", err)
		}
	}
}
