package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vshulcz/resquewatch/internal/domain"
)

func TestFromIteration(t *testing.T) {
	start := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	if _, ok := FromIteration(domain.IterationEvent{Phase: domain.PhaseStarted, Seq: 1}); ok {
		t.Fatal("started events must be ignored")
	}

	got, ok := FromIteration(domain.IterationEvent{
		Phase:      domain.PhaseFinished,
		Seq:        7,
		StartedAt:  start,
		Duration:   2500 * time.Millisecond,
		Namespaces: []domain.Namespace{"app1", "app2"},
		Points:     18,
		Batches:    1,
		Err:        errors.New("put batch 1/1: throttled"),
	})
	if !ok {
		t.Fatal("finished event dropped")
	}
	if got.Seq != 7 || got.DurationMS != 2500 || got.Points != 18 || got.Batches != 1 {
		t.Fatalf("unexpected event %+v", got)
	}
	if got.Timestamp != start.Add(2*time.Second).Unix() {
		t.Fatalf("timestamp %d", got.Timestamp)
	}
	if len(got.Namespaces) != 2 || got.Namespaces[1] != "app2" || got.Error != "put batch 1/1: throttled" {
		t.Fatalf("unexpected event %+v", got)
	}
}

func TestForward(t *testing.T) {
	var (
		mu  sync.Mutex
		got []Event
	)
	sink := NewSubject(ObserverFunc(func(_ context.Context, evt Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, evt)
		return nil
	}))
	fwd := Forward(sink)

	for _, evt := range []domain.IterationEvent{
		{Phase: domain.PhaseStarted, Seq: 1},
		{Phase: domain.PhaseFinished, Seq: 1, Points: 3},
	} {
		if err := fwd.Notify(t.Context(), evt); err != nil {
			t.Fatalf("Notify: %v", err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0].Seq != 1 || got[0].Points != 3 {
		t.Fatalf("unexpected records %+v", got)
	}
}

func TestForward_SinkErrorsStayInSink(t *testing.T) {
	sink := NewSubject(ObserverFunc(func(context.Context, Event) error {
		return errors.New("disk full")
	}))
	var reported []error
	sink.SetErrorHandler(func(_ Event, err error) { reported = append(reported, err) })

	if err := Forward(sink).Notify(t.Context(), domain.IterationEvent{Phase: domain.PhaseFinished}); err != nil {
		t.Fatalf("sink failures must not propagate: %v", err)
	}
	if len(reported) != 1 {
		t.Fatalf("expected sink error handler to fire once, got %d", len(reported))
	}
}
