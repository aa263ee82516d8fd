// Package status tracks scheduler iterations and reports liveness of the store.
package status

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/vshulcz/resquewatch/internal/domain"
	"github.com/vshulcz/resquewatch/internal/ports"
)

// Service keeps the running totals served by the status endpoint. It implements
// observer.Observer[domain.IterationEvent].
type Service struct {
	pinger ports.Pinger
	now    func() time.Time
	last   *domain.IterationState
	st     domain.Status
	mu     sync.RWMutex
}

func New(pinger ports.Pinger) *Service {
	s := &Service{pinger: pinger, now: time.Now}
	s.st.Since = s.now().UTC()
	return s
}

// Ping checks that the Redis server answers.
func (s *Service) Ping(ctx context.Context) error {
	if s.pinger == nil {
		return nil
	}
	return s.pinger.Ping(ctx)
}

// Notify folds one iteration event into the totals.
func (s *Service) Notify(_ context.Context, evt domain.IterationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch evt.Phase {
	case domain.PhaseStarted:
		s.st.Started++
		s.st.InFlight++
	case domain.PhaseFinished:
		s.st.Finished++
		s.st.InFlight--
		last := &domain.IterationState{
			StartedAt:  evt.StartedAt.UTC(),
			Namespaces: slices.Clone(evt.Namespaces),
			Seq:        evt.Seq,
			DurationMS: evt.Duration.Milliseconds(),
			Points:     evt.Points,
			Batches:    evt.Batches,
			DryRun:     evt.DryRun,
		}
		if evt.Err != nil {
			s.st.Failed++
			last.Error = evt.Err.Error()
		} else if !evt.DryRun {
			s.st.PointsSent += uint64(evt.Points)
		}
		// overlapping iterations may finish out of order
		if s.last == nil || last.Seq >= s.last.Seq {
			s.last = last
		}
	}
	return nil
}

// Snapshot returns a copy of the current totals.
func (s *Service) Snapshot(context.Context) (domain.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.st
	if s.last != nil {
		cp := *s.last
		cp.Namespaces = slices.Clone(s.last.Namespaces)
		out.Last = &cp
	}
	return out, nil
}
