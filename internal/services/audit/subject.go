package audit

import (
	"context"

	"github.com/vshulcz/resquewatch/internal/domain"
	"github.com/vshulcz/resquewatch/pkg/observer"
)

// Observer receives audit events.
type Observer = observer.Observer[Event]

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc = observer.ObserverFunc[Event]

// Subject fans out events to registered observers.
type Subject = observer.Subject[Event]

// NewSubject creates a subject optionally pre-populated with observers.
func NewSubject(observers ...Observer) *Subject {
	return observer.NewSubject[Event](observers...)
}

// Forward adapts sink to the scheduler's event stream: every finished iteration is
// converted and published to sink.
func Forward(sink *Subject) observer.Observer[domain.IterationEvent] {
	return observer.ObserverFunc[domain.IterationEvent](func(ctx context.Context, evt domain.IterationEvent) error {
		if rec, ok := FromIteration(evt); ok {
			sink.Publish(ctx, rec)
		}
		return nil
	})
}
