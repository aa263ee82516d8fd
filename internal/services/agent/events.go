package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/vshulcz/resquewatch/internal/domain"
	"github.com/vshulcz/resquewatch/pkg/observer"
)

// LogObserver writes one log line per finished iteration.
func LogObserver(log *zap.Logger) observer.Observer[domain.IterationEvent] {
	return observer.ObserverFunc[domain.IterationEvent](func(_ context.Context, evt domain.IterationEvent) error {
		if evt.Phase != domain.PhaseFinished {
			log.Debug("iteration started", zap.Uint64("seq", evt.Seq))
			return nil
		}
		fields := []zap.Field{
			zap.Uint64("seq", evt.Seq),
			zap.Int("namespaces", len(evt.Namespaces)),
			zap.Int("points", evt.Points),
			zap.Int("batches", evt.Batches),
			zap.Bool("dryrun", evt.DryRun),
			zap.Duration("duration", evt.Duration),
		}
		if evt.Err != nil {
			log.Error("iteration failed", append(fields, zap.Error(evt.Err))...)
			return nil
		}
		log.Info("iteration finished", fields...)
		return nil
	})
}
