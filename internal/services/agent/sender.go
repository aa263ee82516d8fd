package agent

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vshulcz/resquewatch/internal/domain"
	"github.com/vshulcz/resquewatch/internal/ports"
)

// BatchPublisher ships batches to the backend, one concurrent request per batch, or
// dumps them to out in dry-run mode.
type BatchPublisher struct {
	pub       ports.Publisher
	out       io.Writer
	log       *zap.Logger
	namespace string
	dryRun    bool
}

// NewBatchPublisher returns a publisher writing into the given backend namespace.
// pub may be nil when dryRun is set; out defaults to stdout.
func NewBatchPublisher(pub ports.Publisher, namespace string, dryRun bool, out io.Writer, log *zap.Logger) *BatchPublisher {
	if out == nil {
		out = os.Stdout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BatchPublisher{pub: pub, out: out, log: log, namespace: namespace, dryRun: dryRun}
}

// Publish sends every batch without waiting for the previous one and returns once all
// requests have completed. A failed request does not cancel its siblings; the first
// failure is returned after the join.
func (bp *BatchPublisher) Publish(ctx context.Context, batches []domain.Batch) error {
	if bp.dryRun {
		return Dump(bp.out, joinBatches(batches))
	}

	var g errgroup.Group
	for i, batch := range batches {
		g.Go(func() error {
			if err := bp.pub.PutMetricData(ctx, bp.namespace, batch); err != nil {
				bp.log.Warn("put metric data failed",
					zap.Int("batch", i+1),
					zap.Int("batches", len(batches)),
					zap.Int("size", len(batch)),
					zap.Error(err),
				)
				return fmt.Errorf("put batch %d/%d: %w", i+1, len(batches), err)
			}
			return nil
		})
	}
	return g.Wait()
}

func joinBatches(batches []domain.Batch) []domain.DataPoint {
	total := 0
	for _, b := range batches {
		total += len(b)
	}
	out := make([]domain.DataPoint, 0, total)
	for _, b := range batches {
		out = append(out, b...)
	}
	return out
}

// Dump writes points as indented JSON, two spaces per level, followed by a newline.
func Dump(w io.Writer, points []domain.DataPoint) error {
	if points == nil {
		points = []domain.DataPoint{}
	}
	b, err := json.MarshalIndent(points, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metric data: %w", err)
	}
	b = append(b, '\n')
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("write metric data: %w", err)
	}
	return nil
}
