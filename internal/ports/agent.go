package ports

import (
	"context"

	"github.com/vshulcz/resquewatch/internal/domain"
)

// MetricComputer turns the live state of one namespace into data points.
type MetricComputer interface {
	Compute(ctx context.Context, ns domain.Namespace, opts domain.Options) ([]domain.DataPoint, error)
}

// Publisher writes one batch of data points to the monitoring backend.
type Publisher interface {
	PutMetricData(ctx context.Context, namespace string, data []domain.DataPoint) error
}
