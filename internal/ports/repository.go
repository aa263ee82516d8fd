package ports

import (
	"context"

	"github.com/vshulcz/resquewatch/internal/domain"
)

// NamespaceStore enumerates namespaces known to the store.
type NamespaceStore interface {
	// DefaultNamespace is the namespace the store client is configured with.
	DefaultNamespace() domain.Namespace
	// Keys returns every key matching the glob pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// QueueStats reads the Resque bookkeeping of a namespace.
type QueueStats interface {
	Queues(ctx context.Context, ns domain.Namespace) ([]string, error)
	QueueSizes(ctx context.Context, ns domain.Namespace, queues []string) ([]int64, error)
	Stat(ctx context.Context, ns domain.Namespace, name string) (int64, error)
	Workers(ctx context.Context, ns domain.Namespace) ([]string, error)
	// WorkingQueues returns, for every busy worker among workers, the queue of its current job.
	WorkingQueues(ctx context.Context, ns domain.Namespace, workers []string) ([]string, error)
}

// Pinger checks backend liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusService backs the HTTP status endpoints.
type StatusService interface {
	Pinger
	Snapshot(ctx context.Context) (domain.Status, error)
}
