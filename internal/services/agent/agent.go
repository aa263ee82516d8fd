// Package agent implements the sampling pipeline: resolve namespaces, compute metrics,
// batch them and publish, once or on a fixed interval.
package agent

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/vshulcz/resquewatch/internal/config"
	"github.com/vshulcz/resquewatch/internal/domain"
	"github.com/vshulcz/resquewatch/internal/ports"
)

// Result summarizes one pipeline run.
type Result struct {
	Namespaces []domain.Namespace
	Points     int
	Batches    int
	DryRun     bool
}

type Options struct {
	Logger *zap.Logger
	Output io.Writer
}

type Option func(*Options)

// WithLogger sets the logger used by the service and its publisher.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithOutput redirects dry-run dumps, stdout by default.
func WithOutput(w io.Writer) Option {
	return func(o *Options) { o.Output = w }
}

// Service owns the handles shared by every iteration. The store, computer and publisher
// must be safe for concurrent use because interval iterations may overlap.
type Service struct {
	store    ports.NamespaceStore
	computer ports.MetricComputer
	sender   *BatchPublisher
	log      *zap.Logger
	cfg      config.Config
}

// New wires together the run configuration, store, computer and publisher.
func New(cfg config.Config, store ports.NamespaceStore, c ports.MetricComputer, p ports.Publisher, opts ...Option) *Service {
	var o Options
	for _, f := range opts {
		f(&o)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		computer: c,
		sender:   NewBatchPublisher(p, cfg.CWNamespace, cfg.DryRun, o.Output, o.Logger),
		log:      o.Logger,
		cfg:      cfg,
	}
}

// RunOnce executes the pipeline a single time. Any failure aborts the run before
// anything is published, except publish failures, which surface after every batch
// request has completed.
func (s *Service) RunOnce(ctx context.Context) (Result, error) {
	res := Result{DryRun: s.cfg.DryRun}

	nss, err := ResolveNamespaces(ctx, s.cfg.RedisNamespace, s.store)
	if err != nil {
		return res, fmt.Errorf("resolve namespaces: %w", err)
	}
	res.Namespaces = nss

	perNamespace := make([][]domain.DataPoint, 0, len(nss))
	for _, ns := range nss {
		points, err := s.computer.Compute(ctx, ns, s.cfg.Metric)
		if err != nil {
			return res, fmt.Errorf("compute %s: %w", ns, err)
		}
		s.log.Debug("namespace sampled", zap.String("namespace", string(ns)), zap.Int("points", len(points)))
		perNamespace = append(perNamespace, points)
	}

	batches, err := FlattenAndBatch(perNamespace, s.cfg.BatchSize)
	if err != nil {
		return res, err
	}
	for _, b := range batches {
		res.Points += len(b)
	}
	res.Batches = len(batches)

	if err := s.sender.Publish(ctx, batches); err != nil {
		return res, err
	}
	return res, nil
}
