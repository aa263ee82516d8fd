// Package resque computes queue metrics from the Resque bookkeeping kept in the store.
package resque

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/vshulcz/resquewatch/internal/domain"
	"github.com/vshulcz/resquewatch/internal/ports"
)

// Computer samples one namespace at a time. It keeps no state between calls and
// may be shared by concurrent iterations.
type Computer struct {
	src ports.QueueStats
	now func() time.Time
}

var _ ports.MetricComputer = (*Computer)(nil)

// New returns a Computer reading from src.
func New(src ports.QueueStats) *Computer {
	return &Computer{src: src, now: time.Now}
}

// sample holds the raw figures of a namespace; fields stay zero when nothing enabled needs them.
type sample struct {
	queues        []string
	sizes         []int64
	processed     int64
	failed        int64
	workers       int
	workingQueues []string
}

// Compute returns the enabled metrics of ns in a fixed order: namespace totals first,
// then per-queue pending counts, then per-queue processing counts.
func (c *Computer) Compute(ctx context.Context, ns domain.Namespace, opts domain.Options) ([]domain.DataPoint, error) {
	if ns == "" {
		return nil, domain.ErrEmptyNamespace
	}
	ts := c.now()

	s, err := c.read(ctx, ns, opts)
	if err != nil {
		return nil, err
	}

	base := []domain.Dimension{{Name: domain.DimensionNamespace, Value: string(ns)}}
	point := func(name string, v float64, dims []domain.Dimension) domain.DataPoint {
		return domain.DataPoint{
			MetricName: name,
			Dimensions: dims,
			Timestamp:  ts,
			Value:      v,
			Unit:       domain.UnitCount,
		}
	}
	perQueue := func(q string) []domain.Dimension {
		return []domain.Dimension{base[0], {Name: domain.DimensionQueue, Value: q}}
	}

	var out []domain.DataPoint
	if opts.Enabled(domain.CategoryPending) {
		var total int64
		for _, n := range s.sizes {
			total += n
		}
		out = append(out, point(MPending, float64(total), base))
	}
	if opts.Enabled(domain.CategoryProcessed) {
		out = append(out, point(MProcessed, float64(s.processed), base))
	}
	if opts.Enabled(domain.CategoryFailed) {
		out = append(out, point(MFailed, float64(s.failed), base))
	}
	if opts.Enabled(domain.CategoryQueues) {
		out = append(out, point(MQueues, float64(len(s.queues)), base))
	}
	if opts.Enabled(domain.CategoryWorkers) {
		out = append(out, point(MWorkers, float64(s.workers), base))
	}
	if opts.Enabled(domain.CategoryWorking) {
		out = append(out, point(MWorking, float64(len(s.workingQueues)), base))
	}
	if opts.Enabled(domain.CategoryNotWorking) {
		out = append(out, point(MNotWorking, float64(s.workers-len(s.workingQueues)), base))
	}
	if opts.Enabled(domain.CategoryPendingPerQueue) {
		for i, q := range s.queues {
			out = append(out, point(MPending, float64(s.sizes[i]), perQueue(q)))
		}
	}
	if opts.Enabled(domain.CategoryProcessing) {
		counts, names := processingByQueue(s.queues, s.workingQueues)
		for _, q := range names {
			out = append(out, point(MProcessing, float64(counts[q]), perQueue(q)))
		}
	}
	return out, nil
}

func (c *Computer) read(ctx context.Context, ns domain.Namespace, opts domain.Options) (sample, error) {
	var s sample
	var err error

	needSizes := opts.Enabled(domain.CategoryPending) || opts.Enabled(domain.CategoryPendingPerQueue)
	needQueues := needSizes || opts.Enabled(domain.CategoryQueues) || opts.Enabled(domain.CategoryProcessing)
	needWorking := opts.Enabled(domain.CategoryWorking) || opts.Enabled(domain.CategoryNotWorking) ||
		opts.Enabled(domain.CategoryProcessing)
	needWorkers := needWorking || opts.Enabled(domain.CategoryWorkers)

	if needQueues {
		if s.queues, err = c.src.Queues(ctx, ns); err != nil {
			return s, err
		}
	}
	if needSizes {
		if s.sizes, err = c.src.QueueSizes(ctx, ns, s.queues); err != nil {
			return s, err
		}
		if len(s.sizes) != len(s.queues) {
			return s, fmt.Errorf("queue sizes: got %d for %d queues", len(s.sizes), len(s.queues))
		}
	}
	if opts.Enabled(domain.CategoryProcessed) {
		if s.processed, err = c.src.Stat(ctx, ns, statProcessed); err != nil {
			return s, err
		}
	}
	if opts.Enabled(domain.CategoryFailed) {
		if s.failed, err = c.src.Stat(ctx, ns, statFailed); err != nil {
			return s, err
		}
	}
	if needWorkers {
		workers, err := c.src.Workers(ctx, ns)
		if err != nil {
			return s, err
		}
		s.workers = len(workers)
		if needWorking {
			if s.workingQueues, err = c.src.WorkingQueues(ctx, ns, workers); err != nil {
				return s, err
			}
		}
	}
	return s, nil
}

// processingByQueue counts busy workers per queue. Every known queue is reported, plus
// queues only seen in job records; jobs without a queue are not attributed.
func processingByQueue(known, working []string) (map[string]int, []string) {
	counts := make(map[string]int, len(known))
	for _, q := range known {
		counts[q] = 0
	}
	for _, q := range working {
		if q == "" {
			continue
		}
		counts[q]++
	}
	names := make([]string, 0, len(counts))
	for q := range counts {
		names = append(names, q)
	}
	slices.Sort(names)
	return counts, names
}
