package agent

import "github.com/vshulcz/resquewatch/internal/domain"

// Flatten concatenates per-namespace results, keeping namespace order and the order
// within each namespace.
func Flatten(perNamespace [][]domain.DataPoint) []domain.DataPoint {
	total := 0
	for _, pts := range perNamespace {
		total += len(pts)
	}
	out := make([]domain.DataPoint, 0, total)
	for _, pts := range perNamespace {
		out = append(out, pts...)
	}
	return out
}

// Chunk splits points into contiguous batches of limit items; only the last batch may be
// shorter. The batches share the backing array of points.
func Chunk(points []domain.DataPoint, limit int) ([]domain.Batch, error) {
	if limit < 1 {
		return nil, domain.ErrInvalidBatchSize
	}
	if len(points) == 0 {
		return nil, nil
	}
	batches := make([]domain.Batch, 0, (len(points)+limit-1)/limit)
	for start := 0; start < len(points); start += limit {
		end := min(start+limit, len(points))
		batches = append(batches, domain.Batch(points[start:end:end]))
	}
	return batches, nil
}

// FlattenAndBatch is Flatten followed by Chunk.
func FlattenAndBatch(perNamespace [][]domain.DataPoint, limit int) ([]domain.Batch, error) {
	return Chunk(Flatten(perNamespace), limit)
}
