package agent

import (
	"errors"
	"testing"

	"github.com/vshulcz/resquewatch/internal/domain"
)

func TestChunk(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		limit int
		want  []int
	}{
		{name: "empty", n: 0, limit: 20, want: nil},
		{name: "single_short", n: 3, limit: 20, want: []int{3}},
		{name: "exact", n: 40, limit: 20, want: []int{20, 20}},
		{name: "remainder", n: 45, limit: 20, want: []int{20, 20, 5}},
		{name: "limit_one", n: 3, limit: 1, want: []int{1, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Chunk(points(tt.n), tt.limit)
			if err != nil {
				t.Fatalf("Chunk: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d batches, want %d", len(got), len(tt.want))
			}
			for i, b := range got {
				if len(b) != tt.want[i] {
					t.Fatalf("batch %d has %d points, want %d", i, len(b), tt.want[i])
				}
			}
		})
	}
}

func TestChunk_Partition(t *testing.T) {
	for n := 0; n <= 64; n++ {
		for limit := 1; limit <= 25; limit++ {
			in := points(n)
			batches, err := Chunk(in, limit)
			if err != nil {
				t.Fatalf("n=%d limit=%d: %v", n, limit, err)
			}
			if want := (n + limit - 1) / limit; len(batches) != want {
				t.Fatalf("n=%d limit=%d: %d batches, want %d", n, limit, len(batches), want)
			}
			var joined []domain.DataPoint
			for i, b := range batches {
				if len(b) == 0 || len(b) > limit {
					t.Fatalf("n=%d limit=%d: batch %d has %d points", n, limit, i, len(b))
				}
				if i < len(batches)-1 && len(b) != limit {
					t.Fatalf("n=%d limit=%d: only the last batch may be short", n, limit)
				}
				joined = append(joined, b...)
			}
			if len(joined) != n {
				t.Fatalf("n=%d limit=%d: lost points", n, limit)
			}
			for i := range joined {
				if joined[i].Value != in[i].Value {
					t.Fatalf("n=%d limit=%d: order changed at %d", n, limit, i)
				}
			}
		}
	}
}

func TestChunk_InvalidLimit(t *testing.T) {
	for _, limit := range []int{0, -1} {
		if _, err := Chunk(points(3), limit); !errors.Is(err, domain.ErrInvalidBatchSize) {
			t.Fatalf("limit %d: expected ErrInvalidBatchSize, got %v", limit, err)
		}
	}
}

func TestChunk_BatchesDoNotAlias(t *testing.T) {
	batches, _ := Chunk(points(5), 2)
	first := batches[0]
	first = append(first, domain.DataPoint{MetricName: "X"})
	if batches[1][0].MetricName != "Pending" {
		t.Fatalf("append on a batch overwrote its neighbour: %+v", batches[1][0])
	}
	_ = first
}

func TestFlattenAndBatch(t *testing.T) {
	a := points(15)
	b := points(12)
	for i := range b {
		b[i].Value += 100
	}
	got, err := FlattenAndBatch([][]domain.DataPoint{a, nil, b}, 20)
	if err != nil {
		t.Fatalf("FlattenAndBatch: %v", err)
	}
	if len(got) != 2 || len(got[0]) != 20 || len(got[1]) != 7 {
		t.Fatalf("unexpected shape %d", len(got))
	}
	if got[0][14].Value != 14 || got[0][15].Value != 100 || got[1][6].Value != 111 {
		t.Fatalf("namespace order not preserved")
	}
}
