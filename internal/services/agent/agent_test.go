package agent

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/vshulcz/resquewatch/internal/config"
	"github.com/vshulcz/resquewatch/internal/domain"
)

type fakeComputer struct {
	errs map[domain.Namespace]error
	per  map[domain.Namespace]int
	seen []domain.Namespace
	opts []domain.Options
	mu   sync.Mutex
}

func (f *fakeComputer) Compute(_ context.Context, ns domain.Namespace, opts domain.Options) ([]domain.DataPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, ns)
	f.opts = append(f.opts, opts)
	if err := f.errs[ns]; err != nil {
		return nil, err
	}
	pts := points(f.per[ns])
	for i := range pts {
		pts[i].Dimensions = []domain.Dimension{{Name: domain.DimensionNamespace, Value: string(ns)}}
	}
	return pts, nil
}

func baseConfig() config.Config {
	return config.Config{
		CWNamespace: "Resque",
		BatchSize:   20,
		Backend:     config.BackendCloudWatch,
	}
}

func TestService_RunOnce(t *testing.T) {
	cfg := baseConfig()
	cfg.RedisNamespace = "app*"
	cfg.Metric = domain.Options{Extra: domain.NewCategorySet(domain.CategoryProcessing)}

	store := &fakeStore{keys: []string{"app1:queues", "app2:queues"}}
	comp := &fakeComputer{per: map[domain.Namespace]int{"app1": 30, "app2": 12}}
	pub := &concPublisher{}

	res, err := New(cfg, store, comp, pub).RunOnce(t.Context())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if res.Points != 42 || res.Batches != 3 || len(res.Namespaces) != 2 || res.DryRun {
		t.Fatalf("unexpected result %+v", res)
	}
	if pub.calls() != 3 {
		t.Fatalf("expected 3 requests, got %d", pub.calls())
	}
	if len(comp.seen) != 2 || comp.seen[0] != "app1" || comp.seen[1] != "app2" {
		t.Fatalf("namespaces computed out of order: %v", comp.seen)
	}
	if !comp.opts[0].Enabled(domain.CategoryProcessing) {
		t.Fatal("metric options were not forwarded")
	}
}

func TestService_RunOnce_DryRun(t *testing.T) {
	cfg := baseConfig()
	cfg.DryRun = true
	store := &fakeStore{def: "resque"}
	comp := &fakeComputer{per: map[domain.Namespace]int{"resque": 7}}
	pub := &concPublisher{}
	var out bytes.Buffer

	res, err := New(cfg, store, comp, pub, WithOutput(&out)).RunOnce(t.Context())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if !res.DryRun || res.Points != 7 {
		t.Fatalf("unexpected result %+v", res)
	}
	if pub.calls() != 0 {
		t.Fatalf("dry run reached the backend %d times", pub.calls())
	}
	if !strings.Contains(out.String(), `"value": 6`) {
		t.Fatalf("dump misses points:\n%s", out.String())
	}
}

func TestService_RunOnce_Aborts(t *testing.T) {
	boom := errors.New("dial tcp: connection refused")
	tests := []struct {
		name    string
		store   *fakeStore
		comp    *fakeComputer
		pattern string
		wantMsg string
	}{
		{
			name:    "store_unreachable",
			pattern: "app*",
			store:   &fakeStore{err: boom},
			comp:    &fakeComputer{},
			wantMsg: "resolve namespaces",
		},
		{
			name:    "compute_fails_midway",
			pattern: "app*",
			store:   &fakeStore{keys: []string{"app1:queues", "app2:queues", "app3:queues"}},
			comp: &fakeComputer{
				per:  map[domain.Namespace]int{"app1": 5, "app3": 5},
				errs: map[domain.Namespace]error{"app2": boom},
			},
			wantMsg: "compute app2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			cfg.RedisNamespace = tt.pattern
			pub := &concPublisher{}

			_, err := New(cfg, tt.store, tt.comp, pub).RunOnce(t.Context())
			if !errors.Is(err, boom) {
				t.Fatalf("expected wrapped store error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("error %q lacks %q", err, tt.wantMsg)
			}
			if pub.calls() != 0 {
				t.Fatalf("nothing may be published after a failure, got %d calls", pub.calls())
			}
			for _, ns := range tt.comp.seen {
				if ns == "app3" {
					t.Fatal("computation continued after a failure")
				}
			}
		})
	}
}

func TestService_RunOnce_NoNamespaces(t *testing.T) {
	cfg := baseConfig()
	cfg.RedisNamespace = "ghost*"
	pub := &concPublisher{}

	res, err := New(cfg, &fakeStore{}, &fakeComputer{}, pub).RunOnce(t.Context())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if res.Points != 0 || res.Batches != 0 || pub.calls() != 0 {
		t.Fatalf("expected empty run, got %+v with %d calls", res, pub.calls())
	}
}
