package agent

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redisrepo "github.com/vshulcz/resquewatch/internal/adapters/repository/redis"
	"github.com/vshulcz/resquewatch/internal/domain"
)

type fakeStore struct {
	err      error
	def      domain.Namespace
	keys     []string
	patterns []string
}

func (f *fakeStore) DefaultNamespace() domain.Namespace { return f.def }

func (f *fakeStore) Keys(_ context.Context, pattern string) ([]string, error) {
	f.patterns = append(f.patterns, pattern)
	if f.err != nil {
		return nil, f.err
	}
	return f.keys, nil
}

func TestResolveNamespaces(t *testing.T) {
	tests := []struct {
		name        string
		pattern     string
		store       *fakeStore
		want        []domain.Namespace
		wantPattern string
	}{
		{
			name:  "empty_uses_default",
			store: &fakeStore{def: "resque"},
			want:  []domain.Namespace{"resque"},
		},
		{
			name:    "plain_name_is_unchecked",
			pattern: "does-not-exist",
			store:   &fakeStore{def: "resque"},
			want:    []domain.Namespace{"does-not-exist"},
		},
		{
			name:        "wildcard_strips_suffix",
			pattern:     "app*",
			store:       &fakeStore{keys: []string{"app1:queues", "app2:queues"}},
			want:        []domain.Namespace{"app1", "app2"},
			wantPattern: "app*:queues",
		},
		{
			name:        "wildcard_without_matches",
			pattern:     "*x",
			store:       &fakeStore{},
			want:        []domain.Namespace{},
			wantPattern: "*x:queues",
		},
		{
			name:        "wildcard_drops_odd_keys",
			pattern:     "*",
			store:       &fakeStore{keys: []string{":queues", "svc:queues", "other"}},
			want:        []domain.Namespace{"svc"},
			wantPattern: "*:queues",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveNamespaces(t.Context(), tt.pattern, tt.store)
			if err != nil {
				t.Fatalf("ResolveNamespaces: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			if tt.wantPattern == "" && len(tt.store.patterns) != 0 {
				t.Fatalf("store must not be enumerated, got %v", tt.store.patterns)
			}
			if tt.wantPattern != "" && (len(tt.store.patterns) != 1 || tt.store.patterns[0] != tt.wantPattern) {
				t.Fatalf("enumerated %v, want %q", tt.store.patterns, tt.wantPattern)
			}
		})
	}
}

func TestResolveNamespaces_Errors(t *testing.T) {
	if _, err := ResolveNamespaces(t.Context(), "", &fakeStore{}); !errors.Is(err, domain.ErrEmptyNamespace) {
		t.Fatalf("expected ErrEmptyNamespace, got %v", err)
	}
	boom := errors.New("connection refused")
	if _, err := ResolveNamespaces(t.Context(), "a*", &fakeStore{err: boom}); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestResolveNamespaces_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	for _, ns := range []string{"app1", "app2", "other", "app3"} {
		mr.SAdd(ns+":queues", "default")
	}
	mr.Set("app9:stat:processed", "1")
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	got, err := ResolveNamespaces(t.Context(), "app*", redisrepo.New(rdb, ""))
	if err != nil {
		t.Fatalf("ResolveNamespaces: %v", err)
	}
	slices.Sort(got)
	want := []domain.Namespace{"app1", "app2", "app3"}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
