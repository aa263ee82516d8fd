// Package redis reads Resque bookkeeping (queues, stats, workers) from Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/vshulcz/resquewatch/internal/domain"
	"github.com/vshulcz/resquewatch/internal/ports"
)

// DefaultNamespace is the namespace Resque uses when none is configured.
const DefaultNamespace domain.Namespace = "resque"

const scanCount = 1000

// Client is the subset of go-redis used by Repo; *redis.Client satisfies it.
type Client interface {
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	Pipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Repo is a read-only view over the Resque key layout. It is safe for concurrent
// use as long as the underlying client is, which holds for *redis.Client.
type Repo struct {
	rdb Client
	ns  domain.Namespace
}

var (
	_ ports.NamespaceStore = (*Repo)(nil)
	_ ports.QueueStats     = (*Repo)(nil)
	_ ports.Pinger         = (*Repo)(nil)
)

// New returns a repository; an empty def falls back to DefaultNamespace.
func New(rdb Client, def domain.Namespace) *Repo {
	if def == "" {
		def = DefaultNamespace
	}
	return &Repo{rdb: rdb, ns: def}
}

func key(ns domain.Namespace, parts ...string) string {
	return string(ns) + ":" + strings.Join(parts, ":")
}

// DefaultNamespace returns the namespace the repository was configured with.
func (r *Repo) DefaultNamespace() domain.Namespace {
	return r.ns
}

// Keys walks the keyspace with SCAN and returns every distinct key matching pattern,
// in the order the server yields them.
func (r *Repo) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	seen := make(map[string]struct{})
	iter := r.rdb.Scan(ctx, 0, pattern, scanCount).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan %q: %w", pattern, err)
	}
	return keys, nil
}

// Queues returns the queue names registered in ns, sorted.
func (r *Repo) Queues(ctx context.Context, ns domain.Namespace) ([]string, error) {
	return r.members(ctx, key(ns, "queues"))
}

// Workers returns the ids of workers registered in ns, sorted.
func (r *Repo) Workers(ctx context.Context, ns domain.Namespace) ([]string, error) {
	return r.members(ctx, key(ns, "workers"))
}

func (r *Repo) members(ctx context.Context, k string) ([]string, error) {
	vals, err := r.rdb.SMembers(ctx, k).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers %s: %w", k, err)
	}
	slices.Sort(vals)
	return vals, nil
}

// QueueSizes returns the pending job count of each queue, index-aligned with queues.
func (r *Repo) QueueSizes(ctx context.Context, ns domain.Namespace, queues []string) ([]int64, error) {
	if len(queues) == 0 {
		return nil, nil
	}
	cmds := make([]*redis.IntCmd, len(queues))
	_, err := r.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, q := range queues {
			cmds[i] = p.LLen(ctx, key(ns, "queue", q))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("llen %s queues: %w", ns, err)
	}
	sizes := make([]int64, len(cmds))
	for i, c := range cmds {
		sizes[i] = c.Val()
	}
	return sizes, nil
}

// Stat reads the named counter (processed, failed); a missing counter reads as zero.
func (r *Repo) Stat(ctx context.Context, ns domain.Namespace, name string) (int64, error) {
	k := key(ns, "stat", name)
	v, err := r.rdb.Get(ctx, k).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", k, err)
	}
	return v, nil
}

type workerJob struct {
	Queue string `json:"queue"`
}

// WorkingQueues fetches the job record of every worker and returns the queue of each
// busy one. A record that cannot be decoded still counts as busy with an empty queue.
func (r *Repo) WorkingQueues(ctx context.Context, ns domain.Namespace, workers []string) ([]string, error) {
	if len(workers) == 0 {
		return nil, nil
	}
	keys := make([]string, len(workers))
	for i, w := range workers {
		keys[i] = key(ns, "worker", w)
	}
	vals, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget %s workers: %w", ns, err)
	}

	queues := make([]string, 0, len(vals))
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var job workerJob
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			job.Queue = ""
		}
		queues = append(queues, job.Queue)
	}
	return queues, nil
}

// Ping checks that the server answers.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (r *Repo) Close() error {
	return r.rdb.Close()
}
