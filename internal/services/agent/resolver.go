package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/vshulcz/resquewatch/internal/domain"
	"github.com/vshulcz/resquewatch/internal/ports"
)

// QueueIndexSuffix is appended to a namespace to form the key of its queue index.
const QueueIndexSuffix = ":queues"

// ResolveNamespaces decides which namespaces an iteration samples:
//   - empty pattern: the store's default namespace;
//   - plain name: the name itself, unchecked;
//   - wildcard pattern: every namespace owning a queue index matching the pattern,
//     in store enumeration order.
func ResolveNamespaces(ctx context.Context, pattern string, store ports.NamespaceStore) ([]domain.Namespace, error) {
	if pattern == "" {
		ns := store.DefaultNamespace()
		if ns == "" {
			return nil, domain.ErrEmptyNamespace
		}
		return []domain.Namespace{ns}, nil
	}

	if !domain.Namespace(pattern).IsPattern() {
		return []domain.Namespace{domain.Namespace(pattern)}, nil
	}

	keys, err := store.Keys(ctx, pattern+QueueIndexSuffix)
	if err != nil {
		return nil, fmt.Errorf("expand %q: %w", pattern, err)
	}
	out := make([]domain.Namespace, 0, len(keys))
	for _, k := range keys {
		ns, ok := strings.CutSuffix(k, QueueIndexSuffix)
		if !ok || ns == "" {
			continue
		}
		out = append(out, domain.Namespace(ns))
	}
	return out, nil
}
