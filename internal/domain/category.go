package domain

import (
	"fmt"
	"strings"
)

// Category enumerates the kinds of samples the computer can produce.
type Category uint8

const (
	CategoryPending Category = iota + 1
	CategoryProcessed
	CategoryFailed
	CategoryQueues
	CategoryWorkers
	CategoryWorking
	CategoryPendingPerQueue
	CategoryNotWorking
	CategoryProcessing

	categoryEnd
)

var categoryNames = [...]string{
	CategoryPending:         "pending",
	CategoryProcessed:       "processed",
	CategoryFailed:          "failed",
	CategoryQueues:          "queues",
	CategoryWorkers:         "workers",
	CategoryWorking:         "working",
	CategoryPendingPerQueue: "pending_per_queue",
	CategoryNotWorking:      "not_working",
	CategoryProcessing:      "processing",
}

func (c Category) String() string {
	if c == 0 || c >= categoryEnd {
		return fmt.Sprintf("category(%d)", uint8(c))
	}
	return categoryNames[c]
}

// Extra reports whether c is off unless explicitly requested.
func (c Category) Extra() bool {
	return c == CategoryNotWorking || c == CategoryProcessing
}

// DefaultCategories lists the categories computed unless skipped, in emission order.
func DefaultCategories() []Category {
	return []Category{
		CategoryPending,
		CategoryProcessed,
		CategoryFailed,
		CategoryQueues,
		CategoryWorkers,
		CategoryWorking,
		CategoryPendingPerQueue,
	}
}

// ExtraCategories lists the optional categories.
func ExtraCategories() []Category {
	return []Category{CategoryNotWorking, CategoryProcessing}
}

// ParseCategory maps a token such as "pending_per_queue" (or "pending-per-queue") to its Category.
func ParseCategory(s string) (Category, error) {
	token := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	token = strings.TrimPrefix(token, ":")
	for c := CategoryPending; c < categoryEnd; c++ {
		if categoryNames[c] == token {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// CategorySet is a bit set of categories.
type CategorySet uint16

// NewCategorySet builds a set from cs.
func NewCategorySet(cs ...Category) CategorySet {
	var s CategorySet
	for _, c := range cs {
		s = s.With(c)
	}
	return s
}

// With returns s with c added.
func (s CategorySet) With(c Category) CategorySet { return s | 1<<c }

// Has reports whether c is in s.
func (s CategorySet) Has(c Category) bool { return s&(1<<c) != 0 }

// Empty reports whether s has no members.
func (s CategorySet) Empty() bool { return s == 0 }

// Categories returns the members of s in declaration order.
func (s CategorySet) Categories() []Category {
	var out []Category
	for c := CategoryPending; c < categoryEnd; c++ {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s CategorySet) String() string {
	cs := s.Categories()
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.String()
	}
	return strings.Join(names, ",")
}

// Options selects which categories are computed for a namespace.
type Options struct {
	Skip  CategorySet
	Extra CategorySet
}

// Enabled reports whether c should be computed under o.
func (o Options) Enabled(c Category) bool {
	if c.Extra() {
		return o.Extra.Has(c)
	}
	return !o.Skip.Has(c)
}

// Validate rejects skip tokens naming optional categories and extra tokens naming default ones.
func (o Options) Validate() error {
	for _, c := range o.Skip.Categories() {
		if c.Extra() {
			return fmt.Errorf("%w: %s cannot be skipped", ErrInvalidCategory, c)
		}
	}
	for _, c := range o.Extra.Categories() {
		if !c.Extra() {
			return fmt.Errorf("%w: %s is not an extra category", ErrInvalidCategory, c)
		}
	}
	return nil
}
