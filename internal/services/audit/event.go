// Package audit turns finished iterations into journal records for external sinks.
package audit

import (
	"time"

	"github.com/vshulcz/resquewatch/internal/domain"
)

// Event describes one finished iteration: when it ran, what it sampled and how it ended.
type Event struct {
	Error      string   `json:"error,omitempty"`
	Namespaces []string `json:"namespaces"`
	Timestamp  int64    `json:"ts"`
	Seq        uint64   `json:"seq"`
	DurationMS int64    `json:"duration_ms"`
	Points     int      `json:"points"`
	Batches    int      `json:"batches"`
	DryRun     bool     `json:"dryrun"`
}

// FromIteration converts a finished iteration; started events yield ok == false.
func FromIteration(evt domain.IterationEvent) (Event, bool) {
	if evt.Phase != domain.PhaseFinished {
		return Event{}, false
	}
	out := Event{
		Namespaces: make([]string, 0, len(evt.Namespaces)),
		Timestamp:  evt.StartedAt.Add(evt.Duration).Truncate(time.Second).Unix(),
		Seq:        evt.Seq,
		DurationMS: evt.Duration.Milliseconds(),
		Points:     evt.Points,
		Batches:    evt.Batches,
		DryRun:     evt.DryRun,
	}
	for _, ns := range evt.Namespaces {
		out.Namespaces = append(out.Namespaces, string(ns))
	}
	if evt.Err != nil {
		out.Error = evt.Err.Error()
	}
	return out, true
}
