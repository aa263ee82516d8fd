package domain

import "time"

// Status is the externally visible state of the sampler.
type Status struct {
	Since      time.Time       `json:"since"`
	Last       *IterationState `json:"last,omitempty"`
	Started    uint64          `json:"started"`
	Finished   uint64          `json:"finished"`
	Failed     uint64          `json:"failed"`
	InFlight   int64           `json:"in_flight"`
	PointsSent uint64          `json:"points_sent"`
}

// IterationState describes the most recently finished iteration.
type IterationState struct {
	StartedAt  time.Time   `json:"started_at"`
	Error      string      `json:"error,omitempty"`
	Namespaces []Namespace `json:"namespaces"`
	Seq        uint64      `json:"seq"`
	DurationMS int64       `json:"duration_ms"`
	Points     int         `json:"points"`
	Batches    int         `json:"batches"`
	DryRun     bool        `json:"dryrun"`
}
