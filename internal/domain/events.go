package domain

import "time"

// Phase tells whether an iteration event marks the start or the end of a run.
type Phase string

const (
	PhaseStarted  Phase = "started"
	PhaseFinished Phase = "finished"
)

// IterationEvent is emitted by the scheduler around every pipeline run.
type IterationEvent struct {
	StartedAt  time.Time
	Err        error
	Phase      Phase
	Namespaces []Namespace
	Seq        uint64
	Duration   time.Duration
	Points     int
	Batches    int
	DryRun     bool
}
