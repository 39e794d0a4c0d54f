package model

import "time"

// RunStatus is the lifecycle state of a recorded reconcile run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// ReconcileRun is one row of the run ledger. The ledger is
// observability bookkeeping only; reconciliation results never depend
// on it.
type ReconcileRun struct {
	ID         string      `json:"id"`
	Status     RunStatus   `json:"status"`
	Summary    *RunSummary `json:"summary,omitempty"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
}

// RunSummary holds the counts of a finished run.
type RunSummary struct {
	Orders         int    `json:"orders"`
	Requirements   int    `json:"requirements"`
	Snapshots      int    `json:"snapshots"`
	NewCompletions int    `json:"new_completions"`
	Error          string `json:"error,omitempty"`
}
