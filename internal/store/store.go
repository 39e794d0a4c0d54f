package store

import (
	"context"

	"github.com/yamagen-seiki/plantrack/internal/model"
)

// Store defines the persistence interface for the reconciliation
// pipeline: the two feed tables, the append-only plan snapshot ledger,
// the write-once completion history, and the run ledger.
//
// A store is opened once per invocation and closed when the run ends;
// the engine never opens connections itself.
type Store interface {
	// Feeds (replaced wholesale on import)
	ReplaceOrders(ctx context.Context, orders []model.OrderRecord) error
	ReplaceRequirements(ctx context.Context, reqs []model.RequirementRecord) error
	ListOrders(ctx context.Context) ([]model.OrderRecord, error)
	ListRequirements(ctx context.Context) ([]model.RequirementRecord, error)

	// Plan snapshot ledger (append-only, PK (snapshot_date, order_number))
	HasSnapshots(ctx context.Context, day model.Date) (bool, error)
	InsertSnapshots(ctx context.Context, snaps []model.PlanSnapshot) error
	MinPlannedEnd(ctx context.Context, orderNumber string) (model.Date, error)

	// Completion history (insert-once per order)
	CompletedOrderNumbers(ctx context.Context) (map[string]struct{}, error)
	InsertCompletionEntries(ctx context.Context, entries []model.CompletionHistoryEntry) error
	ListCompletionHistory(ctx context.Context) ([]model.CompletionHistoryEntry, error)

	// Run ledger
	CreateRun(ctx context.Context) (*model.ReconcileRun, error)
	FinishRun(ctx context.Context, runID string, status model.RunStatus, summary *model.RunSummary) error
	ListRuns(ctx context.Context, limit int) ([]model.ReconcileRun, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
