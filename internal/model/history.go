package model

// PlanSnapshot is one row of the append-only planned-end ledger: the
// planned end date observed for an order on a given calendar day.
// Primary key is (SnapshotDate, OrderNumber); rows are never updated.
type PlanSnapshot struct {
	SnapshotDate Date   `json:"snapshot_date"`
	OrderNumber  string `json:"order_number"`
	PlannedEnd   Date   `json:"planned_end"`
}

// CompletionHistoryEntry records, once per order and never again, the
// completion date together with the baselines in force when the order
// was first observed completed. BaselinePlannedEnd is the minimum
// planned end across the order's snapshots; BaselineRequired is the
// requirement's earliest due date (planned end when absent).
type CompletionHistoryEntry struct {
	OrderNumber        string `json:"order_number"`
	CompletedOn        Date   `json:"completed_on"`
	BaselinePlannedEnd Date   `json:"baseline_planned_end"`
	BaselineRequired   Date   `json:"baseline_required,omitempty"`
}

// Compliant reports whether the order finished on or before its
// baseline planned end.
func (e CompletionHistoryEntry) Compliant() bool {
	return !e.CompletedOn.After(e.BaselinePlannedEnd)
}
