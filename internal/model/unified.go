package model

// UnifiedRecord is one row of the reconciled dataset: an order joined
// with its requirement summary and annotated with compliance results.
// Requirement-side fields are zero-valued when no requirement matched.
type UnifiedRecord struct {
	Seq               int    `json:"seq"`
	ParentOrderNumber string `json:"parent_order_number,omitempty"`
	ParentItemCode    string `json:"parent_item_code,omitempty"`
	ParentItemText    string `json:"parent_item_text,omitempty"`
	OrderNumber       string `json:"order_number"`
	ItemCode          string `json:"item_code,omitempty"`
	ItemText          string `json:"item_text,omitempty"`

	RequiredDate Date    `json:"required_date,omitempty"`
	PlannedStart Date    `json:"planned_start,omitempty"`
	PlannedEnd   Date    `json:"planned_end,omitempty"`
	PlannedQty   float64 `json:"planned_qty"`

	Progress    ProgressStage `json:"progress"`
	Status      string        `json:"-"` // raw lifecycle tag, not part of the output columns
	CompletedOn Date          `json:"completed_on,omitempty"`

	BaselinePlannedEnd Date   `json:"baseline_planned_end,omitempty"`
	Department         string `json:"department,omitempty"`

	ProductionType  ProductionType   `json:"production_type"`
	Compliance      ComplianceStatus `json:"compliance"`
	EarlyProduction bool             `json:"early_production"`
	DeviationDays   *int             `json:"deviation_days,omitempty"`
}

// Delivered mirrors OrderRecord.Delivered for the joined row.
func (u UnifiedRecord) Delivered() bool {
	return OrderRecord{Status: u.Status}.Delivered()
}

// EffectiveRequired is the requirement due date, falling back to the
// planned end date when no requirement exists.
func (u UnifiedRecord) EffectiveRequired() Date {
	if !u.RequiredDate.IsZero() {
		return u.RequiredDate
	}
	return u.PlannedEnd
}
