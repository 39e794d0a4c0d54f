package model

import "strings"

// deliveryMarker is the lifecycle status fragment SAP sets once an
// order is physically delivered.
const deliveryMarker = "DLV"

// OrderRecord is one row of the production-order feed (ZP02).
type OrderRecord struct {
	OrderNumber       string  `json:"order_number"`
	ParentOrderNumber string  `json:"parent_order_number,omitempty"`
	ParentItemCode    string  `json:"parent_item_code,omitempty"`
	ParentItemText    string  `json:"parent_item_text,omitempty"`
	ItemCode          string  `json:"item_code,omitempty"`
	ItemText          string  `json:"item_text,omitempty"`
	PlannedStart      Date    `json:"planned_start,omitempty"`
	PlannedEnd        Date    `json:"planned_end,omitempty"`
	RemainingQty      float64 `json:"remaining_qty"`
	Department        string  `json:"department,omitempty"`
	Status            string  `json:"status,omitempty"`
	CompletedOn       Date    `json:"completed_on,omitempty"`
}

// Delivered reports whether the lifecycle status carries the delivery
// marker. The marker alone does not make an order "completed" for
// classification — that additionally needs a completion date.
func (o OrderRecord) Delivered() bool {
	return strings.Contains(o.Status, deliveryMarker)
}

// RequirementRecord is one row of the component requirement feed
// (ZP51N). An order usually has several rows, one per component line.
type RequirementRecord struct {
	OrderNumber       string `json:"order_number"`
	RequiredDate      Date   `json:"required_date,omitempty"`
	Department        string `json:"department,omitempty"`
	Process           string `json:"process,omitempty"`
	MarkC             string `json:"mark_c,omitempty"`
	MarkA             string `json:"mark_a,omitempty"`
	MarkOther         string `json:"mark_other,omitempty"`
	Inspection        string `json:"inspection,omitempty"`
	ParentOrderNumber string `json:"parent_order_number,omitempty"`
}

// RequirementSummary is the requirement row with the earliest required
// date for one order. Exactly one summary exists per order number.
type RequirementSummary struct {
	OrderNumber  string `json:"order_number"`
	RequiredDate Date   `json:"required_date"`
	Department   string `json:"department,omitempty"`
	Process      string `json:"process,omitempty"`
	MarkC        string `json:"mark_c,omitempty"`
	MarkA        string `json:"mark_a,omitempty"`
	MarkOther    string `json:"mark_other,omitempty"`
	Inspection   string `json:"inspection,omitempty"`
}
