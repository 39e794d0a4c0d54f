// Package reconcile implements the reconciliation engine: requirement
// summarization, the order/requirement merge, the planned-end snapshot
// ledger, the write-once completion history, and compliance
// classification.
package reconcile

import (
	"sort"

	"github.com/yamagen-seiki/plantrack/internal/model"
)

// SummarizeRequirements collapses the requirement feed to one row per
// child order: the row with the earliest required date. Rows without a
// required date or order number are dropped first. The sort is stable,
// so ties keep the feed's original row order.
func SummarizeRequirements(reqs []model.RequirementRecord) []model.RequirementSummary {
	rows := make([]model.RequirementRecord, 0, len(reqs))
	for _, r := range reqs {
		if r.OrderNumber == "" || r.RequiredDate.IsZero() {
			continue
		}
		rows = append(rows, r)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].RequiredDate.Before(rows[j].RequiredDate)
	})

	seen := make(map[string]struct{}, len(rows))
	summaries := make([]model.RequirementSummary, 0, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.OrderNumber]; ok {
			continue
		}
		seen[r.OrderNumber] = struct{}{}
		summaries = append(summaries, model.RequirementSummary{
			OrderNumber:  r.OrderNumber,
			RequiredDate: r.RequiredDate,
			Department:   r.Department,
			Process:      r.Process,
			MarkC:        r.MarkC,
			MarkA:        r.MarkA,
			MarkOther:    r.MarkOther,
			Inspection:   r.Inspection,
		})
	}
	return summaries
}
