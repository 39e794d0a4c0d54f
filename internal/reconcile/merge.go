package reconcile

import "github.com/yamagen-seiki/plantrack/internal/model"

// MergeOrders left-joins the order master feed with the requirement
// summary on order number. Every order survives; requirement-side
// fields stay zero-valued when no summary matched. Empty inputs yield
// an empty result, never an error.
func MergeOrders(orders []model.OrderRecord, summaries []model.RequirementSummary, cls *model.Classifier) []model.UnifiedRecord {
	byOrder := make(map[string]model.RequirementSummary, len(summaries))
	for _, s := range summaries {
		byOrder[s.OrderNumber] = s
	}

	records := make([]model.UnifiedRecord, 0, len(orders))
	for _, o := range orders {
		var sum *model.RequirementSummary
		if s, ok := byOrder[o.OrderNumber]; ok {
			sum = &s
		}

		dept := resolveDepartment(sum, o)
		rec := model.UnifiedRecord{
			ParentOrderNumber: o.ParentOrderNumber,
			ParentItemCode:    o.ParentItemCode,
			ParentItemText:    o.ParentItemText,
			OrderNumber:       o.OrderNumber,
			ItemCode:          o.ItemCode,
			ItemText:          o.ItemText,
			PlannedStart:      o.PlannedStart,
			PlannedEnd:        o.PlannedEnd,
			PlannedQty:        o.RemainingQty,
			Progress:          progressOf(o, sum),
			Status:            o.Status,
			CompletedOn:       o.CompletedOn,
			Department:        dept,
			ProductionType:    cls.Classify(dept),
		}
		if sum != nil {
			rec.RequiredDate = sum.RequiredDate
		}
		records = append(records, rec)
	}
	return records
}

// resolveDepartment applies the owning-department source chain: the
// requirement feed is authoritative, then the order feed, then the
// derived department group. Policy, not incidental null-coalescing.
func resolveDepartment(sum *model.RequirementSummary, o model.OrderRecord) string {
	var sources []string
	if sum != nil {
		sources = append(sources, sum.Department)
	}
	sources = append(sources, o.Department, model.DepartmentGroup(o.Department))

	for _, s := range sources {
		if s != "" {
			return s
		}
	}
	return ""
}

// progressOf derives the coarse process stage from the requirement
// summary's markers. Inspection outranks A outranks C outranks an
// in-process marker; orders without a parent are outside tracking.
func progressOf(o model.OrderRecord, sum *model.RequirementSummary) model.ProgressStage {
	if sum != nil {
		switch {
		case sum.Inspection != "":
			return model.StageInspection
		case sum.MarkA != "":
			return model.StageA
		case sum.MarkC != "":
			return model.StageC
		case sum.Process != "":
			return model.StageProcess
		}
	}
	if o.ParentOrderNumber == "" {
		return model.StageExcluded
	}
	return model.StageNotStarted
}
