package reconcile

import "github.com/yamagen-seiki/plantrack/internal/model"

// earlyProductionDays is the minimum lead, in days, by which a
// completion must precede the baseline required date to count as early
// production.
const earlyProductionDays = 7

// Classification is the compliance verdict for one unified record,
// recomputed fresh on every run.
type Classification struct {
	Status             model.ComplianceStatus
	EarlyProduction    bool
	BaselinePlannedEnd model.Date
	DeviationDays      *int
}

// Classify derives the compliance state of a record from the completion
// history and today's date.
//
// A record counts as completed only when the lifecycle tag carries the
// delivery marker AND a completion date is present; either alone is not
// enough. Completed orders without a history entry stay Unfinished —
// compliance cannot be proven without a baseline.
func Classify(r model.UnifiedRecord, history map[string]model.CompletionHistoryEntry, today model.Date) Classification {
	c := Classification{
		Status:        model.StatusUnfinished,
		DeviationDays: deviationDays(r),
	}

	completed := r.Delivered() && !r.CompletedOn.IsZero()
	if !completed {
		required := r.EffectiveRequired()
		if !required.IsZero() && required.Before(today) {
			c.Status = model.StatusDelayed
		}
		return c
	}

	entry, ok := history[r.OrderNumber]
	if !ok {
		return c
	}
	c.BaselinePlannedEnd = entry.BaselinePlannedEnd

	if entry.Compliant() {
		c.Status = model.StatusCompliant
	} else {
		c.Status = model.StatusNonCompliant
	}

	// Early production: finished at least earlyProductionDays ahead of
	// a baseline required date that is still in the future.
	if !entry.BaselineRequired.IsZero() &&
		entry.BaselineRequired.After(today) &&
		r.CompletedOn.Before(entry.BaselineRequired.AddDays(-earlyProductionDays)) {
		c.EarlyProduction = true
	}

	return c
}

// deviationDays is planned end minus effective required date in whole
// days; nil when either side is unknown.
func deviationDays(r model.UnifiedRecord) *int {
	required := r.EffectiveRequired()
	if r.PlannedEnd.IsZero() || required.IsZero() {
		return nil
	}
	days := r.PlannedEnd.DaysSince(required)
	return &days
}
