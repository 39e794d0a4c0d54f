// Package stats computes compliance rates over the completion history
// for the dashboard: how many orders finished this week and this month,
// and what share of them met their baseline planned end.
package stats

import (
	"github.com/yamagen-seiki/plantrack/internal/model"
)

// Window aggregates completions from a start date through today. Rate
// is a percentage and nil when the window has no completions, so "no
// data" is distinguishable from 0%.
type Window struct {
	Start     model.Date `json:"start"`
	Completed int        `json:"completed"`
	Compliant int        `json:"compliant"`
	Rate      *float64   `json:"rate_percent,omitempty"`
}

// Report carries the dashboard's headline numbers.
type Report struct {
	Weekly  Window `json:"weekly"`
	Monthly Window `json:"monthly"`
}

// Compute builds the weekly and monthly compliance windows relative to
// today. Weeks start on Monday; an entry counts toward a window when
// its completion date falls on or after the window start.
func Compute(entries []model.CompletionHistoryEntry, today model.Date) Report {
	return Report{
		Weekly:  window(entries, today.StartOfWeek()),
		Monthly: window(entries, today.StartOfMonth()),
	}
}

func window(entries []model.CompletionHistoryEntry, start model.Date) Window {
	w := Window{Start: start}
	for _, e := range entries {
		if e.CompletedOn.IsZero() || e.CompletedOn.Before(start) {
			continue
		}
		w.Completed++
		if e.Compliant() {
			w.Compliant++
		}
	}
	if w.Completed > 0 {
		rate := float64(w.Compliant) / float64(w.Completed) * 100
		w.Rate = &rate
	}
	return w
}
