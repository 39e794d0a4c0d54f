package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamagen-seiki/plantrack/internal/model"
)

func d(s string) model.Date { return model.ParseDate(s) }

func entry(completed, baseline string) model.CompletionHistoryEntry {
	return model.CompletionHistoryEntry{
		CompletedOn:        d(completed),
		BaselinePlannedEnd: d(baseline),
	}
}

func TestCompute_Windows(t *testing.T) {
	// 2024-06-13 is a Thursday; the week starts Monday 2024-06-10.
	today := d("2024-06-13")

	entries := []model.CompletionHistoryEntry{
		entry("2024-06-12", "2024-06-15"), // this week, compliant
		entry("2024-06-10", "2024-06-09"), // this week, late
		entry("2024-06-03", "2024-06-03"), // this month, previous week
		entry("2024-05-28", "2024-05-28"), // previous month
	}

	r := Compute(entries, today)

	assert.Equal(t, "2024-06-10", r.Weekly.Start.String())
	assert.Equal(t, 2, r.Weekly.Completed)
	assert.Equal(t, 1, r.Weekly.Compliant)
	require.NotNil(t, r.Weekly.Rate)
	assert.InDelta(t, 50.0, *r.Weekly.Rate, 0.001)

	assert.Equal(t, "2024-06-01", r.Monthly.Start.String())
	assert.Equal(t, 3, r.Monthly.Completed)
	assert.Equal(t, 2, r.Monthly.Compliant)
	require.NotNil(t, r.Monthly.Rate)
	assert.InDelta(t, 66.667, *r.Monthly.Rate, 0.001)
}

func TestCompute_NoCompletions(t *testing.T) {
	r := Compute(nil, d("2024-06-13"))
	assert.Equal(t, 0, r.Weekly.Completed)
	assert.Nil(t, r.Weekly.Rate)
	assert.Nil(t, r.Monthly.Rate)
}

func TestCompute_AllCompliant(t *testing.T) {
	today := d("2024-06-13")
	entries := []model.CompletionHistoryEntry{
		entry("2024-06-11", "2024-06-11"),
		entry("2024-06-12", "2024-06-20"),
	}

	r := Compute(entries, today)
	require.NotNil(t, r.Weekly.Rate)
	assert.InDelta(t, 100.0, *r.Weekly.Rate, 0.001)
}

func TestCompute_MondayCountsTowardCurrentWeek(t *testing.T) {
	// Today is the Monday itself.
	today := d("2024-06-10")
	entries := []model.CompletionHistoryEntry{
		entry("2024-06-10", "2024-06-10"),
		entry("2024-06-09", "2024-06-09"), // Sunday, previous week
	}

	r := Compute(entries, today)
	assert.Equal(t, 1, r.Weekly.Completed)
	assert.Equal(t, 2, r.Monthly.Completed)
}

func TestCompute_SkipsEntriesWithoutCompletionDate(t *testing.T) {
	entries := []model.CompletionHistoryEntry{
		{BaselinePlannedEnd: d("2024-06-10")},
	}
	r := Compute(entries, d("2024-06-13"))
	assert.Equal(t, 0, r.Monthly.Completed)
}
