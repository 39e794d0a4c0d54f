package reconcile

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/yamagen-seiki/plantrack/internal/model"
	"github.com/yamagen-seiki/plantrack/internal/store"
)

// RecordCompletions captures completion history for orders observed
// completed for the first time. The existing key set is fetched once;
// orders already on record are never reprocessed, so a baseline can
// never be rewritten by later runs. Orders with no snapshot history are
// skipped — without a ledger row there is no baseline to capture.
// Returns the number of new history rows.
func RecordCompletions(ctx context.Context, st store.Store, records []model.UnifiedRecord) (int, error) {
	existing, err := st.CompletedOrderNumbers(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "history: load existing keys")
	}

	var entries []model.CompletionHistoryEntry
	for _, r := range records {
		if r.CompletedOn.IsZero() {
			continue
		}
		if _, ok := existing[r.OrderNumber]; ok {
			continue
		}

		baseline, err := st.MinPlannedEnd(ctx, r.OrderNumber)
		if err != nil {
			return 0, eris.Wrapf(err, "history: baseline for %s", r.OrderNumber)
		}
		if baseline.IsZero() {
			zap.L().Info("completed order has no snapshot history, baseline not captured",
				zap.String("order", r.OrderNumber))
			continue
		}

		required := r.RequiredDate
		if required.IsZero() {
			required = r.PlannedEnd
		}

		entries = append(entries, model.CompletionHistoryEntry{
			OrderNumber:        r.OrderNumber,
			CompletedOn:        r.CompletedOn,
			BaselinePlannedEnd: baseline,
			BaselineRequired:   required,
		})
	}
	if len(entries) == 0 {
		return 0, nil
	}

	if err := st.InsertCompletionEntries(ctx, entries); err != nil {
		return 0, eris.Wrap(err, "history: insert")
	}

	zap.L().Info("completion history updated", zap.Int("new_entries", len(entries)))
	return len(entries), nil
}
