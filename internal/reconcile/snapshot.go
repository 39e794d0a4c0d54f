package reconcile

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/yamagen-seiki/plantrack/internal/model"
	"github.com/yamagen-seiki/plantrack/internal/store"
)

// RecordSnapshots appends one planned-end observation per order to the
// snapshot ledger for the given calendar day. The day is checked once
// up front: if any row for it exists the whole recorder short-circuits,
// which makes repeated invocations on the same date no-ops. Returns the
// number of rows written.
func RecordSnapshots(ctx context.Context, st store.Store, day model.Date, orders []model.OrderRecord) (int, error) {
	exists, err := st.HasSnapshots(ctx, day)
	if err != nil {
		return 0, eris.Wrap(err, "snapshot: check day")
	}
	if exists {
		zap.L().Debug("plan snapshots already recorded", zap.String("date", day.String()))
		return 0, nil
	}

	snaps := make([]model.PlanSnapshot, 0, len(orders))
	skipped := 0
	for _, o := range orders {
		if o.PlannedEnd.IsZero() {
			skipped++
			continue
		}
		snaps = append(snaps, model.PlanSnapshot{
			SnapshotDate: day,
			OrderNumber:  o.OrderNumber,
			PlannedEnd:   o.PlannedEnd,
		})
	}
	if skipped > 0 {
		zap.L().Debug("orders without planned end excluded from snapshot",
			zap.Int("skipped", skipped))
	}
	if len(snaps) == 0 {
		return 0, nil
	}

	if err := st.InsertSnapshots(ctx, snaps); err != nil {
		return 0, eris.Wrap(err, "snapshot: insert")
	}

	zap.L().Info("plan snapshots recorded",
		zap.String("date", day.String()),
		zap.Int("orders", len(snaps)),
	)
	return len(snaps), nil
}
