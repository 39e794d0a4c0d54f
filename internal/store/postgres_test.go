package store

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamagen-seiki/plantrack/internal/model"
)

var pgxOrdersTable = pgx.Identifier{"orders"}

// newMockPostgresStore creates a PostgresStore backed by pgxmock for
// unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_HasSnapshots(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	day := model.ParseDate("2024-01-01")
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM plan_history WHERE snapshot_date = \$1`).
		WithArgs(day.Time()).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	has, err := s.HasSnapshots(context.Background(), day)
	require.NoError(t, err)
	assert.True(t, has)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MinPlannedEnd_NoHistory(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT MIN\(planned_end\) FROM plan_history WHERE order_number = \$1`).
		WithArgs("O9").
		WillReturnRows(pgxmock.NewRows([]string{"min"}).AddRow(nil))

	min, err := s.MinPlannedEnd(context.Background(), "O9")
	require.NoError(t, err)
	assert.True(t, min.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertCompletionEntries_ConflictIgnored(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	entry := model.CompletionHistoryEntry{
		OrderNumber:        "O1",
		CompletedOn:        model.ParseDate("2024-01-09"),
		BaselinePlannedEnd: model.ParseDate("2024-01-10"),
		BaselineRequired:   model.ParseDate("2024-01-08"),
	}

	mock.ExpectExec(`INSERT INTO completion_history .* ON CONFLICT \(order_number\) DO NOTHING`).
		WithArgs("O1", entry.CompletedOn.Time(), entry.BaselinePlannedEnd.Time(), entry.BaselineRequired.Time()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0)) // existing row untouched

	err := s.InsertCompletionEntries(context.Background(), []model.CompletionHistoryEntry{entry})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplaceOrders_TruncatesThenCopies(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`TRUNCATE orders`).
		WillReturnResult(pgxmock.NewResult("TRUNCATE", 0))
	mock.ExpectCopyFrom(pgxOrdersTable, orderColumns).WillReturnResult(1)

	err := s.ReplaceOrders(context.Background(), []model.OrderRecord{
		{OrderNumber: "1000001", Department: "PC1"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FinishRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE reconcile_runs SET`).
		WithArgs("complete", pgxmock.AnyArg(), pgxmock.AnyArg(), "missing-run").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.FinishRun(context.Background(), "missing-run", model.RunStatusComplete, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}
