package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/yamagen-seiki/plantrack/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It is the
// default backend: a single local file next to the feeds.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures
// WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS orders (
	order_number        TEXT PRIMARY KEY,
	parent_order_number TEXT,
	parent_item_code    TEXT,
	parent_item_text    TEXT,
	item_code           TEXT,
	item_text           TEXT,
	planned_start       TEXT,
	planned_end         TEXT,
	remaining_qty       REAL NOT NULL DEFAULT 0,
	department          TEXT,
	status              TEXT,
	completed_on        TEXT
);

CREATE TABLE IF NOT EXISTS requirements (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	order_number        TEXT,
	required_date       TEXT,
	department          TEXT,
	process             TEXT,
	mark_c              TEXT,
	mark_a              TEXT,
	mark_other          TEXT,
	inspection          TEXT,
	parent_order_number TEXT
);

CREATE TABLE IF NOT EXISTS plan_history (
	snapshot_date TEXT NOT NULL,
	order_number  TEXT NOT NULL,
	planned_end   TEXT NOT NULL,
	PRIMARY KEY (snapshot_date, order_number)
);

CREATE TABLE IF NOT EXISTS completion_history (
	order_number         TEXT PRIMARY KEY,
	completed_on         TEXT NOT NULL,
	baseline_planned_end TEXT NOT NULL,
	baseline_required    TEXT
);

CREATE TABLE IF NOT EXISTS reconcile_runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'running',
	summary     TEXT,
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_requirements_order ON requirements(order_number);
CREATE INDEX IF NOT EXISTS idx_plan_history_order ON plan_history(order_number);
CREATE INDEX IF NOT EXISTS idx_reconcile_runs_started ON reconcile_runs(started_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Feeds ---

func (s *SQLiteStore) ReplaceOrders(ctx context.Context, orders []model.OrderRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace orders")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM orders`); err != nil {
		return eris.Wrap(err, "sqlite: clear orders")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO orders (order_number, parent_order_number, parent_item_code, parent_item_text,
		                     item_code, item_text, planned_start, planned_end, remaining_qty,
		                     department, status, completed_on)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert order")
	}
	defer stmt.Close()

	for _, o := range orders {
		if _, err := stmt.ExecContext(ctx,
			o.OrderNumber, o.ParentOrderNumber, o.ParentItemCode, o.ParentItemText,
			o.ItemCode, o.ItemText, o.PlannedStart, o.PlannedEnd, o.RemainingQty,
			o.Department, o.Status, o.CompletedOn,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert order %s", o.OrderNumber)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit replace orders")
}

func (s *SQLiteStore) ReplaceRequirements(ctx context.Context, reqs []model.RequirementRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace requirements")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM requirements`); err != nil {
		return eris.Wrap(err, "sqlite: clear requirements")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO requirements (order_number, required_date, department, process,
		                           mark_c, mark_a, mark_other, inspection, parent_order_number)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert requirement")
	}
	defer stmt.Close()

	for _, r := range reqs {
		if _, err := stmt.ExecContext(ctx,
			r.OrderNumber, r.RequiredDate, r.Department, r.Process,
			r.MarkC, r.MarkA, r.MarkOther, r.Inspection, r.ParentOrderNumber,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert requirement %s", r.OrderNumber)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit replace requirements")
}

func (s *SQLiteStore) ListOrders(ctx context.Context) ([]model.OrderRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT order_number, parent_order_number, parent_item_code, parent_item_text,
		        item_code, item_text, planned_start, planned_end, remaining_qty,
		        department, status, completed_on
		 FROM orders ORDER BY rowid`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list orders")
	}
	defer rows.Close()

	var orders []model.OrderRecord
	for rows.Next() {
		var o model.OrderRecord
		var parent, pcode, ptext, code, text, dept, status sql.NullString
		if err := rows.Scan(&o.OrderNumber, &parent, &pcode, &ptext,
			&code, &text, &o.PlannedStart, &o.PlannedEnd, &o.RemainingQty,
			&dept, &status, &o.CompletedOn); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan order")
		}
		o.ParentOrderNumber = parent.String
		o.ParentItemCode = pcode.String
		o.ParentItemText = ptext.String
		o.ItemCode = code.String
		o.ItemText = text.String
		o.Department = dept.String
		o.Status = status.String
		orders = append(orders, o)
	}
	return orders, eris.Wrap(rows.Err(), "sqlite: list orders iterate")
}

func (s *SQLiteStore) ListRequirements(ctx context.Context) ([]model.RequirementRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT order_number, required_date, department, process,
		        mark_c, mark_a, mark_other, inspection, parent_order_number
		 FROM requirements ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list requirements")
	}
	defer rows.Close()

	var reqs []model.RequirementRecord
	for rows.Next() {
		var r model.RequirementRecord
		var order, dept, process, c, a, other, insp, parent sql.NullString
		if err := rows.Scan(&order, &r.RequiredDate, &dept, &process,
			&c, &a, &other, &insp, &parent); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan requirement")
		}
		r.OrderNumber = order.String
		r.Department = dept.String
		r.Process = process.String
		r.MarkC = c.String
		r.MarkA = a.String
		r.MarkOther = other.String
		r.Inspection = insp.String
		r.ParentOrderNumber = parent.String
		reqs = append(reqs, r)
	}
	return reqs, eris.Wrap(rows.Err(), "sqlite: list requirements iterate")
}

// --- Plan snapshot ledger ---

func (s *SQLiteStore) HasSnapshots(ctx context.Context, day model.Date) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM plan_history WHERE snapshot_date = ?`, day,
	).Scan(&n)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: has snapshots")
	}
	return n > 0, nil
}

func (s *SQLiteStore) InsertSnapshots(ctx context.Context, snaps []model.PlanSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin insert snapshots")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO plan_history (snapshot_date, order_number, planned_end) VALUES (?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert snapshot")
	}
	defer stmt.Close()

	for _, sn := range snaps {
		if _, err := stmt.ExecContext(ctx, sn.SnapshotDate, sn.OrderNumber, sn.PlannedEnd); err != nil {
			return eris.Wrapf(err, "sqlite: insert snapshot %s/%s", sn.SnapshotDate, sn.OrderNumber)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit insert snapshots")
}

func (s *SQLiteStore) MinPlannedEnd(ctx context.Context, orderNumber string) (model.Date, error) {
	var d model.Date
	err := s.db.QueryRowContext(ctx,
		`SELECT MIN(planned_end) FROM plan_history WHERE order_number = ?`, orderNumber,
	).Scan(&d)
	if err != nil {
		return model.Date{}, eris.Wrapf(err, "sqlite: min planned end %s", orderNumber)
	}
	return d, nil
}

// --- Completion history ---

func (s *SQLiteStore) CompletedOrderNumbers(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT order_number FROM completion_history`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: completed order numbers")
	}
	defer rows.Close()

	existing := make(map[string]struct{})
	for rows.Next() {
		var order string
		if err := rows.Scan(&order); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan order number")
		}
		existing[order] = struct{}{}
	}
	return existing, eris.Wrap(rows.Err(), "sqlite: completed order numbers iterate")
}

// InsertCompletionEntries appends new history rows. ON CONFLICT DO
// NOTHING keeps existing baselines immutable even if a racing run
// re-inserts the same order.
func (s *SQLiteStore) InsertCompletionEntries(ctx context.Context, entries []model.CompletionHistoryEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin insert history")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO completion_history (order_number, completed_on, baseline_planned_end, baseline_required)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (order_number) DO NOTHING`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert history")
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx,
			e.OrderNumber, e.CompletedOn, e.BaselinePlannedEnd, e.BaselineRequired,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert history %s", e.OrderNumber)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit insert history")
}

func (s *SQLiteStore) ListCompletionHistory(ctx context.Context) ([]model.CompletionHistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT order_number, completed_on, baseline_planned_end, baseline_required
		 FROM completion_history`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list completion history")
	}
	defer rows.Close()

	var entries []model.CompletionHistoryEntry
	for rows.Next() {
		var e model.CompletionHistoryEntry
		if err := rows.Scan(&e.OrderNumber, &e.CompletedOn, &e.BaselinePlannedEnd, &e.BaselineRequired); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan history entry")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: list completion history iterate")
}

// --- Run ledger ---

func (s *SQLiteStore) CreateRun(ctx context.Context) (*model.ReconcileRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reconcile_runs (id, status, started_at) VALUES (?, ?, ?)`,
		id, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.ReconcileRun{
		ID:        id,
		Status:    model.RunStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, status model.RunStatus, summary *model.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal run summary")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE reconcile_runs SET status = ?, summary = ?, finished_at = ? WHERE id = ?`,
		string(status), string(summaryJSON), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.ReconcileRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, summary, started_at, finished_at
		 FROM reconcile_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.ReconcileRun
	for rows.Next() {
		var r model.ReconcileRun
		var summaryJSON sql.NullString
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.Status, &summaryJSON, &r.StartedAt, &finished); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if summaryJSON.Valid {
			r.Summary = &model.RunSummary{}
			if err := json.Unmarshal([]byte(summaryJSON.String), r.Summary); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal run summary")
			}
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
