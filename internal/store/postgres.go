package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/yamagen-seiki/plantrack/internal/db"
	"github.com/yamagen-seiki/plantrack/internal/model"
)

// PostgresStore implements Store using pgxpool, for sites that keep the
// ledgers on a shared database instead of a local file.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 5
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS orders (
	order_number        TEXT PRIMARY KEY,
	parent_order_number TEXT,
	parent_item_code    TEXT,
	parent_item_text    TEXT,
	item_code           TEXT,
	item_text           TEXT,
	planned_start       DATE,
	planned_end         DATE,
	remaining_qty       DOUBLE PRECISION NOT NULL DEFAULT 0,
	department          TEXT,
	status              TEXT,
	completed_on        DATE
);

CREATE TABLE IF NOT EXISTS requirements (
	id                  BIGSERIAL PRIMARY KEY,
	order_number        TEXT,
	required_date       DATE,
	department          TEXT,
	process             TEXT,
	mark_c              TEXT,
	mark_a              TEXT,
	mark_other          TEXT,
	inspection          TEXT,
	parent_order_number TEXT
);

CREATE TABLE IF NOT EXISTS plan_history (
	snapshot_date DATE NOT NULL,
	order_number  TEXT NOT NULL,
	planned_end   DATE NOT NULL,
	PRIMARY KEY (snapshot_date, order_number)
);

CREATE TABLE IF NOT EXISTS completion_history (
	order_number         TEXT PRIMARY KEY,
	completed_on         DATE NOT NULL,
	baseline_planned_end DATE NOT NULL,
	baseline_required    DATE
);

CREATE TABLE IF NOT EXISTS reconcile_runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'running',
	summary     JSONB,
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_requirements_order ON requirements(order_number);
CREATE INDEX IF NOT EXISTS idx_plan_history_order ON plan_history(order_number);
CREATE INDEX IF NOT EXISTS idx_reconcile_runs_started ON reconcile_runs(started_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// --- Feeds ---

var orderColumns = []string{
	"order_number", "parent_order_number", "parent_item_code", "parent_item_text",
	"item_code", "item_text", "planned_start", "planned_end", "remaining_qty",
	"department", "status", "completed_on",
}

func (s *PostgresStore) ReplaceOrders(ctx context.Context, orders []model.OrderRecord) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE orders`); err != nil {
		return eris.Wrap(err, "postgres: clear orders")
	}

	rows := make([][]any, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []any{
			o.OrderNumber, o.ParentOrderNumber, o.ParentItemCode, o.ParentItemText,
			o.ItemCode, o.ItemText, dateArg(o.PlannedStart), dateArg(o.PlannedEnd),
			o.RemainingQty, o.Department, o.Status, dateArg(o.CompletedOn),
		})
	}
	_, err := db.CopyFrom(ctx, s.pool, "orders", orderColumns, rows)
	return err
}

var requirementColumns = []string{
	"order_number", "required_date", "department", "process",
	"mark_c", "mark_a", "mark_other", "inspection", "parent_order_number",
}

func (s *PostgresStore) ReplaceRequirements(ctx context.Context, reqs []model.RequirementRecord) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE requirements`); err != nil {
		return eris.Wrap(err, "postgres: clear requirements")
	}

	rows := make([][]any, 0, len(reqs))
	for _, r := range reqs {
		rows = append(rows, []any{
			r.OrderNumber, dateArg(r.RequiredDate), r.Department, r.Process,
			r.MarkC, r.MarkA, r.MarkOther, r.Inspection, r.ParentOrderNumber,
		})
	}
	_, err := db.CopyFrom(ctx, s.pool, "requirements", requirementColumns, rows)
	return err
}

func (s *PostgresStore) ListOrders(ctx context.Context) ([]model.OrderRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT order_number, parent_order_number, parent_item_code, parent_item_text,
		        item_code, item_text, planned_start, planned_end, remaining_qty,
		        department, status, completed_on
		 FROM orders ORDER BY order_number`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list orders")
	}
	defer rows.Close()

	var orders []model.OrderRecord
	for rows.Next() {
		var o model.OrderRecord
		var parent, pcode, ptext, code, text, dept, status *string
		var start, end, completed *time.Time
		if err := rows.Scan(&o.OrderNumber, &parent, &pcode, &ptext,
			&code, &text, &start, &end, &o.RemainingQty,
			&dept, &status, &completed); err != nil {
			return nil, eris.Wrap(err, "postgres: scan order")
		}
		o.ParentOrderNumber = deref(parent)
		o.ParentItemCode = deref(pcode)
		o.ParentItemText = deref(ptext)
		o.ItemCode = deref(code)
		o.ItemText = deref(text)
		o.Department = deref(dept)
		o.Status = deref(status)
		o.PlannedStart = dateOf(start)
		o.PlannedEnd = dateOf(end)
		o.CompletedOn = dateOf(completed)
		orders = append(orders, o)
	}
	return orders, eris.Wrap(rows.Err(), "postgres: list orders iterate")
}

func (s *PostgresStore) ListRequirements(ctx context.Context) ([]model.RequirementRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT order_number, required_date, department, process,
		        mark_c, mark_a, mark_other, inspection, parent_order_number
		 FROM requirements ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list requirements")
	}
	defer rows.Close()

	var reqs []model.RequirementRecord
	for rows.Next() {
		var r model.RequirementRecord
		var order, dept, process, c, a, other, insp, parent *string
		var required *time.Time
		if err := rows.Scan(&order, &required, &dept, &process,
			&c, &a, &other, &insp, &parent); err != nil {
			return nil, eris.Wrap(err, "postgres: scan requirement")
		}
		r.OrderNumber = deref(order)
		r.RequiredDate = dateOf(required)
		r.Department = deref(dept)
		r.Process = deref(process)
		r.MarkC = deref(c)
		r.MarkA = deref(a)
		r.MarkOther = deref(other)
		r.Inspection = deref(insp)
		r.ParentOrderNumber = deref(parent)
		reqs = append(reqs, r)
	}
	return reqs, eris.Wrap(rows.Err(), "postgres: list requirements iterate")
}

// --- Plan snapshot ledger ---

func (s *PostgresStore) HasSnapshots(ctx context.Context, day model.Date) (bool, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM plan_history WHERE snapshot_date = $1`, day.Time(),
	).Scan(&n)
	if err != nil {
		return false, eris.Wrap(err, "postgres: has snapshots")
	}
	return n > 0, nil
}

func (s *PostgresStore) InsertSnapshots(ctx context.Context, snaps []model.PlanSnapshot) error {
	rows := make([][]any, 0, len(snaps))
	for _, sn := range snaps {
		rows = append(rows, []any{sn.SnapshotDate.Time(), sn.OrderNumber, sn.PlannedEnd.Time()})
	}
	_, err := db.CopyFrom(ctx, s.pool, "plan_history",
		[]string{"snapshot_date", "order_number", "planned_end"}, rows)
	return err
}

func (s *PostgresStore) MinPlannedEnd(ctx context.Context, orderNumber string) (model.Date, error) {
	var min *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT MIN(planned_end) FROM plan_history WHERE order_number = $1`, orderNumber,
	).Scan(&min)
	if err != nil {
		return model.Date{}, eris.Wrapf(err, "postgres: min planned end %s", orderNumber)
	}
	return dateOf(min), nil
}

// --- Completion history ---

func (s *PostgresStore) CompletedOrderNumbers(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx, `SELECT order_number FROM completion_history`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: completed order numbers")
	}
	defer rows.Close()

	existing := make(map[string]struct{})
	for rows.Next() {
		var order string
		if err := rows.Scan(&order); err != nil {
			return nil, eris.Wrap(err, "postgres: scan order number")
		}
		existing[order] = struct{}{}
	}
	return existing, eris.Wrap(rows.Err(), "postgres: completed order numbers iterate")
}

func (s *PostgresStore) InsertCompletionEntries(ctx context.Context, entries []model.CompletionHistoryEntry) error {
	for _, e := range entries {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO completion_history (order_number, completed_on, baseline_planned_end, baseline_required)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (order_number) DO NOTHING`,
			e.OrderNumber, e.CompletedOn.Time(), e.BaselinePlannedEnd.Time(), dateArg(e.BaselineRequired),
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert history %s", e.OrderNumber)
		}
	}
	return nil
}

func (s *PostgresStore) ListCompletionHistory(ctx context.Context) ([]model.CompletionHistoryEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT order_number, completed_on, baseline_planned_end, baseline_required
		 FROM completion_history`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list completion history")
	}
	defer rows.Close()

	var entries []model.CompletionHistoryEntry
	for rows.Next() {
		var e model.CompletionHistoryEntry
		var completed, baseline time.Time
		var required *time.Time
		if err := rows.Scan(&e.OrderNumber, &completed, &baseline, &required); err != nil {
			return nil, eris.Wrap(err, "postgres: scan history entry")
		}
		e.CompletedOn = model.DateOf(completed)
		e.BaselinePlannedEnd = model.DateOf(baseline)
		e.BaselineRequired = dateOf(required)
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: list completion history iterate")
}

// --- Run ledger ---

func (s *PostgresStore) CreateRun(ctx context.Context) (*model.ReconcileRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO reconcile_runs (id, status, started_at) VALUES ($1, $2, $3)`,
		id, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.ReconcileRun{
		ID:        id,
		Status:    model.RunStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *PostgresStore) FinishRun(ctx context.Context, runID string, status model.RunStatus, summary *model.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal run summary")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE reconcile_runs SET status = $1, summary = $2, finished_at = $3 WHERE id = $4`,
		string(status), summaryJSON, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.ReconcileRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, status, summary, started_at, finished_at
		 FROM reconcile_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.ReconcileRun
	for rows.Next() {
		var r model.ReconcileRun
		var summaryJSON []byte
		var finished *time.Time
		if err := rows.Scan(&r.ID, &r.Status, &summaryJSON, &r.StartedAt, &finished); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if len(summaryJSON) > 0 {
			r.Summary = &model.RunSummary{}
			if err := json.Unmarshal(summaryJSON, r.Summary); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal run summary")
			}
		}
		r.FinishedAt = finished
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

// helpers

// dateArg converts a Date to a nullable driver argument.
func dateArg(d model.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.Time()
}

func dateOf(t *time.Time) model.Date {
	if t == nil {
		return model.Date{}
	}
	return model.DateOf(*t)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
