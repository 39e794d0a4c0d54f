package reconcile

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/yamagen-seiki/plantrack/internal/model"
	"github.com/yamagen-seiki/plantrack/internal/store"
)

// Engine runs the reconciliation pipeline as one synchronous unit of
// work: summarize → merge → record snapshots → record completions →
// classify. The store is owned by the caller, opened once per
// invocation and closed when the run ends.
//
// A mutex serializes in-process invocations; concurrent runs from
// separate processes are outside the supported single-operator usage.
type Engine struct {
	mu  sync.Mutex
	st  store.Store
	cls *model.Classifier
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine. A nil classifier falls back to the default
// department table.
func New(st store.Store, cls *model.Classifier, opts ...Option) *Engine {
	if cls == nil {
		cls = model.DefaultClassifier()
	}
	e := &Engine{st: st, cls: cls, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of one reconciliation run. Records is the
// unified dataset handed to external consumers; it is recomputed every
// run and never persisted.
type Result struct {
	RunID          string                `json:"run_id,omitempty"`
	Records        []model.UnifiedRecord `json:"records"`
	Snapshots      int                   `json:"snapshots"`
	NewCompletions int                   `json:"new_completions"`
}

// Run executes the pipeline once. A failure loading the merge inputs
// aborts the run and returns an empty result; snapshot and history
// bookkeeping failures are logged and skipped, and the dataset is still
// produced with whatever baselines already exist. Callers always get
// either a fully-formed dataset or an empty one.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	today := model.DateOf(e.now())
	res := &Result{}

	run, err := e.st.CreateRun(ctx)
	if err != nil {
		// The ledger is bookkeeping only; the run proceeds without it.
		zap.L().Warn("run ledger entry not created", zap.Error(err))
	} else {
		res.RunID = run.ID
	}

	orders, err := e.st.ListOrders(ctx)
	if err != nil {
		err = eris.Wrap(err, "reconcile: load orders")
		e.finishRun(ctx, run, model.RunStatusFailed, &model.RunSummary{Error: err.Error()})
		return res, err
	}
	reqs, err := e.st.ListRequirements(ctx)
	if err != nil {
		err = eris.Wrap(err, "reconcile: load requirements")
		e.finishRun(ctx, run, model.RunStatusFailed, &model.RunSummary{Error: err.Error()})
		return res, err
	}

	summaries := SummarizeRequirements(reqs)
	records := MergeOrders(orders, summaries, e.cls)
	zap.L().Info("feeds merged",
		zap.Int("orders", len(orders)),
		zap.Int("requirements", len(reqs)),
		zap.Int("summarized", len(summaries)),
	)

	snapshots, err := RecordSnapshots(ctx, e.st, today, orders)
	if err != nil {
		zap.L().Warn("plan snapshot recording failed", zap.Error(err))
	}

	completions, err := RecordCompletions(ctx, e.st, records)
	if err != nil {
		zap.L().Warn("completion history update failed", zap.Error(err))
	}

	entries, err := e.st.ListCompletionHistory(ctx)
	if err != nil {
		zap.L().Warn("completion history unavailable, classifying without baselines", zap.Error(err))
	}
	history := make(map[string]model.CompletionHistoryEntry, len(entries))
	for _, en := range entries {
		history[en.OrderNumber] = en
	}

	for i := range records {
		c := Classify(records[i], history, today)
		records[i].Compliance = c.Status
		records[i].EarlyProduction = c.EarlyProduction
		records[i].BaselinePlannedEnd = c.BaselinePlannedEnd
		records[i].DeviationDays = c.DeviationDays
	}

	sortRecords(records)
	for i := range records {
		records[i].Seq = i + 1
	}

	res.Records = records
	res.Snapshots = snapshots
	res.NewCompletions = completions

	e.finishRun(ctx, run, model.RunStatusComplete, &model.RunSummary{
		Orders:         len(orders),
		Requirements:   len(reqs),
		Snapshots:      snapshots,
		NewCompletions: completions,
	})
	return res, nil
}

func (e *Engine) finishRun(ctx context.Context, run *model.ReconcileRun, status model.RunStatus, summary *model.RunSummary) {
	if run == nil {
		return
	}
	if err := e.st.FinishRun(ctx, run.ID, status, summary); err != nil {
		zap.L().Warn("run ledger entry not finished", zap.String("run", run.ID), zap.Error(err))
	}
}

// sortRecords orders the dataset by required date, department, order
// number; records with no required date sort last.
func sortRecords(records []model.UnifiedRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.RequiredDate.Equal(b.RequiredDate) {
			if a.RequiredDate.IsZero() {
				return false
			}
			if b.RequiredDate.IsZero() {
				return true
			}
			return a.RequiredDate.Before(b.RequiredDate)
		}
		if a.Department != b.Department {
			return a.Department < b.Department
		}
		return a.OrderNumber < b.OrderNumber
	})
}
