package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"holdings_pipeline/pkg/core/errs"
	"holdings_pipeline/pkg/core/pipeline"
	"holdings_pipeline/pkg/models"
)

// Table creation runs one statement per Exec; pgx's extended protocol
// rejects multi-statement strings.
var holdingsSchema = []string{
	`CREATE TABLE IF NOT EXISTS holdings_runs (
		run_id     TEXT PRIMARY KEY,
		company    TEXT NOT NULL,
		cik        TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		succeeded  INT NOT NULL,
		failed     INT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS holdings (
		run_id           TEXT NOT NULL,
		period_of_report TEXT NOT NULL,
		name             TEXT,
		title            TEXT,
		cusip            TEXT,
		value_x1000      BIGINT,
		shares           BIGINT,
		share_unit       TEXT,
		put_call         TEXT,
		discretion       TEXT,
		other_managers   TEXT,
		voting_sole      BIGINT,
		voting_shared    BIGINT,
		voting_none      BIGINT,
		low_confidence   BOOLEAN NOT NULL DEFAULT FALSE,
		strategy         TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS holdings_run_period_idx ON holdings (run_id, period_of_report)`,
	`CREATE INDEX IF NOT EXISTS holdings_cusip_idx ON holdings (cusip)`,
}

var holdingsColumns = []string{
	"run_id", "period_of_report", "name", "title", "cusip",
	"value_x1000", "shares", "share_unit", "put_call", "discretion",
	"other_managers", "voting_sole", "voting_shared", "voting_none",
	"low_confidence", "strategy",
}

// HoldingsRepo persists extraction results to Postgres. It satisfies
// pipeline.Sink.
type HoldingsRepo struct {
	logger *zap.SugaredLogger
}

// NewHoldingsRepo creates a repository instance.
func NewHoldingsRepo(logger *zap.SugaredLogger) *HoldingsRepo {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &HoldingsRepo{logger: logger}
}

// EnsureSchema creates the holdings tables when missing.
func (r *HoldingsRepo) EnsureSchema(ctx context.Context) error {
	pool := GetPool()
	if pool == nil {
		return errs.New("database pool not initialized")
	}
	for _, stmt := range holdingsSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return errs.Wrap(err, "create holdings schema")
		}
	}
	return nil
}

// SaveTable bulk-inserts one period's holdings under the run ID.
func (r *HoldingsRepo) SaveTable(ctx context.Context, runID string, table *models.HoldingsTable) error {
	pool := GetPool()
	if pool == nil {
		return errs.New("database pool not initialized")
	}

	rows := make([][]any, 0, len(table.Holdings))
	for i := range table.Holdings {
		h := &table.Holdings[i]
		rows = append(rows, []any{
			runID, h.PeriodOfReport, h.Name, h.Title, h.CUSIP,
			h.ValueX1000, h.Shares, h.ShareUnit, h.PutCall, h.Discretion,
			h.OtherManagers, h.VotingSole, h.VotingShared, h.VotingNone,
			h.LowConfidence, table.Strategy,
		})
	}

	copied, err := pool.CopyFrom(ctx, pgx.Identifier{"holdings"}, holdingsColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return errs.Wrapf(err, "copy holdings for period %s", table.Filing.PeriodOfReport)
	}
	r.logger.Debugw("holdings persisted",
		"run_id", runID, "period", table.Filing.PeriodOfReport, "rows", copied)
	return nil
}

// FinishRun upserts the run summary row.
func (r *HoldingsRepo) FinishRun(ctx context.Context, summary pipeline.RunSummary) error {
	pool := GetPool()
	if pool == nil {
		return errs.New("database pool not initialized")
	}

	query := `
		INSERT INTO holdings_runs (run_id, company, cik, started_at, succeeded, failed)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (run_id)
		DO UPDATE SET
			succeeded = EXCLUDED.succeeded,
			failed = EXCLUDED.failed;
	`
	_, err := pool.Exec(ctx, query,
		summary.RunID, summary.Company, summary.CIK, time.Now(), summary.Succeeded, summary.Failed)
	if err != nil {
		return errs.Wrap(err, "save run summary")
	}
	return nil
}

// RunRecord is one persisted run summary.
type RunRecord struct {
	RunID     string
	Company   string
	CIK       string
	StartedAt time.Time
	Succeeded int
	Failed    int
}

// ListRuns returns the most recent run summaries, newest first.
func (r *HoldingsRepo) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	pool := GetPool()
	if pool == nil {
		return nil, errs.New("database pool not initialized")
	}

	query := `
		SELECT run_id, company, cik, started_at, succeeded, failed
		FROM holdings_runs
		ORDER BY started_at DESC
		LIMIT $1
	`
	rows, err := pool.Query(ctx, query, limit)
	if err != nil {
		return nil, errs.Wrap(err, "list runs")
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(&rec.RunID, &rec.Company, &rec.CIK, &rec.StartedAt, &rec.Succeeded, &rec.Failed); err != nil {
			return nil, errs.Wrap(err, "scan run record")
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
