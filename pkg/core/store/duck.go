package store

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"holdings_pipeline/pkg/core/errs"
)

// duckColumns declares the DuckDB holdings table. Order matches the
// canonical CSV header exactly; read_csv binds columns by position.
var duckColumns = []struct{ Name, Type string }{
	{"period_of_report", "VARCHAR"},
	{"name", "VARCHAR"},
	{"title", "VARCHAR"},
	{"cusip", "VARCHAR"},
	{"value_x1000", "BIGINT"},
	{"shares", "BIGINT"},
	{"share_unit", "VARCHAR"},
	{"put_call", "VARCHAR"},
	{"discretion", "VARCHAR"},
	{"other_managers", "VARCHAR"},
	{"voting_sole", "BIGINT"},
	{"voting_shared", "BIGINT"},
	{"voting_none", "BIGINT"},
}

// DuckStore loads emitted holdings CSVs into a local DuckDB file for
// ad-hoc SQL analysis.
type DuckStore struct {
	db     *sqlx.DB
	logger *zap.SugaredLogger
}

// OpenDuck opens or creates the DuckDB database at path and ensures the
// holdings table exists.
func OpenDuck(path string, logger *zap.SugaredLogger) (*DuckStore, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	db, err := sqlx.Open("duckdb", path)
	if err != nil {
		return nil, errs.Wrapf(err, "open duckdb %s", path)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errs.Wrap(err, "duckdb ping")
	}

	s := &DuckStore{db: db, logger: logger}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database handle.
func (s *DuckStore) Close() error {
	return s.db.Close()
}

func (s *DuckStore) ensureSchema() error {
	defs := make([]string, len(duckColumns))
	for i, c := range duckColumns {
		defs[i] = c.Name + " " + c.Type
	}
	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS holdings (%s)", strings.Join(defs, ", "))
	if _, err := s.db.Exec(query); err != nil {
		return errs.Wrap(err, "create holdings table")
	}
	return nil
}

// ImportCSV ingests one emitted holdings CSV via read_csv. Empty cells
// load as NULL.
func (s *DuckStore) ImportCSV(csvPath string) (int64, error) {
	cols := make([]string, len(duckColumns))
	typed := make([]string, len(duckColumns))
	for i, c := range duckColumns {
		cols[i] = c.Name
		typed[i] = fmt.Sprintf("'%s': '%s'", c.Name, c.Type)
	}

	query := fmt.Sprintf(`
		INSERT INTO holdings (%s)
		SELECT %s FROM read_csv('%s',
			header=true,
			columns={%s}
		)
	`, strings.Join(cols, ", "), strings.Join(cols, ", "), csvPath, strings.Join(typed, ", "))

	res, err := s.db.Exec(query)
	if err != nil {
		return 0, errs.Wrapf(err, "import %s", csvPath)
	}
	rows, _ := res.RowsAffected()
	s.logger.Infow("imported CSV into duckdb", "file", csvPath, "rows", rows)
	return rows, nil
}

// HoldingsCount returns the total number of loaded holdings rows.
func (s *DuckStore) HoldingsCount() (int64, error) {
	var n int64
	if err := s.db.Get(&n, "SELECT count(*) FROM holdings"); err != nil {
		return 0, errs.Wrap(err, "count holdings")
	}
	return n, nil
}

// LatestPeriod returns the most recent period_of_report loaded, or ""
// when the table is empty.
func (s *DuckStore) LatestPeriod() (string, error) {
	var p sql.NullString
	if err := s.db.Get(&p, "SELECT max(period_of_report) FROM holdings"); err != nil {
		return "", errs.Wrap(err, "latest period")
	}
	return p.String, nil
}

// IssuerValue is one aggregate position.
type IssuerValue struct {
	Name  string `db:"name"`
	Value int64  `db:"value"`
}

// TopIssuers returns the largest aggregate positions by reported value.
func (s *DuckStore) TopIssuers(limit int) ([]IssuerValue, error) {
	query := `
		SELECT name, sum(value_x1000) AS value
		FROM holdings
		WHERE value_x1000 IS NOT NULL
		GROUP BY name
		ORDER BY value DESC
		LIMIT ?
	`
	var out []IssuerValue
	if err := s.db.Select(&out, query, limit); err != nil {
		return nil, errs.Wrap(err, "top issuers")
	}
	return out, nil
}
