package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	pkgch "PriceCast/pkg/clickhouse"
	applogger "PriceCast/pkg/logger"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CHHistoryStore reads and archives daily closes in a ClickHouse table.
type CHHistoryStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

// NewCHHistoryStore binds the store to database.table. Both must be plain identifiers.
func NewCHHistoryStore(ch *pkgch.Client, table string) (*CHHistoryStore, error) {
	return newCHHistoryStore(ch.DB(), ch.Database(), table)
}

func newCHHistoryStore(db *sql.DB, database, table string) (*CHHistoryStore, error) {
	if !identRe.MatchString(database) || !identRe.MatchString(table) {
		return nil, fmt.Errorf("invalid clickhouse table %q.%q", database, table)
	}
	return &CHHistoryStore{db: db, table: database + "." + table}, nil
}

// SetLogger injects a structured logger.
func (s *CHHistoryStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHHistoryStore) Name() string { return "clickhouse" }

// Schema returns the DDL for the backing table.
func (s *CHHistoryStore) Schema() []string {
	return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            symbol     LowCardinality(String),
            day        Date,
            close      Float64,
            updated_at DateTime DEFAULT now()
        ) ENGINE = ReplacingMergeTree(updated_at)
        ORDER BY (symbol, day)
    `, s.table)}
}

func (s *CHHistoryStore) DailyCloses(ctx context.Context, symbol string, from time.Time) ([]models.Observation, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT day, close
        FROM %s FINAL
        WHERE symbol = ? AND day >= ?
        ORDER BY day ASC
    `, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from.UTC())
	if err != nil {
		s.logErr("query", symbol, err)
		return nil, fmt.Errorf("daily closes: %w", err)
	}
	defer rows.Close()

	out := make([]models.Observation, 0, 4096)
	for rows.Next() {
		var o models.Observation
		if err := rows.Scan(&o.Date, &o.Value); err != nil {
			s.logErr("scan", symbol, err)
			return nil, fmt.Errorf("scan daily close: %w", err)
		}
		o.Date = o.Date.UTC()
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		s.logErr("rows", symbol, err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse daily_closes ok",
			applogger.String("table", s.table),
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// SaveDailyCloses inserts obs in one batch. Re-inserting a day replaces it on merge.
func (s *CHHistoryStore) SaveDailyCloses(ctx context.Context, symbol string, obs []models.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (symbol, day, close)", s.table))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare batch: %w", err)
	}
	defer stmt.Close()

	for _, o := range obs {
		if _, err := stmt.ExecContext(ctx, symbol, o.Date.UTC(), o.Value); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("append %s: %w", o.Date.Format(time.DateOnly), err)
		}
	}
	if err := tx.Commit(); err != nil {
		s.logErr("insert", symbol, err)
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

func (s *CHHistoryStore) logErr(stage, symbol string, err error) {
	if s.l == nil {
		return
	}
	s.l.Error("clickhouse daily_closes "+stage+" error",
		applogger.String("table", s.table),
		applogger.String("symbol", symbol),
		applogger.Error(err),
	)
}

var (
	_ domrepo.HistorySource  = (*CHHistoryStore)(nil)
	_ domrepo.HistoryArchive = (*CHHistoryStore)(nil)
)
