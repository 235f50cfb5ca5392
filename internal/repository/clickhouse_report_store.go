package repository

import (
	"context"
	"database/sql"
	"fmt"

	"OraclePortfolio/internal/domain/models"
	applogger "OraclePortfolio/pkg/logger"
)

// CHReportStore persists backtest report headlines in ClickHouse.
type CHReportStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHReportStore(db *sql.DB, database string, l *applogger.Logger) *CHReportStore {
	return &CHReportStore{db: db, table: database + ".backtest_reports", l: l}
}

func (s *CHReportStore) SaveReport(ctx context.Context, r models.BacktestRecord) error {
	q := fmt.Sprintf(`INSERT INTO %s (run_id, strategy, created_at, periods, total_return, annualized_return, volatility, sharpe, max_drawdown, final_value)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	var sharpe sql.NullFloat64
	if r.Sharpe != nil {
		sharpe = sql.NullFloat64{Float64: *r.Sharpe, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, q,
		r.RunID, r.Strategy, r.CreatedAt.UTC(), uint32(r.Periods),
		r.TotalReturn, r.AnnualizedReturn, r.Volatility, sharpe, r.MaxDrawdown, r.FinalValue)
	if err != nil {
		s.l.Error("clickhouse save_report error", applogger.String("run_id", r.RunID), applogger.Error(err))
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func (s *CHReportStore) RecentReports(ctx context.Context, limit int) ([]models.BacktestRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	q := fmt.Sprintf(`SELECT run_id, strategy, created_at, periods, total_return, annualized_return, volatility, sharpe, max_drawdown, final_value
        FROM %s
        ORDER BY created_at DESC
        LIMIT ?`, s.table)
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("recent reports: %w", err)
	}
	defer rows.Close()

	out := make([]models.BacktestRecord, 0, limit)
	for rows.Next() {
		var (
			r       models.BacktestRecord
			periods uint32
			sharpe  sql.NullFloat64
		)
		if err := rows.Scan(&r.RunID, &r.Strategy, &r.CreatedAt, &periods, &r.TotalReturn,
			&r.AnnualizedReturn, &r.Volatility, &sharpe, &r.MaxDrawdown, &r.FinalValue); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		r.Periods = int(periods)
		if sharpe.Valid {
			v := sharpe.Float64
			r.Sharpe = &v
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
