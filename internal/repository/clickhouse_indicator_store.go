package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"OraclePortfolio/internal/domain/models"
	pkgch "OraclePortfolio/pkg/clickhouse"
	applogger "OraclePortfolio/pkg/logger"
)

// CHIndicatorStore implements IndicatorStore backed by ClickHouse.
type CHIndicatorStore struct {
	db    *sql.DB
	table string
	ddl   []string
	l     *applogger.Logger
}

func NewCHIndicatorStore(db *sql.DB, database string, l *applogger.Logger) *CHIndicatorStore {
	return &CHIndicatorStore{
		db:    db,
		table: database + ".indicator_snapshots",
		ddl:   Schema(database),
		l:     l,
	}
}

func (s *CHIndicatorStore) Name() string { return "store" }

func (s *CHIndicatorStore) Init(ctx context.Context) error {
	return pkgch.InitSchema(ctx, s.db, s.ddl)
}

// StoreSnapshot writes one row per usable indicator in a single insert.
func (s *CHIndicatorStore) StoreSnapshot(ctx context.Context, snap models.IndicatorSnapshot) error {
	names := snap.Indicators.Names()
	if len(names) == 0 {
		return nil
	}
	country := strings.ToUpper(snap.Country)
	observed := snap.ObservedAt.UTC()

	values := make([]string, 0, len(names))
	args := make([]interface{}, 0, len(names)*5)
	for _, name := range names {
		v, _ := snap.Indicators.Get(name)
		values = append(values, "(?, ?, ?, ?, ?)")
		args = append(args, country, string(name), v, snap.Source, observed)
	}
	q := fmt.Sprintf("INSERT INTO %s (country, indicator, value, source, observed_at) VALUES %s",
		s.table, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		s.l.Error("clickhouse store_snapshot error",
			applogger.String("country", country),
			applogger.Int("rows", len(names)),
			applogger.Error(err))
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recent value of each indicator for country.
func (s *CHIndicatorStore) Latest(ctx context.Context, country string) (models.IndicatorSet, error) {
	start := time.Now()
	q := fmt.Sprintf(`SELECT indicator, argMax(value, observed_at)
        FROM %s
        WHERE country = ?
        GROUP BY indicator`, s.table)
	rows, err := s.db.QueryContext(ctx, q, strings.ToUpper(country))
	if err != nil {
		s.l.Error("clickhouse latest query error", applogger.String("country", country), applogger.Error(err))
		return nil, fmt.Errorf("latest indicators: %w", err)
	}
	defer rows.Close()

	set := make(models.IndicatorSet)
	for rows.Next() {
		var name string
		var v float64
		if err := rows.Scan(&name, &v); err != nil {
			return nil, fmt.Errorf("scan indicator: %w", err)
		}
		if n := models.IndicatorName(name); n.Valid() {
			set[n] = v
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("store %s: %w", country, models.ErrDataUnavailable)
	}
	s.l.Debug("clickhouse latest ok",
		applogger.String("country", country),
		applogger.Int("indicators", len(set)),
		applogger.Duration("duration_ms", time.Since(start)))
	return set, nil
}

// History groups observations in [from, to] into snapshots ordered by time.
func (s *CHIndicatorStore) History(ctx context.Context, country string, from, to time.Time) ([]models.IndicatorSnapshot, error) {
	country = strings.ToUpper(country)
	q := fmt.Sprintf(`SELECT observed_at, indicator, value, source
        FROM %s FINAL
        WHERE country = ? AND observed_at >= ? AND observed_at <= ?
        ORDER BY observed_at ASC, indicator ASC`, s.table)
	rows, err := s.db.QueryContext(ctx, q, country, from.UTC(), to.UTC())
	if err != nil {
		s.l.Error("clickhouse history query error", applogger.String("country", country), applogger.Error(err))
		return nil, fmt.Errorf("indicator history: %w", err)
	}
	defer rows.Close()

	var out []models.IndicatorSnapshot
	for rows.Next() {
		var (
			at     time.Time
			name   string
			v      float64
			source string
		)
		if err := rows.Scan(&at, &name, &v, &source); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		n := models.IndicatorName(name)
		if !n.Valid() {
			continue
		}
		if len(out) == 0 || !out[len(out)-1].ObservedAt.Equal(at) {
			out = append(out, models.IndicatorSnapshot{
				Country:    country,
				Indicators: make(models.IndicatorSet),
				ObservedAt: at.UTC(),
				Source:     source,
			})
		}
		out[len(out)-1].Indicators[n] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHIndicatorStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
