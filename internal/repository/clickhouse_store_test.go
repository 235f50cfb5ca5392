package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OraclePortfolio/internal/domain/models"
	applogger "OraclePortfolio/pkg/logger"
)

func TestCHIndicatorStore_StoreSnapshot(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewCHIndicatorStore(db, "oracle", applogger.Nop())

	at := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO oracle.indicator_snapshots (country, indicator, value, source, observed_at) VALUES (?, ?, ?, ?, ?),(?, ?, ?, ?, ?)")).
		WithArgs("FRA", "pmi", 51.5, "kafka", at, "FRA", "copper_price", 4.1, "kafka", at).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err = store.StoreSnapshot(context.Background(), models.IndicatorSnapshot{
		Country:    "fra",
		Indicators: models.IndicatorSet{models.IndicatorCopperPrice: 4.1, models.IndicatorPMI: 51.5},
		ObservedAt: at,
		Source:     "kafka",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCHIndicatorStore_Latest(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewCHIndicatorStore(db, "oracle", applogger.Nop())

	mock.ExpectQuery("SELECT indicator, argMax\\(value, observed_at\\)").
		WithArgs("DEU").
		WillReturnRows(sqlmock.NewRows([]string{"indicator", "value"}).
			AddRow("pmi", 49.0).
			AddRow("retired_metric", 1.0).
			AddRow("oil_price", 82.0))
	mock.ExpectQuery("SELECT indicator").
		WithArgs("JPN").
		WillReturnRows(sqlmock.NewRows([]string{"indicator", "value"}))

	set, err := store.Latest(context.Background(), "deu")
	require.NoError(t, err)
	assert.Equal(t, models.IndicatorSet{models.IndicatorPMI: 49, models.IndicatorOilPrice: 82}, set)

	_, err = store.Latest(context.Background(), "JPN")
	assert.ErrorIs(t, err, models.ErrDataUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCHIndicatorStore_HistoryGroupsByTimestamp(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewCHIndicatorStore(db, "oracle", applogger.Nop())

	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM oracle.indicator_snapshots FINAL").
		WithArgs("FRA", jan, feb).
		WillReturnRows(sqlmock.NewRows([]string{"observed_at", "indicator", "value", "source"}).
			AddRow(jan, "pmi", 50.0, "static").
			AddRow(jan, "gold_price", 1900.0, "static").
			AddRow(feb, "pmi", 52.0, "http"))

	snaps, err := store.History(context.Background(), "FRA", jan, feb)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, models.IndicatorSet{models.IndicatorPMI: 50, models.IndicatorGoldPrice: 1900}, snaps[0].Indicators)
	assert.Equal(t, "http", snaps[1].Source)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCHIndicatorStore_Init(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewCHIndicatorStore(db, "oracle", applogger.Nop())

	mock.ExpectExec("CREATE DATABASE IF NOT EXISTS oracle").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS oracle.indicator_snapshots").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS oracle.backtest_reports").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Init(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCHReportStore_RoundTrip(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewCHReportStore(db, "oracle", applogger.Nop())

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sharpe := 0.8
	rec := models.BacktestRecord{
		RunID: "run-1", Strategy: "dynamic", CreatedAt: created, Periods: 24,
		TotalReturn: 0.1, AnnualizedReturn: 0.05, Volatility: 0.1, Sharpe: &sharpe,
		MaxDrawdown: 0.07, FinalValue: 110000,
	}

	mock.ExpectExec("INSERT INTO oracle.backtest_reports").
		WithArgs("run-1", "dynamic", created, 24, 0.1, 0.05, 0.1, sqlmock.AnyArg(), 0.07, 110000.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM oracle.backtest_reports").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"run_id", "strategy", "created_at", "periods", "total_return",
			"annualized_return", "volatility", "sharpe", "max_drawdown", "final_value"}).
			AddRow("run-1", "dynamic", created, 24, 0.1, 0.05, 0.1, 0.8, 0.07, 110000.0).
			AddRow("run-0", "dynamic", created.Add(-time.Hour), 12, 0.0, 0.0, 0.0, nil, 0.0, 100000.0))

	require.NoError(t, store.SaveReport(context.Background(), rec))
	got, err := store.RecentReports(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, rec, got[0])
	assert.Nil(t, got[1].Sharpe)
	assert.NoError(t, mock.ExpectationsWereMet())
}
