package repository

import "fmt"

// Schema returns the idempotent DDL for database db.
func Schema(db string) []string {
	return []string{
		fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS %s`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.indicator_snapshots (
    country     LowCardinality(String),
    indicator   LowCardinality(String),
    value       Float64,
    source      LowCardinality(String),
    observed_at DateTime64(3, 'UTC')
) ENGINE = ReplacingMergeTree
ORDER BY (country, indicator, observed_at)`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.backtest_reports (
    run_id            String,
    strategy          LowCardinality(String),
    created_at        DateTime64(3, 'UTC'),
    periods           UInt32,
    total_return      Float64,
    annualized_return Float64,
    volatility        Float64,
    sharpe            Nullable(Float64),
    max_drawdown      Float64,
    final_value       Float64
) ENGINE = MergeTree
ORDER BY (created_at, run_id)`, db),
	}
}
