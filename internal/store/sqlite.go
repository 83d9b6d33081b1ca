package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"backsim/internal/config"
	"backsim/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS backtest_results (
	id                    INTEGER PRIMARY KEY AUTOINCREMENT,
	strategy_id           TEXT NOT NULL,
	start_date            TEXT NOT NULL,
	end_date              TEXT NOT NULL,
	initial_capital       TEXT NOT NULL,
	final_equity          TEXT NOT NULL,
	total_return          REAL NOT NULL,
	annualized_return     REAL NOT NULL,
	annualized_volatility REAL NOT NULL,
	sharpe_ratio          REAL NOT NULL,
	sortino_ratio         REAL NOT NULL,
	max_drawdown          REAL NOT NULL,
	calmar_ratio          REAL NOT NULL,
	win_rate              REAL NOT NULL,
	profit_factor         REAL NOT NULL,
	total_trades          INTEGER NOT NULL,
	monthly_returns       TEXT NOT NULL,
	equity_curve          TEXT NOT NULL,
	config_snapshot       TEXT NOT NULL,
	created_at            TEXT NOT NULL
);`

// Store archives completed backtest results. The table is append-only:
// one row per completed run, never updated in place.
type Store struct {
	db *sql.DB
}

// NewSQLite opens (and if needed creates) the result archive.
func NewSQLite(cfg config.ResultsConfig) (*Store, error) {
	dsn := cfg.Path
	if cfg.InMemory {
		dsn = ":memory:"
	} else {
		if err := ensureDir(filepath.Dir(cfg.Path)); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000&_foreign_keys=on", dsn))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

type equityRow struct {
	Date   string `json:"date"`
	Equity string `json:"equity"`
}

// SaveResult appends one completed run. configSnapshot may be any
// JSON-serializable view of the run configuration.
func (s *Store) SaveResult(ctx context.Context, res *types.BacktestResult, configSnapshot any) error {
	curve := make([]equityRow, 0, len(res.EquityCurve))
	for _, pt := range res.EquityCurve {
		curve = append(curve, equityRow{
			Date:   pt.Date.Format("2006-01-02"),
			Equity: pt.Equity.String(),
		})
	}
	curveJSON, err := json.Marshal(curve)
	if err != nil {
		return fmt.Errorf("marshal equity curve: %w", err)
	}
	monthlyJSON, err := json.Marshal(res.MonthlyReturns)
	if err != nil {
		return fmt.Errorf("marshal monthly returns: %w", err)
	}
	snapshotJSON, err := json.Marshal(configSnapshot)
	if err != nil {
		return fmt.Errorf("marshal config snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO backtest_results (
	strategy_id, start_date, end_date, initial_capital, final_equity,
	total_return, annualized_return, annualized_volatility,
	sharpe_ratio, sortino_ratio, max_drawdown, calmar_ratio,
	win_rate, profit_factor, total_trades,
	monthly_returns, equity_curve, config_snapshot, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.StrategyID,
		res.StartDate.Format("2006-01-02"),
		res.EndDate.Format("2006-01-02"),
		res.InitialCapital.String(),
		res.FinalEquity.String(),
		res.TotalReturnPct,
		res.AnnualizedReturnPct,
		res.AnnualizedVolatilityPct,
		res.SharpeRatio,
		res.SortinoRatio,
		res.MaxDrawdownPct,
		res.CalmarRatio,
		res.WinRate,
		res.ProfitFactor,
		res.TotalTrades,
		string(monthlyJSON),
		string(curveJSON),
		string(snapshotJSON),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", path, err)
	}
	return nil
}
