package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backsim/internal/config"
	"backsim/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewSQLite(config.ResultsConfig{
		InMemory:     true,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, s.Close()) })
	return s
}

func sampleResult() *types.BacktestResult {
	return &types.BacktestResult{
		StrategyID:          "fixed-weight",
		StartDate:           time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:             time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC),
		InitialCapital:      decimal.RequireFromString("1000000"),
		FinalEquity:         decimal.RequireFromString("1080000"),
		TotalReturnPct:      0.08,
		AnnualizedReturnPct: 0.08,
		SharpeRatio:         1.1,
		MaxDrawdownPct:      -0.05,
		TotalTrades:         14,
		MonthlyReturns:      map[string]float64{"2024-02": 0.02},
		EquityCurve: []types.EquityPoint{
			{Date: time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC), Equity: decimal.RequireFromString("1010000")},
			{Date: time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), Equity: decimal.RequireFromString("1030200")},
		},
	}
}

func TestStoreSaveResult(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.SaveResult(ctx, sampleResult(), map[string]any{"max_leverage": 1.0})
	require.NoError(t, err)

	var (
		strategyID  string
		finalEquity string
		sharpe      float64
		trades      int
		curveJSON   string
	)
	row := s.db.QueryRowContext(ctx, `
SELECT strategy_id, final_equity, sharpe_ratio, total_trades, equity_curve
FROM backtest_results`)
	require.NoError(t, row.Scan(&strategyID, &finalEquity, &sharpe, &trades, &curveJSON))

	assert.Equal(t, "fixed-weight", strategyID)
	assert.Equal(t, "1080000", finalEquity)
	assert.InDelta(t, 1.1, sharpe, 1e-12)
	assert.Equal(t, 14, trades)

	var curve []equityRow
	require.NoError(t, json.Unmarshal([]byte(curveJSON), &curve))
	require.Len(t, curve, 2)
	assert.Equal(t, "2024-01-31", curve[0].Date)
	assert.Equal(t, "1010000", curve[0].Equity)
}

func TestStoreAppendsOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveResult(ctx, sampleResult(), nil))
	require.NoError(t, s.SaveResult(ctx, sampleResult(), nil))

	var count int
	require.NoError(t, s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM backtest_results`).Scan(&count))
	assert.Equal(t, 2, count, "a repeated run must add a row, not replace one")
}

func TestStoreCloseIdempotentOnNil(t *testing.T) {
	var s Store
	assert.NoError(t, s.Close())
}
