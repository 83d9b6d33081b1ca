package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// BacktestResult is the complete performance report for one finished run.
// Produced once by the metrics engine and never mutated afterward.
type BacktestResult struct {
	StrategyID string
	StartDate  time.Time
	EndDate    time.Time

	InitialCapital decimal.Decimal
	FinalEquity    decimal.Decimal

	TotalReturnPct          float64
	AnnualizedReturnPct     float64
	AnnualizedVolatilityPct float64
	SharpeRatio             float64
	SortinoRatio            float64
	MaxDrawdownPct          float64
	CalmarRatio             float64
	WinRate                 float64
	ProfitFactor            float64
	TotalTrades             int

	// MonthlyReturns keys are "YYYY-MM", values percent changes of
	// month-end equity.
	MonthlyReturns map[string]float64

	EquityCurve []EquityPoint
	Trades      []Trade
}
