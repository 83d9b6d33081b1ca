package engine

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"backsim/types"
)

const (
	// volEpsilon separates "no variance" from numerical noise.
	volEpsilon = 1e-9

	// zeroVolSharpe is the sentinel reported for a positive return with
	// zero volatility. Downstream consumers rely on the literal value, so
	// it stays 99.99 rather than +Inf.
	zeroVolSharpe = 99.99
)

// computeMetrics derives the full performance report from a finished
// ledger. Every degenerate input (short history, zero variance, no
// losing trades) resolves to a well-defined value; this never fails.
func computeMetrics(p *portfolio, cfg Config, strategyID string) *types.BacktestResult {
	res := &types.BacktestResult{
		StrategyID:     strategyID,
		StartDate:      cfg.StartDate(),
		EndDate:        cfg.EndDate(),
		InitialCapital: cfg.InitialCapital(),
		FinalEquity:    cfg.InitialCapital(),
		MonthlyReturns: map[string]float64{},
		EquityCurve:    append([]types.EquityPoint(nil), p.equityCurve...),
		Trades:         append([]types.Trade(nil), p.trades...),
		TotalTrades:    len(p.trades),
	}

	curve := positiveEquity(p.equityCurve)
	if len(p.equityCurve) < 2 || len(curve) < 2 {
		return res
	}

	first, last := curve[0], curve[len(curve)-1]
	res.FinalEquity = p.equityCurve[len(p.equityCurve)-1].Equity

	firstEq := first.Equity.InexactFloat64()
	lastEq := last.Equity.InexactFloat64()
	res.TotalReturnPct = lastEq/firstEq - 1

	elapsedDays := last.Date.Sub(first.Date).Hours() / 24
	years := math.Max(elapsedDays/365.25, 1.0/365.25)
	if 1+res.TotalReturnPct > 0 {
		res.AnnualizedReturnPct = math.Pow(1+res.TotalReturnPct, 1/years) - 1
	} else {
		res.AnnualizedReturnPct = -1
	}

	returns := periodicReturns(curve)
	factor := cfg.Frequency().annualizationFactor()
	res.AnnualizedVolatilityPct = sampleStdDev(returns) * math.Sqrt(factor)

	res.SharpeRatio = sharpeRatio(res.AnnualizedReturnPct, res.AnnualizedVolatilityPct)
	res.SortinoRatio = sortinoRatio(res.AnnualizedReturnPct, returns, factor, res.SharpeRatio)
	res.MaxDrawdownPct = maxDrawdown(curve)
	if res.MaxDrawdownPct < -volEpsilon {
		res.CalmarRatio = res.AnnualizedReturnPct / math.Abs(res.MaxDrawdownPct)
	}
	res.MonthlyReturns = monthlyReturns(curve)
	res.WinRate, res.ProfitFactor = tradeStats(p.trades)

	return res
}

// positiveEquity discards non-positive equity points; returns on a
// non-positive base are undefined.
func positiveEquity(curve []types.EquityPoint) []types.EquityPoint {
	out := make([]types.EquityPoint, 0, len(curve))
	for _, pt := range curve {
		if pt.Equity.IsPositive() {
			out = append(out, pt)
		}
	}
	return out
}

func periodicReturns(curve []types.EquityPoint) []float64 {
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity.InexactFloat64()
		cur := curve[i].Equity.InexactFloat64()
		returns = append(returns, cur/prev-1)
	}
	return returns
}

func sampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}

func sharpeRatio(annReturn, annVol float64) float64 {
	if annVol > volEpsilon {
		return annReturn / annVol
	}
	if annReturn > volEpsilon {
		return zeroVolSharpe
	}
	return 0
}

// sortinoRatio penalizes downside volatility only. With fewer than two
// downside observations the Sharpe ratio stands in as a proxy.
func sortinoRatio(annReturn float64, returns []float64, factor, sharpe float64) float64 {
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) < 2 {
		return sharpe
	}
	downsideVol := sampleStdDev(downside) * math.Sqrt(factor)
	if downsideVol <= volEpsilon {
		return sharpe
	}
	return annReturn / downsideVol
}

// maxDrawdown is the most negative peak-to-trough decline; never
// positive, exactly zero for a non-decreasing curve.
func maxDrawdown(curve []types.EquityPoint) float64 {
	peak := 0.0
	maxDD := 0.0
	for _, pt := range curve {
		eq := pt.Equity.InexactFloat64()
		if eq > peak {
			peak = eq
		}
		if peak <= 0 {
			continue
		}
		dd := eq/peak - 1
		if dd < maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// monthlyReturns resamples equity to month-end and takes percent
// changes, keyed "YYYY-MM". Fewer than two monthly points yield an
// empty map.
func monthlyReturns(curve []types.EquityPoint) map[string]float64 {
	type monthEnd struct {
		key    string
		equity float64
	}
	var ends []monthEnd
	for _, pt := range curve {
		key := fmt.Sprintf("%04d-%02d", pt.Date.Year(), int(pt.Date.Month()))
		if len(ends) > 0 && ends[len(ends)-1].key == key {
			ends[len(ends)-1].equity = pt.Equity.InexactFloat64()
			continue
		}
		ends = append(ends, monthEnd{key: key, equity: pt.Equity.InexactFloat64()})
	}

	out := map[string]float64{}
	if len(ends) < 2 {
		return out
	}
	for i := 1; i < len(ends); i++ {
		if ends[i-1].equity <= 0 {
			continue
		}
		out[ends[i].key] = ends[i].equity/ends[i-1].equity - 1
	}
	return out
}

// tradeStats reads win rate and profit factor off the trade log. No
// losing trades yield a profit factor of zero, never a division by zero.
func tradeStats(trades []types.Trade) (winRate, profitFactor float64) {
	if len(trades) == 0 {
		return 0, 0
	}
	wins := 0
	winSum := 0.0
	lossSum := 0.0
	for _, tr := range trades {
		pnl := tr.RealizedPnL.InexactFloat64()
		switch {
		case pnl > 0:
			wins++
			winSum += pnl
		case pnl < 0:
			lossSum += -pnl
		}
	}
	winRate = float64(wins) / float64(len(trades))
	if lossSum > 0 {
		profitFactor = winSum / lossSum
	}
	return winRate, profitFactor
}
