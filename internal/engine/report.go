package engine

import (
	"fmt"
	"io"
	"sort"

	"backsim/types"
)

// WriteReport renders a human-readable performance report.
func WriteReport(w io.Writer, res *types.BacktestResult) {
	fmt.Fprintln(w, "===== Backtest Report =====")
	fmt.Fprintf(w, "Strategy:              %s\n", res.StrategyID)
	fmt.Fprintf(w, "Start Date:            %s\n", res.StartDate.Format("2006-01-02"))
	fmt.Fprintf(w, "End Date:              %s\n", res.EndDate.Format("2006-01-02"))
	fmt.Fprintf(w, "Initial Capital:       %s\n", res.InitialCapital)
	fmt.Fprintf(w, "Final Equity:          %s\n", res.FinalEquity.Round(2))
	fmt.Fprintf(w, "Total Trades:          %d\n", res.TotalTrades)

	fmt.Fprintln(w, "\n-- Returns --")
	fmt.Fprintf(w, "Total Return:          %.2f%%\n", res.TotalReturnPct*100)
	fmt.Fprintf(w, "Annualized Return:     %.2f%%\n", res.AnnualizedReturnPct*100)
	fmt.Fprintf(w, "Annualized Volatility: %.2f%%\n", res.AnnualizedVolatilityPct*100)

	fmt.Fprintln(w, "\n-- Risk-Adjusted --")
	fmt.Fprintf(w, "Sharpe Ratio:          %.2f\n", res.SharpeRatio)
	fmt.Fprintf(w, "Sortino Ratio:         %.2f\n", res.SortinoRatio)
	fmt.Fprintf(w, "Calmar Ratio:          %.2f\n", res.CalmarRatio)
	fmt.Fprintf(w, "Max Drawdown:          %.2f%%\n", res.MaxDrawdownPct*100)

	fmt.Fprintln(w, "\n-- Trades --")
	fmt.Fprintf(w, "Win Rate:              %.2f%%\n", res.WinRate*100)
	fmt.Fprintf(w, "Profit Factor:         %.2f\n", res.ProfitFactor)

	if len(res.MonthlyReturns) > 0 {
		fmt.Fprintln(w, "\n-- Monthly Returns --")
		months := make([]string, 0, len(res.MonthlyReturns))
		for m := range res.MonthlyReturns {
			months = append(months, m)
		}
		sort.Strings(months)
		for _, m := range months {
			fmt.Fprintf(w, "%s:               %+.2f%%\n", m, res.MonthlyReturns[m]*100)
		}
	}
	fmt.Fprintln(w, "===========================")
}
