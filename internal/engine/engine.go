package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"backsim/types"
)

// priceLookbackDays bounds the last-close lookup so a stale quote from
// the distant past can never resolve a current price.
const priceLookbackDays = 7

// Engine drives one full backtest: scheduler -> strategy -> adapter ->
// ledger, one step per rebalance date. A run is deterministic: identical
// config, strategy and price feed produce identical output.
type Engine struct {
	cfg        Config
	strategyID string
	strat      Strategy
	prices     PriceSource
	logger     *zap.Logger
	portfolio  *portfolio
	progress   bool
}

func NewEngine(cfg Config, strategyID string, strat Strategy, prices PriceSource, logger *zap.Logger) (*Engine, error) {
	if strat == nil {
		return nil, NilStrategyErr
	}
	if prices == nil {
		return nil, NilPriceSourceErr
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:        cfg,
		strategyID: strategyID,
		strat:      strat,
		prices:     prices,
		logger:     logger,
	}, nil
}

// EnableProgress renders a progress bar while the loop runs. Meant for
// interactive use from the CLI.
func (e *Engine) EnableProgress() {
	e.progress = true
}

// Run executes the simulation over every scheduled rebalance date and
// derives the performance report from the finished ledger. A failure
// while processing one date is logged and that date contributes nothing;
// the loop continues. Only a cancelled context aborts the run.
func (e *Engine) Run(ctx context.Context) (*types.BacktestResult, error) {
	dates, err := rebalanceDates(e.cfg.StartDate(), e.cfg.EndDate(), e.cfg.Frequency())
	if err != nil {
		return nil, err
	}

	e.portfolio = newPortfolio(e.cfg.InitialCapital())

	var bar *progressbar.ProgressBar
	if e.progress {
		bar = initProgressBar(len(dates))
	}

	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := e.step(ctx, date); err != nil {
			e.logger.Warn("rebalance step failed, skipping date",
				zap.String("strategy", e.strategyID),
				zap.Time("date", date),
				zap.Error(err))
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	return computeMetrics(e.portfolio, e.cfg, e.strategyID), nil
}

// step processes one rebalance date. Panics from strategy or ledger code
// are converted into step errors so one bad date cannot abort a
// multi-year run.
func (e *Engine) step(ctx context.Context, date time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("step panic: %v", r)
		}
	}()

	out, err := e.strat.GenerateSignals(ctx, date)
	if err != nil {
		return fmt.Errorf("generate signals: %w", err)
	}
	targets := normalizeSignals(out)

	prices, err := e.resolvePrices(ctx, date, targets)
	if err != nil {
		return err
	}

	e.portfolio.markToMarket(prices)
	e.portfolio.rebalance(date, targets, prices, e.cfg)
	e.portfolio.recordEquity(date)
	return nil
}

// resolvePrices finds a usable price for every instrument in the target
// weights: the latest close within the point-in-time lookback window,
// falling back to the most recently seen price in this run's cache. An
// instrument with neither is dropped for this step.
func (e *Engine) resolvePrices(ctx context.Context, date time.Time, targets map[string]float64) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(targets))
	for _, inst := range sortedInstruments(targets) {
		rows, err := e.prices.GetPrice(ctx, inst, date, priceLookbackDays)
		if err != nil {
			return nil, fmt.Errorf("price lookup %s: %w", inst, err)
		}
		if len(rows) == 0 {
			if last, ok := e.portfolio.lastPrices[inst]; ok && last.IsPositive() {
				prices[inst] = last
			}
			continue
		}
		px := rows[len(rows)-1].Close
		if !px.IsPositive() {
			continue
		}
		prices[inst] = px
		e.portfolio.lastPrices[inst] = px
	}
	return prices, nil
}

func initProgressBar(maxTicks int) *progressbar.ProgressBar {
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Backtesting in progress..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
