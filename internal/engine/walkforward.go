package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"backsim/types"
)

// Window is one walk-forward fold. The test window begins exactly where
// the train window ends.
type Window struct {
	TrainStart time.Time
	TrainEnd   time.Time
	TestStart  time.Time
	TestEnd    time.Time
}

// generateWindows produces non-overlapping test windows advancing by the
// test length. Generation stops once a test window would run past end.
func generateWindows(start, end time.Time, trainMonths, testMonths int) []Window {
	var windows []Window
	for i := 0; ; i++ {
		trainStart := start.AddDate(0, i*testMonths, 0)
		trainEnd := trainStart.AddDate(0, trainMonths, 0)
		testEnd := trainEnd.AddDate(0, testMonths, 0)
		if testEnd.After(end) {
			return windows
		}
		windows = append(windows, Window{
			TrainStart: trainStart,
			TrainEnd:   trainEnd,
			TestStart:  trainEnd,
			TestEnd:    testEnd,
		})
	}
}

// StrategyFactory builds a strategy calibrated on a train window. The
// returned parameters are whatever was selected on that window; the
// factory must not consult any data past trainEnd.
type StrategyFactory interface {
	Build(ctx context.Context, trainStart, trainEnd time.Time) (Strategy, map[string]float64, error)
}

// WindowResult pairs the two independent simulations of one fold with
// the parameters selected on its train window.
type WindowResult struct {
	Window      Window
	Params      map[string]float64
	TrainResult *types.BacktestResult
	TestResult  *types.BacktestResult
}

// WalkForward runs rolling train/test folds. Each fold owns its own
// ledger and price cache; folds run concurrently and only the final
// collection waits for all of them.
type WalkForward struct {
	cfg    Config
	prices PriceSource
	logger *zap.Logger
}

func NewWalkForward(cfg Config, prices PriceSource, logger *zap.Logger) (*WalkForward, error) {
	if prices == nil {
		return nil, NilPriceSourceErr
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WalkForward{cfg: cfg, prices: prices, logger: logger}, nil
}

func (w *WalkForward) Run(ctx context.Context, factory StrategyFactory) ([]WindowResult, error) {
	windows := generateWindows(
		w.cfg.StartDate(), w.cfg.EndDate(),
		w.cfg.WalkForwardTrainMonths(), w.cfg.WalkForwardTestMonths(),
	)

	results := make([]WindowResult, len(windows))
	g, gctx := errgroup.WithContext(ctx)
	for i, win := range windows {
		i, win := i, win
		g.Go(func() error {
			strat, params, err := factory.Build(gctx, win.TrainStart, win.TrainEnd)
			if err != nil {
				return fmt.Errorf("window %d: build strategy: %w", i, err)
			}

			trainRes, err := w.runWindow(gctx, fmt.Sprintf("wf-%d-train", i), strat, win.TrainStart, win.TrainEnd)
			if err != nil {
				return fmt.Errorf("window %d: train: %w", i, err)
			}
			testRes, err := w.runWindow(gctx, fmt.Sprintf("wf-%d-test", i), strat, win.TestStart, win.TestEnd)
			if err != nil {
				return fmt.Errorf("window %d: test: %w", i, err)
			}

			results[i] = WindowResult{
				Window:      win,
				Params:      params,
				TrainResult: trainRes,
				TestResult:  testRes,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (w *WalkForward) runWindow(ctx context.Context, id string, strat Strategy, start, end time.Time) (*types.BacktestResult, error) {
	cfg, err := w.cfg.WithDates(start, end)
	if err != nil {
		return nil, err
	}
	eng, err := NewEngine(cfg, id, strat, w.prices, w.logger)
	if err != nil {
		return nil, err
	}
	return eng.Run(ctx)
}
