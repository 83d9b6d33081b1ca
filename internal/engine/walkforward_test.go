package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"backsim/types"
)

func TestGenerateWindows(t *testing.T) {
	windows := generateWindows(
		date(2020, time.January, 1), date(2022, time.January, 1), 6, 3)

	if len(windows) != 6 {
		t.Fatalf("windows = %d, want 6", len(windows))
	}
	first := windows[0]
	if !first.TrainStart.Equal(date(2020, time.January, 1)) ||
		!first.TrainEnd.Equal(date(2020, time.July, 1)) ||
		!first.TestEnd.Equal(date(2020, time.October, 1)) {
		t.Errorf("first window = %+v", first)
	}
	last := windows[len(windows)-1]
	if !last.TestEnd.Equal(date(2022, time.January, 1)) {
		t.Errorf("last test end = %v, want exactly the range end", last.TestEnd)
	}
	for i, win := range windows {
		if !win.TestStart.Equal(win.TrainEnd) {
			t.Errorf("window %d: test start %v != train end %v", i, win.TestStart, win.TrainEnd)
		}
		if i > 0 && !win.TrainStart.Equal(windows[i-1].TrainStart.AddDate(0, 3, 0)) {
			t.Errorf("window %d does not advance by the test length", i)
		}
	}
}

func TestGenerateWindowsTooShortRange(t *testing.T) {
	windows := generateWindows(
		date(2024, time.January, 1), date(2024, time.June, 1), 6, 3)
	if len(windows) != 0 {
		t.Errorf("windows = %d, want 0 when no full fold fits", len(windows))
	}
}

type stubFactory struct {
	err error
}

func (f stubFactory) Build(context.Context, time.Time, time.Time) (Strategy, map[string]float64, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return &stubStrategy{weights: types.WeightMap{"SPY": 0.5}},
		map[string]float64{"weight": 0.5}, nil
}

func TestWalkForwardRun(t *testing.T) {
	p := DefaultParams(
		date(2024, time.January, 1),
		date(2024, time.July, 1),
		dec("1000000"),
		Monthly,
	)
	p.WalkForwardTrainMonths = 2
	p.WalkForwardTestMonths = 1
	cfg, err := NewConfig(p)
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}

	wf, err := NewWalkForward(cfg, constPrices{price: dec("100")}, nil)
	if err != nil {
		t.Fatalf("NewWalkForward() error = %v", err)
	}

	results, err := wf.Run(context.Background(), stubFactory{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("results = %d, want 4 folds", len(results))
	}
	for i, wr := range results {
		if wr.TrainResult == nil || wr.TestResult == nil {
			t.Fatalf("fold %d missing a result", i)
		}
		if wr.Params["weight"] != 0.5 {
			t.Errorf("fold %d params = %v", i, wr.Params)
		}
		if wr.TrainResult.StrategyID != wr.TestResult.StrategyID &&
			wr.TrainResult.StrategyID == "" {
			t.Errorf("fold %d has no strategy id", i)
		}
		if len(wr.TestResult.EquityCurve) == 0 {
			t.Errorf("fold %d test run produced no equity points", i)
		}
	}
}

func TestWalkForwardRunFactoryError(t *testing.T) {
	cfg := testConfig(t, 1.0)

	// The default 60/12 windows never fit a one-year range, so shrink them.
	p := DefaultParams(cfg.StartDate(), cfg.EndDate(), cfg.InitialCapital(), Monthly)
	p.WalkForwardTrainMonths = 3
	p.WalkForwardTestMonths = 3
	narrow, err := NewConfig(p)
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}
	wf, err := NewWalkForward(narrow, constPrices{price: dec("100")}, nil)
	if err != nil {
		t.Fatalf("NewWalkForward() error = %v", err)
	}

	buildErr := errors.New("calibration failed")
	if _, err := wf.Run(context.Background(), stubFactory{err: buildErr}); !errors.Is(err, buildErr) {
		t.Errorf("Run() error = %v, want wrapped %v", err, buildErr)
	}
}

func TestNewWalkForwardNilPriceSource(t *testing.T) {
	cfg := testConfig(t, 1.0)
	if _, err := NewWalkForward(cfg, nil, nil); !errors.Is(err, NilPriceSourceErr) {
		t.Errorf("error = %v, want %v", err, NilPriceSourceErr)
	}
}
