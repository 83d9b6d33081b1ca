package fixedweight

import (
	"context"
	"testing"
	"time"

	"backsim/types"
)

func TestGenerateSignalsIsConstant(t *testing.T) {
	s := New(map[string]float64{"SPY": 0.6, "TLT": 0.4})

	dates := []time.Time{
		time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.June, 28, 0, 0, 0, 0, time.UTC),
	}
	for _, d := range dates {
		out, err := s.GenerateSignals(context.Background(), d)
		if err != nil {
			t.Fatalf("GenerateSignals() error = %v", err)
		}
		weights, ok := out.(types.WeightMap)
		if !ok {
			t.Fatalf("GenerateSignals() = %T, want WeightMap", out)
		}
		if weights["SPY"] != 0.6 || weights["TLT"] != 0.4 {
			t.Errorf("weights = %v", weights)
		}
	}
}

func TestGenerateSignalsCopies(t *testing.T) {
	s := New(map[string]float64{"SPY": 1.0})

	out, _ := s.GenerateSignals(context.Background(), time.Now())
	out.(types.WeightMap)["SPY"] = -5

	again, _ := s.GenerateSignals(context.Background(), time.Now())
	if again.(types.WeightMap)["SPY"] != 1.0 {
		t.Errorf("caller mutation leaked into the strategy")
	}
}

func TestNewCopiesInput(t *testing.T) {
	in := map[string]float64{"SPY": 1.0}
	s := New(in)
	in["SPY"] = 0

	out, _ := s.GenerateSignals(context.Background(), time.Now())
	if out.(types.WeightMap)["SPY"] != 1.0 {
		t.Errorf("input mutation leaked into the strategy")
	}
}
