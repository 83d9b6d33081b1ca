// Package fixedweight holds a constant target allocation. It is the
// simplest useful strategy and doubles as a reference implementation of
// the strategy contract.
package fixedweight

import (
	"context"
	"time"

	"backsim/types"
)

type Strategy struct {
	weights types.WeightMap
}

func New(weights map[string]float64) *Strategy {
	w := make(types.WeightMap, len(weights))
	for inst, weight := range weights {
		w[inst] = weight
	}
	return &Strategy{weights: w}
}

// GenerateSignals returns the same weight map on every date. The copy
// keeps callers from mutating the strategy's allocation.
func (s *Strategy) GenerateSignals(_ context.Context, _ time.Time) (types.StrategyOutput, error) {
	out := make(types.WeightMap, len(s.weights))
	for inst, weight := range s.weights {
		out[inst] = weight
	}
	return out, nil
}
