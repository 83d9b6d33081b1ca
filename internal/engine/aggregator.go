package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"backsim/types"
)

// NamedStrategy is one member of a multi-strategy run.
type NamedStrategy struct {
	ID       string
	Strategy Strategy
}

// AggregateResult combines independent per-strategy runs. The combined
// curve blends each strategy's growth-of-one ratio scaled by the shared
// initial capital, never raw dollar sums, so strategies with different
// internal capital bases still combine by weight.
type AggregateResult struct {
	Combined       []types.EquityPoint
	Results        map[string]*types.BacktestResult
	Weights        map[string]float64
	Correlations   map[string]map[string]float64
	PnLAttribution map[string]decimal.Decimal
}

// Aggregator runs one full, independent simulation per strategy and
// blends the outcomes. Sub-runs share no mutable state and execute
// concurrently; the blending step is a read-only reduction over
// completed results.
type Aggregator struct {
	cfg    Config
	prices PriceSource
	logger *zap.Logger
}

func NewAggregator(cfg Config, prices PriceSource, logger *zap.Logger) (*Aggregator, error) {
	if prices == nil {
		return nil, NilPriceSourceErr
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{cfg: cfg, prices: prices, logger: logger}, nil
}

// Run backtests every strategy and aggregates. A nil weight slice means
// equal weighting; a mismatched one is a configuration error.
func (a *Aggregator) Run(ctx context.Context, strategies []NamedStrategy, weights []float64) (*AggregateResult, error) {
	if len(strategies) == 0 {
		return nil, EmptyStrategiesErr
	}
	if weights == nil {
		weights = make([]float64, len(strategies))
		for i := range weights {
			weights[i] = 1.0 / float64(len(strategies))
		}
	}
	if len(weights) != len(strategies) {
		return nil, WeightCountMismatchErr
	}

	results := make([]*types.BacktestResult, len(strategies))
	g, gctx := errgroup.WithContext(ctx)
	for i, ns := range strategies {
		i, ns := i, ns
		g.Go(func() error {
			eng, err := NewEngine(a.cfg, ns.ID, ns.Strategy, a.prices, a.logger)
			if err != nil {
				return fmt.Errorf("strategy %s: %w", ns.ID, err)
			}
			res, err := eng.Run(gctx)
			if err != nil {
				return fmt.Errorf("strategy %s: %w", ns.ID, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &AggregateResult{
		Results:        make(map[string]*types.BacktestResult, len(strategies)),
		Weights:        make(map[string]float64, len(strategies)),
		PnLAttribution: make(map[string]decimal.Decimal, len(strategies)),
	}
	capital := a.cfg.InitialCapital()
	for i, ns := range strategies {
		res := results[i]
		out.Results[ns.ID] = res
		out.Weights[ns.ID] = weights[i]

		// Attribution: this strategy's share of the blended PnL.
		growth := decimal.Zero
		if res.InitialCapital.IsPositive() {
			growth = res.FinalEquity.Div(res.InitialCapital).Sub(decimal.NewFromInt(1))
		}
		out.PnLAttribution[ns.ID] = capital.Mul(decimal.NewFromFloat(weights[i])).Mul(growth)
	}

	out.Combined = blendCurves(results, weights, capital)
	out.Correlations = correlationMatrix(strategies, results)
	return out, nil
}

// blendCurves combines equity curves as a weighted sum of each
// strategy's equity ratio, scaled by the shared initial capital. A
// strategy without a point on a given date carries its latest known
// ratio forward (1.0 before its first point).
func blendCurves(results []*types.BacktestResult, weights []float64, capital decimal.Decimal) []types.EquityPoint {
	dateSet := make(map[time.Time]struct{})
	for _, res := range results {
		for _, pt := range res.EquityCurve {
			dateSet[pt.Date] = struct{}{}
		}
	}
	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	indices := make([]int, len(results))
	ratios := make([]float64, len(results))
	for i := range ratios {
		ratios[i] = 1.0
	}

	combined := make([]types.EquityPoint, 0, len(dates))
	for _, d := range dates {
		blended := 0.0
		for i, res := range results {
			curve := res.EquityCurve
			base := res.InitialCapital.InexactFloat64()
			for indices[i] < len(curve) && !curve[indices[i]].Date.After(d) {
				if base > 0 {
					ratios[i] = curve[indices[i]].Equity.InexactFloat64() / base
				}
				indices[i]++
			}
			blended += weights[i] * ratios[i]
		}
		combined = append(combined, types.EquityPoint{
			Date:   d,
			Equity: capital.Mul(decimal.NewFromFloat(blended)),
		})
	}
	return combined
}

// correlationMatrix is the pairwise correlation of periodic returns over
// the dates the two strategies have in common. Pairs with fewer than two
// common return observations correlate at zero.
func correlationMatrix(strategies []NamedStrategy, results []*types.BacktestResult) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(strategies))
	for i, a := range strategies {
		out[a.ID] = make(map[string]float64, len(strategies))
		for j, b := range strategies {
			if i == j {
				out[a.ID][b.ID] = 1
				continue
			}
			ra, rb := alignedReturns(results[i].EquityCurve, results[j].EquityCurve)
			if len(ra) < 2 {
				out[a.ID][b.ID] = 0
				continue
			}
			corr := stat.Correlation(ra, rb, nil)
			if corr != corr { // NaN on zero variance
				corr = 0
			}
			out[a.ID][b.ID] = corr
		}
	}
	return out
}

// alignedReturns computes both curves' periodic returns over their
// common dates.
func alignedReturns(a, b []types.EquityPoint) ([]float64, []float64) {
	bByDate := make(map[time.Time]float64, len(b))
	for _, pt := range b {
		bByDate[pt.Date] = pt.Equity.InexactFloat64()
	}

	var eqA, eqB []float64
	for _, pt := range a {
		if vb, ok := bByDate[pt.Date]; ok {
			eqA = append(eqA, pt.Equity.InexactFloat64())
			eqB = append(eqB, vb)
		}
	}

	var ra, rb []float64
	for i := 1; i < len(eqA); i++ {
		if eqA[i-1] <= 0 || eqB[i-1] <= 0 {
			continue
		}
		ra = append(ra, eqA[i]/eqA[i-1]-1)
		rb = append(rb, eqB[i]/eqB[i-1]-1)
	}
	return ra, rb
}
