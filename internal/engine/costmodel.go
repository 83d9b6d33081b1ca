package engine

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CostComponents are per-trade costs in basis points for one instrument
// class.
type CostComponents struct {
	SpreadBps      float64
	CommissionBps  float64
	ExchangeFeeBps float64
}

func (c CostComponents) TotalBps() float64 {
	return c.SpreadBps + c.CommissionBps + c.ExchangeFeeBps
}

// PrefixRule maps a ticker family onto an instrument class. Rules are
// checked in declaration order; first match wins.
type PrefixRule struct {
	Prefix string
	Class  string
}

// CostModel is a static transaction-cost table. Read-only after
// construction, safe for concurrent use.
type CostModel struct {
	classes    map[string]CostComponents
	prefixes   []PrefixRule
	defaultBps CostComponents
}

func NewCostModel(classes map[string]CostComponents, prefixes []PrefixRule, defaultBps CostComponents) *CostModel {
	cloned := make(map[string]CostComponents, len(classes))
	for k, v := range classes {
		cloned[k] = v
	}
	return &CostModel{
		classes:    cloned,
		prefixes:   append([]PrefixRule(nil), prefixes...),
		defaultBps: defaultBps,
	}
}

// DefaultCostModel covers the common liquid instrument classes.
func DefaultCostModel() *CostModel {
	return NewCostModel(
		map[string]CostComponents{
			"equity_large_cap": {SpreadBps: 2, CommissionBps: 1, ExchangeFeeBps: 0.5},
			"equity_small_cap": {SpreadBps: 10, CommissionBps: 1, ExchangeFeeBps: 0.5},
			"future_equity":    {SpreadBps: 0.5, CommissionBps: 0.5, ExchangeFeeBps: 0.3},
			"future_rates":     {SpreadBps: 0.25, CommissionBps: 0.5, ExchangeFeeBps: 0.3},
			"fx_major":         {SpreadBps: 0.5, CommissionBps: 0.2, ExchangeFeeBps: 0},
			"crypto":           {SpreadBps: 5, CommissionBps: 10, ExchangeFeeBps: 1},
		},
		[]PrefixRule{
			{Prefix: "ES", Class: "future_equity"},
			{Prefix: "NQ", Class: "future_equity"},
			{Prefix: "ZN", Class: "future_rates"},
			{Prefix: "ZB", Class: "future_rates"},
			{Prefix: "ZF", Class: "future_rates"},
			{Prefix: "6E", Class: "fx_major"},
			{Prefix: "6J", Class: "fx_major"},
			{Prefix: "BTC", Class: "crypto"},
			{Prefix: "ETH", Class: "crypto"},
		},
		CostComponents{SpreadBps: 5, CommissionBps: 1, ExchangeFeeBps: 0.5},
	)
}

// GetCostBps resolves an instrument to total per-trade basis points:
// exact class match first, then the ordered prefix table, then the
// default.
func (m *CostModel) GetCostBps(instrument string) float64 {
	if c, ok := m.classes[instrument]; ok {
		return c.TotalBps()
	}
	for _, rule := range m.prefixes {
		if strings.HasPrefix(instrument, rule.Prefix) {
			if c, ok := m.classes[rule.Class]; ok {
				return c.TotalBps()
			}
		}
	}
	return m.defaultBps.TotalBps()
}

// GetCost is the absolute currency cost of trading the given notional.
func (m *CostModel) GetCost(instrument string, notional decimal.Decimal) decimal.Decimal {
	bps := decimal.NewFromFloat(m.GetCostBps(instrument))
	return notional.Abs().Mul(bps).Div(decimal.NewFromInt(10000))
}

func (m *CostModel) GetRoundTripBps(instrument string) float64 {
	return 2 * m.GetCostBps(instrument)
}
