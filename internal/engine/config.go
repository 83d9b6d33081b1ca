package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

func (f Frequency) valid() bool {
	switch f {
	case Daily, Weekly, Monthly:
		return true
	}
	return false
}

// annualizationFactor is the number of periods per year for a frequency.
func (f Frequency) annualizationFactor() float64 {
	switch f {
	case Daily:
		return 252
	case Weekly:
		return 52
	}
	return 12
}

// ConfigParams is the mutable builder for Config. Obtain one from
// DefaultParams so the documented defaults are filled in, override what
// you need, then freeze it with NewConfig.
type ConfigParams struct {
	StartDate              time.Time
	EndDate                time.Time
	InitialCapital         decimal.Decimal
	Frequency              Frequency
	TransactionCostBps     float64
	SlippageBps            float64
	MaxLeverage            float64
	WalkForward            bool
	WalkForwardTrainMonths int
	WalkForwardTestMonths  int
	FundingRate            float64
	PointInTime            bool
	CostModel              *CostModel
}

// DefaultParams returns ConfigParams with the recognized defaults:
// 5bps transaction cost, 2bps slippage, 1x leverage, 60/12 month
// walk-forward windows, 5% funding rate, point-in-time enabled.
func DefaultParams(start, end time.Time, initialCapital decimal.Decimal, freq Frequency) ConfigParams {
	return ConfigParams{
		StartDate:              start,
		EndDate:                end,
		InitialCapital:         initialCapital,
		Frequency:              freq,
		TransactionCostBps:     5.0,
		SlippageBps:            2.0,
		MaxLeverage:            1.0,
		WalkForwardTrainMonths: 60,
		WalkForwardTestMonths:  12,
		FundingRate:            0.05,
		PointInTime:            true,
	}
}

// Config is an immutable backtest configuration. It is constructed once
// per run; "changing" it means constructing a new value (see WithDates).
type Config struct {
	startDate              time.Time
	endDate                time.Time
	initialCapital         decimal.Decimal
	frequency              Frequency
	transactionCostBps     float64
	slippageBps            float64
	maxLeverage            float64
	walkForward            bool
	walkForwardTrainMonths int
	walkForwardTestMonths  int
	fundingRate            float64
	pointInTime            bool
	costModel              *CostModel
}

func NewConfig(p ConfigParams) (Config, error) {
	if !p.StartDate.Before(p.EndDate) {
		return Config{}, InvalidDateRangeErr
	}
	if !p.InitialCapital.IsPositive() {
		return Config{}, InvalidCapitalErr
	}
	if p.MaxLeverage <= 0 {
		return Config{}, InvalidLeverageErr
	}
	if !p.Frequency.valid() {
		return Config{}, UnknownFrequencyErr
	}
	return Config{
		startDate:              p.StartDate,
		endDate:                p.EndDate,
		initialCapital:         p.InitialCapital,
		frequency:              p.Frequency,
		transactionCostBps:     p.TransactionCostBps,
		slippageBps:            p.SlippageBps,
		maxLeverage:            p.MaxLeverage,
		walkForward:            p.WalkForward,
		walkForwardTrainMonths: p.WalkForwardTrainMonths,
		walkForwardTestMonths:  p.WalkForwardTestMonths,
		fundingRate:            p.FundingRate,
		pointInTime:            p.PointInTime,
		costModel:              p.CostModel,
	}, nil
}

// WithDates returns a copy of the config restricted to a new date range.
// The receiver is left untouched.
func (c Config) WithDates(start, end time.Time) (Config, error) {
	if !start.Before(end) {
		return Config{}, InvalidDateRangeErr
	}
	out := c
	out.startDate = start
	out.endDate = end
	return out, nil
}

func (c Config) StartDate() time.Time               { return c.startDate }
func (c Config) EndDate() time.Time                 { return c.endDate }
func (c Config) InitialCapital() decimal.Decimal    { return c.initialCapital }
func (c Config) Frequency() Frequency               { return c.frequency }
func (c Config) TransactionCostBps() float64        { return c.transactionCostBps }
func (c Config) SlippageBps() float64               { return c.slippageBps }
func (c Config) MaxLeverage() float64               { return c.maxLeverage }
func (c Config) WalkForward() bool                  { return c.walkForward }
func (c Config) WalkForwardTrainMonths() int        { return c.walkForwardTrainMonths }
func (c Config) WalkForwardTestMonths() int         { return c.walkForwardTestMonths }
func (c Config) FundingRate() float64               { return c.fundingRate }
func (c Config) PointInTime() bool                  { return c.pointInTime }
func (c Config) CostModel() *CostModel              { return c.costModel }

// tradingCostBps is the total round-cost in basis points applied to one
// trade in an instrument. A cost model, when present, replaces the flat
// transaction cost; slippage always applies on top.
func (c Config) tradingCostBps(instrument string) float64 {
	costBps := c.transactionCostBps
	if c.costModel != nil {
		costBps = c.costModel.GetCostBps(instrument)
	}
	return costBps + c.slippageBps
}
