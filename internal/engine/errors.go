package engine

import "errors"

// Configuration errors fail fast, before any simulation work begins.
var (
	InvalidDateRangeErr    = errors.New("start date must be before end date")
	InvalidCapitalErr      = errors.New("initial capital must be positive")
	InvalidLeverageErr     = errors.New("max leverage must be positive")
	UnknownFrequencyErr    = errors.New("unknown rebalance frequency")
	EmptyStrategiesErr     = errors.New("no strategies given to aggregate")
	WeightCountMismatchErr = errors.New("strategy and weight counts differ")
	NilStrategyErr         = errors.New("strategy must not be nil")
	NilPriceSourceErr      = errors.New("price source must not be nil")
)
