package engine

import (
	"backsim/types"
	"context"
	"time"
)

// Strategy is the external signal-generation collaborator. It may return
// any of the three shapes in types (weight map, position list, signal
// list) and is itself responsible for only consulting data knowable at
// asOf.
type Strategy interface {
	GenerateSignals(ctx context.Context, asOf time.Time) (types.StrategyOutput, error)
}

// PriceSource is the point-in-time data contract. Implementations must
// never return a row whose availability timestamp exceeds asOf; every
// downstream metric silently depends on that guarantee.
type PriceSource interface {
	GetPrice(ctx context.Context, ticker string, asOf time.Time, lookbackDays int) ([]types.PriceRow, error)
}
