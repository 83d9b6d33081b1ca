package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceRow is one point-in-time price observation. Rows returned by a
// price source are ordered ascending by Ts and must never carry an
// availability timestamp later than the as-of date they were queried for.
type PriceRow struct {
	Ts    time.Time
	Close decimal.Decimal
}
