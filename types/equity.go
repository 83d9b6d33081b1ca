package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// EquityPoint is one sample of the portfolio's total equity.
type EquityPoint struct {
	Date   time.Time
	Equity decimal.Decimal
}
