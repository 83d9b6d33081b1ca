package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
	DirectionExit Direction = "EXIT"
)

// Trade is one ledger entry. Immutable once appended to the trade log.
type Trade struct {
	Date        time.Time
	Instrument  string
	Direction   Direction
	Notional    decimal.Decimal
	Cost        decimal.Decimal
	Price       decimal.Decimal
	RealizedPnL decimal.Decimal
}
