package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"backsim/types"
)

var InvalidLookbackErr = errors.New("lookback days must be positive")

type priceDAO struct {
	Ts    time.Time
	Close decimal.Decimal
}

type pricesRepository interface {
	SelectPrices(ctx context.Context, ticker string, from, asOf time.Time) ([]priceDAO, error)
}

// GetPrice returns closes for ticker in (asOf-lookbackDays, asOf],
// ascending by timestamp. Rows whose availability timestamp exceeds asOf
// are excluded at the query level: nothing the caller can do reintroduces
// lookahead. An empty window yields an empty slice, not an error.
func (db *Database) GetPrice(ctx context.Context, ticker string, asOf time.Time, lookbackDays int) ([]types.PriceRow, error) {
	if lookbackDays <= 0 {
		return nil, InvalidLookbackErr
	}
	from := asOf.AddDate(0, 0, -lookbackDays)
	rows, err := db.prices.SelectPrices(ctx, ticker, from, asOf)
	if err != nil {
		return nil, fmt.Errorf("select prices %s: %w", ticker, err)
	}
	return convertPrices(rows), nil
}

func convertPrices(daos []priceDAO) []types.PriceRow {
	out := make([]types.PriceRow, 0, len(daos))
	for _, dao := range daos {
		out = append(out, types.PriceRow{Ts: dao.Ts, Close: dao.Close})
	}
	return out
}

type pgxPrices struct {
	conn *pgxpool.Pool
}

// The available_at bound is the whole point: a row priced in the window
// but published later must never be visible as of asOf.
const selectPricesSQL = `
SELECT ts, close
FROM prices
WHERE ticker = $1
  AND ts > $2
  AND ts <= $3
  AND available_at <= $3
ORDER BY ts`

func (p pgxPrices) SelectPrices(ctx context.Context, ticker string, from, asOf time.Time) ([]priceDAO, error) {
	rows, err := p.conn.Query(ctx, selectPricesSQL, ticker, from, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []priceDAO
	for rows.Next() {
		var dao priceDAO
		if err := rows.Scan(&dao.Ts, &dao.Close); err != nil {
			return nil, err
		}
		out = append(out, dao)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
