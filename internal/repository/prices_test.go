package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPrices struct {
	rows []priceDAO
	err  error

	gotTicker string
	gotFrom   time.Time
	gotAsOf   time.Time
}

func (s *stubPrices) SelectPrices(_ context.Context, ticker string, from, asOf time.Time) ([]priceDAO, error) {
	s.gotTicker = ticker
	s.gotFrom = from
	s.gotAsOf = asOf
	return s.rows, s.err
}

func TestGetPrice(t *testing.T) {
	asOf := time.Date(2024, time.March, 29, 0, 0, 0, 0, time.UTC)
	stub := &stubPrices{rows: []priceDAO{
		{Ts: asOf.AddDate(0, 0, -1), Close: decimal.RequireFromString("101.25")},
		{Ts: asOf, Close: decimal.RequireFromString("102.50")},
	}}
	db := Database{prices: stub}

	rows, err := db.GetPrice(context.Background(), "SPY", asOf, 7)
	require.NoError(t, err)

	assert.Equal(t, "SPY", stub.gotTicker)
	assert.Equal(t, asOf.AddDate(0, 0, -7), stub.gotFrom)
	assert.Equal(t, asOf, stub.gotAsOf)

	require.Len(t, rows, 2)
	assert.True(t, rows[1].Close.Equal(decimal.RequireFromString("102.50")))
	assert.Equal(t, asOf, rows[1].Ts)
}

func TestGetPriceEmptyWindow(t *testing.T) {
	db := Database{prices: &stubPrices{}}

	rows, err := db.GetPrice(context.Background(), "SPY", time.Now(), 7)
	require.NoError(t, err)
	assert.Empty(t, rows, "a gap is an empty slice, not an error")
}

func TestGetPriceInvalidLookback(t *testing.T) {
	db := Database{prices: &stubPrices{}}

	for _, days := range []int{0, -5} {
		_, err := db.GetPrice(context.Background(), "SPY", time.Now(), days)
		assert.ErrorIs(t, err, InvalidLookbackErr, "lookback %d", days)
	}
}

func TestGetPriceWrapsRepositoryError(t *testing.T) {
	queryErr := errors.New("connection reset")
	db := Database{prices: &stubPrices{err: queryErr}}

	_, err := db.GetPrice(context.Background(), "ZN2024H", time.Now(), 7)
	require.ErrorIs(t, err, queryErr)
	assert.Contains(t, err.Error(), "ZN2024H")
}
