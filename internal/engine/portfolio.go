package engine

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"backsim/types"
)

var (
	bpsDivisor = decimal.NewFromInt(10000)
	oneUnit    = decimal.NewFromInt(1)
)

// portfolio is the cash/position ledger. Positions are signed notionals,
// not share counts. Exactly one simulation run owns a portfolio at a
// time; the invariant totalEquity == cash + sum(positions) holds by
// construction after every call.
type portfolio struct {
	cash        decimal.Decimal
	positions   map[string]decimal.Decimal
	entryPrices map[string]decimal.Decimal
	lastPrices  map[string]decimal.Decimal
	equityCurve []types.EquityPoint
	trades      []types.Trade
}

func newPortfolio(initialCash decimal.Decimal) *portfolio {
	return &portfolio{
		cash:        initialCash,
		positions:   make(map[string]decimal.Decimal),
		entryPrices: make(map[string]decimal.Decimal),
		lastPrices:  make(map[string]decimal.Decimal),
	}
}

func (p *portfolio) totalEquity() decimal.Decimal {
	equity := p.cash
	for _, notional := range p.positions {
		equity = equity.Add(notional)
	}
	return equity
}

// sortedInstruments gives a deterministic iteration order over a weight
// or position map.
func sortedInstruments[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// markToMarket scales every priced, non-zero position by the ratio of the
// current price to its entry price and refreshes the entry price.
// Instruments absent from prices are left completely untouched: a data
// gap never triggers an implicit liquidation.
func (p *portfolio) markToMarket(prices map[string]decimal.Decimal) {
	for _, inst := range sortedInstruments(p.positions) {
		notional := p.positions[inst]
		if notional.IsZero() {
			continue
		}
		price, ok := prices[inst]
		if !ok || !price.IsPositive() {
			continue
		}
		entry := p.entryPrices[inst]
		if !entry.IsPositive() {
			p.entryPrices[inst] = price
			continue
		}
		p.positions[inst] = notional.Mul(price).Div(entry)
		p.entryPrices[inst] = price
	}
}

// rebalance moves the ledger to the target weights at the given prices.
// Cash plus positions is conserved across the call except for costs,
// which strictly reduce cash. An insolvent portfolio is frozen: the whole
// call is a no-op when total equity is not positive.
func (p *portfolio) rebalance(date time.Time, targets map[string]float64, prices map[string]decimal.Decimal, cfg Config) {
	equity := p.totalEquity()
	if !equity.IsPositive() {
		return
	}

	targets = clampLeverage(targets, cfg.MaxLeverage())

	for _, inst := range sortedInstruments(targets) {
		price, ok := prices[inst]
		if !ok || !price.IsPositive() {
			continue
		}
		target := equity.Mul(decimal.NewFromFloat(targets[inst]))
		current := p.positions[inst]
		tradeNotional := target.Sub(current)
		if tradeNotional.Abs().LessThan(oneUnit) {
			continue
		}

		cost := tradeCost(tradeNotional, cfg.tradingCostBps(inst))
		p.cash = p.cash.Sub(tradeNotional).Sub(cost)

		realized := p.realizedOnReduce(inst, current, target, price)

		direction := types.DirectionBuy
		if tradeNotional.IsNegative() {
			direction = types.DirectionSell
		}
		p.trades = append(p.trades, types.Trade{
			Date:        date,
			Instrument:  inst,
			Direction:   direction,
			Notional:    tradeNotional,
			Cost:        cost,
			Price:       price,
			RealizedPnL: realized,
		})

		p.positions[inst] = target
		p.entryPrices[inst] = price
	}

	p.exitDroppedPositions(date, targets, prices, cfg)
}

// realizedOnReduce attributes PnL proportionally to the closed fraction
// of a shrinking position, against the single rolling entry price. This
// is an average-cost heuristic, not per-lot tracking.
func (p *portfolio) realizedOnReduce(inst string, current, target, price decimal.Decimal) decimal.Decimal {
	if current.IsZero() {
		return decimal.Zero
	}
	entry := p.entryPrices[inst]
	if !entry.IsPositive() {
		return decimal.Zero
	}
	// Only a reduction of the existing exposure realizes anything.
	if target.Abs().GreaterThanOrEqual(current.Abs()) && sameSign(current, target) {
		return decimal.Zero
	}
	closed := current
	if sameSign(current, target) {
		closed = current.Sub(target)
	}
	return price.Div(entry).Sub(decimal.NewFromInt(1)).Mul(closed)
}

// exitDroppedPositions closes every held instrument absent from the
// target weights: notional returns to cash net of an exit cost, PnL is
// attributed at the current price and exactly one EXIT trade is logged.
func (p *portfolio) exitDroppedPositions(date time.Time, targets map[string]float64, prices map[string]decimal.Decimal, cfg Config) {
	for _, inst := range sortedInstruments(p.positions) {
		notional := p.positions[inst]
		if notional.IsZero() {
			continue
		}
		if _, keep := targets[inst]; keep {
			continue
		}

		price, ok := prices[inst]
		if !ok || !price.IsPositive() {
			price = p.entryPrices[inst]
		}
		cost := tradeCost(notional, cfg.tradingCostBps(inst))
		p.cash = p.cash.Add(notional).Sub(cost)

		realized := decimal.Zero
		if entry := p.entryPrices[inst]; entry.IsPositive() && price.IsPositive() {
			realized = price.Div(entry).Sub(decimal.NewFromInt(1)).Mul(notional)
		}

		p.trades = append(p.trades, types.Trade{
			Date:        date,
			Instrument:  inst,
			Direction:   types.DirectionExit,
			Notional:    notional,
			Cost:        cost,
			Price:       price,
			RealizedPnL: realized,
		})

		p.positions[inst] = decimal.Zero
		p.entryPrices[inst] = decimal.Zero
	}
}

func (p *portfolio) recordEquity(date time.Time) {
	p.equityCurve = append(p.equityCurve, types.EquityPoint{Date: date, Equity: p.totalEquity()})
}

// clampLeverage uniformly scales weights down so the gross exposure sums
// exactly to maxLeverage when it would otherwise exceed it.
func clampLeverage(targets map[string]float64, maxLeverage float64) map[string]float64 {
	gross := 0.0
	for _, w := range targets {
		if w < 0 {
			gross -= w
		} else {
			gross += w
		}
	}
	if gross <= maxLeverage || gross == 0 {
		return targets
	}
	scale := maxLeverage / gross
	scaled := make(map[string]float64, len(targets))
	for inst, w := range targets {
		scaled[inst] = w * scale
	}
	return scaled
}

func tradeCost(notional decimal.Decimal, bps float64) decimal.Decimal {
	return notional.Abs().Mul(decimal.NewFromFloat(bps)).Div(bpsDivisor)
}

func sameSign(a, b decimal.Decimal) bool {
	return (a.IsPositive() && b.IsPositive()) || (a.IsNegative() && b.IsNegative())
}
