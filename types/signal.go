package types

// SignalDirection is the direction of a directional signal record.
type SignalDirection string

const (
	SignalLong    SignalDirection = "LONG"
	SignalShort   SignalDirection = "SHORT"
	SignalNeutral SignalDirection = "NEUTRAL"
)

// StrategyOutput is the closed set of shapes a strategy may return from
// GenerateSignals. The engine folds any of them into a weight map.
type StrategyOutput interface {
	isStrategyOutput()
}

// WeightMap maps instrument to signed target weight. Passed through as-is.
type WeightMap map[string]float64

func (WeightMap) isStrategyOutput() {}

// PositionRecord names one instrument and its target weight.
type PositionRecord struct {
	Instrument string
	Weight     float64
}

// PositionList is folded into a weight map, later entries summing onto
// earlier ones.
type PositionList []PositionRecord

func (PositionList) isStrategyOutput() {}

// DirectionalSignal is a LONG/SHORT/NEUTRAL suggestion over one or more
// instruments with a suggested size.
type DirectionalSignal struct {
	Direction   SignalDirection
	Instruments []string
	Size        float64
}

// SignalList contributes +size for LONG, -size for SHORT and 0 for NEUTRAL
// to every instrument each signal names.
type SignalList []DirectionalSignal

func (SignalList) isStrategyOutput() {}
