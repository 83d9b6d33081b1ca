package engine

import "backsim/types"

// normalizeSignals folds whatever shape a strategy returned into the
// canonical instrument -> target weight map. It never fails: nil, empty
// or unrecognized outputs yield an empty map.
func normalizeSignals(out types.StrategyOutput) map[string]float64 {
	weights := make(map[string]float64)
	switch v := out.(type) {
	case types.WeightMap:
		for inst, w := range v {
			weights[inst] = w
		}
	case types.PositionList:
		for _, rec := range v {
			weights[rec.Instrument] += rec.Weight
		}
	case types.SignalList:
		for _, sig := range v {
			size := sig.Size
			switch sig.Direction {
			case types.SignalLong:
				// keep size as-is
			case types.SignalShort:
				size = -size
			case types.SignalNeutral:
				size = 0
			default:
				continue
			}
			for _, inst := range sig.Instruments {
				weights[inst] += size
			}
		}
	}
	return weights
}
