package engine

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// eulerGamma is the Euler-Mascheroni constant used in the expected
// maximum of Gaussian order statistics.
const eulerGamma = 0.5772156649015329

// DeflatedSharpe is the probability that an observed Sharpe ratio is
// genuine after correcting for having selected the best of nTrials
// attempts. The Sharpe estimator variance is estimated from the return
// skewness and excess kurtosis. The result is clamped to [0, 1];
// nTrials <= 0 or nObservations <= 1 yields 0.
func DeflatedSharpe(observedSharpe float64, nTrials int, skewness, excessKurtosis float64, nObservations int) float64 {
	if nTrials <= 0 || nObservations <= 1 {
		return 0
	}
	variance := (1 - skewness*observedSharpe +
		(excessKurtosis+2)/4*observedSharpe*observedSharpe) / float64(nObservations-1)
	return deflatedSharpe(observedSharpe, nTrials, variance)
}

// DeflatedSharpeWithVariance accepts a precomputed variance of the
// Sharpe estimator instead of the skewness/kurtosis closed form.
func DeflatedSharpeWithVariance(observedSharpe float64, nTrials int, variance float64, nObservations int) float64 {
	if nTrials <= 0 || nObservations <= 1 {
		return 0
	}
	return deflatedSharpe(observedSharpe, nTrials, variance)
}

func deflatedSharpe(observedSharpe float64, nTrials int, variance float64) float64 {
	if variance <= 0 || math.IsNaN(variance) {
		return 0
	}
	std := math.Sqrt(variance)

	// Expected maximum Sharpe achievable by chance across nTrials i.i.d.
	// trials, via the Euler-Mascheroni approximation of the expected
	// maximum of Gaussian order statistics.
	expectedMax := 0.0
	if nTrials > 1 {
		n := float64(nTrials)
		expectedMax = std * ((1-eulerGamma)*distuv.UnitNormal.Quantile(1-1/n) +
			eulerGamma*distuv.UnitNormal.Quantile(1-1/(n*math.E)))
	}

	p := distuv.UnitNormal.CDF((observedSharpe - expectedMax) / std)
	return math.Min(1, math.Max(0, p))
}
