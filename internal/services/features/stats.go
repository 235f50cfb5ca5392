package features

import "math"

// Mean returns the arithmetic mean, or 0 for an empty series.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// PopulationStdDev is the standard deviation with ddof=0.
func PopulationStdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// AnnualizedVolatility scales a per-period population stdev by sqrt(periodsPerYear).
func AnnualizedVolatility(returns []float64, periodsPerYear float64) float64 {
	return PopulationStdDev(returns) * math.Sqrt(periodsPerYear)
}

// AnnualizedReturn compounds a total return over n periods to a yearly rate.
func AnnualizedReturn(totalReturn float64, periods int, periodsPerYear float64) float64 {
	if periods <= 0 || totalReturn <= -1 {
		return -1
	}
	return math.Pow(1+totalReturn, periodsPerYear/float64(periods)) - 1
}

// MaxDrawdown returns the largest peak-to-trough decline of a value path as a
// positive fraction. start seeds the running peak.
func MaxDrawdown(start float64, values []float64) float64 {
	peak := start
	var maxDD float64
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}
