package distributions

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// StatisticalDistributions provides unified access to the reference distributions
// used by the inference and diagnostic stages
type StatisticalDistributions struct{}

// New creates a new distributions utility
func New() *StatisticalDistributions {
	return &StatisticalDistributions{}
}

// ChiSquarePValue computes the upper-tail probability of a chi-square statistic.
// Zero degrees of freedom is a point mass at 0, so the p-value is 1.
func (sd *StatisticalDistributions) ChiSquarePValue(chiSquare float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 || chiSquare <= 0 || math.IsNaN(chiSquare) {
		return 1.0
	}
	if math.IsInf(chiSquare, 1) {
		return 0
	}

	chiDist := distuv.ChiSquared{K: float64(degreesOfFreedom)}
	return clampProbability(chiDist.Survival(chiSquare))
}

// NormalCDF computes cumulative distribution function for standard normal
func (sd *StatisticalDistributions) NormalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// NormalQuantile computes quantile function for standard normal (inverse CDF)
func (sd *StatisticalDistributions) NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// CriticalZ returns the two-sided critical value for a confidence level, e.g. 1.96 for 0.95
func (sd *StatisticalDistributions) CriticalZ(level float64) float64 {
	return sd.NormalQuantile(1 - (1-level)/2)
}

// WaldPValue computes the two-sided p-value of a z statistic
func (sd *StatisticalDistributions) WaldPValue(z float64) float64 {
	if math.IsNaN(z) {
		return math.NaN()
	}
	return clampProbability(2 * distuv.UnitNormal.Survival(math.Abs(z)))
}

func clampProbability(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
