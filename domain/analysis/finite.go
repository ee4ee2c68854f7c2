package analysis

import (
	"math"

	"promohypo/domain/dataset"
	"promohypo/domain/model"
)

// Finite returns a copy of the report that JSON can encode: ±Inf saturates to
// ±math.MaxFloat64 and NaN becomes 0. Separated fits and perfect collinearity
// produce infinite odds-ratio bounds and VIFs.
func (r *Report) Finite() *Report {
	out := *r

	if r.Summary != nil {
		s := *r.Summary
		s.Columns = append([]dataset.ColumnSummary(nil), r.Summary.Columns...)
		for i := range s.Columns {
			c := &s.Columns[i]
			c.Mean, c.StdDev, c.Min, c.Median, c.Max = finite(c.Mean), finite(c.StdDev), finite(c.Min), finite(c.Median), finite(c.Max)
		}
		s.Levels = append([]dataset.LevelCount(nil), r.Summary.Levels...)
		out.Summary = &s
	}

	out.VIF = append([]model.VIFResult(nil), r.VIF...)
	for i := range out.VIF {
		out.VIF[i].VIF = finite(out.VIF[i].VIF)
		out.VIF[i].RSquared = finite(out.VIF[i].RSquared)
	}

	out.Linearity = append([]model.LinearityResult(nil), r.Linearity...)
	for i := range out.Linearity {
		l := &out.Linearity[i]
		l.Coefficient, l.Statistic, l.PValue = finite(l.Coefficient), finite(l.Statistic), finite(l.PValue)
	}

	out.Models = make([]ModelReport, len(r.Models))
	for i, m := range r.Models {
		m.LogLikelihood, m.Deviance, m.NullDeviance, m.AIC = finite(m.LogLikelihood), finite(m.Deviance), finite(m.NullDeviance), finite(m.AIC)
		m.Coefficients = append([]model.CoefficientRow(nil), m.Coefficients...)
		for j := range m.Coefficients {
			c := &m.Coefficients[j]
			c.Coefficient, c.StdError, c.ZValue, c.PValue = finite(c.Coefficient), finite(c.StdError), finite(c.ZValue), finite(c.PValue)
			c.OddsRatio, c.CILower, c.CIUpper = finite(c.OddsRatio), finite(c.CILower), finite(c.CIUpper)
		}
		m.OddsRatios = append([]model.OddsRatio(nil), m.OddsRatios...)
		for j := range m.OddsRatios {
			o := &m.OddsRatios[j]
			o.Estimate, o.Lower, o.Upper = finite(o.Estimate), finite(o.Lower), finite(o.Upper)
		}
		out.Models[i] = m
	}

	out.Comparisons = append([]model.ComparisonResult(nil), r.Comparisons...)
	for i := range out.Comparisons {
		out.Comparisons[i].ChiSquare = finite(out.Comparisons[i].ChiSquare)
		out.Comparisons[i].PValue = finite(out.Comparisons[i].PValue)
	}

	out.Operations = append([]model.OperationStatus(nil), r.Operations...)
	return &out
}

func finite(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	return v
}
