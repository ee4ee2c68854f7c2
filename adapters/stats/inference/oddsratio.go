package inference

import (
	"fmt"
	"math"

	"promohypo/adapters/stats/distributions"
	"promohypo/domain/core"
	"promohypo/domain/model"
)

// DefaultConfidenceLevel is used when a caller passes level 0
const DefaultConfidenceLevel = 0.95

var dist = distributions.New()

func resolveLevel(level float64) (float64, error) {
	if level == 0 {
		return DefaultConfidenceLevel, nil
	}
	if !(level > 0 && level < 1) {
		return 0, core.NewValidationError("confidence level", fmt.Sprintf("%g is outside (0, 1)", level))
	}
	return level, nil
}

// OddsRatios exponentiates each term coefficient (intercept excluded) with its
// Wald interval exp(β ± z·se)
func OddsRatios(m *model.FittedModel, level float64) ([]model.OddsRatio, error) {
	level, err := resolveLevel(level)
	if err != nil {
		return nil, err
	}
	z := dist.CriticalZ(level)

	names := m.CoefficientNames()
	coefs := m.Coefficients()
	se := m.StdErrors()

	out := make([]model.OddsRatio, 0, len(coefs)-1)
	for i := 1; i < len(coefs); i++ {
		out = append(out, model.OddsRatio{
			Term:     names[i],
			Estimate: math.Exp(coefs[i]),
			Lower:    math.Exp(coefs[i] - z*se[i]),
			Upper:    math.Exp(coefs[i] + z*se[i]),
			Level:    level,
		})
	}
	return out, nil
}

// CoefficientTable returns one row per coefficient, intercept first, with the
// Wald z statistic, two-sided p-value and odds-ratio interval
func CoefficientTable(m *model.FittedModel, level float64) ([]model.CoefficientRow, error) {
	level, err := resolveLevel(level)
	if err != nil {
		return nil, err
	}
	z := dist.CriticalZ(level)

	names := m.CoefficientNames()
	coefs := m.Coefficients()
	se := m.StdErrors()

	rows := make([]model.CoefficientRow, len(coefs))
	for i, b := range coefs {
		zv := b / se[i]
		rows[i] = model.CoefficientRow{
			Term:        names[i],
			Coefficient: b,
			StdError:    se[i],
			ZValue:      zv,
			PValue:      dist.WaldPValue(zv),
			OddsRatio:   math.Exp(b),
			CILower:     math.Exp(b - z*se[i]),
			CIUpper:     math.Exp(b + z*se[i]),
		}
	}
	return rows, nil
}
