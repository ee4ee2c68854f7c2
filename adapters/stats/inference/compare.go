package inference

import (
	"fmt"

	"promohypo/domain/core"
	"promohypo/domain/model"
)

// Compare runs a likelihood-ratio test of reduced against full.
// The statistic is D_reduced − D_full, clamped at zero, on |full| − |reduced| degrees of freedom.
func Compare(reduced, full *model.FittedModel) (model.ComparisonResult, error) {
	result := model.ComparisonResult{
		Reduced: reduced.Label(),
		Full:    full.Label(),
	}

	if err := reduced.Terms().NestedIn(full.Terms()); err != nil {
		return result, err
	}
	if reduced.N() != full.N() {
		return result, core.NewValidationError("comparison",
			fmt.Sprintf("%q fitted on %d rows, %q on %d", reduced.Label(), reduced.N(), full.Label(), full.N()))
	}

	stat := reduced.Deviance() - full.Deviance()
	if stat < 0 {
		stat = 0
	}
	df := full.Parameters() - reduced.Parameters()

	result.ChiSquare = stat
	result.DF = df
	result.PValue = dist.ChiSquarePValue(stat, df)
	return result, nil
}

// CompareChain compares each model against the next, producing an
// analysis-of-deviance table. It stops at the first non-nested pair.
func CompareChain(models ...*model.FittedModel) ([]model.ComparisonResult, error) {
	if len(models) < 2 {
		return nil, core.NewValidationError("comparison chain", "needs at least two models")
	}
	results := make([]model.ComparisonResult, 0, len(models)-1)
	for i := 1; i < len(models); i++ {
		r, err := Compare(models[i-1], models[i])
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}
