package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"promohypo/adapters/stats/inference"
	"promohypo/adapters/stats/logit"
	"promohypo/domain/core"
	"promohypo/domain/model"
	"promohypo/internal"
)

// Fitter estimates a term set from starting coefficients
type Fitter interface {
	FitFrom(ds logit.Dataset, terms model.TermSet, start []float64) (*model.FittedModel, error)
}

// BoxTidwell tests the logit-linearity of each continuous predictor in base, one
// goroutine per predictor. errs[i] is the failure of predictors[i] (also recorded
// on its result); a failure does not stop the others. fitter must be safe for
// concurrent use.
func BoxTidwell(ctx context.Context, fitter Fitter, ds logit.Dataset, base *model.FittedModel, predictors []string) (results []model.LinearityResult, errs []error) {
	results = make([]model.LinearityResult, len(predictors))
	errs = make([]error, len(predictors))

	var wg sync.WaitGroup
	for i, predictor := range predictors {
		wg.Add(1)
		go func(i int, predictor string) {
			defer wg.Done()
			r, err := model.LinearityResult{}, ctx.Err()
			if err == nil {
				r, err = BoxTidwellTerm(fitter, ds, base, predictor)
			}
			if err != nil {
				internal.DefaultLogger.Debug("[BoxTidwell] %s: %v", predictor, err)
				r = model.LinearityResult{Predictor: predictor, DF: 1, Error: err.Error()}
			}
			results[i], errs[i] = r, err
		}(i, predictor)
	}
	wg.Wait()
	return results, errs
}

// BoxTidwellTerm augments base with x·ln(x) for one predictor and returns the
// 1-df likelihood-ratio test of the augmented model against base.
// Non-positive predictor values are a DomainError.
func BoxTidwellTerm(fitter Fitter, ds logit.Dataset, base *model.FittedModel, predictor string) (model.LinearityResult, error) {
	result := model.LinearityResult{Predictor: predictor, DF: 1}

	simple := model.Simple(predictor)
	if !base.Terms().Contains(simple) {
		return result, core.NewValidationError("linearity", fmt.Sprintf("%s is not a term of %q", predictor, base.Label()))
	}

	values, err := ds.Column(predictor)
	if err != nil {
		return result, err
	}
	nonPositive := 0
	for _, v := range values {
		if v <= 0 {
			nonPositive++
		}
	}
	if nonPositive > 0 {
		return result, core.NewDomainError(predictor, fmt.Sprintf("%d of %d values are not strictly positive; x·ln(x) is undefined", nonPositive, len(values)))
	}

	logTerm, err := model.LogTransform(simple)
	if err != nil {
		return result, err
	}
	augmented, err := base.Terms().With(base.Label()+"+"+logTerm.Name(), logTerm)
	if err != nil {
		return result, err
	}

	start := append(base.Coefficients(), 0)
	fit, err := fitter.FitFrom(ds, augmented, start)
	if err != nil {
		var convErr *core.ConvergenceError
		if !errors.As(err, &convErr) {
			return result, err
		}
		// Retry from zero when the warm start stalls
		if fit, err = fitter.FitFrom(ds, augmented, nil); err != nil {
			return result, err
		}
	}

	cmp, err := inference.Compare(base, fit)
	if err != nil {
		return result, err
	}

	result.Coefficient, _ = fit.Coefficient(logTerm.Name())
	result.Statistic = cmp.ChiSquare
	result.DF = cmp.DF
	result.PValue = cmp.PValue
	return result, nil
}
