package logit

import (
	"context"
	"errors"
	"math"
	"testing"

	"promohypo/domain/core"
	"promohypo/domain/dataset"
	"promohypo/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoByTwo builds Poor/Good rows with the given promotion counts
func twoByTwo(t *testing.T, poorYes, poorNo, goodYes, goodNo int) *dataset.EncodedDataset {
	t.Helper()
	var obs []dataset.Observation
	add := func(level dataset.PerformanceLevel, promoted bool, count int) {
		for i := 0; i < count; i++ {
			obs = append(obs, dataset.Observation{
				Sales:        100 + float64(len(obs)),
				CustomerRate: 3 + float64(len(obs)%5)/10,
				Performance:  level,
				Promoted:     promoted,
			})
		}
	}
	add(dataset.Poor, true, poorYes)
	add(dataset.Poor, false, poorNo)
	add(dataset.Good, true, goodYes)
	add(dataset.Good, false, goodNo)

	ds, err := dataset.NewEncodedDataset(obs, dataset.ExclusionStats{})
	require.NoError(t, err)
	return ds
}

func stepModel(t *testing.T) model.TermSet {
	t.Helper()
	ts, err := model.NewTermSet("good_step", model.Simple(dataset.ColStepGoodPlus))
	require.NoError(t, err)
	return ts
}

func TestFit_TwoByTwoMatchesClosedForm(t *testing.T) {
	ds := twoByTwo(t, 10, 30, 30, 10)
	fit, err := NewEngine(DefaultOptions()).Fit(ds, stepModel(t))
	require.NoError(t, err)

	assert.True(t, fit.Converged())
	assert.False(t, fit.Separated())

	intercept, ok := fit.Coefficient(model.InterceptName)
	require.True(t, ok)
	slope, ok := fit.Coefficient(dataset.ColStepGoodPlus)
	require.True(t, ok)

	assert.InDelta(t, math.Log(10.0/30.0), intercept, 1e-6)
	assert.InDelta(t, math.Log(9), slope, 1e-6)

	se := fit.StdErrors()
	assert.InDelta(t, math.Sqrt(1.0/10+1.0/30+1.0/30+1.0/10), se[1], 1e-5)

	// Saturated log-likelihood: Σ y ln p + (1−y) ln(1−p) per cell
	want := 10*math.Log(0.25) + 30*math.Log(0.75) + 30*math.Log(0.75) + 10*math.Log(0.25)
	assert.InDelta(t, want, fit.LogLikelihood(), 1e-6)
	assert.Equal(t, 80, fit.N())
	assert.Equal(t, 2, fit.Parameters())
}

func TestFit_NullModelReproducesBaseRate(t *testing.T) {
	ds := twoByTwo(t, 10, 30, 30, 10)
	null := model.MustTermSet("null")

	fit, err := NewEngine(DefaultOptions()).Fit(ds, null)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, fit.Coefficients()[0], 1e-9)
	assert.InDelta(t, fit.NullDeviance(), fit.Deviance(), 1e-9)
	for _, p := range fit.FittedProbabilities() {
		assert.InDelta(t, 0.5, p, 1e-9)
	}
}

func TestFit_CollinearDesignIsSingular(t *testing.T) {
	ds := twoByTwo(t, 10, 30, 30, 10)
	// With only Poor and Good rows the two lower steps are identical columns
	ts := model.MustTermSet("collinear", model.SimpleTerms(dataset.ColStepFairPlus, dataset.ColStepGoodPlus)...)

	_, err := NewEngine(DefaultOptions()).Fit(ds, ts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrSingularDesign), "got %v", err)
}

func TestFit_ConstantColumnIsSingular(t *testing.T) {
	ds := twoByTwo(t, 10, 30, 30, 10)
	ts := model.MustTermSet("constant", model.Simple(dataset.ColStepVGoodPlus))

	_, err := NewEngine(DefaultOptions()).Fit(ds, ts)
	assert.ErrorIs(t, err, core.ErrSingularDesign)
}

func TestFit_IterationCapReturnsConvergenceError(t *testing.T) {
	ds := twoByTwo(t, 10, 30, 30, 10)
	engine := NewEngine(Options{MaxIterations: 1})

	_, err := engine.Fit(ds, stepModel(t))
	require.Error(t, err)

	var convErr *core.ConvergenceError
	require.True(t, errors.As(err, &convErr), "got %v", err)
	assert.Equal(t, 1, convErr.Iterations)
	assert.Equal(t, "good_step", convErr.Model)
	assert.Greater(t, convErr.DevianceChange, convErr.Tolerance)
	assert.True(t, core.IsEstimationError(err))
}

func TestFit_SeparationFailsByDefault(t *testing.T) {
	ds := twoByTwo(t, 0, 40, 40, 0)

	_, err := NewEngine(DefaultOptions()).Fit(ds, stepModel(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrSingularDesign)
}

func TestFit_SeparationWarnKeepsFit(t *testing.T) {
	ds := twoByTwo(t, 0, 40, 40, 0)
	engine := NewEngine(Options{SeparationPolicy: SeparationWarn})

	fit, err := engine.Fit(ds, stepModel(t))
	require.NoError(t, err)
	assert.True(t, fit.Separated())
	assert.Less(t, fit.Deviance(), 1e-6)

	slope, _ := fit.Coefficient(dataset.ColStepGoodPlus)
	assert.Greater(t, slope, 10.0)
}

// steepOverlap builds 400 rows where promotion switches at sales 200, with four
// rows on the wrong side so the classes overlap and the estimate is finite.
// The slope is large enough that the extreme rows sit at p̂ ≈ 0 or 1.
func steepOverlap(t *testing.T) *dataset.EncodedDataset {
	t.Helper()
	flipped := map[int]bool{190: true, 195: true, 205: true, 209: true}
	obs := make([]dataset.Observation, 400)
	for i := range obs {
		promoted := i >= 200
		if flipped[i] {
			promoted = !promoted
		}
		obs[i] = dataset.Observation{
			Sales:        float64(i),
			CustomerRate: 3 + float64((i*7)%10)/10,
			Performance:  dataset.Fair,
			Promoted:     promoted,
		}
	}
	ds, err := dataset.NewEncodedDataset(obs, dataset.ExclusionStats{})
	require.NoError(t, err)
	return ds
}

func TestFit_SteepOverlappingDataIsNotSeparation(t *testing.T) {
	ds := steepOverlap(t)
	terms := model.MustTermSet("covariates", model.SimpleTerms(dataset.ColSales, dataset.ColCustomerRate)...)

	for _, policy := range []SeparationPolicy{SeparationFail, SeparationWarn} {
		fit, err := NewEngine(Options{SeparationPolicy: policy}).Fit(ds, terms)
		require.NoError(t, err, "policy %s", policy)
		assert.True(t, fit.Converged())
		assert.False(t, fit.Separated())

		// Extreme rows are numerically at the boundary even though the fit is finite
		p := fit.FittedProbabilities()
		assert.Less(t, p[0], 1e-10)
		assert.Greater(t, p[len(p)-1], 1-1e-10)

		slope, _ := fit.Coefficient(dataset.ColSales)
		assert.Greater(t, slope, 0.0)
		for _, se := range fit.StdErrors() {
			assert.False(t, math.IsNaN(se) || math.IsInf(se, 0))
		}
	}
}

func TestFit_LinearPredictorFiniteUnderSeparation(t *testing.T) {
	ds := twoByTwo(t, 0, 40, 40, 0)
	fit, err := NewEngine(Options{SeparationPolicy: SeparationWarn}).Fit(ds, stepModel(t))
	require.NoError(t, err)

	coef := fit.Coefficients()
	eta := fit.LinearPredictor()
	require.Len(t, eta, 80)
	for i, v := range eta {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			t.Fatalf("row %d: linear predictor %v is not finite", i, v)
		}
	}
	// Poor rows carry the intercept only, Good rows intercept + slope
	assert.InDelta(t, coef[0], eta[0], 1e-9)
	assert.InDelta(t, coef[0]+coef[1], eta[79], 1e-9)
}

func TestFitFrom_WarmStartConvergesToSameEstimate(t *testing.T) {
	ds := twoByTwo(t, 10, 30, 30, 10)
	engine := NewEngine(DefaultOptions())

	cold, err := engine.Fit(ds, stepModel(t))
	require.NoError(t, err)

	warm, err := engine.FitFrom(ds, stepModel(t), cold.Coefficients())
	require.NoError(t, err)

	assert.LessOrEqual(t, warm.Iterations(), cold.Iterations())
	assert.InDeltaSlice(t, cold.Coefficients(), warm.Coefficients(), 1e-8)

	_, err = engine.FitFrom(ds, stepModel(t), []float64{0})
	assert.True(t, core.IsValidationError(err))
}

func TestFitAll_KeepsOrderAndIsolatesFailures(t *testing.T) {
	ds := twoByTwo(t, 10, 30, 30, 10)
	families := []model.TermSet{
		model.MustTermSet("null"),
		stepModel(t),
		model.MustTermSet("collinear", model.SimpleTerms(dataset.ColStepFairPlus, dataset.ColStepGoodPlus)...),
	}

	outcomes := NewEngine(DefaultOptions()).FitAll(context.Background(), ds, families, 2)
	require.Len(t, outcomes, 3)

	for i, o := range outcomes {
		assert.Equal(t, families[i].Name(), o.Family.Name())
	}
	assert.NoError(t, outcomes[0].Err)
	assert.NoError(t, outcomes[1].Err)
	assert.ErrorIs(t, outcomes[2].Err, core.ErrSingularDesign)
	assert.Nil(t, outcomes[2].Model)
}

func TestFitAll_CancelledContext(t *testing.T) {
	ds := twoByTwo(t, 10, 30, 30, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := NewEngine(DefaultOptions()).FitAll(ctx, ds, []model.TermSet{stepModel(t)}, 1)
	require.Len(t, outcomes, 1)
	assert.ErrorIs(t, outcomes[0].Err, context.Canceled)
}
