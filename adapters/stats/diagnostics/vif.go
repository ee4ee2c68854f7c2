package diagnostics

import (
	"errors"
	"fmt"
	"math"

	"promohypo/domain/core"
	"promohypo/domain/model"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
)

// DefaultVIFThreshold flags predictors with VIF at or above this value
const DefaultVIFThreshold = 5.0

// perfectFitTolerance treats an auxiliary R² this close to 1 as an exact linear dependence
const perfectFitTolerance = 1e-12

// Columns is the read-only column access the diagnostics need
type Columns interface {
	model.ColumnReader
	RowCount() int
}

// VIF computes the variance inflation factor of each predictor by regressing it
// on an intercept and the remaining predictors. A threshold ≤ 0 uses DefaultVIFThreshold.
func VIF(ds Columns, predictors []string, threshold float64) ([]model.VIFResult, error) {
	if threshold <= 0 {
		threshold = DefaultVIFThreshold
	}
	if len(predictors) == 0 {
		return nil, core.NewValidationError("vif", "no predictors given")
	}

	n := ds.RowCount()
	columns := make([][]float64, len(predictors))
	for j, name := range predictors {
		values, err := ds.Column(name)
		if err != nil {
			return nil, err
		}
		variance, err := stats.PopulationVariance(values)
		if err != nil {
			return nil, fmt.Errorf("variance of %s: %w", name, err)
		}
		if variance == 0 {
			return nil, core.NewDomainError(name, "predictor is constant")
		}
		columns[j] = values
	}

	results := make([]model.VIFResult, len(predictors))
	for j, name := range predictors {
		results[j] = model.VIFResult{Predictor: name, VIF: 1}
		if len(predictors) < 2 {
			continue
		}
		r2, err := auxiliaryRSquared(columns, j, n)
		if err != nil {
			return nil, fmt.Errorf("auxiliary regression for %s: %w", name, err)
		}
		results[j].RSquared = r2
		if r2 >= 1-perfectFitTolerance {
			results[j].VIF = math.Inf(1)
		} else {
			results[j].VIF = 1 / (1 - r2)
		}
		results[j].Flagged = results[j].VIF >= threshold
	}
	return results, nil
}

// auxiliaryRSquared fits column target on an intercept and the other columns by
// QR least squares and returns the coefficient of determination
func auxiliaryRSquared(columns [][]float64, target, n int) (float64, error) {
	p := len(columns) // intercept + (len-1) others
	x := mat.NewDense(n, p, nil)
	y := mat.NewVecDense(n, append([]float64(nil), columns[target]...))

	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		k := 1
		for j, col := range columns {
			if j == target {
				continue
			}
			x.Set(i, k, col[i])
			k++
		}
	}

	var beta mat.VecDense
	if err := beta.SolveVec(x, y); err != nil {
		var cond mat.Condition
		if !asCondition(err, &cond) {
			return 0, err
		}
		// Rank-deficient regressors: minimum-norm solution on the numerical rank
		var svd mat.SVD
		if ok := svd.Factorize(x, mat.SVDThin); !ok {
			return 0, errors.New("SVD factorization failed")
		}
		beta.Reset()
		svd.SolveVecTo(&beta, y, svd.Rank(perfectFitTolerance))
	}

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)

	mean, err := stats.Mean(columns[target])
	if err != nil {
		return 0, err
	}
	var sse, sst float64
	for i := 0; i < n; i++ {
		r := y.AtVec(i) - fitted.AtVec(i)
		d := y.AtVec(i) - mean
		sse += r * r
		sst += d * d
	}
	r2 := 1 - sse/sst
	if r2 < 0 {
		r2 = 0
	}
	return r2, nil
}

// asCondition reports gonum's ill-conditioning warning, which still carries a solution
func asCondition(err error, target *mat.Condition) bool {
	return errors.As(err, target)
}
