package logit

import (
	"fmt"
	"math"

	"promohypo/domain/core"
	"promohypo/domain/model"

	"gonum.org/v1/gonum/mat"
)

// rankTolerance bounds the smallest/largest singular value ratio of the
// column-equilibrated design before it is treated as rank deficient
const rankTolerance = 1e-10

// Dataset is the read-only view the engine needs from an encoded dataset
type Dataset interface {
	model.ColumnReader
	RowCount() int
	Outcome() []float64
}

// buildDesign assembles the n×p design matrix: intercept column then one column per term
func buildDesign(ds Dataset, terms model.TermSet) (*mat.Dense, error) {
	n := ds.RowCount()
	p := terms.Len() + 1
	x := mat.NewDense(n, p, nil)

	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
	}

	for j, term := range terms.Terms() {
		values, err := term.Values(ds)
		if err != nil {
			return nil, fmt.Errorf("term %s: %w", term.Name(), err)
		}
		if len(values) != n {
			return nil, core.NewValidationError(term.Name(), fmt.Sprintf("column has %d rows, dataset has %d", len(values), n))
		}
		for i, v := range values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, core.NewValidationError(term.Name(), fmt.Sprintf("row %d is not finite", i))
			}
			x.Set(i, j+1, v)
		}
	}

	return x, nil
}

// checkRank fails with a singular-design error when the design columns are linearly dependent.
// Columns are scaled to unit norm first so differing units (sales vs. 0/1 steps) do not
// masquerade as collinearity.
func checkRank(x *mat.Dense, names []string, label string) error {
	n, p := x.Dims()
	if n < p {
		return core.NewSingularDesignError(label, fmt.Sprintf("%d observations for %d parameters", n, p))
	}

	scaled := mat.NewDense(n, p, nil)
	for j := 0; j < p; j++ {
		col := mat.Col(nil, j, x)
		norm := mat.Norm(mat.NewVecDense(n, col), 2)
		if norm == 0 {
			return core.NewSingularDesignError(label, fmt.Sprintf("column %s is identically zero", names[j]))
		}
		for i, v := range col {
			scaled.Set(i, j, v/norm)
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(scaled, mat.SVDNone); !ok {
		return core.NewSingularDesignError(label, "singular value decomposition failed")
	}
	values := svd.Values(nil)
	largest := values[0]

	rank := 0
	for _, s := range values {
		if s > rankTolerance*largest {
			rank++
		}
	}
	if rank < p {
		return core.NewSingularDesignError(label, fmt.Sprintf("design rank %d < %d parameters (perfect collinearity)", rank, p))
	}
	return nil
}
