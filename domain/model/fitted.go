package model

import (
	"fmt"
	"math"

	"promohypo/domain/core"
)

// InterceptName labels the intercept in coefficient tables
const InterceptName = "(Intercept)"

// FitSummary carries the raw output of an estimation run into NewFittedModel
type FitSummary struct {
	Terms         TermSet
	Coefficients  []float64   // intercept first, then one per term
	Covariance    [][]float64 // inverse Fisher information, p×p
	LogLikelihood float64
	NullDeviance  float64
	Fitted        []float64 // fitted probabilities per row
	Linear        []float64 // linear predictor per row; derived from Fitted when empty
	Iterations    int
	Converged     bool
	Separated     bool
}

// FittedModel is an immutable binomial-logit fit.
// Accessors return copies; nothing refers back to the dataset.
type FittedModel struct {
	id            core.ModelID
	terms         TermSet
	coefficients  []float64
	covariance    [][]float64
	logLikelihood float64
	nullDeviance  float64
	fitted        []float64
	linear        []float64
	iterations    int
	converged     bool
	separated     bool
}

// NewFittedModel validates dimensions and freezes a fit
func NewFittedModel(s FitSummary) (*FittedModel, error) {
	p := s.Terms.Len() + 1
	if len(s.Coefficients) != p {
		return nil, fmt.Errorf("model %q: %d coefficients for %d parameters", s.Terms.Name(), len(s.Coefficients), p)
	}
	if len(s.Covariance) != p {
		return nil, fmt.Errorf("model %q: covariance has %d rows, expected %d", s.Terms.Name(), len(s.Covariance), p)
	}

	cov := make([][]float64, p)
	for i, row := range s.Covariance {
		if len(row) != p {
			return nil, fmt.Errorf("model %q: covariance row %d has %d columns, expected %d", s.Terms.Name(), i, len(row), p)
		}
		cov[i] = append([]float64(nil), row...)
	}

	linear := append([]float64(nil), s.Linear...)
	switch {
	case len(linear) == 0:
		linear = make([]float64, len(s.Fitted))
		for i, p := range s.Fitted {
			linear[i] = math.Log(p / (1 - p))
		}
	case len(linear) != len(s.Fitted):
		return nil, fmt.Errorf("model %q: %d linear predictor values for %d rows", s.Terms.Name(), len(linear), len(s.Fitted))
	}

	return &FittedModel{
		id:            core.NewModelID(),
		terms:         s.Terms,
		coefficients:  append([]float64(nil), s.Coefficients...),
		covariance:    cov,
		logLikelihood: s.LogLikelihood,
		nullDeviance:  s.NullDeviance,
		fitted:        append([]float64(nil), s.Fitted...),
		linear:        linear,
		iterations:    s.Iterations,
		converged:     s.Converged,
		separated:     s.Separated,
	}, nil
}

func (m *FittedModel) ID() core.ModelID { return m.id }
func (m *FittedModel) Terms() TermSet   { return m.terms }
func (m *FittedModel) Label() string    { return m.terms.Name() }

// Parameters is the number of estimated coefficients including the intercept
func (m *FittedModel) Parameters() int { return len(m.coefficients) }

// N is the number of observations used in the fit
func (m *FittedModel) N() int { return len(m.fitted) }

// ResidualDF is N minus the number of parameters
func (m *FittedModel) ResidualDF() int { return m.N() - m.Parameters() }

func (m *FittedModel) LogLikelihood() float64 { return m.logLikelihood }

// Deviance is −2·log-likelihood (the saturated Bernoulli likelihood is 1)
func (m *FittedModel) Deviance() float64 { return -2 * m.logLikelihood }

func (m *FittedModel) NullDeviance() float64 { return m.nullDeviance }

// AIC is deviance + 2p
func (m *FittedModel) AIC() float64 { return m.Deviance() + 2*float64(m.Parameters()) }

func (m *FittedModel) Iterations() int { return m.iterations }
func (m *FittedModel) Converged() bool { return m.converged }

// Separated reports fitted probabilities at the 0/1 boundary (allowed only under a warn policy)
func (m *FittedModel) Separated() bool { return m.separated }

// Coefficients returns intercept followed by term coefficients
func (m *FittedModel) Coefficients() []float64 {
	return append([]float64(nil), m.coefficients...)
}

// CoefficientNames returns "(Intercept)" followed by term names
func (m *FittedModel) CoefficientNames() []string {
	return append([]string{InterceptName}, m.terms.Names()...)
}

// Coefficient returns the estimate for a named coefficient
func (m *FittedModel) Coefficient(name string) (float64, bool) {
	for i, n := range m.CoefficientNames() {
		if n == name {
			return m.coefficients[i], true
		}
	}
	return 0, false
}

// StdErrors returns the square roots of the covariance diagonal
func (m *FittedModel) StdErrors() []float64 {
	se := make([]float64, len(m.coefficients))
	for i := range se {
		se[i] = math.Sqrt(m.covariance[i][i])
	}
	return se
}

// Covariance returns a copy of the coefficient covariance matrix
func (m *FittedModel) Covariance() [][]float64 {
	out := make([][]float64, len(m.covariance))
	for i, row := range m.covariance {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// FittedProbabilities returns the fitted P(promoted) per row
func (m *FittedModel) FittedProbabilities() []float64 {
	return append([]float64(nil), m.fitted...)
}

// LinearPredictor returns η = Xβ per row; finite even where p̂ rounds to 0 or 1
func (m *FittedModel) LinearPredictor() []float64 {
	return append([]float64(nil), m.linear...)
}

func (m *FittedModel) String() string {
	return fmt.Sprintf("FittedModel{%s, logLik: %.4f, AIC: %.2f, iter: %d}",
		m.terms, m.logLikelihood, m.AIC(), m.iterations)
}
