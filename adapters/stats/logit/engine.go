package logit

import (
	"errors"
	"fmt"
	"math"

	"promohypo/domain/core"
	"promohypo/domain/model"
	"promohypo/internal"

	"gonum.org/v1/gonum/mat"
)

// SeparationPolicy controls what happens when fitted probabilities reach 0 or 1
type SeparationPolicy string

const (
	SeparationFail SeparationPolicy = "fail" // report a singular design
	SeparationWarn SeparationPolicy = "warn" // keep the fit, flag it and log a warning
)

const (
	// boundaryEpsilon marks fitted probabilities numerically equal to 0 or 1
	boundaryEpsilon = 1e-10
	// weightFloor keeps IRLS weights strictly positive
	weightFloor = 1e-15
	// maxStepHalvings bounds step halving after a non-finite deviance
	maxStepHalvings = 20
	// divergenceStep is the linear-predictor move of a boundary row, after
	// convergence, that marks estimates running off to infinity
	divergenceStep = 0.5
)

// Options configures the IRLS estimator
type Options struct {
	MaxIterations    int
	Tolerance        float64
	SeparationPolicy SeparationPolicy
}

// DefaultOptions returns the estimator defaults
func DefaultOptions() Options {
	return Options{
		MaxIterations:    50,
		Tolerance:        1e-8,
		SeparationPolicy: SeparationFail,
	}
}

// Engine fits binomial logistic models by iteratively reweighted least squares.
// An Engine holds only options and is safe for concurrent use.
type Engine struct {
	opts   Options
	logger *internal.Logger
}

// NewEngine creates an engine, filling unset options with defaults
func NewEngine(opts Options) *Engine {
	defaults := DefaultOptions()
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = defaults.MaxIterations
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = defaults.Tolerance
	}
	if opts.SeparationPolicy == "" {
		opts.SeparationPolicy = defaults.SeparationPolicy
	}
	return &Engine{opts: opts, logger: internal.DefaultLogger}
}

// Options returns the effective options
func (e *Engine) Options() Options {
	return e.opts
}

// Fit estimates the model for a term set starting from β = 0
func (e *Engine) Fit(ds Dataset, terms model.TermSet) (*model.FittedModel, error) {
	return e.FitFrom(ds, terms, nil)
}

// FitFrom estimates the model from caller-supplied starting coefficients
// (intercept first). A nil start means all zeros.
func (e *Engine) FitFrom(ds Dataset, terms model.TermSet, start []float64) (*model.FittedModel, error) {
	label := terms.Name()
	names := append([]string{model.InterceptName}, terms.Names()...)

	x, err := buildDesign(ds, terms)
	if err != nil {
		return nil, err
	}
	if err := checkRank(x, names, label); err != nil {
		return nil, err
	}

	y := ds.Outcome()
	for i, v := range y {
		if v != 0 && v != 1 {
			return nil, core.NewValidationError("promoted", fmt.Sprintf("row %d outcome %g is not 0/1", i, v))
		}
	}

	n, p := x.Dims()
	beta := mat.NewVecDense(p, nil)
	if start != nil {
		if len(start) != p {
			return nil, core.NewValidationError("start values", fmt.Sprintf("got %d, model %q has %d parameters", len(start), label, p))
		}
		beta = mat.NewVecDense(p, append([]float64(nil), start...))
	}

	eta := mat.NewVecDense(n, nil)
	eta.MulVec(x, beta)
	dev := deviance(y, eta.RawVector().Data)
	if math.IsInf(dev, 0) || math.IsNaN(dev) {
		return nil, core.NewValidationError("start values", fmt.Sprintf("model %q: deviance is not finite at the starting point", label))
	}

	var (
		change    = math.Inf(1)
		converged bool
		iter      int
		info      *mat.Cholesky
	)

	for iter = 1; iter <= e.opts.MaxIterations; iter++ {
		chol, next, err := irlsStep(x, y, eta.RawVector().Data)
		if err != nil {
			return nil, core.NewSingularDesignError(label, err.Error())
		}
		info = chol

		// Halve the step while the deviance is not finite
		nextEta := mat.NewVecDense(n, nil)
		nextEta.MulVec(x, next)
		nextDev := deviance(y, nextEta.RawVector().Data)
		for h := 0; h < maxStepHalvings && (math.IsInf(nextDev, 0) || math.IsNaN(nextDev)); h++ {
			next.AddVec(next, beta)
			next.ScaleVec(0.5, next)
			nextEta.MulVec(x, next)
			nextDev = deviance(y, nextEta.RawVector().Data)
		}
		if math.IsInf(nextDev, 0) || math.IsNaN(nextDev) {
			return nil, core.NewSingularDesignError(label, "deviance diverged during step halving")
		}

		change = math.Abs(nextDev-dev) / (math.Abs(nextDev) + 0.1)
		beta, eta, dev = next, nextEta, nextDev

		e.logger.Trace("[IRLS] %s iteration %d: deviance %.10g change %.3g", label, iter, dev, change)

		if change < e.opts.Tolerance {
			converged = true
			break
		}
	}
	if iter > e.opts.MaxIterations {
		iter = e.opts.MaxIterations
	}

	fitted := make([]float64, n)
	for i, v := range eta.RawVector().Data {
		fitted[i] = sigmoid(v)
	}

	// One more Newton step at the final estimate factors XᵀWX for the covariance
	// and shows whether rows at the 0/1 boundary are still being pushed outward.
	chol, next, stepErr := irlsStep(x, y, eta.RawVector().Data)
	separated := false
	if atBoundary(fitted) {
		separated = !converged || stepErr != nil || boundaryDiverging(x, next, eta.RawVector().Data, fitted)
	}

	if separated && e.opts.SeparationPolicy != SeparationWarn {
		return nil, core.NewSingularDesignError(label, "complete or quasi-complete separation: fitted probabilities at 0 or 1 and estimates diverging")
	}
	if !converged && !separated {
		return nil, &core.ConvergenceError{
			Model:          label,
			Iterations:     iter,
			Deviance:       dev,
			DevianceChange: change,
			Tolerance:      e.opts.Tolerance,
		}
	}
	if separated {
		e.logger.Warn("[IRLS] %s: fitted probabilities numerically 0 or 1 (separation); estimates and standard errors are unreliable", label)
	}

	if stepErr != nil {
		if info == nil {
			return nil, core.NewSingularDesignError(label, stepErr.Error())
		}
		chol = info
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil && !isConditionWarning(err) {
		return nil, core.NewSingularDesignError(label, fmt.Sprintf("information matrix not invertible: %v", err))
	}
	cov := make([][]float64, p)
	for i := 0; i < p; i++ {
		cov[i] = make([]float64, p)
		for j := 0; j < p; j++ {
			cov[i][j] = inv.At(i, j)
		}
	}

	e.logger.Debug("[IRLS] %s converged=%t separated=%t after %d iterations (deviance %.6g)", label, converged, separated, iter, dev)

	return model.NewFittedModel(model.FitSummary{
		Terms:         terms,
		Coefficients:  append([]float64(nil), beta.RawVector().Data...),
		Covariance:    cov,
		LogLikelihood: -dev / 2,
		NullDeviance:  nullDeviance(y),
		Fitted:        fitted,
		Linear:        append([]float64(nil), eta.RawVector().Data...),
		Iterations:    iter,
		Converged:     converged,
		Separated:     separated,
	})
}

// irlsStep performs one Newton step at the current linear predictor.
// It returns the Cholesky factor of XᵀWX and the solution of (XᵀWX)β = XᵀWz.
func irlsStep(x *mat.Dense, y, eta []float64) (*mat.Cholesky, *mat.VecDense, error) {
	n, p := x.Dims()

	xw := mat.NewDense(n, p, nil)
	wz := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		mu := sigmoid(eta[i])
		w := mu * (1 - mu)
		if w < weightFloor {
			w = weightFloor
		}
		z := eta[i] + (y[i]-mu)/w
		sw := math.Sqrt(w)
		for j := 0; j < p; j++ {
			xw.Set(i, j, x.At(i, j)*sw)
		}
		wz.SetVec(i, sw*z)
	}

	var xtwx mat.SymDense
	xtwx.SymOuterK(1, xw.T())

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtwx); !ok {
		return nil, nil, errors.New("information matrix XᵀWX is not positive definite")
	}

	rhs := mat.NewVecDense(p, nil)
	rhs.MulVec(xw.T(), wz)

	beta := mat.NewVecDense(p, nil)
	if err := chol.SolveVecTo(beta, rhs); err != nil && !isConditionWarning(err) {
		return nil, nil, fmt.Errorf("solving IRLS normal equations: %w", err)
	}
	return &chol, beta, nil
}

// isConditionWarning reports gonum's ill-conditioning signal, which still carries a solution
func isConditionWarning(err error) bool {
	var cond mat.Condition
	return errors.As(err, &cond)
}

func sigmoid(eta float64) float64 {
	if eta >= 0 {
		return 1 / (1 + math.Exp(-eta))
	}
	e := math.Exp(eta)
	return e / (1 + e)
}

// softplus computes ln(1 + e^x) without overflow
func softplus(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}

// deviance is −2 Σ [y·η − ln(1 + e^η)], the Bernoulli deviance from the linear predictor
func deviance(y, eta []float64) float64 {
	var ll float64
	for i, v := range eta {
		ll += y[i]*v - softplus(v)
	}
	return -2 * ll
}

// nullDeviance is the deviance of the intercept-only model
func nullDeviance(y []float64) float64 {
	var sum float64
	for _, v := range y {
		sum += v
	}
	n := float64(len(y))
	pbar := sum / n
	if pbar == 0 || pbar == 1 {
		return 0
	}
	return -2 * (sum*math.Log(pbar) + (n-sum)*math.Log(1-pbar))
}

// boundaryDiverging reports whether the Newton step to next still moves the linear
// predictor of a boundary row. At a finite optimum the step is negligible; under
// separation each step pushes those rows about one logit unit further out.
func boundaryDiverging(x *mat.Dense, next *mat.VecDense, eta, fitted []float64) bool {
	n, _ := x.Dims()
	nextEta := mat.NewVecDense(n, nil)
	nextEta.MulVec(x, next)
	for i, p := range fitted {
		if p >= boundaryEpsilon && p <= 1-boundaryEpsilon {
			continue
		}
		if math.Abs(nextEta.AtVec(i)-eta[i]) > divergenceStep {
			return true
		}
	}
	return false
}

func atBoundary(fitted []float64) bool {
	for _, p := range fitted {
		if p < boundaryEpsilon || p > 1-boundaryEpsilon {
			return true
		}
	}
	return false
}
