package model

// CoefficientRow is one line of the per-model output table
type CoefficientRow struct {
	Term        string  `json:"term"`
	Coefficient float64 `json:"coefficient"`
	StdError    float64 `json:"std_error"`
	ZValue      float64 `json:"z_value"`
	PValue      float64 `json:"p_value"` // two-sided Wald
	OddsRatio   float64 `json:"odds_ratio"`
	CILower     float64 `json:"ci_lower"`
	CIUpper     float64 `json:"ci_upper"`
}

// OddsRatio is the exponentiated coefficient with its Wald interval
type OddsRatio struct {
	Term     string  `json:"term"`
	Estimate float64 `json:"estimate"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
	Level    float64 `json:"level"`
}

// ComparisonResult is a likelihood-ratio test between nested fits
type ComparisonResult struct {
	Reduced   string  `json:"reduced"`
	Full      string  `json:"full"`
	ChiSquare float64 `json:"chi_square"` // ≥ 0
	DF        int     `json:"df"`
	PValue    float64 `json:"p_value"`
}

// VIFResult is the variance inflation factor of one predictor
type VIFResult struct {
	Predictor string  `json:"predictor"`
	VIF       float64 `json:"vif"`
	RSquared  float64 `json:"r_squared"` // auxiliary regression fit
	Flagged   bool    `json:"flagged"`   // VIF at or above the caller's threshold
}

// LinearityResult is the Box-Tidwell style test of one predictor.
// Error is set when the predictor could not be tested (e.g. non-positive values).
type LinearityResult struct {
	Predictor   string  `json:"predictor"`
	Coefficient float64 `json:"coefficient"` // estimate of the x·ln(x) term
	Statistic   float64 `json:"statistic"`
	DF          int     `json:"df"`
	PValue      float64 `json:"p_value"`
	Error       string  `json:"error,omitempty"`
}

// OK reports whether the predictor was tested
func (r LinearityResult) OK() bool { return r.Error == "" }

// OperationStatus records the outcome of one independent pipeline operation
type OperationStatus struct {
	Operation string `json:"operation"` // e.g. "fit:covariates", "compare:covariates→performance_steps"
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}
