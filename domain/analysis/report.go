package analysis

import (
	"promohypo/domain/core"
	"promohypo/domain/dataset"
	"promohypo/domain/model"
)

// ModelReport is the serializable result of one fitted family
type ModelReport struct {
	Family        string                 `json:"family"`
	Terms         []string               `json:"terms"`
	N             int                    `json:"n"`
	Parameters    int                    `json:"parameters"`
	LogLikelihood float64                `json:"log_likelihood"`
	Deviance      float64                `json:"deviance"`
	NullDeviance  float64                `json:"null_deviance"`
	AIC           float64                `json:"aic"`
	Iterations    int                    `json:"iterations"`
	Converged     bool                   `json:"converged"`
	Separated     bool                   `json:"separated"`
	Coefficients  []model.CoefficientRow `json:"coefficients"`
	OddsRatios    []model.OddsRatio      `json:"odds_ratios"`
}

// NewModelReport captures a fitted model together with its derived tables
func NewModelReport(m *model.FittedModel, table []model.CoefficientRow, ors []model.OddsRatio) ModelReport {
	return ModelReport{
		Family:        m.Label(),
		Terms:         m.Terms().Names(),
		N:             m.N(),
		Parameters:    m.Parameters(),
		LogLikelihood: m.LogLikelihood(),
		Deviance:      m.Deviance(),
		NullDeviance:  m.NullDeviance(),
		AIC:           m.AIC(),
		Iterations:    m.Iterations(),
		Converged:     m.Converged(),
		Separated:     m.Separated(),
		Coefficients:  table,
		OddsRatios:    ors,
	}
}

// Report is the complete output of one analysis run
type Report struct {
	ID               core.AnalysisID          `json:"id"`
	Source           string                   `json:"source"`
	Fingerprint      core.Hash                `json:"fingerprint"`
	StartedAt        core.Timestamp           `json:"started_at"`
	CompletedAt      core.Timestamp           `json:"completed_at"`
	ConfidenceLevel  float64                  `json:"confidence_level"`
	SeparationPolicy string                   `json:"separation_policy"`
	Summary          *dataset.Summary         `json:"summary,omitempty"`
	VIF              []model.VIFResult        `json:"vif,omitempty"`
	Linearity        []model.LinearityResult  `json:"linearity,omitempty"`
	Models           []ModelReport            `json:"models"`
	Comparisons      []model.ComparisonResult `json:"comparisons"`
	Operations       []model.OperationStatus  `json:"operations"`
}

// Model returns the report of a fitted family by name
func (r *Report) Model(family string) (ModelReport, bool) {
	for _, m := range r.Models {
		if m.Family == family {
			return m, true
		}
	}
	return ModelReport{}, false
}

// Comparison returns the likelihood-ratio test between two families
func (r *Report) Comparison(reduced, full string) (model.ComparisonResult, bool) {
	for _, c := range r.Comparisons {
		if c.Reduced == reduced && c.Full == full {
			return c, true
		}
	}
	return model.ComparisonResult{}, false
}

// Failed lists operations that did not complete
func (r *Report) Failed() []model.OperationStatus {
	var failed []model.OperationStatus
	for _, op := range r.Operations {
		if !op.OK {
			failed = append(failed, op)
		}
	}
	return failed
}

// Rows returns the number of observations analysed
func (r *Report) Rows() int {
	if r.Summary == nil {
		return 0
	}
	return r.Summary.Rows
}

// Summary is the listing view of a stored report
type Summary struct {
	ID          core.AnalysisID `json:"id" db:"id"`
	Source      string          `json:"source" db:"source"`
	Fingerprint string          `json:"fingerprint" db:"fingerprint"`
	Rows        int             `json:"rows" db:"row_count"`
	Models      int             `json:"models" db:"model_count"`
	Failures    int             `json:"failures" db:"failure_count"`
	CreatedAt   string          `json:"created_at" db:"created_at"`
}
