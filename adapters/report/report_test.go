package report

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"promohypo/domain/analysis"
	"promohypo/domain/core"
	"promohypo/domain/dataset"
	"promohypo/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *analysis.Report {
	return &analysis.Report{
		ID:               core.AnalysisID("0190b6f2-6a4e-7cc1-9a2b-3f5e8d1c2b4a"),
		Source:           "promotions.csv",
		Fingerprint:      core.NewHash([]byte("data")),
		StartedAt:        core.Now(),
		CompletedAt:      core.Now(),
		ConfidenceLevel:  0.95,
		SeparationPolicy: "fail",
		Summary: &dataset.Summary{
			Rows:       3,
			Promoted:   1,
			Exclusions: dataset.ExclusionStats{Total: 4, Included: 3, ExcludedMissing: 1},
			Columns:    []dataset.ColumnSummary{{Column: "sales", Mean: 100, StdDev: 10, Min: 90, Median: 100, Max: 110}},
			Levels:     []dataset.LevelCount{{Level: "Poor", Rows: 3, Promoted: 1, Rate: 1.0 / 3}},
		},
		VIF: []model.VIFResult{{Predictor: "sales", VIF: math.Inf(1), RSquared: 1, Flagged: true}},
		Linearity: []model.LinearityResult{
			{Predictor: "sales", Coefficient: 0.01, Statistic: 1.2, DF: 1, PValue: 0.27},
			{Predictor: "customer_rate", DF: 1, Error: "diagnostic domain violated"},
		},
		Models: []analysis.ModelReport{{
			Family:     "covariates",
			N:          3,
			Parameters: 2,
			Converged:  true,
			Coefficients: []model.CoefficientRow{
				{Term: model.InterceptName, Coefficient: -1, StdError: 0.5, ZValue: -2, PValue: 0.0455, OddsRatio: math.Exp(-1)},
				{Term: "step_fair_plus:sales", Coefficient: 0.2, StdError: 0.1, ZValue: 2, PValue: 0.00001, OddsRatio: math.Exp(0.2)},
			},
		}},
		Comparisons: []model.ComparisonResult{{Reduced: "null", Full: "covariates", ChiSquare: 3.2, DF: 2, PValue: 0.2019}},
		Operations: []model.OperationStatus{
			{Operation: "fit:covariates", OK: true},
			{Operation: "fit:performance_steps", OK: false, Error: "singular design matrix", ErrorKind: "singular_design"},
		},
	}
}

func TestMarkdownRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownRenderer().Render(&buf, sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "# Promotion analysis 0190b6f2")
	assert.Contains(t, out, "4 rows read, 3 included, 1 excluded (missing 1, invalid 0)")
	assert.Contains(t, out, "| sales | ∞ | 1.0000 | yes |")
	assert.Contains(t, out, "| customer_rate | - | - | 1 | - | diagnostic domain violated |")
	assert.Contains(t, out, "### covariates")
	assert.Contains(t, out, "| step_fair_plus:sales | 0.2000 | 0.1000 | 2.0000 | < 0.0001 |")
	assert.Contains(t, out, "| null | covariates | 3.2000 | 2 | 0.2019 |")
	assert.Contains(t, out, "## Failed operations")
	assert.Contains(t, out, "fit:performance_steps | singular_design")
	assert.NotContains(t, out, "fit:covariates |")
}

func TestMarkdownRenderer_OmitsEmptySections(t *testing.T) {
	rep := &analysis.Report{ID: core.NewAnalysisID()}
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownRenderer().Render(&buf, rep))
	out := buf.String()
	for _, section := range []string{"## Data", "## Models", "## Failed operations", "## Collinearity"} {
		assert.NotContains(t, out, section)
	}
}

func TestHTMLRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewHTMLRenderer().Render(&buf, sampleReport()))
	out := buf.String()

	assert.True(t, strings.Contains(out, "<html"), "expected a complete page")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<h3")
	assert.Contains(t, out, "covariates")
}
