package main

import (
	"context"
	"path/filepath"
	"testing"

	"promohypo/adapters/excel"
	"promohypo/adapters/stats/logit"
	"promohypo/app"
	"promohypo/internal/config"
	"promohypo/internal/errors"
	"promohypo/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceOptions(t *testing.T) {
	cfg := &config.Config{Analysis: config.AnalysisConfig{
		Workers:         2,
		ConfidenceLevel: 0.9,
		MaxIterations:   30,
		Tolerance:       1e-6,
		VIFThreshold:    10,
	}}

	opts := serviceOptions(cfg)
	assert.Equal(t, 2, opts.Workers)
	assert.Equal(t, 0.9, opts.ConfidenceLevel)
	assert.Equal(t, 10.0, opts.VIFThreshold)
	assert.Equal(t, 30, opts.Estimation.MaxIterations)
	assert.Equal(t, logit.SeparationFail, opts.Estimation.SeparationPolicy)

	cfg.Analysis.AllowSeparation = true
	assert.Equal(t, logit.SeparationWarn, serviceOptions(cfg).Estimation.SeparationPolicy)
}

func TestSimulateThenAnalyze(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"promotions.csv", "promotions.xlsx"} {
		t.Run(name, func(t *testing.T) {
			out := filepath.Join(dir, name)
			require.NoError(t, runSimulate(testkit.ScenarioPerformance, 200, 42, out, "Employees"))

			reader := excel.NewDataReader(out)
			if filepath.Ext(name) == ".xlsx" {
				reader = reader.WithSheet("Employees")
			}
			service := app.NewAnalysisService(app.DefaultServiceOptions())
			rep, err := service.RunSource(context.Background(), reader, nil)
			require.NoError(t, err)
			assert.Equal(t, 200, rep.Rows())

			cmp, ok := rep.Comparison(app.FamilyCovariates, app.FamilyPerformanceSteps)
			require.True(t, ok)
			assert.Less(t, cmp.PValue, 0.05)
		})
	}
}

func TestSimulateRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]error{
		"unknown scenario": runSimulate("lottery", 200, 1, filepath.Join(dir, "a.csv"), ""),
		"too few rows":     runSimulate(testkit.ScenarioNull, 3, 1, filepath.Join(dir, "b.csv"), ""),
		"bad extension":    runSimulate(testkit.ScenarioNull, 200, 1, filepath.Join(dir, "c.json"), ""),
	}
	for name, err := range cases {
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		assert.Equal(t, errors.CodeValidationError, errors.GetCode(err), name)
	}
}
