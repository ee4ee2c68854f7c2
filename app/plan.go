package app

import (
	"fmt"

	"promohypo/domain/core"
	"promohypo/domain/dataset"
	"promohypo/domain/model"
)

// Default plan family names
const (
	FamilyNull              = "null"
	FamilyCovariates        = "covariates"
	FamilyPerformanceSteps  = "performance_steps"
	FamilyPerformanceLinear = "performance_linear"
	FamilyStepsInteraction  = "steps_interaction"
	FamilyLinearInteraction = "linear_interaction"
)

// ComparisonSpec names a reduced and a full family to compare
type ComparisonSpec struct {
	Reduced string `json:"reduced"`
	Full    string `json:"full"`
}

// ModelPlan lists the families to fit, the comparisons to run and the
// predictors the diagnostics cover
type ModelPlan struct {
	Families            []model.TermSet  `json:"-"`
	Comparisons         []ComparisonSpec `json:"comparisons"`
	VIFPredictors       []string         `json:"vif_predictors"`
	LinearityBase       string           `json:"linearity_base"`
	LinearityPredictors []string         `json:"linearity_predictors"`
}

// Family returns a planned family by name
func (p ModelPlan) Family(name string) (model.TermSet, bool) {
	for _, f := range p.Families {
		if f.Name() == name {
			return f, true
		}
	}
	return model.TermSet{}, false
}

// Validate checks that family names are unique and that every comparison and
// the linearity base refer to planned families
func (p ModelPlan) Validate() error {
	if len(p.Families) == 0 {
		return core.NewValidationError("plan", "no model families")
	}
	seen := make(map[string]bool, len(p.Families))
	for _, f := range p.Families {
		if seen[f.Name()] {
			return core.NewValidationError("plan", fmt.Sprintf("family %q listed twice", f.Name()))
		}
		seen[f.Name()] = true
	}
	for _, c := range p.Comparisons {
		if !seen[c.Reduced] || !seen[c.Full] {
			return core.NewValidationError("plan", fmt.Sprintf("comparison %s→%s refers to an unplanned family", c.Reduced, c.Full))
		}
	}
	if len(p.LinearityPredictors) > 0 && !seen[p.LinearityBase] {
		return core.NewValidationError("plan", fmt.Sprintf("linearity base %q is not planned", p.LinearityBase))
	}
	return nil
}

// DefaultPlan is the promotion analysis: covariates first, then performance as
// a staircase and as a linear rank, each with and without covariate interactions
func DefaultPlan() ModelPlan {
	covariateTerms := model.SimpleTerms(dataset.ColSales, dataset.ColCustomerRate)
	stepTerms := model.SimpleTerms(dataset.StepColumns...)
	linearTerm := model.SimpleTerms(dataset.ColPerformance)

	null := model.MustTermSet(FamilyNull)
	covariates := model.MustTermSet(FamilyCovariates, covariateTerms...)
	steps := mustWith(covariates, FamilyPerformanceSteps, stepTerms...)
	linear := mustWith(covariates, FamilyPerformanceLinear, linearTerm...)
	stepsInteraction := mustInteractions(steps, FamilyStepsInteraction, stepTerms, covariateTerms)
	linearInteraction := mustInteractions(linear, FamilyLinearInteraction, linearTerm, covariateTerms)

	return ModelPlan{
		Families: []model.TermSet{null, covariates, steps, linear, stepsInteraction, linearInteraction},
		Comparisons: []ComparisonSpec{
			{Reduced: FamilyNull, Full: FamilyCovariates},
			{Reduced: FamilyCovariates, Full: FamilyPerformanceSteps},
			{Reduced: FamilyCovariates, Full: FamilyPerformanceLinear},
			{Reduced: FamilyPerformanceSteps, Full: FamilyStepsInteraction},
			{Reduced: FamilyPerformanceLinear, Full: FamilyLinearInteraction},
		},
		VIFPredictors:       []string{dataset.ColSales, dataset.ColCustomerRate, dataset.ColPerformance},
		LinearityBase:       FamilyCovariates,
		LinearityPredictors: []string{dataset.ColSales, dataset.ColCustomerRate},
	}
}

func mustWith(base model.TermSet, name string, extra ...model.Term) model.TermSet {
	ts, err := base.With(name, extra...)
	if err != nil {
		panic(err)
	}
	return ts
}

func mustInteractions(base model.TermSet, name string, categorical, continuous []model.Term) model.TermSet {
	ts, err := model.WithInteractions(base, name, categorical, continuous)
	if err != nil {
		panic(err)
	}
	return ts
}
