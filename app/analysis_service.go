package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"promohypo/adapters/stats/diagnostics"
	"promohypo/adapters/stats/inference"
	"promohypo/adapters/stats/logit"
	"promohypo/adapters/stats/prep"
	"promohypo/domain/analysis"
	"promohypo/domain/core"
	"promohypo/domain/dataset"
	"promohypo/domain/model"
	"promohypo/internal"
	"promohypo/ports"
)

// ServiceOptions configures an analysis run
type ServiceOptions struct {
	Workers         int
	ConfidenceLevel float64
	VIFThreshold    float64
	Estimation      logit.Options
}

// DefaultServiceOptions returns the defaults used by the CLI without configuration
func DefaultServiceOptions() ServiceOptions {
	return ServiceOptions{
		Workers:         4,
		ConfidenceLevel: inference.DefaultConfidenceLevel,
		VIFThreshold:    diagnostics.DefaultVIFThreshold,
		Estimation:      logit.DefaultOptions(),
	}
}

// AnalysisRequest is the input of one pipeline run. Plan nil means DefaultPlan.
type AnalysisRequest struct {
	Source string
	Rows   []dataset.RawRow
	Plan   *ModelPlan
}

// AnalysisService runs the promotion analysis pipeline:
// prepare → diagnostics → fits → odds ratios → comparisons
type AnalysisService struct {
	preparer *prep.Preparer
	engine   *logit.Engine
	opts     ServiceOptions
	logger   *internal.Logger
}

// NewAnalysisService creates an analysis service
func NewAnalysisService(opts ServiceOptions) *AnalysisService {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &AnalysisService{
		preparer: prep.NewPreparer(),
		engine:   logit.NewEngine(opts.Estimation),
		opts:     opts,
		logger:   internal.DefaultLogger,
	}
}

// RunSource reads rows from a source and runs the analysis on them
func (s *AnalysisService) RunSource(ctx context.Context, source ports.RowSource, plan *ModelPlan) (*analysis.Report, error) {
	rows, err := source.ReadRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", source.Name(), err)
	}
	return s.Run(ctx, AnalysisRequest{Source: source.Name(), Rows: rows, Plan: plan})
}

// Run prepares the rows and executes the plan. Only validation and empty-dataset
// errors abort the run; every other failure is recorded on its operation.
func (s *AnalysisService) Run(ctx context.Context, req AnalysisRequest) (*analysis.Report, error) {
	ds, err := s.preparer.Prepare(req.Rows)
	if err != nil {
		return nil, err
	}
	return s.RunDataset(ctx, ds, req.Source, req.Plan)
}

// RunDataset executes the plan against an already encoded dataset
func (s *AnalysisService) RunDataset(ctx context.Context, ds *dataset.EncodedDataset, source string, plan *ModelPlan) (*analysis.Report, error) {
	if plan == nil {
		def := DefaultPlan()
		plan = &def
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	report := &analysis.Report{
		ID:               core.NewAnalysisID(),
		Source:           source,
		Fingerprint:      ds.Fingerprint(),
		StartedAt:        core.Now(),
		ConfidenceLevel:  s.opts.ConfidenceLevel,
		SeparationPolicy: string(s.engine.Options().SeparationPolicy),
	}
	ops := &operationLog{}

	s.logger.Info("[Analysis] %s: %d rows, %d families, %d comparisons (fingerprint %s)",
		report.ID, ds.RowCount(), len(plan.Families), len(plan.Comparisons), ds.Fingerprint().Short())

	summary, err := prep.Summarize(ds)
	ops.record("summary", err)
	report.Summary = summary

	if len(plan.VIFPredictors) > 0 {
		vif, err := diagnostics.VIF(ds, plan.VIFPredictors, s.opts.VIFThreshold)
		ops.record("vif", err)
		report.VIF = vif
		for _, r := range vif {
			if r.Flagged {
				s.logger.Warn("[Analysis] %s has VIF %.2f (threshold %.1f)", r.Predictor, r.VIF, s.opts.VIFThreshold)
			}
		}
	}

	fitted := s.fitFamilies(ctx, ds, plan.Families, ops)

	for _, family := range plan.Families {
		m, ok := fitted[family.Name()]
		if !ok {
			continue
		}
		table, err := inference.CoefficientTable(m, s.opts.ConfidenceLevel)
		if err != nil {
			ops.record("odds_ratios:"+family.Name(), err)
			continue
		}
		ors, err := inference.OddsRatios(m, s.opts.ConfidenceLevel)
		ops.record("odds_ratios:"+family.Name(), err)
		report.Models = append(report.Models, analysis.NewModelReport(m, table, ors))
	}

	if len(plan.LinearityPredictors) > 0 {
		report.Linearity = s.linearity(ctx, ds, plan, fitted, ops)
	}

	for _, c := range plan.Comparisons {
		name := fmt.Sprintf("compare:%s→%s", c.Reduced, c.Full)
		reduced, okR := fitted[c.Reduced]
		full, okF := fitted[c.Full]
		if !okR || !okF {
			ops.record(name, fmt.Errorf("%s: a model in the pair was not fitted", name))
			continue
		}
		result, err := inference.Compare(reduced, full)
		ops.record(name, err)
		if err == nil {
			report.Comparisons = append(report.Comparisons, result)
		}
	}

	report.Operations = ops.statuses()
	report.CompletedAt = core.Now()

	s.logger.Info("[Analysis] %s completed in %v: %d models, %d comparisons, %d failed operations",
		report.ID, time.Since(start), len(report.Models), len(report.Comparisons), len(report.Failed()))
	return report, nil
}

// fitFamilies fits every family concurrently and returns the successful fits by name
func (s *AnalysisService) fitFamilies(ctx context.Context, ds *dataset.EncodedDataset, families []model.TermSet, ops *operationLog) map[string]*model.FittedModel {
	fitted := make(map[string]*model.FittedModel, len(families))
	for _, outcome := range s.engine.FitAll(ctx, ds, families, s.opts.Workers) {
		ops.record("fit:"+outcome.Family.Name(), outcome.Err)
		if outcome.Err == nil {
			fitted[outcome.Family.Name()] = outcome.Model
			s.logger.Debug("[Analysis] fit %s in %v", outcome.Model, outcome.Duration)
		}
	}
	return fitted
}

func (s *AnalysisService) linearity(ctx context.Context, ds *dataset.EncodedDataset, plan *ModelPlan, fitted map[string]*model.FittedModel, ops *operationLog) []model.LinearityResult {
	base, ok := fitted[plan.LinearityBase]
	if !ok {
		err := fmt.Errorf("linearity base %q was not fitted", plan.LinearityBase)
		results := make([]model.LinearityResult, len(plan.LinearityPredictors))
		for i, p := range plan.LinearityPredictors {
			ops.record("linearity:"+p, err)
			results[i] = model.LinearityResult{Predictor: p, DF: 1, Error: err.Error()}
		}
		return results
	}

	results, errs := diagnostics.BoxTidwell(ctx, s.engine, ds, base, plan.LinearityPredictors)
	for i, p := range plan.LinearityPredictors {
		ops.record("linearity:"+p, errs[i])
	}
	return results
}

// operationLog collects per-operation statuses in call order
type operationLog struct {
	mu  sync.Mutex
	ops []model.OperationStatus
}

func (l *operationLog) record(name string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	status := model.OperationStatus{Operation: name, OK: err == nil}
	if err != nil {
		status.Error = err.Error()
		status.ErrorKind = ErrorKind(err)
		internal.DefaultLogger.Warn("[Analysis] %s failed: %v", name, err)
	}
	l.ops = append(l.ops, status)
}

func (l *operationLog) statuses() []model.OperationStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.OperationStatus(nil), l.ops...)
}

// ErrorKind classifies an error by its domain sentinel
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, core.ErrValidation):
		return "validation"
	case errors.Is(err, core.ErrEmptyDataset):
		return "empty_dataset"
	case errors.Is(err, core.ErrDomain):
		return "domain"
	case errors.Is(err, core.ErrConvergence):
		return "convergence"
	case errors.Is(err, core.ErrSingularDesign):
		return "singular_design"
	case errors.Is(err, core.ErrNotNested):
		return "not_nested"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}
