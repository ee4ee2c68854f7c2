package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"promohypo/domain/analysis"
	"promohypo/domain/core"
	apperrors "promohypo/internal/errors"
	"promohypo/ports"

	"github.com/jmoiron/sqlx"
)

// analysisRepository implements ports.AnalysisRepository on sqlite or postgres
type analysisRepository struct {
	db *sqlx.DB
}

// NewAnalysisRepository creates a repository over an open, migrated connection
func NewAnalysisRepository(db *sqlx.DB) ports.AnalysisRepository {
	return &analysisRepository{db: db}
}

// createdAtLayout is fixed-width so stored timestamps sort lexically
const createdAtLayout = "2006-01-02T15:04:05.000000000Z"

// analysisRow mirrors the analyses table
type analysisRow struct {
	ID           string `db:"id"`
	Source       string `db:"source"`
	Fingerprint  string `db:"fingerprint"`
	RowCount     int    `db:"row_count"`
	ModelCount   int    `db:"model_count"`
	FailureCount int    `db:"failure_count"`
	Report       string `db:"report"`
	CreatedAt    string `db:"created_at"`
}

// ComparisonRecord is a stored likelihood-ratio test with its analysis
type ComparisonRecord struct {
	AnalysisID string  `db:"analysis_id" json:"analysis_id"`
	Reduced    string  `db:"reduced_family" json:"reduced"`
	Full       string  `db:"full_family" json:"full"`
	ChiSquare  float64 `db:"chi_square" json:"chi_square"`
	DF         int     `db:"df" json:"df"`
	PValue     float64 `db:"p_value" json:"p_value"`
	CreatedAt  string  `db:"created_at" json:"created_at"`
}

// Save stores the report and its comparisons in one transaction
func (r *analysisRepository) Save(ctx context.Context, report *analysis.Report) error {
	payload, err := json.Marshal(report.Finite())
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	row := analysisRow{
		ID:           report.ID.String(),
		Source:       report.Source,
		Fingerprint:  report.Fingerprint.String(),
		RowCount:     report.Rows(),
		ModelCount:   len(report.Models),
		FailureCount: len(report.Failed()),
		Report:       string(payload),
		CreatedAt:    report.CompletedAt.Time().UTC().Format(createdAtLayout),
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.WithCode(apperrors.CodeDatabaseError, err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `INSERT INTO analyses (
		id, source, fingerprint, row_count, model_count, failure_count, report, created_at
	) VALUES (
		:id, :source, :fingerprint, :row_count, :model_count, :failure_count, :report, :created_at
	)`, row)
	if err != nil {
		return apperrors.Wrapf(apperrors.WithCode(apperrors.CodeDatabaseError, err), "failed to save analysis %s", report.ID)
	}

	insert := r.db.Rebind(`INSERT INTO analysis_comparisons (
		analysis_id, reduced_family, full_family, chi_square, df, p_value
	) VALUES (?, ?, ?, ?, ?, ?)`)
	for _, c := range report.Comparisons {
		if _, err := tx.ExecContext(ctx, insert, row.ID, c.Reduced, c.Full, c.ChiSquare, c.DF, c.PValue); err != nil {
			return apperrors.Wrapf(apperrors.WithCode(apperrors.CodeDatabaseError, err), "failed to save comparison %s→%s", c.Reduced, c.Full)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.WithCode(apperrors.CodeDatabaseError, err)
	}
	return nil
}

// Get loads a stored report
func (r *analysisRepository) Get(ctx context.Context, id core.AnalysisID) (*analysis.Report, error) {
	var row analysisRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT
		id, source, fingerprint, row_count, model_count, failure_count, report, created_at
	FROM analyses WHERE id = ?`), id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound(fmt.Sprintf("analysis %s", id))
		}
		return nil, apperrors.WithCode(apperrors.CodeDatabaseError, err)
	}

	var report analysis.Report
	if err := json.Unmarshal([]byte(row.Report), &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report %s: %w", id, err)
	}
	return &report, nil
}

// List returns the most recent analyses first
func (r *analysisRepository) List(ctx context.Context, limit int) ([]analysis.Summary, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []analysis.Summary
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`SELECT
		id, source, fingerprint, row_count, model_count, failure_count, created_at
	FROM analyses
	ORDER BY created_at DESC, id DESC
	LIMIT ?`), limit)
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodeDatabaseError, err)
	}
	return out, nil
}

// ComparisonHistory returns stored tests of one reduced→full pair, newest first
func ComparisonHistory(ctx context.Context, db *sqlx.DB, reduced, full string, limit int) ([]ComparisonRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []ComparisonRecord
	err := db.SelectContext(ctx, &out, db.Rebind(`SELECT
		c.analysis_id, c.reduced_family, c.full_family, c.chi_square, c.df, c.p_value, a.created_at
	FROM analysis_comparisons c
	JOIN analyses a ON a.id = c.analysis_id
	WHERE c.reduced_family = ? AND c.full_family = ?
	ORDER BY a.created_at DESC
	LIMIT ?`), reduced, full, limit)
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodeDatabaseError, err)
	}
	return out, nil
}
