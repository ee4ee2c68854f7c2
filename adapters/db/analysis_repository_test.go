package db

import (
	"context"
	"testing"
	"time"

	"promohypo/adapters/db/migrations"
	"promohypo/domain/analysis"
	"promohypo/domain/core"
	"promohypo/domain/dataset"
	"promohypo/domain/model"
	apperrors "promohypo/internal/errors"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	conn, err := Open(context.Background(), DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func testReport(source string, completed time.Time) *analysis.Report {
	return &analysis.Report{
		ID:          core.NewAnalysisID(),
		Source:      source,
		Fingerprint: core.NewHash([]byte(source)),
		StartedAt:   core.NewTimestamp(completed.Add(-time.Second)),
		CompletedAt: core.NewTimestamp(completed),
		Summary:     &dataset.Summary{Rows: 200, Promoted: 90},
		Models: []analysis.ModelReport{{
			Family:     "covariates",
			N:          200,
			Parameters: 3,
			OddsRatios: []model.OddsRatio{{Term: "sales", Estimate: 1.01, Lower: 0.99, Upper: 1.03, Level: 0.95}},
		}},
		VIF: []model.VIFResult{{Predictor: "performance", VIF: 1}},
		Comparisons: []model.ComparisonResult{
			{Reduced: "null", Full: "covariates", ChiSquare: 12.5, DF: 2, PValue: 0.0019},
			{Reduced: "covariates", Full: "performance_steps", ChiSquare: 1.2, DF: 3, PValue: 0.75},
		},
		Operations: []model.OperationStatus{
			{Operation: "fit:covariates", OK: true},
			{Operation: "fit:steps_interaction", OK: false, Error: "separation", ErrorKind: "singular_design"},
		},
	}
}

func TestAnalysisRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewAnalysisRepository(openTestDB(t))

	report := testReport("promotions.csv", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, report))

	got, err := repo.Get(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, report.ID, got.ID)
	assert.Equal(t, report.Source, got.Source)
	assert.Equal(t, report.Fingerprint, got.Fingerprint)
	assert.Equal(t, report.Comparisons, got.Comparisons)
	assert.Equal(t, report.Models[0].OddsRatios, got.Models[0].OddsRatios)
	assert.True(t, report.CompletedAt.Time().Equal(got.CompletedAt.Time()))
}

func TestAnalysisRepository_GetMissing(t *testing.T) {
	repo := NewAnalysisRepository(openTestDB(t))
	_, err := repo.Get(context.Background(), core.NewAnalysisID())
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))
}

func TestAnalysisRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewAnalysisRepository(openTestDB(t))

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	older := testReport("january.csv", base)
	newer := testReport("february.csv", base.Add(time.Hour))
	require.NoError(t, repo.Save(ctx, older))
	require.NoError(t, repo.Save(ctx, newer))

	list, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, "february.csv", list[0].Source)
	assert.Equal(t, 200, list[0].Rows)
	assert.Equal(t, 1, list[0].Models)
	assert.Equal(t, 1, list[0].Failures)

	limited, err := repo.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestAnalysisRepository_DuplicateIDFails(t *testing.T) {
	ctx := context.Background()
	repo := NewAnalysisRepository(openTestDB(t))
	report := testReport("a.csv", time.Now())
	require.NoError(t, repo.Save(ctx, report))

	err := repo.Save(ctx, report)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDatabaseError, apperrors.GetCode(err))
}

func TestComparisonHistory(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	repo := NewAnalysisRepository(conn)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Save(ctx, testReport("run.csv", base.Add(time.Duration(i)*time.Minute))))
	}

	history, err := ComparisonHistory(ctx, conn, "covariates", "performance_steps", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 3, history[0].DF)
	assert.InDelta(t, 0.75, history[0].PValue, 1e-12)
	assert.True(t, history[0].CreatedAt > history[1].CreatedAt)
}

func TestMigrator_StatusAfterOpen(t *testing.T) {
	conn := openTestDB(t)
	statuses, err := migrations.NewMigrator(conn).Status(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	for _, s := range statuses {
		assert.True(t, s.Applied, s.Name)
	}

	// Re-running is a no-op
	require.NoError(t, migrations.NewMigrator(conn).Up(context.Background()))
}

func TestDetectDriver(t *testing.T) {
	assert.Equal(t, DriverPostgres, DetectDriver("postgres://u:p@localhost/db"))
	assert.Equal(t, DriverPostgres, DetectDriver("host=localhost dbname=x"))
	assert.Equal(t, DriverSQLite, DetectDriver("file:promohypo.db?cache=shared"))
}
