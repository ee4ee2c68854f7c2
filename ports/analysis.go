package ports

import (
	"context"
	"io"

	"promohypo/domain/analysis"
	"promohypo/domain/core"
	"promohypo/domain/dataset"
)

// RowSource provides raw observation rows from an external file or store
type RowSource interface {
	ReadRows(ctx context.Context) ([]dataset.RawRow, error)
	Name() string
}

// ReportRenderer writes an analysis report in a presentation format
type ReportRenderer interface {
	Render(w io.Writer, report *analysis.Report) error
}

// AnalysisRepository persists analysis reports
type AnalysisRepository interface {
	Save(ctx context.Context, report *analysis.Report) error
	Get(ctx context.Context, id core.AnalysisID) (*analysis.Report, error)
	List(ctx context.Context, limit int) ([]analysis.Summary, error)
}
