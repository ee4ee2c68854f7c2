package prep

import (
	"fmt"

	"promohypo/domain/dataset"

	"github.com/montanaflynn/stats"
)

// Summarize computes column statistics and the per-level promotion table
func Summarize(ds *dataset.EncodedDataset) (*dataset.Summary, error) {
	s := &dataset.Summary{
		Rows:       ds.RowCount(),
		Exclusions: ds.Exclusions(),
	}

	for _, col := range []string{dataset.ColSales, dataset.ColCustomerRate} {
		values, err := ds.Column(col)
		if err != nil {
			return nil, err
		}
		cs, err := summarizeColumn(col, values)
		if err != nil {
			return nil, fmt.Errorf("summarizing %s: %w", col, err)
		}
		s.Columns = append(s.Columns, cs)
	}

	counts := make(map[dataset.PerformanceLevel]*dataset.LevelCount, len(dataset.Levels))
	for _, level := range dataset.Levels {
		counts[level] = &dataset.LevelCount{Level: level.String(), Rank: level.Rank()}
	}
	for _, o := range ds.Observations() {
		lc := counts[o.Performance]
		lc.Rows++
		if o.Promoted {
			lc.Promoted++
			s.Promoted++
		}
	}
	for _, level := range dataset.Levels {
		lc := counts[level]
		if lc.Rows > 0 {
			lc.Rate = float64(lc.Promoted) / float64(lc.Rows)
		}
		s.Levels = append(s.Levels, *lc)
	}

	return s, nil
}

func summarizeColumn(name string, data []float64) (dataset.ColumnSummary, error) {
	summary := dataset.ColumnSummary{Column: name}

	mean, err := stats.Mean(data)
	if err != nil {
		return summary, err
	}
	min, err := stats.Min(data)
	if err != nil {
		return summary, err
	}
	max, err := stats.Max(data)
	if err != nil {
		return summary, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return summary, err
	}

	// Sample standard deviation is undefined for a single row
	var sd float64
	if len(data) > 1 {
		if sd, err = stats.StandardDeviationSample(data); err != nil {
			return summary, err
		}
	}

	summary.Mean = mean
	summary.StdDev = sd
	summary.Min = min
	summary.Median = median
	summary.Max = max
	return summary, nil
}
