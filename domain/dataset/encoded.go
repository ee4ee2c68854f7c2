package dataset

import (
	"fmt"

	"promohypo/domain/core"
)

// Encoded column names
const (
	ColSales         = "sales"
	ColCustomerRate  = "customer_rate"
	ColPerformance   = "performance"
	ColStepFairPlus  = "step_fair_plus"
	ColStepGoodPlus  = "step_good_plus"
	ColStepVGoodPlus = "step_vgood_plus"
	ColPromoted      = "promoted"
)

// StepColumns are the staircase indicators in threshold order
var StepColumns = []string{ColStepFairPlus, ColStepGoodPlus, ColStepVGoodPlus}

// stepThresholds pairs each staircase column with the level it tests against
var stepThresholds = []struct {
	column    string
	threshold PerformanceLevel
}{
	{ColStepFairPlus, Fair},
	{ColStepGoodPlus, Good},
	{ColStepVGoodPlus, VeryGood},
}

// StatisticalType defines column types for analysis
type StatisticalType string

const (
	TypeNumeric StatisticalType = "numeric"
	TypeOrdinal StatisticalType = "ordinal"
	TypeBinary  StatisticalType = "binary"
)

// ColumnMeta describes one encoded column
type ColumnMeta struct {
	Name            string          `json:"name"`
	StatisticalType StatisticalType `json:"statistical_type"`
	Derived         bool            `json:"derived"`
}

// ExclusionStats counts rows dropped before analysis
type ExclusionStats struct {
	Total           int `json:"total"`
	Included        int `json:"included"`
	ExcludedMissing int `json:"excluded_missing"`
	ExcludedInvalid int `json:"excluded_invalid"`
}

// Excluded returns the number of rows dropped for any reason
func (s ExclusionStats) Excluded() int {
	return s.ExcludedMissing + s.ExcludedInvalid
}

// EncodedDataset is the frozen, column-oriented analysis input.
// It is read-only after construction and safe to share across concurrent fits.
type EncodedDataset struct {
	observations []Observation
	columns      map[string][]float64
	meta         []ColumnMeta
	exclusions   ExclusionStats
	fingerprint  core.Hash
}

// NewEncodedDataset encodes observations into analysis columns.
// All staircase indicators derive from a single rank comparison, so
// step_vgood_plus ⇒ step_good_plus ⇒ step_fair_plus holds for every row.
func NewEncodedDataset(observations []Observation, exclusions ExclusionStats) (*EncodedDataset, error) {
	if len(observations) == 0 {
		return nil, core.NewEmptyDatasetError(exclusions.Total, exclusions.ExcludedMissing, exclusions.ExcludedInvalid)
	}

	n := len(observations)
	obs := make([]Observation, n)
	copy(obs, observations)

	columns := map[string][]float64{
		ColSales:        make([]float64, n),
		ColCustomerRate: make([]float64, n),
		ColPerformance:  make([]float64, n),
		ColPromoted:     make([]float64, n),
	}
	for _, step := range stepThresholds {
		columns[step.column] = make([]float64, n)
	}

	for i, o := range obs {
		if !o.Performance.Valid() {
			return nil, core.NewValidationError(FieldPerformance, fmt.Sprintf("row %d has unknown level %d", i, int(o.Performance)))
		}
		columns[ColSales][i] = o.Sales
		columns[ColCustomerRate][i] = o.CustomerRate
		columns[ColPerformance][i] = float64(o.Performance.Rank())
		if o.Promoted {
			columns[ColPromoted][i] = 1
		}
		for _, step := range stepThresholds {
			if o.Performance.AtLeast(step.threshold) {
				columns[step.column][i] = 1
			}
		}
	}

	meta := []ColumnMeta{
		{Name: ColSales, StatisticalType: TypeNumeric},
		{Name: ColCustomerRate, StatisticalType: TypeNumeric},
		{Name: ColPerformance, StatisticalType: TypeOrdinal},
		{Name: ColStepFairPlus, StatisticalType: TypeBinary, Derived: true},
		{Name: ColStepGoodPlus, StatisticalType: TypeBinary, Derived: true},
		{Name: ColStepVGoodPlus, StatisticalType: TypeBinary, Derived: true},
		{Name: ColPromoted, StatisticalType: TypeBinary},
	}

	var fp core.Fingerprinter
	for _, m := range meta {
		fp.AddColumn(m.Name, columns[m.Name])
	}

	if exclusions.Total == 0 {
		exclusions.Total = n
	}
	exclusions.Included = n

	return &EncodedDataset{
		observations: obs,
		columns:      columns,
		meta:         meta,
		exclusions:   exclusions,
		fingerprint:  fp.Sum(),
	}, nil
}

// RowCount returns the number of included observations
func (d *EncodedDataset) RowCount() int {
	return len(d.observations)
}

// Observation returns the i-th included observation
func (d *EncodedDataset) Observation(i int) Observation {
	return d.observations[i]
}

// Observations returns a copy of the included observations
func (d *EncodedDataset) Observations() []Observation {
	out := make([]Observation, len(d.observations))
	copy(out, d.observations)
	return out
}

// HasColumn reports whether an encoded column exists
func (d *EncodedDataset) HasColumn(name string) bool {
	_, ok := d.columns[name]
	return ok
}

// Column returns a copy of an encoded column
func (d *EncodedDataset) Column(name string) ([]float64, error) {
	values, ok := d.columns[name]
	if !ok {
		return nil, core.NewValidationError(name, "no such encoded column")
	}
	out := make([]float64, len(values))
	copy(out, values)
	return out, nil
}

// Value returns a single cell without copying the column
func (d *EncodedDataset) Value(column string, row int) (float64, bool) {
	values, ok := d.columns[column]
	if !ok || row < 0 || row >= len(values) {
		return 0, false
	}
	return values[row], true
}

// Outcome returns a copy of the 0/1 promotion column
func (d *EncodedDataset) Outcome() []float64 {
	out, _ := d.Column(ColPromoted)
	return out
}

// ColumnMeta returns the encoded column descriptors in layout order
func (d *EncodedDataset) ColumnMeta() []ColumnMeta {
	out := make([]ColumnMeta, len(d.meta))
	copy(out, d.meta)
	return out
}

// Exclusions returns the row exclusion counters
func (d *EncodedDataset) Exclusions() ExclusionStats {
	return d.exclusions
}

// Fingerprint identifies the encoded content
func (d *EncodedDataset) Fingerprint() core.Hash {
	return d.fingerprint
}
