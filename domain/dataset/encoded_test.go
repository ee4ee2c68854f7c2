package dataset

import (
	"errors"
	"testing"

	"promohypo/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStaircaseMonotonicity checks step_vgood_plus ⇒ step_good_plus ⇒ step_fair_plus at every level
func TestStaircaseMonotonicity(t *testing.T) {
	var observations []Observation
	for _, level := range Levels {
		for _, promoted := range []bool{false, true} {
			observations = append(observations, Observation{Sales: 100, CustomerRate: 4, Performance: level, Promoted: promoted})
		}
	}

	ds, err := NewEncodedDataset(observations, ExclusionStats{})
	require.NoError(t, err)

	fair, _ := ds.Column(ColStepFairPlus)
	good, _ := ds.Column(ColStepGoodPlus)
	vgood, _ := ds.Column(ColStepVGoodPlus)

	for i := 0; i < ds.RowCount(); i++ {
		if vgood[i] == 1 && good[i] != 1 {
			t.Errorf("row %d: step_vgood_plus set without step_good_plus", i)
		}
		if good[i] == 1 && fair[i] != 1 {
			t.Errorf("row %d: step_good_plus set without step_fair_plus", i)
		}
	}
}

// TestStepIndicatorsPerLevel checks the cumulative threshold encoding for each level
func TestStepIndicatorsPerLevel(t *testing.T) {
	expected := map[PerformanceLevel][3]float64{
		Poor:     {0, 0, 0},
		Fair:     {1, 0, 0},
		Good:     {1, 1, 0},
		VeryGood: {1, 1, 1},
	}

	for level, steps := range expected {
		ds, err := NewEncodedDataset([]Observation{{Sales: 1, CustomerRate: 1, Performance: level}}, ExclusionStats{})
		require.NoError(t, err)

		for k, col := range StepColumns {
			v, ok := ds.Value(col, 0)
			require.True(t, ok)
			assert.Equal(t, steps[k], v, "level %s column %s", level, col)
		}
		rank, _ := ds.Value(ColPerformance, 0)
		assert.Equal(t, float64(level.Rank()), rank)
	}
}

func TestNewEncodedDataset_Empty(t *testing.T) {
	_, err := NewEncodedDataset(nil, ExclusionStats{Total: 5, ExcludedMissing: 5})
	if !errors.Is(err, core.ErrEmptyDataset) {
		t.Fatalf("Expected ErrEmptyDataset, got %v", err)
	}
}

func TestNewEncodedDataset_RejectsUnknownLevel(t *testing.T) {
	_, err := NewEncodedDataset([]Observation{{Performance: PerformanceLevel(7)}}, ExclusionStats{})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("Expected ErrValidation, got %v", err)
	}
}

func TestEncodedDataset_ColumnsAreCopies(t *testing.T) {
	ds, err := NewEncodedDataset([]Observation{{Sales: 10, CustomerRate: 3, Performance: Good, Promoted: true}}, ExclusionStats{})
	require.NoError(t, err)

	col, err := ds.Column(ColSales)
	require.NoError(t, err)
	col[0] = -1

	v, _ := ds.Value(ColSales, 0)
	assert.Equal(t, 10.0, v, "mutating a returned column must not change the dataset")
	assert.Equal(t, []float64{1}, ds.Outcome())

	_, err = ds.Column("bogus")
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestEncodedDataset_FingerprintAndExclusions(t *testing.T) {
	obs := []Observation{
		{Sales: 10, CustomerRate: 3, Performance: Good, Promoted: true},
		{Sales: 20, CustomerRate: 4, Performance: Poor, Promoted: false},
	}
	a, err := NewEncodedDataset(obs, ExclusionStats{Total: 5, ExcludedMissing: 2, ExcludedInvalid: 1})
	require.NoError(t, err)
	b, err := NewEncodedDataset(obs, ExclusionStats{})
	require.NoError(t, err)

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Equal(t, 2, a.Exclusions().Included)
	assert.Equal(t, 3, a.Exclusions().Excluded())
	assert.Equal(t, 2, b.Exclusions().Total)
}

func TestParseLabels(t *testing.T) {
	levels := map[string]PerformanceLevel{
		"Poor":      Poor,
		" fair ":    Fair,
		"GOOD":      Good,
		"Very Good": VeryGood,
		"very_good": VeryGood,
		"VeryGood":  VeryGood,
		"3":         VeryGood,
	}
	for label, want := range levels {
		got, err := ParsePerformanceLevel(label)
		require.NoError(t, err, label)
		assert.Equal(t, want, got, label)
	}
	_, err := ParsePerformanceLevel("Excellent")
	assert.Error(t, err)

	for _, yes := range []string{"Yes", "TRUE", "1", "Promoted"} {
		v, err := ParsePromoted(yes)
		require.NoError(t, err)
		assert.True(t, v, yes)
	}
	for _, no := range []string{"no", "False", "0", "Not Promoted"} {
		v, err := ParsePromoted(no)
		require.NoError(t, err)
		assert.False(t, v, no)
	}
	_, err = ParsePromoted("maybe")
	assert.Error(t, err)
}
