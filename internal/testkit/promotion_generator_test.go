package testkit

import (
	"bytes"
	"encoding/csv"
	"testing"

	"promohypo/domain/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countPromoted(obs []dataset.Observation, level dataset.PerformanceLevel) (rows, promoted int) {
	for _, o := range obs {
		if o.Performance != level {
			continue
		}
		rows++
		if o.Promoted {
			promoted++
		}
	}
	return rows, promoted
}

func TestPromotionGenerator_NullScenarioIsBalancedAcrossLevels(t *testing.T) {
	obs, err := NewPromotionDataGenerator(DefaultPromotionConfig(ScenarioNull)).Generate()
	require.NoError(t, err)
	require.Len(t, obs, 200)

	_, want := countPromoted(obs, dataset.Poor)
	for _, level := range dataset.Levels {
		rows, promoted := countPromoted(obs, level)
		assert.Equal(t, 50, rows)
		assert.Equal(t, want, promoted, level.String())
	}
}

func TestPromotionGenerator_PerformanceScenarioRates(t *testing.T) {
	cfg := DefaultPromotionConfig(ScenarioPerformance)
	obs, err := NewPromotionDataGenerator(cfg).Generate()
	require.NoError(t, err)

	expected := []int{5, 15, 30, 45}
	for k, level := range dataset.Levels {
		rows, promoted := countPromoted(obs, level)
		assert.Equal(t, 50, rows)
		assert.Equal(t, expected[k], promoted, level.String())
	}
}

func TestPromotionGenerator_SeparatedScenario(t *testing.T) {
	obs, err := NewPromotionDataGenerator(DefaultPromotionConfig(ScenarioSeparated)).Generate()
	require.NoError(t, err)
	for _, o := range obs {
		if o.Promoted != (o.Performance != dataset.Poor) {
			t.Fatalf("row %+v breaks the separated pattern", o)
		}
	}
}

func TestPromotionGenerator_RandomIsDeterministicPerSeed(t *testing.T) {
	cfg := DefaultPromotionConfig(ScenarioRandom)
	a, err := NewPromotionDataGenerator(cfg).Generate()
	require.NoError(t, err)
	b, err := NewPromotionDataGenerator(cfg).Generate()
	require.NoError(t, err)
	assert.Equal(t, a, b)

	for _, o := range a {
		assert.GreaterOrEqual(t, o.Sales, 0.0)
		assert.True(t, o.Performance.Valid())
	}
}

func TestPromotionGenerator_UnknownScenario(t *testing.T) {
	_, err := NewPromotionDataGenerator(PromotionGeneratorConfig{Scenario: "bogus"}).Generate()
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	obs := []dataset.Observation{
		{Sales: 1200.5, CustomerRate: 4.2, Performance: dataset.VeryGood, Promoted: true},
		{Sales: 800, CustomerRate: 3, Performance: dataset.Poor, Promoted: false},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, obs))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Sales", "Customer Rate", "Performance", "Promoted"}, records[0])
	assert.Equal(t, []string{"1200.5", "4.2", "Very Good", "Yes"}, records[1])
	assert.Equal(t, []string{"800", "3", "Poor", "No"}, records[2])
}
