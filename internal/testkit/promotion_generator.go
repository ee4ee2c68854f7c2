package testkit

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"

	"promohypo/domain/dataset"
)

// Scenario selects the data-generating process
type Scenario string

const (
	// ScenarioNull: promotion follows the covariates; performance carries no signal
	ScenarioNull Scenario = "null"
	// ScenarioPerformance: promotion rate rises with performance; covariates carry no signal
	ScenarioPerformance Scenario = "performance"
	// ScenarioSeparated: Poor is never promoted, every other level always is
	ScenarioSeparated Scenario = "separated"
	// ScenarioRandom: Bernoulli draws from a logistic model with all effects present
	ScenarioRandom Scenario = "random"
)

// Scenarios lists the generator's scenarios
var Scenarios = []Scenario{ScenarioNull, ScenarioPerformance, ScenarioSeparated, ScenarioRandom}

// PromotionGeneratorConfig configures the promotion data generator
type PromotionGeneratorConfig struct {
	Scenario     Scenario `json:"scenario"`
	RowsPerLevel int      `json:"rows_per_level"`
	Seed         int64    `json:"seed"`
	// Promotion rate per level (Poor..VeryGood) for ScenarioPerformance
	LevelRates [4]float64 `json:"level_rates"`
}

// DefaultPromotionConfig returns a balanced 200-row configuration
func DefaultPromotionConfig(scenario Scenario) PromotionGeneratorConfig {
	return PromotionGeneratorConfig{
		Scenario:     scenario,
		RowsPerLevel: 50,
		Seed:         42,
		LevelRates:   [4]float64{0.1, 0.3, 0.6, 0.9},
	}
}

// PromotionDataGenerator produces synthetic promotion observations.
// All scenarios except ScenarioRandom are fully deterministic and share one
// covariate pattern across performance levels, so performance is exactly
// orthogonal to sales and customer rate.
type PromotionDataGenerator struct {
	config PromotionGeneratorConfig
	rng    *rand.Rand
}

// NewPromotionDataGenerator creates a generator
func NewPromotionDataGenerator(config PromotionGeneratorConfig) *PromotionDataGenerator {
	if config.RowsPerLevel <= 0 {
		config.RowsPerLevel = 50
	}
	if config.LevelRates == [4]float64{} {
		config.LevelRates = DefaultPromotionConfig(config.Scenario).LevelRates
	}
	return &PromotionDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate returns RowsPerLevel observations for each performance level, level-major
func (g *PromotionDataGenerator) Generate() ([]dataset.Observation, error) {
	n := g.config.RowsPerLevel
	out := make([]dataset.Observation, 0, n*len(dataset.Levels))

	switch g.config.Scenario {
	case ScenarioNull:
		for _, level := range dataset.Levels {
			for i := 0; i < n; i++ {
				// Upper half promoted, every fifth row flipped so the classes overlap
				promoted := i >= n/2
				if i%5 == 0 {
					promoted = !promoted
				}
				out = append(out, g.baseRow(i, level, promoted))
			}
		}

	case ScenarioPerformance:
		stride := coprimeStride(n)
		for k, level := range dataset.Levels {
			promotedCount := int(math.Round(g.config.LevelRates[k] * float64(n)))
			for i := 0; i < n; i++ {
				// Stride permutation spreads promoted rows across the covariate range
				promoted := (stride*i)%n < promotedCount
				out = append(out, g.baseRow(i, level, promoted))
			}
		}

	case ScenarioSeparated:
		for _, level := range dataset.Levels {
			for i := 0; i < n; i++ {
				out = append(out, g.baseRow(i, level, level != dataset.Poor))
			}
		}

	case ScenarioRandom:
		for _, level := range dataset.Levels {
			for i := 0; i < n; i++ {
				out = append(out, g.randomRow(level))
			}
		}

	default:
		return nil, fmt.Errorf("unknown scenario %q", g.config.Scenario)
	}

	return out, nil
}

// baseRow is the i-th row of the shared covariate pattern
func (g *PromotionDataGenerator) baseRow(i int, level dataset.PerformanceLevel, promoted bool) dataset.Observation {
	return dataset.Observation{
		Sales:        500 + 20*float64(i),
		CustomerRate: 3.0 + 0.04*float64((7*i)%50),
		Performance:  level,
		Promoted:     promoted,
	}
}

func (g *PromotionDataGenerator) randomRow(level dataset.PerformanceLevel) dataset.Observation {
	sales := math.Max(50, 1000+250*g.rng.NormFloat64())
	rate := math.Min(5, math.Max(1, 3.8+0.5*g.rng.NormFloat64()))

	eta := -1.5 + 0.002*(sales-1000) + 0.6*(rate-3.8) + 0.8*float64(level.Rank())
	p := 1 / (1 + math.Exp(-eta))

	return dataset.Observation{
		Sales:        math.Round(sales*100) / 100,
		CustomerRate: math.Round(rate*100) / 100,
		Performance:  level,
		Promoted:     g.rng.Float64() < p,
	}
}

// coprimeStride returns a stride that permutes 0..n-1
func coprimeStride(n int) int {
	for _, s := range []int{13, 17, 19, 23, 29} {
		if gcd(s, n) == 1 {
			return s
		}
	}
	return 1
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// ToRawRows renders observations as raw source rows with human labels
func ToRawRows(observations []dataset.Observation) []dataset.RawRow {
	rows := make([]dataset.RawRow, len(observations))
	for i, o := range observations {
		promoted := "No"
		if o.Promoted {
			promoted = "Yes"
		}
		rows[i] = dataset.RawRow{
			"Sales":         strconv.FormatFloat(o.Sales, 'f', -1, 64),
			"Customer Rate": strconv.FormatFloat(o.CustomerRate, 'f', -1, 64),
			"Performance":   o.Performance.String(),
			"Promoted":      promoted,
		}
	}
	return rows
}

// RawHeaders are the column names ToRawRows produces, in file order
var RawHeaders = []string{"Sales", "Customer Rate", "Performance", "Promoted"}

// WriteCSV writes observations as a csv file the excel reader accepts
func WriteCSV(w io.Writer, observations []dataset.Observation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RawHeaders); err != nil {
		return err
	}
	for _, row := range ToRawRows(observations) {
		record := make([]string, len(RawHeaders))
		for j, h := range RawHeaders {
			record[j] = row[h]
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
