package dataset

import (
	"fmt"
	"strings"
)

// PerformanceLevel is the ordinal developmental performance rating
type PerformanceLevel int

const (
	Poor PerformanceLevel = iota
	Fair
	Good
	VeryGood
)

// Levels lists the performance levels in ascending order
var Levels = []PerformanceLevel{Poor, Fair, Good, VeryGood}

// Rank returns the fixed ordinal rank (0..3)
func (l PerformanceLevel) Rank() int {
	return int(l)
}

// Valid reports whether the level is one of the four known ratings
func (l PerformanceLevel) Valid() bool {
	return l >= Poor && l <= VeryGood
}

// AtLeast reports whether the level meets a threshold level
func (l PerformanceLevel) AtLeast(threshold PerformanceLevel) bool {
	return l.Rank() >= threshold.Rank()
}

func (l PerformanceLevel) String() string {
	switch l {
	case Poor:
		return "Poor"
	case Fair:
		return "Fair"
	case Good:
		return "Good"
	case VeryGood:
		return "Very Good"
	default:
		return fmt.Sprintf("PerformanceLevel(%d)", int(l))
	}
}

// ParsePerformanceLevel maps a label or numeric rank to a level
func ParsePerformanceLevel(s string) (PerformanceLevel, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	switch key {
	case "poor", "0":
		return Poor, nil
	case "fair", "1":
		return Fair, nil
	case "good", "2":
		return Good, nil
	case "verygood", "3":
		return VeryGood, nil
	}
	return 0, fmt.Errorf("unknown performance label %q", s)
}

// ParsePromoted maps a promotion label to the binary outcome
func ParsePromoted(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "t", "1", "promoted":
		return true, nil
	case "no", "n", "false", "f", "0", "not promoted", "not_promoted":
		return false, nil
	}
	return false, fmt.Errorf("unknown promotion label %q", s)
}

// Observation is one fully-populated analysis row
type Observation struct {
	Sales        float64          `json:"sales"`
	CustomerRate float64          `json:"customer_rate"`
	Performance  PerformanceLevel `json:"performance"`
	Promoted     bool             `json:"promoted"`
}

// RawRow is a single source row keyed by column header
type RawRow map[string]string

// Required source columns
const (
	FieldSales        = "sales"
	FieldCustomerRate = "customer_rate"
	FieldPerformance  = "performance"
	FieldPromoted     = "promoted"
)

// RequiredFields lists the four semantically required source columns
var RequiredFields = []string{FieldSales, FieldCustomerRate, FieldPerformance, FieldPromoted}
