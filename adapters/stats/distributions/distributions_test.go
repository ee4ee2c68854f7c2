package distributions

import (
	"math"
	"testing"
)

func TestChiSquarePValue(t *testing.T) {
	sd := New()

	tests := []struct {
		name     string
		stat     float64
		df       int
		expected float64
	}{
		{"critical value df=1", 3.841458820694124, 1, 0.05},
		{"critical value df=3", 7.814727903251178, 3, 0.05},
		{"zero statistic", 0, 2, 1},
		{"zero df", 5, 0, 1},
		{"infinite statistic", math.Inf(1), 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sd.ChiSquarePValue(tt.stat, tt.df)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("ChiSquarePValue(%v, %d) = %v, want %v", tt.stat, tt.df, got, tt.expected)
			}
		})
	}
}

func TestCriticalZ(t *testing.T) {
	sd := New()

	if z := sd.CriticalZ(0.95); math.Abs(z-1.959963984540054) > 1e-9 {
		t.Errorf("CriticalZ(0.95) = %v, want 1.95996", z)
	}
	if z := sd.CriticalZ(0.99); math.Abs(z-2.5758293035489) > 1e-9 {
		t.Errorf("CriticalZ(0.99) = %v, want 2.57583", z)
	}
}

func TestWaldPValue(t *testing.T) {
	sd := New()

	if p := sd.WaldPValue(1.959963984540054); math.Abs(p-0.05) > 1e-9 {
		t.Errorf("WaldPValue(1.96) = %v, want 0.05", p)
	}
	if p := sd.WaldPValue(-1.959963984540054); math.Abs(p-0.05) > 1e-9 {
		t.Errorf("WaldPValue(-1.96) = %v, want 0.05", p)
	}
	if p := sd.WaldPValue(0); p != 1 {
		t.Errorf("WaldPValue(0) = %v, want 1", p)
	}
}
