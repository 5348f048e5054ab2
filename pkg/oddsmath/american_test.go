package oddsmath_test

import (
	"math"
	"testing"

	"github.com/avery-hale/sharpline/pkg/oddsmath"
)

func TestImpliedProbability(t *testing.T) {
	tests := []struct {
		name  string
		price float64
		want  float64
	}{
		{"Even odds +100", 100, 0.50},
		{"Favorite -110", -110, 0.5238},
		{"Heavy favorite -200", -200, 0.6667},
		{"Underdog +150", 150, 0.40},
		{"Heavy underdog +300", 300, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := oddsmath.ImpliedProbability(tt.price)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("ImpliedProbability(%v) = %f, want %f", tt.price, got, tt.want)
			}
		})
	}
}

func TestImpliedProbabilityMonotone(t *testing.T) {
	// More favorable price for the named side must yield lower implied probability.
	worse, err := oddsmath.ImpliedProbability(-150)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	better, err := oddsmath.ImpliedProbability(120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !(better < worse) {
		t.Errorf("expected +120 implied probability (%f) < -150 implied probability (%f)", better, worse)
	}
}

func TestImpliedProbabilityZero(t *testing.T) {
	if _, err := oddsmath.ImpliedProbability(0); err == nil {
		t.Error("expected error for zero American price")
	}
}

func TestAmericanToDecimal(t *testing.T) {
	tests := []struct {
		price float64
		want  float64
	}{
		{100, 2.0},
		{150, 2.5},
		{-110, 1.909090909},
		{-200, 1.5},
	}

	for _, tt := range tests {
		got, err := oddsmath.AmericanToDecimal(tt.price)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(got-tt.want) > 0.0001 {
			t.Errorf("AmericanToDecimal(%v) = %f, want %f", tt.price, got, tt.want)
		}
	}
}
