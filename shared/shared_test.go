package shared_test

import (
	"strings"
	"testing"

	"tripcore/shared"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{
			name:     "already two decimals",
			input:    52.00,
			expected: 52.00,
		},
		{
			name:     "rounds up",
			input:    10.005,
			expected: 10.01,
		},
		{
			name:     "rounds down",
			input:    10.004,
			expected: 10.00,
		},
		{
			name:     "float drift",
			input:    0.1 + 0.2,
			expected: 0.30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shared.Round2(tt.input); got != tt.expected {
				t.Errorf("Round2(%v) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected int64
	}{
		{
			name:     "whole amount",
			input:    52.00,
			expected: 5200,
		},
		{
			name:     "cents",
			input:    0.99,
			expected: 99,
		},
		{
			name:     "drifted amount",
			input:    29.989999999999998,
			expected: 2999,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shared.MinorUnits(tt.input); got != tt.expected {
				t.Errorf("MinorUnits(%v) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestClampPercent(t *testing.T) {
	if got := shared.ClampPercent(-5); got != 0 {
		t.Errorf("ClampPercent(-5) = %v, want 0", got)
	}

	if got := shared.ClampPercent(150); got != 100 {
		t.Errorf("ClampPercent(150) = %v, want 100", got)
	}

	if got := shared.ClampPercent(10); got != 10 {
		t.Errorf("ClampPercent(10) = %v, want 10", got)
	}
}

func TestClampMultiplier(t *testing.T) {
	if got := shared.ClampMultiplier(0.1); got != 0.5 {
		t.Errorf("ClampMultiplier(0.1) = %v, want 0.5", got)
	}

	if got := shared.ClampMultiplier(10); got != 3.0 {
		t.Errorf("ClampMultiplier(10) = %v, want 3.0", got)
	}

	if got := shared.ClampMultiplier(1.2); got != 1.2 {
		t.Errorf("ClampMultiplier(1.2) = %v, want 1.2", got)
	}
}

func TestNewBookingReference(t *testing.T) {
	ref := shared.NewBookingReference()

	if !strings.HasPrefix(ref, "TRV-") {
		t.Errorf("NewBookingReference() = %q, want TRV- prefix", ref)
	}

	if len(ref) != len("TRV-")+8 {
		t.Errorf("NewBookingReference() length = %d, want %d", len(ref), len("TRV-")+8)
	}

	if ref == shared.NewBookingReference() {
		t.Error("NewBookingReference() returned the same reference twice")
	}
}

func TestBuildCacheKey(t *testing.T) {
	if got := shared.BuildCacheKey("availability", "res-1", "2026-06-01"); got != "availability:res-1:2026-06-01" {
		t.Errorf("BuildCacheKey() = %q", got)
	}
}
