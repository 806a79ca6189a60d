package background

import (
	"math"
	"testing"
)

func TestPlanLoop(t *testing.T) {
	tests := []struct {
		source, target float64
		want           int
	}{
		{source: 10, target: 41.2, want: 5},
		{source: 10, target: 40, want: 4},
		{source: 60, target: 41.2, want: 1},
		{source: 41.2, target: 41.2, want: 1},
		{source: 0.1, target: 0.3, want: 3},
		{source: 7.3, target: 100, want: 14},
	}
	for _, tc := range tests {
		got, err := PlanLoop(tc.source, tc.target)
		if err != nil {
			t.Fatalf("PlanLoop(%v, %v) error: %v", tc.source, tc.target, err)
		}
		if got != tc.want {
			t.Fatalf("PlanLoop(%v, %v) = %d, want %d", tc.source, tc.target, got, tc.want)
		}
		if float64(got)*tc.source < tc.target {
			t.Fatalf("plan for %v/%v is shorter than target", tc.source, tc.target)
		}
	}
}

func TestPlanLoopRejectsInvalidDurations(t *testing.T) {
	for _, pair := range [][2]float64{{0, 10}, {-1, 10}, {10, 0}, {math.NaN(), 10}, {10, math.Inf(1)}} {
		if _, err := PlanLoop(pair[0], pair[1]); err == nil {
			t.Fatalf("expected error for %v", pair)
		}
	}
}
