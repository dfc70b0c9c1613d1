package frame

import (
	"math"
	"testing"
)

func TestRotationVector(t *testing.T) {
	testCases := map[string]struct {
		pose     Pose
		expected [3]float64
	}{
		"Identity": {
			pose:     Identity(),
			expected: [3]float64{0, 0, 0},
		},
		"QuarterTurnAroundY": {
			pose: Pose{
				0, 0, 1, 0,
				0, 1, 0, 0,
				-1, 0, 0, 0,
				0, 0, 0, 1,
			},
			expected: [3]float64{0, math.Pi / 2, 0},
		},
		"HalfTurnAroundZ": {
			pose: Pose{
				-1, 0, 0, 0,
				0, -1, 0, 0,
				0, 0, 1, 0,
				0, 0, 0, 1,
			},
			expected: [3]float64{0, 0, math.Pi},
		},
		"HalfTurnAroundYMinusZ": {
			pose: Pose{
				-1, 0, 0, 0,
				0, 0, -1, 0,
				0, -1, 0, 0,
				0, 0, 0, 1,
			},
			expected: [3]float64{0, math.Pi / math.Sqrt2, -math.Pi / math.Sqrt2},
		},
		"HalfTurnAroundXY": {
			pose: Pose{
				0, 1, 0, 0,
				1, 0, 0, 0,
				0, 0, -1, 0,
				0, 0, 0, 1,
			},
			expected: [3]float64{math.Pi / math.Sqrt2, math.Pi / math.Sqrt2, 0},
		},
	}

	for name, c := range testCases {
		c := c
		t.Run(name, func(t *testing.T) {
			got := c.pose.RotationVector()
			for i := range got {
				if math.Abs(got[i]-c.expected[i]) > 1e-9 {
					t.Fatalf("expected %v, got %v", c.expected, got)
				}
			}
		})
	}
}

func TestTranslation(t *testing.T) {
	p := Identity()
	p[3], p[7], p[11] = 1.5, -2, 0.25

	if got := p.Translation(); got != [3]float64{1.5, -2, 0.25} {
		t.Errorf("unexpected translation %v", got)
	}
	if got := FormatTriplet(p.Translation()); got != "(1.5, -2.0, 0.25)" {
		t.Errorf("unexpected text %q", got)
	}
}

func TestFormatTriplet(t *testing.T) {
	testCases := map[[3]float64]string{
		{0, 0, 0}:             "(0.0, 0.0, 0.0)",
		{0.123, -2.356, 4}:    "(0.12, -2.36, 4.0)",
		{-0.001, 1.1, 100.25}: "(-0.0, 1.1, 100.25)",
	}
	for v, expected := range testCases {
		if got := FormatTriplet(v); got != expected {
			t.Errorf("FormatTriplet(%v) = %q, want %q", v, got, expected)
		}
	}
}

func TestPoseFromSlice(t *testing.T) {
	if _, err := PoseFromSlice(make([]float64, 15)); err == nil {
		t.Error("expected short slices to be rejected")
	}
	p, err := PoseFromSlice(Identity().Slice())
	if err != nil {
		t.Fatal(err)
	}
	if p != Identity() {
		t.Errorf("expected identity, got %v", p)
	}
}
