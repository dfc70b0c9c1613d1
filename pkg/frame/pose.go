package frame

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Pose is a rigid transform stored as a row-major 4x4 matrix. Translation
// is in the last column.
type Pose [16]float64

// Identity is the pose of a camera sitting at the world origin.
func Identity() Pose {
	return Pose{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// PoseFromSlice copies 16 values into a Pose.
func PoseFromSlice(m []float64) (Pose, error) {
	var p Pose
	if len(m) != len(p) {
		return p, fmt.Errorf("pose needs %d values, got %d", len(p), len(m))
	}
	copy(p[:], m)
	return p, nil
}

// Translation returns the x, y, z offset.
func (p Pose) Translation() [3]float64 {
	return [3]float64{p[3], p[7], p[11]}
}

func (p Pose) r(row, col int) float64 {
	return p[row*4+col]
}

// RotationVector returns the axis-angle form of the rotation, the axis
// scaled by the angle in radians.
func (p Pose) RotationVector() [3]float64 {
	trace := p.r(0, 0) + p.r(1, 1) + p.r(2, 2)
	cos := math.Max(-1, math.Min(1, (trace-1)/2))
	angle := math.Acos(cos)

	if angle < 1e-9 {
		return [3]float64{}
	}

	if math.Pi-angle < 1e-6 {
		// sin(angle) vanishes. The rotation is 2aa'-I, so the largest
		// diagonal term gives a safe pivot and the symmetric off-diagonal
		// terms give the other components relative to it.
		var a [3]float64
		pivot := 0
		for i := 1; i < 3; i++ {
			if p.r(i, i) > p.r(pivot, pivot) {
				pivot = i
			}
		}
		a[pivot] = math.Sqrt(math.Max(0, (p.r(pivot, pivot)+1)/2))
		for i := 0; i < 3; i++ {
			if i != pivot {
				a[i] = (p.r(pivot, i) + p.r(i, pivot)) / (4 * a[pivot])
			}
		}
		return [3]float64{a[0] * angle, a[1] * angle, a[2] * angle}
	}

	k := angle / (2 * math.Sin(angle))
	return [3]float64{
		(p.r(2, 1) - p.r(1, 2)) * k,
		(p.r(0, 2) - p.r(2, 0)) * k,
		(p.r(1, 0) - p.r(0, 1)) * k,
	}
}

// Slice returns the 16 values in row-major order.
func (p Pose) Slice() []float64 {
	out := make([]float64, len(p))
	copy(out, p[:])
	return out
}

// FormatTriplet renders v rounded to two decimals, e.g. "(0.1, -2.35, 0.0)".
// Whole numbers keep one decimal.
func FormatTriplet(v [3]float64) string {
	format := func(f float64) string {
		s := strconv.FormatFloat(math.Round(f*100)/100, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	return fmt.Sprintf("(%s, %s, %s)", format(v[0]), format(v[1]), format(v[2]))
}
