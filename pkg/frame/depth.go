package frame

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"math"
)

// DepthMap is a dense float32 measure, one value per pixel in row-major
// order. Values are meters unless stated otherwise.
type DepthMap struct {
	Width, Height int
	Data          []float32
}

// NewDepthMap allocates a zeroed map.
func NewDepthMap(width, height int) *DepthMap {
	return &DepthMap{
		Width:  width,
		Height: height,
		Data:   make([]float32, width*height),
	}
}

// At returns the value at (x, y).
func (d *DepthMap) At(x, y int) float32 {
	return d.Data[y*d.Width+x]
}

// Set stores v at (x, y).
func (d *DepthMap) Set(x, y int, v float32) {
	d.Data[y*d.Width+x] = v
}

// Bounds mirrors image.Image so a map can be compared against images.
func (d *DepthMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.Width, d.Height)
}

// DecodeDepth decodes a raw depth buffer of format f.
func DecodeDepth(f Format, frame []byte, width, height int) (*DepthMap, error) {
	switch f {
	case FormatF32:
		return decodeF32(frame, width, height)
	case FormatZ16:
		return decodeZ16(frame, width, height)
	default:
		return nil, fmt.Errorf("%s is not a depth format", f)
	}
}

func decodeF32(frame []byte, width, height int) (*DepthMap, error) {
	expectedSize := int(frameSizeF32(width, height))
	if expectedSize != len(frame) {
		return nil, fmt.Errorf("frame length (%d) not expected size (%d)", len(frame), expectedSize)
	}
	d := NewDepthMap(width, height)
	for i := range d.Data {
		d.Data[i] = math.Float32frombits(binary.LittleEndian.Uint32(frame[4*i:]))
	}
	return d, nil
}

// Z16 carries millimeters. Zero means no measure and becomes NaN so that
// Sanitize treats it like any other invalid sample.
func decodeZ16(frame []byte, width, height int) (*DepthMap, error) {
	expectedSize := int(frameSizeZ16(width, height))
	if expectedSize != len(frame) {
		return nil, fmt.Errorf("frame length (%d) not expected size (%d)", len(frame), expectedSize)
	}
	d := NewDepthMap(width, height)
	for i := range d.Data {
		z := binary.LittleEndian.Uint16(frame[2*i:])
		if z == 0 {
			d.Data[i] = float32(math.NaN())
			continue
		}
		d.Data[i] = float32(z) / 1000
	}
	return d, nil
}

// EncodeF32 is the inverse of decoding FormatF32.
func (d *DepthMap) EncodeF32() []byte {
	buf := make([]byte, 4*len(d.Data))
	for i, v := range d.Data {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

// Sanitize replaces non-finite values in place: NaN becomes 0, +Inf the
// largest float32 and -Inf the lowest.
func (d *DepthMap) Sanitize() {
	for i, v := range d.Data {
		f := float64(v)
		switch {
		case math.IsNaN(f):
			d.Data[i] = 0
		case math.IsInf(f, 1):
			d.Data[i] = math.MaxFloat32
		case math.IsInf(f, -1):
			d.Data[i] = -math.MaxFloat32
		}
	}
}

// Scale multiplies every value by f in place.
func (d *DepthMap) Scale(f float32) {
	for i := range d.Data {
		d.Data[i] *= f
	}
}

// Resize returns a bilinear resampling of d sampled at pixel centers, the
// same convention as OpenCV's INTER_LINEAR.
func (d *DepthMap) Resize(width, height int) *DepthMap {
	if width == d.Width && height == d.Height {
		out := NewDepthMap(width, height)
		copy(out.Data, d.Data)
		return out
	}

	out := NewDepthMap(width, height)
	sx := float64(d.Width) / float64(width)
	sy := float64(d.Height) / float64(height)

	for y := 0; y < height; y++ {
		y0, y1, fy := sourceSpan((float64(y)+0.5)*sy-0.5, d.Height)
		for x := 0; x < width; x++ {
			x0, x1, fx := sourceSpan((float64(x)+0.5)*sx-0.5, d.Width)
			top := float64(d.At(x0, y0))*(1-fx) + float64(d.At(x1, y0))*fx
			bottom := float64(d.At(x0, y1))*(1-fx) + float64(d.At(x1, y1))*fx
			out.Set(x, y, float32(top*(1-fy)+bottom*fy))
		}
	}
	return out
}

// sourceSpan clamps a fractional source coordinate into [0, n-1] and returns
// the two neighbours with the weight of the second one.
func sourceSpan(pos float64, n int) (i0, i1 int, frac float64) {
	if pos <= 0 {
		return 0, 0, 0
	}
	i0 = int(pos)
	if i0 >= n-1 {
		return n - 1, n - 1, 0
	}
	return i0, i0 + 1, pos - float64(i0)
}

// MinMax returns the smallest and the largest finite values. ok is false
// when the map holds no finite value.
func (d *DepthMap) MinMax() (lo, hi float32, ok bool) {
	for _, v := range d.Data {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		if !ok {
			lo, hi, ok = v, v, true
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, ok
}

// DefaultDepthViewRange is the far limit, in meters, of DepthView.
const DefaultDepthViewRange = 20

// DepthView renders d as a grayscale image, near samples bright and far
// samples dark. Invalid or out of range samples are black.
func DepthView(d *DepthMap, maxRange float32) *image.Gray {
	if maxRange <= 0 {
		maxRange = DefaultDepthViewRange
	}
	img := image.NewGray(d.Bounds())
	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			v := d.At(x, y)
			f := float64(v)
			if math.IsNaN(f) || v <= 0 || v > maxRange {
				continue
			}
			img.SetGray(x, y, color.Gray{Y: uint8(255 - math.Round(float64(v/maxRange)*254))})
		}
	}
	return img
}
