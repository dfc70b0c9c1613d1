package disparity

import (
	"image"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/floats"

	"github.com/pablodawson/proyecto-vision/pkg/frame"
)

// Normalize stretches d linearly onto 0..255. A flat map becomes black.
func Normalize(d *frame.DepthMap) *image.Gray {
	out := image.NewGray(d.Bounds())
	if len(d.Data) == 0 {
		return out
	}

	v := make([]float64, len(d.Data))
	for i, f := range d.Data {
		v[i] = float64(f)
	}
	lo, hi := floats.Min(v), floats.Max(v)
	if hi-lo == 0 {
		return out
	}
	floats.AddConst(-lo, v)
	floats.Scale(255/(hi-lo), v)

	for i, f := range v {
		// Truncation, like a float to uint8 cast.
		out.Pix[(i/d.Width)*out.Stride+i%d.Width] = uint8(f)
	}
	return out
}

// colorize applies the INFERNO colormap. The returned Mat is BGR and must
// be closed by the caller.
func colorize(gray *image.Gray) (gocv.Mat, error) {
	src, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	gocv.ApplyColorMap(src, &dst, gocv.ColormapInferno)
	return dst, nil
}

// Inferno renders gray with the INFERNO colormap.
func Inferno(gray *image.Gray) (image.Image, error) {
	m, err := colorize(gray)
	if err != nil {
		return nil, err
	}
	defer m.Close()
	return m.ToImage()
}
