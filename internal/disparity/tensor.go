package disparity

import (
	"fmt"
	"image"

	"github.com/pablodawson/proyecto-vision/pkg/frame"
	"github.com/pablodawson/proyecto-vision/pkg/io/video"
)

// ColorOrder selects the channel order of image tensors.
type ColorOrder string

const (
	RGB ColorOrder = "RGB"
	BGR ColorOrder = "BGR"
)

// ParseColorOrder accepts RGB or BGR.
func ParseColorOrder(s string) (ColorOrder, error) {
	switch ColorOrder(s) {
	case RGB, BGR:
		return ColorOrder(s), nil
	}
	return "", fmt.Errorf("unknown color order %q, want RGB or BGR", s)
}

// Tensor is a dense float32 array in NCHW layout.
type Tensor struct {
	Shape [4]int64
	Data  []float32
}

// NewTensor allocates a zeroed n x c x h x w tensor.
func NewTensor(n, c, h, w int) Tensor {
	return Tensor{
		Shape: [4]int64{int64(n), int64(c), int64(h), int64(w)},
		Data:  make([]float32, n*c*h*w),
	}
}

func (t Tensor) dims() (n, c, h, w int) {
	return int(t.Shape[0]), int(t.Shape[1]), int(t.Shape[2]), int(t.Shape[3])
}

// Validate checks that Data fills Shape.
func (t Tensor) Validate() error {
	n, c, h, w := t.dims()
	if n*c*h*w != len(t.Data) {
		return fmt.Errorf("tensor of shape %v holds %d values", t.Shape, len(t.Data))
	}
	return nil
}

// ImageTensor lays img out as a 1 x 3 x H x W tensor of 0..255 values.
func ImageTensor(img image.Image, order ColorOrder) Tensor {
	rgba := video.ToRGBA(img)
	w, h := rgba.Rect.Dx(), rgba.Rect.Dy()
	t := NewTensor(1, 3, h, w)
	plane := w * h

	first, third := 0, 2
	if order == BGR {
		first, third = 2, 0
	}
	for y := 0; y < h; y++ {
		row := rgba.Pix[y*rgba.Stride:]
		for x := 0; x < w; x++ {
			px := row[4*x : 4*x+4]
			i := y*w + x
			t.Data[first*plane+i] = float32(px[0])
			t.Data[plane+i] = float32(px[1])
			t.Data[third*plane+i] = float32(px[2])
		}
	}
	return t
}

// DownsampleAlignCorners resizes every channel to h x w with bilinear
// interpolation, mapping the corner pixels of the source onto the corner
// pixels of the destination.
func DownsampleAlignCorners(t Tensor, h, w int) Tensor {
	n, c, sh, sw := t.dims()
	out := NewTensor(n, c, h, w)

	ratio := func(src, dst int) float64 {
		if dst <= 1 {
			return 0
		}
		return float64(src-1) / float64(dst-1)
	}
	ry, rx := ratio(sh, h), ratio(sw, w)

	for p := 0; p < n*c; p++ {
		src := t.Data[p*sh*sw : (p+1)*sh*sw]
		dst := out.Data[p*h*w : (p+1)*h*w]
		for y := 0; y < h; y++ {
			fy := float64(y) * ry
			y0 := int(fy)
			y1 := min(y0+1, sh-1)
			dy := float32(fy - float64(y0))
			for x := 0; x < w; x++ {
				fx := float64(x) * rx
				x0 := int(fx)
				x1 := min(x0+1, sw-1)
				dx := float32(fx - float64(x0))

				top := src[y0*sw+x0]*(1-dx) + src[y0*sw+x1]*dx
				bottom := src[y1*sw+x0]*(1-dx) + src[y1*sw+x1]*dx
				dst[y*w+x] = top*(1-dy) + bottom*dy
			}
		}
	}
	return out
}

// Channel extracts channel c of the first batch entry as a 2-D map.
func Channel(t Tensor, c int) (*frame.DepthMap, error) {
	_, nc, h, w := t.dims()
	if c < 0 || c >= nc {
		return nil, fmt.Errorf("channel %d out of %d", c, nc)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	m := frame.NewDepthMap(w, h)
	copy(m.Data, t.Data[c*h*w:(c+1)*h*w])
	return m, nil
}
