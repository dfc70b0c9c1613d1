package video

import (
	"errors"
	"image"

	"golang.org/x/image/draw"
)

// Scaler represents scaling algorithm
type Scaler draw.Scaler

// List of scaling algorithms
var (
	ScalerNearestNeighbor = Scaler(draw.NearestNeighbor)
	ScalerApproxBiLinear  = Scaler(draw.ApproxBiLinear)
	ScalerBiLinear        = Scaler(draw.BiLinear)
	ScalerCatmullRom      = Scaler(draw.CatmullRom)
)

var errInvalidSize = errors.New("scaling: width and height must be positive")

// Resize scales img to width x height. Grayscale sources stay grayscale,
// everything else comes out as RGBA. Setting scaler=nil uses
// ScalerBiLinear.
func Resize(img image.Image, width, height int, scaler Scaler) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, errInvalidSize
	}
	if scaler == nil {
		scaler = ScalerBiLinear
	}

	rect := image.Rect(0, 0, width, height)
	var dst draw.Image
	switch img.(type) {
	case *image.Gray:
		dst = image.NewGray(rect)
	default:
		dst = image.NewRGBA(rect)
	}

	if img.Bounds().Dx() == width && img.Bounds().Dy() == height {
		draw.Draw(dst, rect, img, img.Bounds().Min, draw.Src)
		return dst, nil
	}

	scaler.Scale(dst, rect, img, img.Bounds(), draw.Src, nil)
	return dst, nil
}

// Scale returns video scaling transform.
// Setting scaler=nil to use default scaler. (ScalerBiLinear)
func Scale(width, height int, scaler Scaler) TransformFunc {
	return func(r Reader) Reader {
		return ReaderFunc(func() (image.Image, error) {
			img, err := r.Read()
			if err != nil {
				return nil, err
			}
			return Resize(img, width, height, scaler)
		})
	}
}
