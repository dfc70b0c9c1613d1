package video

import (
	"errors"
	"image"

	"golang.org/x/image/draw"
)

var errOddWidth = errors.New("side-by-side frame must have an even width")

// SplitSideBySide cuts a stereo frame laid out as [left | right] into two
// independent RGBA images.
func SplitSideBySide(img image.Image) (left, right *image.RGBA, err error) {
	b := img.Bounds()
	if b.Dx()%2 != 0 {
		return nil, nil, errOddWidth
	}
	half := b.Dx() / 2
	rect := image.Rect(0, 0, half, b.Dy())

	left = image.NewRGBA(rect)
	right = image.NewRGBA(rect)
	draw.Draw(left, rect, img, b.Min, draw.Src)
	draw.Draw(right, rect, img, image.Pt(b.Min.X+half, b.Min.Y), draw.Src)
	return left, right, nil
}
