package frame

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

// decodeMJPEG decodes a JPEG buffer. A side-by-side sensor must deliver the
// negotiated size, otherwise the split into views would be wrong.
func decodeMJPEG(frame []byte, width, height int) (image.Image, error) {
	img, err := jpeg.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, err
	}
	if b := img.Bounds(); width > 0 && height > 0 && (b.Dx() != width || b.Dy() != height) {
		return nil, fmt.Errorf("jpeg frame is %dx%d, expected %dx%d", b.Dx(), b.Dy(), width, height)
	}
	return img, nil
}
