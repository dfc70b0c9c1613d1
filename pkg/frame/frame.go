package frame

import "image"

// Decoder turns a raw sensor buffer of the given size into an image.
type Decoder interface {
	Decode(frame []byte, width, height int) (image.Image, error)
}

type decoderFunc func(frame []byte, width, height int) (image.Image, error)

func (f decoderFunc) Decode(frame []byte, width, height int) (image.Image, error) {
	return f(frame, width, height)
}
