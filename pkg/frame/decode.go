package frame

import (
	"fmt"
)

// NewDecoder returns a decoder turning raw camera buffers of format f into
// images. Depth formats are decoded with DecodeDepth instead.
func NewDecoder(f Format) (Decoder, error) {
	var decode decoderFunc

	switch f {
	case FormatYUY2:
		decode = decodeYUY2
	case FormatUYVY:
		decode = decodeUYVY
	case FormatMJPEG:
		decode = decodeMJPEG
	default:
		return nil, fmt.Errorf("%s is not supported", f)
	}

	return decode, nil
}
