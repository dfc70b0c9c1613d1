package frame

type Format string

const (
	// YUV Formats

	// FormatYUY2 https://www.fourcc.org/pixel-format/yuv-yuy2/
	FormatYUY2 Format = "YUY2"
	// FormatUYVY https://www.fourcc.org/pixel-format/yuv-uyvy/
	FormatUYVY Format = "UYVY"

	// Compressed Formats

	// FormatMJPEG https://www.fourcc.org/mjpg/
	FormatMJPEG Format = "MJPEG"

	// Depth Formats

	// FormatZ16 https://www.kernel.org/doc/html/latest/userspace-api/media/v4l/pixfmt-z16.html
	FormatZ16 Format = "Z16"
	// FormatF32 is a little-endian float32 depth map in meters
	FormatF32 Format = "F32"
)

// YUV aliases

// FormatYUYV is an alias of FormatYUY2
const FormatYUYV = FormatYUY2
