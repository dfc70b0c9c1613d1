package frame

// Number of bytes a frame occupies in each fixed-size format. UYVY and
// YUY2 share frameSizeYUY2.

func frameSizeYUY2(width, height int) uint {
	return uint(2 * width * height)
}

func frameSizeZ16(width, height int) uint {
	return uint(2 * width * height)
}

func frameSizeF32(width, height int) uint {
	return uint(4 * width * height)
}
