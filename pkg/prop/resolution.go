package prop

import "strings"

// Resolution is a sensor mode of the stereo camera. Sizes are per eye.
type Resolution string

const (
	HD2K   Resolution = "HD2K"
	HD1200 Resolution = "HD1200"
	HD1080 Resolution = "HD1080"
	HD720  Resolution = "HD720"
	SVGA   Resolution = "SVGA"
	VGA    Resolution = "VGA"
)

// Resolutions lists every supported mode, largest first.
var Resolutions = []Resolution{HD2K, HD1200, HD1080, HD720, SVGA, VGA}

type mode struct {
	width, height int
	fps           float32
}

var modes = map[Resolution]mode{
	HD2K:   {2208, 1242, 15},
	HD1200: {1920, 1200, 30},
	HD1080: {1920, 1080, 30},
	HD720:  {1280, 720, 30},
	SVGA:   {960, 600, 60},
	VGA:    {672, 376, 60},
}

// ParseResolution matches s against the supported modes, ignoring case and
// surrounding blanks. Anything else yields HD720 and false.
func ParseResolution(s string) (Resolution, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, r := range Resolutions {
		if string(r) == s {
			return r, true
		}
	}
	return HD720, false
}

// Size returns the width and height of one eye.
func (r Resolution) Size() (width, height int) {
	m, ok := modes[r]
	if !ok {
		m = modes[HD720]
	}
	return m.width, m.height
}

// FrameRate returns the nominal frame rate of the mode.
func (r Resolution) FrameRate() float32 {
	m, ok := modes[r]
	if !ok {
		m = modes[HD720]
	}
	return m.fps
}

func (r Resolution) String() string {
	return string(r)
}
