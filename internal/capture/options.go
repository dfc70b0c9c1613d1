package capture

import (
	"time"

	"github.com/pablodawson/proyecto-vision/internal/viewer"
	"github.com/pablodawson/proyecto-vision/pkg/wire"
)

// Recorder receives every calibration, grab and region of interest of a
// session. recording.Writer implements it.
type Recorder interface {
	Write(wire.Message) error
}

// Options tune a capture.
type Options struct {
	// Output is the dataset root.
	Output string
	// Frames is the number of frames to persist.
	Frames int
	// ROIMaskFile is a mask image applied to the session. When empty the
	// region of interest is auto-detected and saved to ROIOutput.
	ROIMaskFile string
	ROIOutput   string
	// Width and Height of every persisted image and depth map.
	Width, Height int
	// MaxConsecutiveFailures aborts the capture after that many grabs in
	// a row failed. Zero retries forever.
	MaxConsecutiveFailures int
	InitialBackoff         time.Duration
	MaxBackoff             time.Duration

	Viewer   viewer.Viewer
	Recorder Recorder
}

// DefaultOptions returns the settings of the reference capture setup.
func DefaultOptions() Options {
	return Options{
		Output:                 "dataset",
		Frames:                 300,
		ROIOutput:              "roi_mask.png",
		Width:                  1024,
		Height:                 576,
		MaxConsecutiveFailures: 1000,
		InitialBackoff:         time.Millisecond,
		MaxBackoff:             100 * time.Millisecond,
	}
}
