package driver

import (
	"errors"
	"image"

	"github.com/pablodawson/proyecto-vision/pkg/frame"
	"github.com/pablodawson/proyecto-vision/pkg/prop"
)

// ErrGrabUnavailable tells the caller that no synchronized sample is ready
// yet. It is transient: the next Grab may succeed.
var ErrGrabUnavailable = errors.New("grab: no frame available")

type OpenCloser interface {
	Open() error
	Close() error
}

type Infoer interface {
	Info() Info
}

type Info struct {
	Label      string
	DeviceType DeviceType
}

// StereoCapable is what a stereo camera session offers once opened.
type StereoCapable interface {
	// Calibration returns the intrinsics of the left sensor and the baseline.
	Calibration() (prop.Calibration, error)
	EnableTracking(prop.Tracking) error
	StartRegionOfInterestAutoDetection() error
	RegionOfInterestState() frame.ROIState
	// RegionOfInterest returns the auto-detected mask once the state is
	// frame.ROIReady.
	RegionOfInterest() (*image.Gray, error)
	// Grab pulls one synchronized sample. It returns ErrGrabUnavailable
	// when nothing is ready and io.EOF when the source is exhausted.
	Grab() (*frame.Stereo, error)
}

// Adapter is implemented by every source. The Manager wraps adapters into
// drivers that validate call order.
type Adapter interface {
	OpenCloser
	Infoer
	StereoCapable
}

type Driver interface {
	Adapter
	ID() string
	Status() State
	// SetRegionOfInterest excludes the zones where mask is zero from the
	// depth measure of every following grab.
	SetRegionOfInterest(mask *image.Gray) error
}
