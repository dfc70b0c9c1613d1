package prop

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConflictingInputs is returned when a recording and a stream address are
// both requested. Only one input source can drive a session.
var ErrConflictingInputs = errors.New("specify only a recording file or an ip address, or none to use the wired camera, not both")

// InputType selects where a session pulls its frames from.
type InputType string

const (
	// InputLive reads a camera plugged into this host.
	InputLive InputType = "live"
	// InputStream receives frames sent by a remote host.
	InputStream InputType = "stream"
	// InputRecording replays a previously recorded session file.
	InputRecording InputType = "recording"
)

// Unit of the depth measure.
type Unit string

const UnitMeter Unit = "meter"

// CoordinateSystem of the poses reported by the camera.
type CoordinateSystem string

const RightHandedYUp CoordinateSystem = "RIGHT_HANDED_Y_UP"

// Init holds everything needed to open a camera session.
type Init struct {
	Resolution       Resolution
	Input            InputType
	RecordingPath    string
	StreamHost       string
	StreamPort       int
	Device           string
	CalibrationPath  string
	DepthUnit        Unit
	CoordinateSystem CoordinateSystem
}

// DefaultInit returns the parameters of a wired camera in HD720.
func DefaultInit() Init {
	return Init{
		Resolution:       HD720,
		Input:            InputLive,
		DepthUnit:        UnitMeter,
		CoordinateSystem: RightHandedYUp,
	}
}

// NewInit builds session parameters from the command line values. It fails
// before touching any device when both a recording and an address are given.
func NewInit(recordingPath, ipAddress, resolution string) (Init, error) {
	p := DefaultInit()

	if recordingPath != "" && ipAddress != "" {
		return p, ErrConflictingInputs
	}

	switch {
	case recordingPath != "":
		p.Input = InputRecording
		p.RecordingPath = recordingPath
		logger.Infof("Using recorded session input: %s", recordingPath)
	case ipAddress != "":
		host, port, err := ParseStreamAddress(ipAddress)
		if err != nil {
			logger.Warnf("Invalid IP format %q (%v). Using live stream", ipAddress, err)
			break
		}
		p.Input = InputStream
		p.StreamHost = host
		p.StreamPort = port
		logger.Infof("Using stream input, IP: %s:%d", host, port)
	}

	res, ok := ParseResolution(resolution)
	switch {
	case ok:
		logger.Infof("Using camera in resolution %s", res)
	case strings.TrimSpace(resolution) != "":
		logger.Infof("No valid resolution entered. Using default")
	default:
		logger.Infof("Using default resolution")
	}
	p.Resolution = res

	return p, nil
}

// Tracking configures positional tracking.
type Tracking struct {
	EnableIMUFusion bool
	Mode            string
}

// TrackingModeGen1 is the first generation visual-inertial tracker.
const TrackingModeGen1 = "GEN_1"

// DefaultTracking enables IMU fusion with the GEN_1 tracker.
func DefaultTracking() Tracking {
	return Tracking{
		EnableIMUFusion: true,
		Mode:            TrackingModeGen1,
	}
}

// Calibration is the left camera intrinsics plus the stereo baseline, as
// persisted next to a dataset.
type Calibration struct {
	FocalLeftX     float64 `json:"focal_left_x"`
	FocalLeftY     float64 `json:"focal_left_y"`
	PrincipalLeftX float64 `json:"principal_left_x"`
	PrincipalLeftY float64 `json:"principal_left_y"`
	Baseline       float64 `json:"baseline"`
}

// NominalCalibration approximates intrinsics for a sensor of the given
// resolution when the device does not report any.
func NominalCalibration(res Resolution) Calibration {
	w, h := res.Size()
	return Calibration{
		FocalLeftX:     float64(w),
		FocalLeftY:     float64(w),
		PrincipalLeftX: float64(w) / 2,
		PrincipalLeftY: float64(h) / 2,
		Baseline:       nominalBaseline,
	}
}

const nominalBaseline = 0.12

func (c Calibration) String() string {
	return fmt.Sprintf("fx=%.2f fy=%.2f cx=%.2f cy=%.2f baseline=%.4f",
		c.FocalLeftX, c.FocalLeftY, c.PrincipalLeftX, c.PrincipalLeftY, c.Baseline)
}
