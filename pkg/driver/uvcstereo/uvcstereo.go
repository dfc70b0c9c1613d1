/*
Package uvcstereo reads a stereo camera plugged in over USB as a plain UVC
device. The camera streams both eyes side by side in a single frame, left
eye first.

Without the vendor SDK there is no onboard depth nor positional tracking:
grabs carry an empty depth measure, the identity pose and the UNAVAILABLE
tracking state.
*/
package uvcstereo

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"

	"github.com/pablodawson/proyecto-vision/internal/logging"
	"github.com/pablodawson/proyecto-vision/pkg/driver"
	"github.com/pablodawson/proyecto-vision/pkg/driver/availability"
	"github.com/pablodawson/proyecto-vision/pkg/frame"
	"github.com/pablodawson/proyecto-vision/pkg/io/video"
	"github.com/pablodawson/proyecto-vision/pkg/prop"
)

var logger = logging.NewLogger("proyecto-vision/driver/uvcstereo")

// Device nodes are looked up in this order when none is configured.
var searchPatterns = []string{
	"/dev/v4l/by-id/*video-index0",
	"/dev/video*",
}

func init() {
	driver.GetManager().Register(prop.InputLive, func(p prop.Init) (driver.Adapter, error) {
		path := p.Device
		if path == "" {
			devices := discover(searchPatterns...)
			if len(devices) == 0 {
				return nil, fmt.Errorf("uvcstereo: %w", availability.ErrNoDevice)
			}
			path = devices[0]
		}
		return newCamera(path, p.Resolution, p.CalibrationPath), nil
	})
}

// discover lists the device nodes matching patterns, deduplicated by the
// node they resolve to.
func discover(patterns ...string) []string {
	var devices []string
	seen := make(map[string]struct{})
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}
		sort.Strings(matches)
		for _, m := range matches {
			real, err := filepath.EvalSymlinks(m)
			if err != nil {
				real = m
			}
			if _, ok := seen[real]; ok {
				continue
			}
			seen[real] = struct{}{}
			devices = append(devices, m)
		}
	}
	return devices
}

// loadCalibration reads a calibration JSON file, the same document a
// capture writes as intrinsics.json. An empty path yields the nominal model.
func loadCalibration(path string, res prop.Resolution) (prop.Calibration, error) {
	if path == "" {
		return prop.NominalCalibration(res), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return prop.Calibration{}, err
	}
	var c prop.Calibration
	if err := json.Unmarshal(b, &c); err != nil {
		return prop.Calibration{}, fmt.Errorf("uvcstereo: calibration %s: %w", path, err)
	}
	if c.FocalLeftX <= 0 || c.FocalLeftY <= 0 {
		return prop.Calibration{}, fmt.Errorf("uvcstereo: calibration %s: focal lengths must be positive", path)
	}
	return c, nil
}

// stereoFrame turns one side-by-side image into a grab.
func stereoFrame(img image.Image) (*frame.Stereo, error) {
	left, right, err := video.SplitSideBySide(img)
	if err != nil {
		return nil, err
	}
	b := left.Bounds()
	depth := frame.NewDepthMap(b.Dx(), b.Dy())
	return &frame.Stereo{
		Left:      left,
		Right:     right,
		Depth:     depth,
		DepthView: frame.DepthView(depth, frame.DefaultDepthViewRange),
		Pose:      frame.Identity(),
		Tracking:  frame.TrackingUnavailable,
	}, nil
}

// common holds what does not depend on the platform.
type common struct {
	path        string
	resolution  prop.Resolution
	calibPath   string
	calibration prop.Calibration
}

func (c *common) Info() driver.Info {
	return driver.Info{Label: c.path, DeviceType: driver.Camera}
}

func (c *common) Calibration() (prop.Calibration, error) {
	return c.calibration, nil
}

func (c *common) EnableTracking(prop.Tracking) error {
	logger.Warn("Positional tracking is not available on a UVC camera, poses stay at the origin")
	return nil
}

func (c *common) StartRegionOfInterestAutoDetection() error {
	return availability.ErrUnimplemented
}

func (c *common) RegionOfInterestState() frame.ROIState {
	return frame.ROINotEnabled
}

func (c *common) RegionOfInterest() (*image.Gray, error) {
	return nil, availability.ErrUnimplemented
}
