// Package stereotest provides a dummy stereo source for testing.
package stereotest

import (
	"errors"
	"image"
	"image/color"
	"io"
	"sync"
	"time"

	"github.com/pablodawson/proyecto-vision/pkg/driver"
	"github.com/pablodawson/proyecto-vision/pkg/frame"
	"github.com/pablodawson/proyecto-vision/pkg/prop"
)

// ErrInjected is returned by Grab for the frames listed in Config.Fail.
var ErrInjected = errors.New("stereotest: injected grab failure")

// Config controls what the dummy source produces.
type Config struct {
	Width, Height int
	// Frames is the number of frames before Grab returns io.EOF. Zero
	// means endless.
	Frames int
	// Depth is the distance of the synthetic plane, in meters.
	Depth float32
	// Step is the translation along X between two frames, in meters.
	Step float64
	// Fail tells whether the n-th call to Grab (counting from zero) fails
	// with ErrInjected.
	Fail func(call int) bool
	// FailErr replaces ErrInjected for failing calls when set.
	FailErr error
	// ROIAfter makes the region of interest READY after this many
	// successful grabs once auto-detection started. Zero keeps it RUNNING.
	ROIAfter int
	// TrackingErr is returned by EnableTracking.
	TrackingErr error
	// Tracking gives the tracking state of the n-th frame once tracking is
	// enabled. Nil means always OK.
	Tracking func(n int) frame.TrackingState
}

// DefaultConfig is a small endless source.
func DefaultConfig() Config {
	return Config{Width: 64, Height: 36, Depth: 2, Step: 0.1}
}

type dummy struct {
	cfg Config

	mu       sync.Mutex
	calls    int
	grabbed  int
	tracking bool
	roi      driver.ROIDetection
	roiFrom  int
	base     time.Time
}

// New returns a synthetic adapter.
func New(cfg Config) driver.Adapter {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		d := DefaultConfig()
		cfg.Width, cfg.Height = d.Width, d.Height
	}
	return &dummy{cfg: cfg}
}

func (d *dummy) Open() error {
	d.base = time.Unix(1700000000, 0)
	return nil
}

func (d *dummy) Close() error {
	return nil
}

func (d *dummy) Info() driver.Info {
	return driver.Info{Label: "StereoTest", DeviceType: driver.Synthetic}
}

func (d *dummy) Calibration() (prop.Calibration, error) {
	return prop.Calibration{
		FocalLeftX:     float64(d.cfg.Width),
		FocalLeftY:     float64(d.cfg.Width),
		PrincipalLeftX: float64(d.cfg.Width) / 2,
		PrincipalLeftY: float64(d.cfg.Height) / 2,
		Baseline:       0.12,
	}, nil
}

func (d *dummy) EnableTracking(prop.Tracking) error {
	if d.cfg.TrackingErr != nil {
		return d.cfg.TrackingErr
	}
	d.mu.Lock()
	d.tracking = true
	d.mu.Unlock()
	return nil
}

func (d *dummy) StartRegionOfInterestAutoDetection() error {
	d.mu.Lock()
	d.roiFrom = d.grabbed
	d.mu.Unlock()
	d.roi.Start()
	return nil
}

func (d *dummy) RegionOfInterestState() frame.ROIState {
	return d.roi.State()
}

func (d *dummy) RegionOfInterest() (*image.Gray, error) {
	mask := d.roi.Mask()
	if mask == nil {
		return nil, errors.New("stereotest: region of interest is not ready")
	}
	return mask, nil
}

func (d *dummy) Grab() (*frame.Stereo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	call := d.calls
	d.calls++
	if d.cfg.Frames > 0 && d.grabbed >= d.cfg.Frames {
		return nil, io.EOF
	}
	if d.cfg.Fail != nil && d.cfg.Fail(call) {
		if d.cfg.FailErr != nil {
			return nil, d.cfg.FailErr
		}
		return nil, ErrInjected
	}

	n := d.grabbed
	d.grabbed++

	w, h := d.cfg.Width, d.cfg.Height
	left := gradient(w, h, n)
	right := gradient(w, h, n+4)

	depth := frame.NewDepthMap(w, h)
	for i := range depth.Data {
		depth.Data[i] = d.cfg.Depth
	}

	f := &frame.Stereo{
		Timestamp: d.base.Add(time.Duration(n) * time.Second / 30),
		Left:      left,
		Right:     right,
		DepthView: frame.DepthView(depth, frame.DefaultDepthViewRange),
		Depth:     depth,
		Pose:      frame.Identity(),
		Tracking:  frame.TrackingOff,
	}
	if d.tracking {
		f.Pose[3] = float64(n) * d.cfg.Step
		f.Tracking = frame.TrackingOK
		if d.cfg.Tracking != nil {
			f.Tracking = d.cfg.Tracking(n)
		}
	}

	if d.cfg.ROIAfter > 0 && d.roi.State() == frame.ROIRunning && d.grabbed-d.roiFrom >= d.cfg.ROIAfter {
		d.roi.Offer(centerMask(w, h))
	}
	return f, nil
}

// gradient draws a horizontal ramp shifted by offset pixels.
func gradient(w, h, offset int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x + offset) * 255 / (w + 8))
			img.SetRGBA(x, y, color.RGBA{R: v, G: uint8(y * 255 / h), B: 255 - v, A: 255})
		}
	}
	return img
}

// centerMask keeps the central half of the picture.
func centerMask(w, h int) *image.Gray {
	mask := image.NewGray(image.Rect(0, 0, w, h))
	for y := h / 4; y < h*3/4; y++ {
		for x := w / 4; x < w*3/4; x++ {
			mask.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return mask
}
