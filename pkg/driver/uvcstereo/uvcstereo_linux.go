package uvcstereo

// #include <linux/videodev2.h>
import "C"

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
	"time"

	"github.com/blackjack/webcam"

	"github.com/pablodawson/proyecto-vision/pkg/driver"
	"github.com/pablodawson/proyecto-vision/pkg/driver/availability"
	"github.com/pablodawson/proyecto-vision/pkg/frame"
	"github.com/pablodawson/proyecto-vision/pkg/prop"
)

const (
	maxEmptyFrameCount = 5
	frameTimeout       = 1 // seconds
)

var errEmptyFrame = errors.New("empty frame")

// classify marks device errors that no retry can fix as availability errors.
func classify(err error) error {
	switch {
	case errors.Is(err, syscall.EBUSY):
		return fmt.Errorf("%w: %v", availability.ErrBusy, err)
	case errors.Is(err, syscall.ENODEV), errors.Is(err, syscall.ENOENT), errors.Is(err, syscall.ENXIO):
		return fmt.Errorf("%w: %v", availability.ErrNoDevice, err)
	}
	return err
}

// Camera implementation using v4l2
// Reference: https://linuxtv.org/downloads/v4l-dvb-apis/uapi/v4l/videodev.html#videodev
type camera struct {
	common

	cam     *webcam.Webcam
	formats map[webcam.PixelFormat]frame.Format
	decoder frame.Decoder
	width   int
	height  int
	buf     []byte
	mutex   sync.Mutex
}

func newCamera(path string, res prop.Resolution, calibPath string) *camera {
	return &camera{
		common: common{path: path, resolution: res, calibPath: calibPath},
		formats: map[webcam.PixelFormat]frame.Format{
			webcam.PixelFormat(C.V4L2_PIX_FMT_YUYV):  frame.FormatYUYV,
			webcam.PixelFormat(C.V4L2_PIX_FMT_UYVY):  frame.FormatUYVY,
			webcam.PixelFormat(C.V4L2_PIX_FMT_MJPEG): frame.FormatMJPEG,
		},
	}
}

func (c *camera) Open() error {
	calibration, err := loadCalibration(c.calibPath, c.resolution)
	if err != nil {
		return err
	}

	cam, err := webcam.Open(c.path)
	if err != nil {
		return classify(err)
	}

	pf, format, ok := c.pickFormat(cam)
	if !ok {
		cam.Close()
		return fmt.Errorf("uvcstereo: %s offers no supported pixel format", c.path)
	}
	decoder, err := frame.NewDecoder(format)
	if err != nil {
		cam.Close()
		return err
	}

	// Both eyes share one frame twice as wide as a single sensor.
	w, h := c.resolution.Size()
	_, gotW, gotH, err := cam.SetImageFormat(pf, uint32(2*w), uint32(h))
	if err != nil {
		cam.Close()
		return err
	}
	if int(gotW) != 2*w || int(gotH) != h {
		logger.Warnf("Requested %dx%d, device settled on %dx%d", 2*w, h, gotW, gotH)
	}
	if err := cam.SetFramerate(c.resolution.FrameRate()); err != nil {
		logger.Debugf("Frame rate not applied: %v", err)
	}
	if err := cam.StartStreaming(); err != nil {
		cam.Close()
		return err
	}

	c.cam = cam
	c.decoder = decoder
	c.width, c.height = int(gotW), int(gotH)
	c.calibration = calibration
	logger.Infof("Opened %s as %s %dx%d", c.path, format, c.width, c.height)
	return nil
}

func (c *camera) pickFormat(cam *webcam.Webcam) (webcam.PixelFormat, frame.Format, bool) {
	supported := cam.GetSupportedFormats()
	for _, want := range []frame.Format{frame.FormatYUYV, frame.FormatUYVY, frame.FormatMJPEG} {
		for pf, f := range c.formats {
			if f != want {
				continue
			}
			if _, ok := supported[pf]; ok {
				return pf, f, true
			}
		}
	}
	return 0, "", false
}

func (c *camera) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.cam == nil {
		return nil
	}
	// StopStreaming frees the mmap buffers, frames were copied out already.
	c.cam.StopStreaming()
	err := c.cam.Close()
	c.cam = nil
	return err
}

func (c *camera) Grab() (*frame.Stereo, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.cam == nil {
		return nil, fmt.Errorf("uvcstereo: camera is closed")
	}

	for i := 0; i < maxEmptyFrameCount; i++ {
		err := c.cam.WaitForFrame(frameTimeout)
		switch err.(type) {
		case nil:
		case *webcam.Timeout:
			return nil, driver.ErrGrabUnavailable
		default:
			return nil, classify(err)
		}

		b, err := c.cam.ReadFrame()
		if err != nil {
			return nil, classify(err)
		}
		if len(b) == 0 {
			continue
		}
		if len(b) > len(c.buf) {
			c.buf = make([]byte, len(b))
		}
		// Copy out of the mmap buffer before the next ReadFrame reuses it.
		n := copy(c.buf, b)
		img, err := c.decoder.Decode(c.buf[:n], c.width, c.height)
		if err != nil {
			return nil, err
		}

		f, err := stereoFrame(img)
		if err != nil {
			return nil, err
		}
		f.Timestamp = time.Now()
		return f, nil
	}
	return nil, errEmptyFrame
}
