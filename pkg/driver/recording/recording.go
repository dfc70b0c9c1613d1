// Package recording replays sessions previously written with Writer, the
// way a camera SDK replays its own recording files.
package recording

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/pablodawson/proyecto-vision/internal/logging"
	"github.com/pablodawson/proyecto-vision/pkg/driver"
	"github.com/pablodawson/proyecto-vision/pkg/frame"
	"github.com/pablodawson/proyecto-vision/pkg/prop"
	"github.com/pablodawson/proyecto-vision/pkg/wire"
)

var logger = logging.NewLogger("proyecto-vision/driver/recording")

var errNoCalibration = errors.New("recording: first record is not a calibration message")

func init() {
	driver.GetManager().Register(prop.InputRecording, func(p prop.Init) (driver.Adapter, error) {
		return New(p.RecordingPath), nil
	})
}

type session struct {
	path        string
	reader      *Reader
	calibration prop.Calibration
	tracking    bool
	roi         driver.ROIDetection
}

// New returns an adapter replaying the recording at path.
func New(path string) driver.Adapter {
	return &session{path: path}
}

func (s *session) Open() error {
	r, err := OpenFile(s.path)
	if err != nil {
		return err
	}

	m, _, err := r.Next()
	if err != nil {
		_ = r.Close()
		return fmt.Errorf("%w: %v", errNoCalibration, err)
	}
	c, err := m.Calibration()
	if err != nil {
		_ = r.Close()
		return fmt.Errorf("%w: %v", errNoCalibration, err)
	}

	s.reader = r
	s.calibration = c
	logger.Infof("Replaying %s (%dx%d, %s)", s.path, m.Width, m.Height, c)
	return nil
}

func (s *session) Close() error {
	if s.reader == nil {
		return nil
	}
	err := s.reader.Close()
	s.reader = nil
	return err
}

func (s *session) Info() driver.Info {
	return driver.Info{Label: s.path, DeviceType: driver.Recording}
}

func (s *session) Calibration() (prop.Calibration, error) {
	return s.calibration, nil
}

func (s *session) EnableTracking(prop.Tracking) error {
	s.tracking = true
	return nil
}

func (s *session) StartRegionOfInterestAutoDetection() error {
	s.roi.Start()
	return nil
}

func (s *session) RegionOfInterestState() frame.ROIState {
	return s.roi.State()
}

func (s *session) RegionOfInterest() (*image.Gray, error) {
	mask := s.roi.Mask()
	if mask == nil {
		return nil, errors.New("recording: region of interest is not ready")
	}
	return mask, nil
}

// Grab returns the next recorded frame. roi records are consumed on the
// way. io.EOF marks the end of the recording.
func (s *session) Grab() (*frame.Stereo, error) {
	if s.reader == nil {
		return nil, io.ErrClosedPipe
	}

	for {
		m, _, err := s.reader.Next()
		if err != nil {
			return nil, err
		}

		switch m.Type {
		case wire.TypeROI:
			mask, err := m.ROIMask()
			if err != nil {
				logger.Warnf("Skipping unreadable region of interest: %v", err)
				continue
			}
			s.roi.Offer(mask)
		case wire.TypeFrame:
			f, err := m.Stereo()
			if err != nil {
				return nil, err
			}
			if !s.tracking {
				f.Pose = frame.Identity()
				f.Tracking = frame.TrackingOff
			}
			return f, nil
		default:
			logger.Debugf("Skipping %s record", m.Type)
		}
	}
}
