// Package stream receives stereo frames pushed by a remote sender over
// ZeroMQ. Messages are CBOR encoded wire messages.
package stream

import (
	"errors"
	"fmt"
	"image"
	"syscall"
	"time"

	"github.com/pebbe/zmq4"

	"github.com/pablodawson/proyecto-vision/internal/logging"
	"github.com/pablodawson/proyecto-vision/pkg/driver"
	"github.com/pablodawson/proyecto-vision/pkg/frame"
	"github.com/pablodawson/proyecto-vision/pkg/prop"
	"github.com/pablodawson/proyecto-vision/pkg/wire"
)

var logger = logging.NewLogger("proyecto-vision/driver/stream")

var (
	// ErrNoCalibration is returned by Open when the sender did not
	// announce its calibration in time.
	ErrNoCalibration = errors.New("stream: no calibration received")

	errNotReady = errors.New("stream: region of interest is not ready")
)

var (
	calibrationTimeout = 5 * time.Second
	grabTimeout        = 50 * time.Millisecond
)

func init() {
	driver.GetManager().Register(prop.InputStream, func(p prop.Init) (driver.Adapter, error) {
		return New(p.StreamHost, p.StreamPort), nil
	})
}

type receiver struct {
	endpoint string

	socket *zmq4.Socket
	poller *zmq4.Poller

	calibration prop.Calibration
	width       int
	height      int
	tracking    bool
	roi         driver.ROIDetection
	skipped     int
}

// New returns an adapter pulling frames from tcp://host:port.
func New(host string, port int) driver.Adapter {
	return &receiver{endpoint: fmt.Sprintf("tcp://%s:%d", host, port)}
}

func (r *receiver) Open() error {
	socket, err := zmq4.NewSocket(zmq4.PULL)
	if err != nil {
		return err
	}
	if err := socket.Connect(r.endpoint); err != nil {
		_ = socket.Close()
		return err
	}
	r.socket = socket
	r.poller = zmq4.NewPoller()
	r.poller.Add(socket, zmq4.POLLIN)

	logger.Infof("Waiting for calibration from %s", r.endpoint)
	deadline := time.Now().Add(calibrationTimeout)
	for {
		left := time.Until(deadline)
		if left <= 0 {
			_ = r.Close()
			return fmt.Errorf("%w from %s after %s", ErrNoCalibration, r.endpoint, calibrationTimeout)
		}

		m, ok, err := r.receive(left)
		if err != nil {
			_ = r.Close()
			return err
		}
		if !ok {
			continue
		}
		if m.Type != wire.TypeCalibration {
			r.skipped++
			continue
		}
		if err := r.setCalibration(m); err != nil {
			_ = r.Close()
			return err
		}
		if r.skipped > 0 {
			logger.Debugf("Skipped %d messages before calibration", r.skipped)
		}
		return nil
	}
}

func (r *receiver) setCalibration(m wire.Message) error {
	c, err := m.Calibration()
	if err != nil {
		return err
	}
	r.calibration = c
	r.width, r.height = m.Width, m.Height
	logger.Infof("Sender calibration %dx%d, %s", m.Width, m.Height, c)
	return nil
}

// receive waits up to timeout for one message. ok is false when nothing
// arrived or the message could not be decoded.
func (r *receiver) receive(timeout time.Duration) (m wire.Message, ok bool, err error) {
	polled, err := r.poller.Poll(timeout)
	if err != nil {
		return m, false, err
	}
	if len(polled) == 0 {
		return m, false, nil
	}

	payload, err := r.socket.RecvBytes(zmq4.DONTWAIT)
	if err != nil {
		if zmq4.AsErrno(err) == zmq4.Errno(syscall.EAGAIN) {
			return m, false, nil
		}
		return m, false, err
	}
	m, err = wire.Unmarshal(payload)
	if err != nil {
		logger.Warnf("Dropping undecodable message: %v", err)
		return m, false, nil
	}
	return m, true, nil
}

func (r *receiver) Close() error {
	if r.socket == nil {
		return nil
	}
	err := r.socket.Close()
	r.socket = nil
	r.poller = nil
	return err
}

func (r *receiver) Info() driver.Info {
	return driver.Info{Label: r.endpoint, DeviceType: driver.Stream}
}

func (r *receiver) Calibration() (prop.Calibration, error) {
	return r.calibration, nil
}

func (r *receiver) EnableTracking(prop.Tracking) error {
	r.tracking = true
	return nil
}

func (r *receiver) StartRegionOfInterestAutoDetection() error {
	r.roi.Start()
	return nil
}

func (r *receiver) RegionOfInterestState() frame.ROIState {
	return r.roi.State()
}

func (r *receiver) RegionOfInterest() (*image.Gray, error) {
	mask := r.roi.Mask()
	if mask == nil {
		return nil, errNotReady
	}
	return mask, nil
}

// Grab waits briefly for the next frame. It returns
// driver.ErrGrabUnavailable when the sender has nothing ready.
func (r *receiver) Grab() (*frame.Stereo, error) {
	if r.socket == nil {
		return nil, fmt.Errorf("stream: receiver is closed")
	}

	deadline := time.Now().Add(grabTimeout)
	for {
		left := time.Until(deadline)
		if left <= 0 {
			return nil, driver.ErrGrabUnavailable
		}

		m, ok, err := r.receive(left)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		switch m.Type {
		case wire.TypeFrame:
			f, err := m.Stereo()
			if err != nil {
				return nil, err
			}
			if !r.tracking {
				f.Pose = frame.Identity()
				f.Tracking = frame.TrackingOff
			}
			return f, nil
		case wire.TypeROI:
			mask, err := m.ROIMask()
			if err != nil {
				logger.Warnf("Dropping unreadable region of interest: %v", err)
				continue
			}
			r.roi.Offer(mask)
		case wire.TypeCalibration:
			if err := r.setCalibration(m); err != nil {
				logger.Warnf("Ignoring calibration update: %v", err)
			}
		default:
			logger.Debugf("Ignoring %q message", m.Type)
		}
	}
}
