// Package replay publishes a session recording the way a networked stereo
// camera streams, so stream inputs can be exercised without hardware.
package replay

import (
	"context"
	"errors"
	"io"
	"syscall"
	"time"

	"github.com/pebbe/zmq4"

	"github.com/pablodawson/proyecto-vision/internal/logging"
	"github.com/pablodawson/proyecto-vision/pkg/driver/recording"
	"github.com/pablodawson/proyecto-vision/pkg/wire"
)

var logger = logging.NewLogger("proyecto-vision/replay")

var errNoCalibration = errors.New("replay: recording does not start with a calibration")

// Sender is the sending half of a socket. *zmq4.Socket implements it.
type Sender interface {
	SendBytes(data []byte, flags zmq4.Flag) (int, error)
}

type Options struct {
	// FPS paces frame messages. Zero sends as fast as the receiver reads.
	FPS float64
	// CalibrationEvery resends the calibration after that many frames so
	// receivers connecting late can open. Zero sends it once.
	CalibrationEvery int
	// Loop restarts from the first frame at the end of the recording.
	Loop bool
}

func DefaultOptions() Options {
	return Options{FPS: 15, CalibrationEvery: 30}
}

// Stats count what was published.
type Stats struct {
	Frames       int
	Calibrations int
	ROIs         int
}

// Publish sends the messages of the recording at path until its end, or
// until ctx is done when looping.
func Publish(ctx context.Context, path string, s Sender, opts Options) (Stats, error) {
	var stats Stats
	var tick <-chan time.Time
	if opts.FPS > 0 {
		t := time.NewTicker(time.Duration(float64(time.Second) / opts.FPS))
		defer t.Stop()
		tick = t.C
	}

	for {
		err := publishOnce(ctx, path, s, opts, tick, &stats)
		if err != nil || !opts.Loop {
			return stats, err
		}
		logger.Infof("Looping %s after %d frames", path, stats.Frames)
	}
}

func publishOnce(ctx context.Context, path string, s Sender, opts Options, tick <-chan time.Time, stats *Stats) error {
	r, err := recording.OpenFile(path)
	if err != nil {
		return err
	}
	defer r.Close()

	first, _, err := r.Next()
	if err != nil || first.Type != wire.TypeCalibration {
		return errNoCalibration
	}
	calibration, err := wire.Marshal(first)
	if err != nil {
		return err
	}
	if err := send(ctx, s, calibration); err != nil {
		return err
	}
	stats.Calibrations++

	sinceCalibration := 0
	for {
		m, _, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if m.Type == wire.TypeFrame {
			if tick != nil {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-tick:
				}
			}
			if opts.CalibrationEvery > 0 && sinceCalibration == opts.CalibrationEvery {
				if err := send(ctx, s, calibration); err != nil {
					return err
				}
				stats.Calibrations++
				sinceCalibration = 0
			}
		}

		payload, err := wire.Marshal(m)
		if err != nil {
			return err
		}
		if err := send(ctx, s, payload); err != nil {
			return err
		}
		switch m.Type {
		case wire.TypeFrame:
			stats.Frames++
			sinceCalibration++
		case wire.TypeROI:
			stats.ROIs++
		}
	}
}

// send retries while the socket times out waiting for a receiver.
func send(ctx context.Context, s Sender, payload []byte) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := s.SendBytes(payload, 0)
		if err == nil {
			return nil
		}
		if zmq4.AsErrno(err) != zmq4.Errno(syscall.EAGAIN) {
			return err
		}
	}
}
