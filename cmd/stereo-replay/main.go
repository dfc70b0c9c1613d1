// Command stereo-replay streams a recorded session over ZeroMQ, like a
// networked stereo camera would.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/pebbe/zmq4"

	"github.com/pablodawson/proyecto-vision/internal/logging"
	"github.com/pablodawson/proyecto-vision/internal/replay"
	"github.com/pablodawson/proyecto-vision/pkg/prop"
)

var logger = logging.NewLogger("proyecto-vision/stereo-replay")

func main() {
	os.Exit(run())
}

func run() int {
	defaults := replay.DefaultOptions()
	var (
		path             = flag.String("recording", "", "Recorded session to publish")
		bind             = flag.String("bind", fmt.Sprintf("tcp://*:%d", prop.DefaultStreamPort), "ZeroMQ endpoint to bind")
		fps              = flag.Float64("fps", defaults.FPS, "Frames per second, 0 for as fast as possible")
		calibrationEvery = flag.Int("calibration_every", defaults.CalibrationEvery, "Resend the calibration after that many frames")
		loop             = flag.Bool("loop", false, "Restart at the end of the recording")
	)
	flag.Parse()

	if *path == "" {
		logger.Error("recording is required")
		return 2
	}

	socket, err := zmq4.NewSocket(zmq4.PUSH)
	if err != nil {
		logger.Errorf("socket: %v", err)
		return 1
	}
	defer socket.Close()
	// Sends time out so that an interrupt is noticed without receivers.
	if err := socket.SetSndtimeo(500 * time.Millisecond); err != nil {
		logger.Errorf("socket: %v", err)
		return 1
	}
	if err := socket.Bind(*bind); err != nil {
		logger.Errorf("bind %s: %v", *bind, err)
		return 1
	}
	logger.Infof("Publishing %s on %s", *path, *bind)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stats, err := replay.Publish(ctx, *path, socket, replay.Options{
		FPS:              *fps,
		CalibrationEvery: *calibrationEvery,
		Loop:             *loop,
	})
	logger.Infof("Published %d frames", stats.Frames)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf("%v", err)
		return 1
	}
	return 0
}
