// Command dataset-creator captures a stereo dataset from a wired camera,
// a network stream or a recorded session.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/pablodawson/proyecto-vision/internal/capture"
	"github.com/pablodawson/proyecto-vision/internal/logging"
	"github.com/pablodawson/proyecto-vision/internal/viewer"
	"github.com/pablodawson/proyecto-vision/pkg/driver/recording"
	_ "github.com/pablodawson/proyecto-vision/pkg/driver/stream"    // This is required to register the stream source
	_ "github.com/pablodawson/proyecto-vision/pkg/driver/uvcstereo" // This is required to register the wired camera
	"github.com/pablodawson/proyecto-vision/pkg/prop"
)

var logger = logging.NewLogger("proyecto-vision/dataset-creator")

func main() {
	os.Exit(run())
}

func run() int {
	defaults := capture.DefaultOptions()
	var (
		svoFile        = flag.String("input_svo_file", "", "Path to a recorded session file, if you want to replay it")
		ipAddress      = flag.String("ip_address", "", "IP Adress, in format a.b.c.d:port or a.b.c.d, if you have a streaming setup")
		resolution     = flag.String("resolution", "", "Resolution, can be either HD2K, HD1200, HD1080, HD720, SVGA or VGA")
		roiMaskFile    = flag.String("roi_mask_file", "", "Path to a Region of Interest mask file")
		outputDir      = flag.String("output_dir", defaults.Output, "Dataset output directory")
		frames         = flag.Int("frames", defaults.Frames, "Number of frames to save; failed grabs do not count toward it")
		roiOutput      = flag.String("roi_output", defaults.ROIOutput, "Where to save the auto-detected Region of Interest")
		recordFile     = flag.String("record_file", "", "Also record the session to this file")
		viewerAddr     = flag.String("viewer_addr", "", "Serve the pose over websocket on this address, e.g. :8090")
		uvcDevice      = flag.String("uvc_device", "", "V4L2 device of the wired camera, auto-detected when empty")
		uvcCalibration = flag.String("uvc_calibration", "", "Calibration JSON of the wired camera")
		maxFailures    = flag.Int("max_grab_failures", defaults.MaxConsecutiveFailures, "Consecutive grab failures before giving up, 0 retries forever")
	)
	flag.Parse()

	p, err := prop.NewInit(*svoFile, *ipAddress, *resolution)
	if errors.Is(err, prop.ErrConflictingInputs) {
		logger.Errorf("%v. Exit program", err)
		return 2
	}
	if err := recording.CheckOutput(*recordFile, p.RecordingPath); err != nil {
		logger.Errorf("%v: --record_file must differ from --input_svo_file. Exit program", err)
		return 2
	}
	p.Device = *uvcDevice
	p.CalibrationPath = *uvcCalibration

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := defaults
	opts.Output = *outputDir
	opts.Frames = *frames
	opts.ROIMaskFile = *roiMaskFile
	opts.ROIOutput = *roiOutput
	opts.MaxConsecutiveFailures = *maxFailures

	v := viewer.Viewer(viewer.NewConsole(ctx, 30))
	if *viewerAddr != "" {
		feed, err := viewer.NewFeed(ctx, *viewerAddr)
		if err != nil {
			logger.Errorf("Pose feed disabled: %v", err)
		} else {
			v = viewer.Multi(v, feed)
		}
	}
	opts.Viewer = v

	if *recordFile != "" {
		w, err := recording.Create(*recordFile)
		if err != nil {
			logger.Errorf("Recording disabled: %v", err)
		} else {
			defer func() {
				if err := w.Close(); err != nil {
					logger.Errorf("Recording not finalized: %v", err)
				}
			}()
			opts.Recorder = w
		}
	}

	stats, err := capture.Run(ctx, p, opts)
	switch {
	case errors.Is(err, capture.ErrOpen):
		logger.Errorf("Camera Open %v. Exit program.", err)
		return 1
	case errors.Is(err, capture.ErrTracking):
		logger.Errorf("Enable Positional Tracking: %v. Exit program.", err)
		return 1
	case err != nil:
		logger.Errorf("Capture aborted after %d frames: %v", stats.Frames, err)
		return 1
	}
	return 0
}
