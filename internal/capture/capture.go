// Package capture records a stereo dataset from a camera session: images,
// depth, poses and intrinsics.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/pablodawson/proyecto-vision/internal/logging"
	"github.com/pablodawson/proyecto-vision/internal/viewer"
	"github.com/pablodawson/proyecto-vision/pkg/dataset"
	"github.com/pablodawson/proyecto-vision/pkg/driver"
	"github.com/pablodawson/proyecto-vision/pkg/driver/availability"
	"github.com/pablodawson/proyecto-vision/pkg/frame"
	"github.com/pablodawson/proyecto-vision/pkg/io/video"
	"github.com/pablodawson/proyecto-vision/pkg/prop"
	"github.com/pablodawson/proyecto-vision/pkg/wire"
)

var logger = logging.NewLogger("proyecto-vision/capture")

var (
	// ErrOpen wraps the failure to open the camera session.
	ErrOpen = errors.New("camera open")
	// ErrTracking wraps the failure to enable positional tracking.
	ErrTracking = errors.New("enable positional tracking")
)

// GrabFailureError aborts a capture once too many grabs in a row failed.
type GrabFailureError struct {
	Consecutive int
	Last        error
}

func (e *GrabFailureError) Error() string {
	return fmt.Sprintf("%d consecutive grab failures, last: %v", e.Consecutive, e.Last)
}

func (e *GrabFailureError) Unwrap() error {
	return e.Last
}

// Stats summarize a capture.
type Stats struct {
	// Frames is the number of frames persisted, also the length of
	// poses.json.
	Frames int
	// GrabFailures counts every failed grab.
	GrabFailures int
	// MaxConsecutiveFailures is the longest run of failed grabs.
	MaxConsecutiveFailures int
	// EndOfInput is set when the source ran out of frames.
	EndOfInput bool
	// ROISaved is set when an auto-detected mask was written.
	ROISaved bool
	// FrameRate is the persist rate over the last rateWindow.
	FrameRate float64
}

const (
	rateWindow   = 5 * time.Second
	rateLogEvery = 30
)

// Run opens the session described by p and captures into opts.Output.
func Run(ctx context.Context, p prop.Init, opts Options) (Stats, error) {
	d, err := driver.GetManager().Open(p)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	return Capture(ctx, d, opts)
}

// Capture runs the capture loop on an opened driver and closes it when
// done.
func Capture(ctx context.Context, d driver.Driver, opts Options) (stats Stats, err error) {
	defer d.Close()

	layout := dataset.New(opts.Output)
	if err := layout.MakeCaptureDirs(); err != nil {
		return stats, err
	}

	if opts.ROIMaskFile != "" {
		if err := loadRegionOfInterest(d, opts.ROIMaskFile); err != nil {
			logger.Errorf("Error loading Region of Interest file %s. Please check the path. (%v)", opts.ROIMaskFile, err)
		}
	}

	if err := d.EnableTracking(prop.DefaultTracking()); err != nil {
		return stats, fmt.Errorf("%w: %v", ErrTracking, err)
	}

	if opts.ROIMaskFile == "" {
		if err := d.StartRegionOfInterestAutoDetection(); err != nil {
			logger.Warnf("Region Of Interest auto detection unavailable: %v", err)
		} else {
			logger.Info("Region Of Interest auto detection is running.")
		}
	}

	calibration, err := d.Calibration()
	if err != nil {
		return stats, err
	}
	if err := layout.WriteIntrinsics(calibration); err != nil {
		return stats, err
	}

	v := opts.Viewer
	if v == nil {
		v = viewer.NewConsole(ctx, 30)
	}
	defer v.Exit()

	l := &loop{
		ctx:      ctx,
		d:        d,
		opts:     opts,
		layout:   layout,
		viewer:   v,
		recorder: opts.Recorder,
		roiState: frame.ROINotEnabled,
		rate:     newRateTracker(rateWindow),
	}
	if l.recorder != nil {
		w, h := calibrationSize(calibration)
		l.record(wire.CalibrationMessage(calibration, w, h))
	}

	err = l.run()
	if perr := layout.WritePoses(l.poses); perr != nil && err == nil {
		err = perr
	}
	l.stats.Frames = len(l.poses)
	l.stats.FrameRate = l.rate.frameRate()
	logger.Infof("Captured %d frames into %s (%d grab failures)", l.stats.Frames, opts.Output, l.stats.GrabFailures)
	return l.stats, err
}

// The principal point sits at the sensor center.
func calibrationSize(c prop.Calibration) (int, int) {
	return int(2 * c.PrincipalLeftX), int(2 * c.PrincipalLeftY)
}

func loadRegionOfInterest(d driver.Driver, path string) error {
	img, err := dataset.ReadImage(path)
	if err != nil {
		return err
	}
	return d.SetRegionOfInterest(video.ToGray(img))
}

type loop struct {
	ctx      context.Context
	d        driver.Driver
	opts     Options
	layout   dataset.Layout
	viewer   viewer.Viewer
	recorder Recorder

	poses       []frame.Pose
	stats       Stats
	consecutive int
	backoff     time.Duration
	roiState    frame.ROIState
	rate        *rateTracker
	translation string
	rotation    string
}

func (l *loop) run() error {
	for len(l.poses) < l.opts.Frames {
		if l.ctx.Err() != nil || !l.viewer.IsAvailable() {
			logger.Info("Viewer closed, stopping capture")
			return nil
		}

		f, err := l.d.Grab()
		if err == io.EOF {
			logger.Info("End of input reached")
			l.stats.EndOfInput = true
			return nil
		}
		if err != nil {
			if ferr := l.failed(err); ferr != nil {
				return ferr
			}
			continue
		}
		l.consecutive = 0
		l.backoff = 0

		if err := l.persist(f); err != nil {
			return err
		}
		l.checkRegionOfInterest()
	}
	return nil
}

// failed accounts for a failed grab and waits before the next attempt.
func (l *loop) failed(err error) error {
	l.stats.GrabFailures++
	l.consecutive++
	if l.consecutive > l.stats.MaxConsecutiveFailures {
		l.stats.MaxConsecutiveFailures = l.consecutive
	}
	if limit := l.opts.MaxConsecutiveFailures; limit > 0 && l.consecutive >= limit {
		return &GrabFailureError{Consecutive: l.consecutive, Last: err}
	}
	if availability.IsError(err) {
		logger.Errorf("Camera unavailable: %v", err)
		return &GrabFailureError{Consecutive: l.consecutive, Last: err}
	}
	if !errors.Is(err, driver.ErrGrabUnavailable) {
		logger.Debugf("Grab failed (%d in a row): %v", l.consecutive, err)
	}

	switch {
	case l.backoff == 0:
		l.backoff = l.opts.InitialBackoff
	case l.backoff < l.opts.MaxBackoff:
		l.backoff *= 2
		if l.backoff > l.opts.MaxBackoff {
			l.backoff = l.opts.MaxBackoff
		}
	}
	sleep(l.ctx, l.backoff)
	return nil
}

var sleep = func(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (l *loop) persist(f *frame.Stereo) error {
	if f.Tracking == frame.TrackingOK {
		l.rotation = frame.FormatTriplet(f.Pose.RotationVector())
		l.translation = frame.FormatTriplet(f.Pose.Translation())
	}
	l.viewer.Update(f.Pose, l.translation, l.rotation, f.Tracking)

	if l.recorder != nil {
		if m, err := wire.FrameMessage(f, l.d.RegionOfInterestState()); err != nil {
			logger.Warnf("Frame not recorded: %v", err)
		} else {
			l.record(m)
		}
	}

	w, h := l.opts.Width, l.opts.Height
	left, err := video.Resize(f.Left, w, h, video.ScalerBiLinear)
	if err != nil {
		return err
	}
	right, err := video.Resize(f.Right, w, h, video.ScalerBiLinear)
	if err != nil {
		return err
	}

	depth := f.Depth
	if depth == nil {
		b := f.Left.Bounds()
		depth = frame.NewDepthMap(b.Dx(), b.Dy())
	}
	var view image.Image = f.DepthView
	if view == nil {
		view = frame.DepthView(depth, frame.DefaultDepthViewRange)
	}
	view, err = video.Resize(view, w, h, video.ScalerBiLinear)
	if err != nil {
		return err
	}
	depth.Sanitize()
	depth = depth.Resize(w, h)

	name := dataset.FrameName(len(l.poses) + 1)
	if err := dataset.WritePNG(l.layout.Path(dataset.LeftDir, name+".png"), left); err != nil {
		return err
	}
	if err := dataset.WritePNG(l.layout.Path(dataset.RightDir, name+".png"), right); err != nil {
		return err
	}
	if err := dataset.WritePNG(l.layout.Path(dataset.DepthVisDir, name+".png"), view); err != nil {
		return err
	}
	if err := dataset.WriteDepth(l.layout.Path(dataset.DepthDir, name+".npy"), depth); err != nil {
		return err
	}

	l.poses = append(l.poses, f.Pose)

	ts := f.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	// Pixel payload of both views and the depth map.
	l.rate.add(w*h*(3+3+4), ts)
	if len(l.poses)%rateLogEvery == 0 {
		logger.Debugf("%d frames, %.1f fps, %.1f MB/s", len(l.poses), l.rate.frameRate(), l.rate.byteRate()/1e6)
	}
	return nil
}

// checkRegionOfInterest saves the auto-detected mask once, on the grab
// where detection turns from RUNNING to READY.
func (l *loop) checkRegionOfInterest() {
	if l.opts.ROIMaskFile != "" {
		return
	}
	state := l.d.RegionOfInterestState()
	if l.roiState == frame.ROIRunning && state == frame.ROIReady {
		l.saveRegionOfInterest()
	}
	l.roiState = state
}

func (l *loop) saveRegionOfInterest() {
	mask, err := l.d.RegionOfInterest()
	if err != nil {
		logger.Errorf("Region Of Interest not retrieved: %v", err)
		return
	}
	logger.Infof("Region Of Interest detection done! Saving into %s", l.opts.ROIOutput)
	if err := dataset.WritePNG(l.opts.ROIOutput, mask); err != nil {
		logger.Errorf("Region Of Interest not saved: %v", err)
		return
	}
	l.stats.ROISaved = true

	if l.recorder != nil {
		if m, err := wire.ROIMessage(mask); err == nil {
			l.record(m)
		}
	}
}

// record forwards m to the recorder. The first failure stops recording,
// the capture itself goes on.
func (l *loop) record(m wire.Message) {
	if err := l.recorder.Write(m); err != nil {
		logger.Errorf("Recording stopped: %v", err)
		l.recorder = nil
	}
}
