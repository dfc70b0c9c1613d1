package stream

import (
	"errors"
	"image"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/pebbe/zmq4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablodawson/proyecto-vision/pkg/driver"
	"github.com/pablodawson/proyecto-vision/pkg/frame"
	"github.com/pablodawson/proyecto-vision/pkg/prop"
	"github.com/pablodawson/proyecto-vision/pkg/wire"
)

func newSender(t *testing.T) (*zmq4.Socket, string, int) {
	t.Helper()

	push, err := zmq4.NewSocket(zmq4.PUSH)
	require.NoError(t, err)
	t.Cleanup(func() { push.Close() })
	require.NoError(t, push.Bind("tcp://127.0.0.1:*"))

	endpoint, err := push.GetLastEndpoint()
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(endpoint, "tcp://"))
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return push, host, port
}

func send(t *testing.T, s *zmq4.Socket, m wire.Message) {
	t.Helper()
	b, err := wire.Marshal(m)
	require.NoError(t, err)
	_, err = s.SendBytes(b, 0)
	require.NoError(t, err)
}

func TestReceive(t *testing.T) {
	push, host, port := newSender(t)

	c := prop.Calibration{FocalLeftX: 500, FocalLeftY: 500, PrincipalLeftX: 320, PrincipalLeftY: 180, Baseline: 0.12}
	send(t, push, wire.CalibrationMessage(c, 640, 360))

	d := driver.Wrap(New(host, port))
	require.NoError(t, d.Open())
	defer d.Close()

	got, err := d.Calibration()
	require.NoError(t, err)
	assert.Equal(t, c, got)
	require.NoError(t, d.EnableTracking(prop.DefaultTracking()))
	require.NoError(t, d.StartRegionOfInterestAutoDetection())

	_, err = d.Grab()
	assert.True(t, errors.Is(err, driver.ErrGrabUnavailable), "got %v", err)

	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	depth := frame.NewDepthMap(4, 2)
	depth.Data[0] = 1.5
	pose := frame.Identity()
	pose[7] = 2
	m, err := wire.FrameMessage(&frame.Stereo{
		Timestamp: time.Unix(3, 0),
		Left:      img,
		Right:     img,
		Depth:     depth,
		Pose:      pose,
		Tracking:  frame.TrackingOK,
	}, frame.ROIRunning)
	require.NoError(t, err)

	roi, err := wire.ROIMessage(image.NewGray(image.Rect(0, 0, 4, 2)))
	require.NoError(t, err)
	send(t, push, roi)
	send(t, push, m)

	var f *frame.Stereo
	for i := 0; i < 40 && f == nil; i++ {
		f, err = d.Grab()
		if errors.Is(err, driver.ErrGrabUnavailable) {
			continue
		}
		require.NoError(t, err)
	}
	require.NotNil(t, f)
	assert.Equal(t, float32(1.5), f.Depth.At(0, 0))
	assert.Equal(t, 2.0, f.Pose.Translation()[1])
	assert.Equal(t, frame.TrackingOK, f.Tracking)
	assert.Equal(t, frame.ROIReady, d.RegionOfInterestState())
}

func TestOpenWithoutSender(t *testing.T) {
	defer func(d time.Duration) { calibrationTimeout = d }(calibrationTimeout)
	calibrationTimeout = 100 * time.Millisecond

	_, host, port := newSender(t)

	err := New(host, port).Open()
	assert.True(t, errors.Is(err, ErrNoCalibration), "got %v", err)
}
