package wire

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablodawson/proyecto-vision/pkg/frame"
	"github.com/pablodawson/proyecto-vision/pkg/prop"
)

func TestCalibrationMessage(t *testing.T) {
	c := prop.Calibration{
		FocalLeftX:     700.5,
		FocalLeftY:     700.25,
		PrincipalLeftX: 640,
		PrincipalLeftY: 360,
		Baseline:       0.12,
	}

	payload, err := Marshal(CalibrationMessage(c, 1280, 720))
	require.NoError(t, err)

	m, err := Unmarshal(payload)
	require.NoError(t, err)
	assert.Equal(t, 1280, m.Width)
	assert.Equal(t, 720, m.Height)

	got, err := m.Calibration()
	require.NoError(t, err)
	if diff := cmp.Diff(c, got); diff != "" {
		t.Errorf("calibration mismatch (-want +got):\n%s", diff)
	}

	_, err = m.Stereo()
	assert.Error(t, err)
}

func TestFrameMessage(t *testing.T) {
	left := image.NewRGBA(image.Rect(0, 0, 4, 2))
	left.Set(1, 1, color.RGBA{R: 200, G: 10, B: 20, A: 255})
	right := image.NewRGBA(image.Rect(0, 0, 4, 2))
	depth := frame.NewDepthMap(4, 2)
	depth.Set(2, 1, 3.5)

	pose := frame.Identity()
	pose[3] = 0.75

	in := &frame.Stereo{
		Timestamp: time.Unix(12, 34),
		Left:      left,
		Right:     right,
		Depth:     depth,
		Pose:      pose,
		Tracking:  frame.TrackingOK,
	}

	m, err := FrameMessage(in, frame.ROIRunning)
	require.NoError(t, err)
	payload, err := Marshal(m)
	require.NoError(t, err)
	decoded, err := Unmarshal(payload)
	require.NoError(t, err)
	assert.Equal(t, string(frame.ROIRunning), decoded.ROIState)

	out, err := decoded.Stereo()
	require.NoError(t, err)

	assert.Equal(t, in.Timestamp.UnixNano(), out.Timestamp.UnixNano())
	assert.Equal(t, pose, out.Pose)
	assert.Equal(t, frame.TrackingOK, out.Tracking)
	assert.Equal(t, depth.Data, out.Depth.Data)
	assert.Equal(t, left.Bounds(), out.DepthView.Bounds())

	r, g, b, _ := out.Left.At(1, 1).RGBA()
	assert.Equal(t, [3]uint32{200, 10, 20}, [3]uint32{r >> 8, g >> 8, b >> 8})
}

func TestROIMessage(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 3, 3))
	mask.SetGray(1, 1, color.Gray{Y: 255})

	m, err := ROIMessage(mask)
	require.NoError(t, err)

	got, err := m.ROIMask()
	require.NoError(t, err)
	assert.Equal(t, mask.Pix, got.Pix)
}

func TestUnmarshalRejectsUntyped(t *testing.T) {
	payload, err := Marshal(Message{})
	require.NoError(t, err)

	_, err = Unmarshal(payload)
	assert.Error(t, err)
}
