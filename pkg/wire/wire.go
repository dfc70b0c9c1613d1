// Package wire defines the CBOR messages exchanged by stereo senders and
// stored in session recordings.
//
// A session starts with a calibration message, followed by frame messages
// in capture order. A roi message may appear at any point once the sender
// finished detecting the static region of interest.
package wire

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // senders may ship JPEG views
	"image/png"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/pablodawson/proyecto-vision/pkg/frame"
	"github.com/pablodawson/proyecto-vision/pkg/io/video"
	"github.com/pablodawson/proyecto-vision/pkg/prop"
)

const (
	TypeCalibration = "calibration"
	TypeFrame       = "frame"
	TypeROI         = "roi"
)

var errWrongType = errors.New("wire: unexpected message type")

// Message is the union of every message kind. Type selects which fields
// are meaningful.
type Message struct {
	Type string `cbor:"type"`

	// calibration
	FX       float64 `cbor:"fx,omitempty"`
	FY       float64 `cbor:"fy,omitempty"`
	CX       float64 `cbor:"cx,omitempty"`
	CY       float64 `cbor:"cy,omitempty"`
	Baseline float64 `cbor:"baseline,omitempty"`
	Width    int     `cbor:"width,omitempty"`
	Height   int     `cbor:"height,omitempty"`

	// frame
	Timestamp   int64     `cbor:"timestamp,omitempty"`
	Left        []byte    `cbor:"left,omitempty"`
	Right       []byte    `cbor:"right,omitempty"`
	Depth       []byte    `cbor:"depth,omitempty"`
	DepthWidth  int       `cbor:"depth_width,omitempty"`
	DepthHeight int       `cbor:"depth_height,omitempty"`
	Pose        []float64 `cbor:"pose,omitempty"`
	Tracking    string    `cbor:"tracking,omitempty"`
	ROIState    string    `cbor:"roi_state,omitempty"`

	// roi
	Mask []byte `cbor:"mask,omitempty"`
}

// Marshal encodes m as CBOR.
func Marshal(m Message) ([]byte, error) {
	return cbor.Marshal(m)
}

// Unmarshal decodes a CBOR payload.
func Unmarshal(payload []byte) (Message, error) {
	var m Message
	if err := cbor.Unmarshal(payload, &m); err != nil {
		return Message{}, fmt.Errorf("wire: %w", err)
	}
	if m.Type == "" {
		return Message{}, fmt.Errorf("%w: missing type", errWrongType)
	}
	return m, nil
}

// CalibrationMessage describes the sensor of a session.
func CalibrationMessage(c prop.Calibration, width, height int) Message {
	return Message{
		Type:     TypeCalibration,
		FX:       c.FocalLeftX,
		FY:       c.FocalLeftY,
		CX:       c.PrincipalLeftX,
		CY:       c.PrincipalLeftY,
		Baseline: c.Baseline,
		Width:    width,
		Height:   height,
	}
}

// Calibration extracts the intrinsics of a calibration message.
func (m Message) Calibration() (prop.Calibration, error) {
	if m.Type != TypeCalibration {
		return prop.Calibration{}, fmt.Errorf("%w: %q is not %q", errWrongType, m.Type, TypeCalibration)
	}
	return prop.Calibration{
		FocalLeftX:     m.FX,
		FocalLeftY:     m.FY,
		PrincipalLeftX: m.CX,
		PrincipalLeftY: m.CY,
		Baseline:       m.Baseline,
	}, nil
}

// FrameMessage encodes a grab. Images are stored as PNG, depth as F32.
func FrameMessage(f *frame.Stereo, roi frame.ROIState) (Message, error) {
	left, err := encodePNG(f.Left)
	if err != nil {
		return Message{}, fmt.Errorf("wire: left view: %w", err)
	}
	right, err := encodePNG(f.Right)
	if err != nil {
		return Message{}, fmt.Errorf("wire: right view: %w", err)
	}

	m := Message{
		Type:      TypeFrame,
		Timestamp: f.Timestamp.UnixNano(),
		Left:      left,
		Right:     right,
		Pose:      f.Pose.Slice(),
		Tracking:  string(f.Tracking),
		ROIState:  string(roi),
	}
	if f.Depth != nil {
		m.Depth = f.Depth.EncodeF32()
		m.DepthWidth = f.Depth.Width
		m.DepthHeight = f.Depth.Height
	}
	return m, nil
}

// Stereo decodes a frame message. The depth view is rendered locally from
// the depth measure.
func (m Message) Stereo() (*frame.Stereo, error) {
	if m.Type != TypeFrame {
		return nil, fmt.Errorf("%w: %q is not %q", errWrongType, m.Type, TypeFrame)
	}

	left, _, err := image.Decode(bytes.NewReader(m.Left))
	if err != nil {
		return nil, fmt.Errorf("wire: left view: %w", err)
	}
	right, _, err := image.Decode(bytes.NewReader(m.Right))
	if err != nil {
		return nil, fmt.Errorf("wire: right view: %w", err)
	}

	pose := frame.Identity()
	if len(m.Pose) > 0 {
		if pose, err = frame.PoseFromSlice(m.Pose); err != nil {
			return nil, fmt.Errorf("wire: %w", err)
		}
	}

	var depth *frame.DepthMap
	if len(m.Depth) > 0 {
		depth, err = frame.DecodeDepth(frame.FormatF32, m.Depth, m.DepthWidth, m.DepthHeight)
		if err != nil {
			return nil, fmt.Errorf("wire: depth: %w", err)
		}
	} else {
		b := left.Bounds()
		depth = frame.NewDepthMap(b.Dx(), b.Dy())
	}

	tracking := frame.TrackingState(m.Tracking)
	if tracking == "" {
		tracking = frame.TrackingOff
	}

	return &frame.Stereo{
		Timestamp: time.Unix(0, m.Timestamp),
		Left:      left,
		Right:     right,
		Depth:     depth,
		DepthView: frame.DepthView(depth, frame.DefaultDepthViewRange),
		Pose:      pose,
		Tracking:  tracking,
	}, nil
}

// ROIMessage carries a detected region of interest.
func ROIMessage(mask *image.Gray) (Message, error) {
	b, err := encodePNG(mask)
	if err != nil {
		return Message{}, fmt.Errorf("wire: roi mask: %w", err)
	}
	return Message{Type: TypeROI, Mask: b}, nil
}

// ROIMask decodes the mask of a roi message.
func (m Message) ROIMask() (*image.Gray, error) {
	if m.Type != TypeROI {
		return nil, fmt.Errorf("%w: %q is not %q", errWrongType, m.Type, TypeROI)
	}
	img, _, err := image.Decode(bytes.NewReader(m.Mask))
	if err != nil {
		return nil, fmt.Errorf("wire: roi mask: %w", err)
	}
	return video.ToGray(img), nil
}

var encoder = png.Encoder{CompressionLevel: png.BestSpeed}

func encodePNG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, errors.New("missing image")
	}
	var buf bytes.Buffer
	if err := encoder.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
