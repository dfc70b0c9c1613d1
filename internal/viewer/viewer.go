// Package viewer displays the camera pose while a capture runs.
package viewer

import (
	"github.com/pablodawson/proyecto-vision/internal/logging"
	"github.com/pablodawson/proyecto-vision/pkg/frame"
)

var logger = logging.NewLogger("proyecto-vision/viewer")

// Viewer shows the latest pose. The capture loop stops as soon as the
// viewer is no longer available.
type Viewer interface {
	IsAvailable() bool
	// Update shows pose along with the last known translation and
	// rotation texts, which only change while tracking is OK.
	Update(pose frame.Pose, translation, rotation string, state frame.TrackingState)
	Exit()
}

// Update is the pose record broadcast to remote viewers.
type Update struct {
	Pose        []float64           `json:"pose"`
	Translation string              `json:"translation"`
	Rotation    string              `json:"rotation"`
	Tracking    frame.TrackingState `json:"tracking"`
	Sequence    int                 `json:"sequence"`
}

type multi []Viewer

// Multi fans updates out to every viewer. It is available while all of
// them are.
func Multi(viewers ...Viewer) Viewer {
	return multi(viewers)
}

func (m multi) IsAvailable() bool {
	for _, v := range m {
		if !v.IsAvailable() {
			return false
		}
	}
	return true
}

func (m multi) Update(pose frame.Pose, translation, rotation string, state frame.TrackingState) {
	for _, v := range m {
		v.Update(pose, translation, rotation, state)
	}
}

func (m multi) Exit() {
	for _, v := range m {
		v.Exit()
	}
}
