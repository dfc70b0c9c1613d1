package frame

import (
	"image"
	"time"
)

// Stereo is everything a single synchronized grab produces. Images are
// at sensor resolution; the pose is expressed in the world frame.
type Stereo struct {
	Timestamp time.Time
	Left      image.Image
	Right     image.Image
	DepthView image.Image
	Depth     *DepthMap
	Pose      Pose
	Tracking  TrackingState
}
