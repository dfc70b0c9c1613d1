package frame

// TrackingState reports the health of positional tracking for one grab.
type TrackingState string

const (
	TrackingOff         TrackingState = "OFF"
	TrackingOK          TrackingState = "OK"
	TrackingSearching   TrackingState = "SEARCHING"
	TrackingFPSTooLow   TrackingState = "FPS_TOO_LOW"
	TrackingUnavailable TrackingState = "UNAVAILABLE"
)

// ROIState is the progress of region of interest auto-detection.
type ROIState string

const (
	ROINotEnabled ROIState = "NOT_ENABLED"
	ROIRunning    ROIState = "RUNNING"
	ROIReady      ROIState = "READY"
)
