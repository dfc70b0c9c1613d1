package driver

// DeviceType represents human readable device type. DeviceType
// can be useful to filter the drivers too.
type DeviceType string

const (
	// Camera represents stereo cameras attached to this host
	Camera DeviceType = "camera"
	// Stream represents frames received from a remote sender
	Stream DeviceType = "stream"
	// Recording represents a session replayed from a file
	Recording DeviceType = "recording"
	// Synthetic represents generated frames, used by tests
	Synthetic DeviceType = "synthetic"
)
