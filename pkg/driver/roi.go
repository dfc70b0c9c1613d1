package driver

import (
	"image"
	"sync"

	"github.com/nfnt/resize"

	"github.com/pablodawson/proyecto-vision/pkg/frame"
)

// ApplyRegionOfInterest zeroes the depth samples lying where mask is black.
// The mask is stretched to the depth resolution first.
func ApplyRegionOfInterest(depth *frame.DepthMap, mask *image.Gray) {
	b := mask.Bounds()
	if b.Dx() != depth.Width || b.Dy() != depth.Height {
		mask = fitMask(mask, depth.Width, depth.Height)
		b = mask.Bounds()
	}

	for y := 0; y < depth.Height; y++ {
		for x := 0; x < depth.Width; x++ {
			if mask.GrayAt(b.Min.X+x, b.Min.Y+y).Y == 0 {
				depth.Set(x, y, 0)
			}
		}
	}
}

func fitMask(mask *image.Gray, width, height int) *image.Gray {
	scaled := resize.Resize(uint(width), uint(height), mask, resize.NearestNeighbor)
	if g, ok := scaled.(*image.Gray); ok {
		return g
	}
	g := image.NewGray(scaled.Bounds())
	b := scaled.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g.Set(x, y, scaled.At(x, y))
		}
	}
	return g
}

// ROIDetection tracks the progress of a region of interest auto-detection
// performed upstream of the source. Sources feed it with the mask once the
// sender publishes one.
type ROIDetection struct {
	mu      sync.Mutex
	started bool
	mask    *image.Gray
}

// Start marks the detection as running.
func (r *ROIDetection) Start() {
	r.mu.Lock()
	r.started = true
	r.mu.Unlock()
}

// Offer hands over a detected mask. It is ignored until Start is called.
func (r *ROIDetection) Offer(mask *image.Gray) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		r.mask = mask
	}
}

// State reports NOT_ENABLED, RUNNING or READY.
func (r *ROIDetection) State() frame.ROIState {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case !r.started:
		return frame.ROINotEnabled
	case r.mask == nil:
		return frame.ROIRunning
	default:
		return frame.ROIReady
	}
}

// Mask returns the detected mask, nil until the state is READY.
func (r *ROIDetection) Mask() *image.Gray {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mask
}
