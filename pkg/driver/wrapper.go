package driver

import (
	"fmt"
	"image"
	"sync"

	"github.com/google/uuid"

	"github.com/pablodawson/proyecto-vision/pkg/frame"
	"github.com/pablodawson/proyecto-vision/pkg/prop"
)

// Wrap turns a bare adapter into a Driver. Manager.Open uses it for
// registered sources; tests use it to drive adapters directly.
func Wrap(a Adapter) Driver {
	return wrapAdapter(a)
}

func wrapAdapter(a Adapter) Driver {
	return &adapterWrapper{
		Adapter: a,
		id:      uuid.NewString(),
	}
}

type adapterWrapper struct {
	Adapter
	id    string
	state State

	mu   sync.Mutex
	mask *image.Gray
}

func (w *adapterWrapper) ID() string {
	return w.id
}

func (w *adapterWrapper) Status() State {
	return w.state
}

func (w *adapterWrapper) Open() error {
	return w.state.Update(StateOpened, w.Adapter.Open)
}

func (w *adapterWrapper) Close() error {
	return w.state.Update(StateClosed, w.Adapter.Close)
}

func (w *adapterWrapper) Calibration() (prop.Calibration, error) {
	if w.state == StateClosed {
		return prop.Calibration{}, fmt.Errorf("invalid state: driver hasn't been opened")
	}
	return w.Adapter.Calibration()
}

func (w *adapterWrapper) EnableTracking(t prop.Tracking) error {
	return w.state.Update(StateTracking, func() error {
		return w.Adapter.EnableTracking(t)
	})
}

func (w *adapterWrapper) StartRegionOfInterestAutoDetection() error {
	if w.state == StateClosed {
		return fmt.Errorf("invalid state: driver hasn't been opened")
	}
	return w.Adapter.StartRegionOfInterestAutoDetection()
}

func (w *adapterWrapper) SetRegionOfInterest(mask *image.Gray) error {
	if w.state == StateClosed {
		return fmt.Errorf("invalid state: driver hasn't been opened")
	}
	w.mu.Lock()
	w.mask = mask
	w.mu.Unlock()
	return nil
}

func (w *adapterWrapper) Grab() (*frame.Stereo, error) {
	if w.state == StateClosed {
		return nil, fmt.Errorf("invalid state: driver hasn't been opened")
	}

	f, err := w.Adapter.Grab()
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	mask := w.mask
	w.mu.Unlock()
	if mask != nil && f.Depth != nil {
		ApplyRegionOfInterest(f.Depth, mask)
	}
	return f, nil
}
