package driver

import "fmt"

// State represents driver's state
type State string

const (
	// StateClosed means that the driver has not been opened. In this state,
	// all information related to the hardware are still unknown, including
	// the calibration.
	StateClosed State = "closed"
	// StateOpened means that the driver is already opened and the
	// calibration may be extracted from the driver. Grabs return images and
	// depth but the pose is not tracked.
	StateOpened State = "opened"
	// StateTracking means that positional tracking has been enabled.
	StateTracking State = "tracking"
)

// Update updates current state, s, to next. If f fails to execute,
// s will stay unchanged. Otherwise, s will be updated to next
func (s *State) Update(next State, f func() error) error {
	type checkFunc func() error
	m := map[State]checkFunc{
		StateOpened:   s.toOpened,
		StateClosed:   s.toClosed,
		StateTracking: s.toTracking,
	}

	check, ok := m[next]
	if !ok {
		return fmt.Errorf("invalid state: unknown state %q", next)
	}

	err := check()
	if err != nil {
		return err
	}

	err = f()
	if err == nil {
		*s = next
	}
	return err
}

func (s *State) toOpened() error {
	if *s != StateClosed {
		return fmt.Errorf("invalid state: driver is already opened")
	}
	return nil
}

func (s *State) toClosed() error {
	return nil
}

func (s *State) toTracking() error {
	if *s == StateClosed {
		return fmt.Errorf("invalid state: driver is closed")
	}

	if *s == StateTracking {
		return fmt.Errorf("invalid state: tracking is already enabled")
	}

	return nil
}
