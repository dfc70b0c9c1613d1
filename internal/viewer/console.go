package viewer

import (
	"context"
	"sync"

	"github.com/pablodawson/proyecto-vision/pkg/frame"
)

// Console logs the pose every few updates. It becomes unavailable once
// ctx is done, typically on SIGINT.
type Console struct {
	ctx   context.Context
	every int

	mu     sync.Mutex
	n      int
	exited bool
	last   frame.TrackingState
}

// NewConsole logs one update out of every.
func NewConsole(ctx context.Context, every int) *Console {
	if every < 1 {
		every = 1
	}
	return &Console{ctx: ctx, every: every}
}

func (c *Console) IsAvailable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.exited && c.ctx.Err() == nil
}

func (c *Console) Update(pose frame.Pose, translation, rotation string, state frame.TrackingState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.n++
	if state != c.last {
		logger.Infof("Tracking state: %s", state)
		c.last = state
	}
	if c.n%c.every == 0 {
		logger.Infof("Frame %d translation %s rotation %s", c.n, translation, rotation)
	}
}

func (c *Console) Exit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.exited {
		logger.Infof("Viewer closed after %d updates", c.n)
	}
	c.exited = true
}
