package node

import "sync/atomic"

// ControlState holds the publish/suspend toggle.
//
// It starts active and changes only through a dispatched start or stop
// command. Reads from other goroutines (status API) are safe.
type ControlState struct {
	active atomic.Bool
}

// NewControlState returns a ControlState in the active state.
func NewControlState() *ControlState {
	c := &ControlState{}
	c.active.Store(true)
	return c
}

// Active reports whether sampling and publishing are enabled.
func (c *ControlState) Active() bool {
	return c.active.Load()
}

// setActive is unexported so only the dispatcher can change the toggle.
func (c *ControlState) setActive(v bool) {
	c.active.Store(v)
}
