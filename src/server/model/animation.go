package model

import "time"

// AnimationTickInterval is the fixed reveal period: 10 ticks per second.
const AnimationTickInterval = 100 * time.Millisecond

// AnimationState is the timed-reveal state machine: Stopped(index=0) or
// Running(index). The timer driving Tick is owned by the caller and must be
// cancelled on teardown; the state itself is pure.
type AnimationState struct {
	Index   int  `json:"index"`
	Running bool `json:"running"`
}

// Start transitions Stopped -> Running(0). It refuses to start while already
// running or when the filtered list is empty.
func (a *AnimationState) Start(total int) bool {
	if a.Running || total == 0 {
		return false
	}
	a.Index = 0
	a.Running = true
	return true
}

// Tick advances the reveal by one. Reaching the end of the filtered list
// transitions back to Stopped(0).
func (a *AnimationState) Tick(total int) {
	if !a.Running {
		return
	}
	a.Index++
	if a.Index >= total {
		a.Stop()
	}
}

// Stop resets to Stopped(0) from any state.
func (a *AnimationState) Stop() {
	a.Index = 0
	a.Running = false
}

// VisibleCount is the length of the rendered prefix: the reveal index while
// running, otherwise the whole filtered list.
func (a *AnimationState) VisibleCount(total int) int {
	if !a.Running {
		return total
	}
	if a.Index > total {
		return total
	}
	return a.Index
}
