// Package sim provides the deterministic evacuation engine: agent movement,
// fire propagation, and the per-step state machine that records the
// trajectory consumed by analytics.
package sim

import "github.com/talgya/evacsim/internal/grid"

// Status is an agent's lifecycle state. Once an agent leaves Active it
// never returns to the grid.
type Status string

const (
	StatusActive Status = "active"
	StatusExited Status = "exited"
	StatusDead   Status = "dead"
)

// Agent is the engine-owned state for one participant. Agents are pure
// data; the engine updates them each step.
type Agent struct {
	Name   string
	Start  grid.Cell
	Pos    grid.Cell
	Status Status
}

// Active reports whether the agent is still on the grid.
func (a *Agent) Active() bool {
	return a.Status == StatusActive
}

// markExited transitions the agent off the grid permanently.
func (a *Agent) markExited() {
	if a.Status == StatusActive {
		a.Status = StatusExited
	}
}

// markDead transitions the agent off the grid permanently.
func (a *Agent) markDead() {
	if a.Status == StatusActive {
		a.Status = StatusDead
	}
}
