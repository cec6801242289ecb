package sim

import (
	"context"

	"github.com/talgya/evacsim/internal/grid"
)

// Action is a single-step decision: move to Target, or stay in place.
type Action struct {
	Target grid.Cell
	Stay   bool
}

// AgentView is the read-only view of one agent handed to a decision
// provider.
type AgentView struct {
	Name string
	Pos  grid.Cell
}

// EnvSnapshot is the environment as seen at decision time. Occupied holds
// the positions of all other active agents; Ignited holds burning cells
// (empty when the hazard is disabled).
type EnvSnapshot struct {
	Width     int
	Height    int
	Door      grid.Cell
	Obstacles []grid.Cell
	Occupied  []grid.Cell
	Ignited   []grid.Cell
}

// Decider produces one action per agent per step. Implementations may be
// slow or fallible (an LLM-backed provider); the engine falls back to the
// deterministic Policy for any agent whose decision fails, for that step
// only.
type Decider interface {
	Decide(ctx context.Context, agent AgentView, env EnvSnapshot) (Action, error)
}
