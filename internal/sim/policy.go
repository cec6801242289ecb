package sim

import (
	"context"

	"github.com/talgya/evacsim/internal/grid"
)

// Policy is the built-in deterministic movement rule: greedy motion toward
// the nearest door with a fixed fallback order around blocked cells. It is
// the default Decider and the per-agent fallback when an external provider
// fails.
type Policy struct{}

// Decide implements Decider against a point-in-time occupancy snapshot.
func (Policy) Decide(_ context.Context, agent AgentView, env EnvSnapshot) (Action, error) {
	w, err := grid.NewWorld(env.Width, env.Height, []grid.Cell{env.Door}, env.Obstacles)
	if err != nil {
		return Action{}, err
	}
	occupied := make(map[grid.Cell]bool, len(env.Occupied))
	for _, c := range env.Occupied {
		occupied[c] = true
	}
	next := NextCell(w, agent.Pos, env.Door, func(c grid.Cell) bool { return occupied[c] })
	if next == agent.Pos {
		return Action{Stay: true}, nil
	}
	return Action{Target: next}, nil
}

func sign(v int) int {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

// NextCell picks the cell an agent at pos moves to this step, given the
// door it is heading for and a live occupancy predicate covering the other
// active agents.
//
// Candidates are tried in a fixed order: the diagonal toward the door, the
// two straight-toward options, the two cross fallbacks, the two remaining
// sidesteps, then staying put. Path efficiency and bottleneck analytics
// depend on the exact shape this order produces; do not reorder it.
func NextCell(w *grid.World, pos, door grid.Cell, occupied func(grid.Cell) bool) grid.Cell {
	dx := sign(door.X - pos.X)
	dy := sign(door.Y - pos.Y)

	candidates := [8]grid.Cell{
		{X: pos.X + dx, Y: pos.Y + dy},
		{X: pos.X + dx, Y: pos.Y},
		{X: pos.X, Y: pos.Y + dy},
		{X: pos.X + dx, Y: pos.Y - dy},
		{X: pos.X - dx, Y: pos.Y + dy},
		{X: pos.X - dx, Y: pos.Y},
		{X: pos.X, Y: pos.Y - dy},
		pos,
	}

	for _, c := range candidates {
		if !w.InBounds(c) || w.IsObstacle(c) {
			continue
		}
		if c != pos && occupied(c) {
			continue
		}
		return c
	}
	return pos
}
