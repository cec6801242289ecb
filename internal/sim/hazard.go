package sim

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/talgya/evacsim/internal/grid"
)

// HazardField is a cellular automaton of burning cells. Fire spreads to
// Moore neighbors each step with a fixed probability and kills any agent
// standing on an ignited cell. The field never ignites walls or doors.
type HazardField struct {
	world      *grid.World
	ignited    map[grid.Cell]bool
	spreadProb float64
	rng        *rand.Rand
}

// NewHazardField creates a field with no ignited cells. spreadProb must lie
// in [0, 1]. The rng is owned by the caller (the engine) so runs are
// reproducible from a seed.
func NewHazardField(w *grid.World, spreadProb float64, rng *rand.Rand) (*HazardField, error) {
	if spreadProb < 0 || spreadProb > 1 {
		return nil, fmt.Errorf("spread probability %v outside [0,1]", spreadProb)
	}
	return &HazardField{
		world:      w,
		ignited:    make(map[grid.Cell]bool),
		spreadProb: spreadProb,
		rng:        rng,
	}, nil
}

// Seed ignites numFires distinct cells chosen uniformly from cells that are
// free, not doors, and not in the excluded set (agent start positions).
func (h *HazardField) Seed(numFires int, exclude map[grid.Cell]bool) error {
	if numFires <= 0 {
		return nil
	}

	var candidates []grid.Cell
	for x := 0; x < h.world.Width; x++ {
		for y := 0; y < h.world.Height; y++ {
			c := grid.Cell{X: x, Y: y}
			if h.world.IsObstacle(c) || h.world.IsDoor(c) || exclude[c] {
				continue
			}
			candidates = append(candidates, c)
		}
	}
	if numFires > len(candidates) {
		return fmt.Errorf("cannot place %d fires, only %d free cells available", numFires, len(candidates))
	}

	h.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	for _, c := range candidates[:numFires] {
		h.ignited[c] = true
	}
	return nil
}

var mooreOffsets = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// Spread advances the fire one step with simultaneous semantics: the newly
// ignited set is collected over a scan of the current frontier and merged
// only afterward, so a cell ignited this step cannot ignite a neighbor
// within the same step.
func (h *HazardField) Spread() {
	if h.spreadProb == 0 || len(h.ignited) == 0 {
		return
	}

	// Scan the frontier in a fixed order so the Bernoulli draws consume
	// the rng deterministically for a given seed.
	frontier := h.Cells()

	newly := make(map[grid.Cell]bool)
	for _, c := range frontier {
		for _, off := range mooreOffsets {
			n := grid.Cell{X: c.X + off[0], Y: c.Y + off[1]}
			if !h.world.InBounds(n) || h.ignited[n] {
				continue
			}
			if h.world.IsObstacle(n) || h.world.IsDoor(n) {
				continue
			}
			// One independent trial per burning neighbor; a cell
			// with several burning neighbors gets several chances.
			if h.rng.Float64() < h.spreadProb {
				newly[n] = true
			}
		}
	}

	for c := range newly {
		h.ignited[c] = true
	}
}

// Ignited reports whether the cell is burning.
func (h *HazardField) Ignited(c grid.Cell) bool {
	return h.ignited[c]
}

// Cells returns all ignited cells in lexicographic order.
func (h *HazardField) Cells() []grid.Cell {
	out := make([]grid.Cell, 0, len(h.ignited))
	for c := range h.ignited {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Count returns the number of ignited cells.
func (h *HazardField) Count() int {
	return len(h.ignited)
}
