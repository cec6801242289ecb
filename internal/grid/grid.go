// Package grid provides the static room geometry: dimensions, walls, and
// exit doors. All queries are side-effect-free.
package grid

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Cell is a single grid position. It marshals as a two-element JSON array
// [x, y] to match the trajectory wire format.
type Cell struct {
	X int
	Y int
}

// MarshalJSON encodes the cell as [x, y].
func (c Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{c.X, c.Y})
}

// UnmarshalJSON decodes a [x, y] array.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("cell: %w", err)
	}
	c.X, c.Y = pair[0], pair[1]
	return nil
}

// Less orders cells lexicographically by (x, y). Used for deterministic
// tie-breaking.
func (c Cell) Less(other Cell) bool {
	if c.X != other.X {
		return c.X < other.X
	}
	return c.Y < other.Y
}

// Chebyshev returns the chessboard distance between two cells: the minimum
// number of 8-directional moves from a to b.
func Chebyshev(a, b Cell) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// World is the static room layout. Doors and obstacles never change during
// a run.
type World struct {
	Width     int
	Height    int
	obstacles map[Cell]bool
	doors     map[Cell]bool
}

// NewWorld validates and builds a world. It fails on non-positive
// dimensions, an empty door set, out-of-bounds cells, or a door placed on
// an obstacle.
func NewWorld(width, height int, doors, obstacles []Cell) (*World, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("grid dimensions must be positive, got %dx%d", width, height)
	}
	if len(doors) == 0 {
		return nil, fmt.Errorf("at least one door is required")
	}

	w := &World{
		Width:     width,
		Height:    height,
		obstacles: make(map[Cell]bool, len(obstacles)),
		doors:     make(map[Cell]bool, len(doors)),
	}
	for _, o := range obstacles {
		if !w.InBounds(o) {
			return nil, fmt.Errorf("obstacle %v outside %dx%d grid", o, width, height)
		}
		w.obstacles[o] = true
	}
	for _, d := range doors {
		if !w.InBounds(d) {
			return nil, fmt.Errorf("door %v outside %dx%d grid", d, width, height)
		}
		if w.obstacles[d] {
			return nil, fmt.Errorf("door %v placed on an obstacle", d)
		}
		w.doors[d] = true
	}
	return w, nil
}

// InBounds reports whether the cell lies within [0,width) x [0,height).
func (w *World) InBounds(c Cell) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < w.Width && c.Y < w.Height
}

// IsObstacle reports whether the cell is a wall.
func (w *World) IsObstacle(c Cell) bool {
	return w.obstacles[c]
}

// IsDoor reports whether the cell is an exit door.
func (w *World) IsDoor(c Cell) bool {
	return w.doors[c]
}

// Free reports whether the cell is in bounds and not a wall.
func (w *World) Free(c Cell) bool {
	return w.InBounds(c) && !w.obstacles[c]
}

// Doors returns all door cells in lexicographic order.
func (w *World) Doors() []Cell {
	out := make([]Cell, 0, len(w.doors))
	for d := range w.doors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Obstacles returns all wall cells in lexicographic order.
func (w *World) Obstacles() []Cell {
	out := make([]Cell, 0, len(w.obstacles))
	for o := range w.obstacles {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// NearestDoor returns the door with minimum Chebyshev distance from the
// given cell. Ties break toward the lexicographically lowest door so the
// choice is stable across runs.
func (w *World) NearestDoor(from Cell) Cell {
	best := Cell{}
	bestDist := -1
	for _, d := range w.Doors() {
		dist := Chebyshev(from, d)
		if bestDist < 0 || dist < bestDist {
			best = d
			bestDist = dist
		}
	}
	return best
}

// FreeCellCount returns the number of non-wall cells on the grid.
func (w *World) FreeCellCount() int {
	return w.Width*w.Height - len(w.obstacles)
}
