// Package metrics computes evacuation analytics from a finished trajectory.
// Every function is pure and total: degenerate input (empty trajectory,
// nobody evacuated, no profile data) yields a documented default, never an
// error. The functions only read the trajectory and may run concurrently.
package metrics

import (
	"sort"

	"github.com/talgya/evacsim/internal/grid"
	"github.com/talgya/evacsim/internal/sim"
)

// EvacuationTimes maps each agent to the 1-indexed step of the first frame
// where it appears as exited, or nil if it never exited. An empty
// trajectory yields an empty map.
//
// Note: when the hazard is enabled, dead agents also leave the grid and
// show the exited sentinel in frames; callers that must distinguish deaths
// use the status history (see Outcomes).
func EvacuationTimes(t *sim.Trajectory) map[string]*int {
	times := make(map[string]*int)
	if t.Steps() == 0 {
		return times
	}

	for name := range t.Frames[0] {
		times[name] = nil
	}

	for i, frame := range t.Frames {
		step := i + 1
		for name := range times {
			if times[name] != nil {
				continue
			}
			if pos, ok := frame[name]; ok && pos.Exited {
				if t.Statuses != nil && t.Statuses[i][name] != sim.StatusExited {
					continue
				}
				s := step
				times[name] = &s
			}
		}
	}
	return times
}

// SurvivalRate returns evacuated / total, or 0.0 with no agents.
func SurvivalRate(times map[string]*int) float64 {
	if len(times) == 0 {
		return 0.0
	}
	evacuated := 0
	for _, t := range times {
		if t != nil {
			evacuated++
		}
	}
	return float64(evacuated) / float64(len(times))
}

func evacuatedTimes(times map[string]*int) []int {
	var out []int
	for _, t := range times {
		if t != nil {
			out = append(out, *t)
		}
	}
	sort.Ints(out)
	return out
}

// MeanEvacuationTime averages over agents that exited; nil if none did.
func MeanEvacuationTime(times map[string]*int) *float64 {
	ts := evacuatedTimes(times)
	if len(ts) == 0 {
		return nil
	}
	sum := 0
	for _, t := range ts {
		sum += t
	}
	mean := float64(sum) / float64(len(ts))
	return &mean
}

// LastEvacuationTime is the step of the final evacuation; nil if none.
func LastEvacuationTime(times map[string]*int) *int {
	ts := evacuatedTimes(times)
	if len(ts) == 0 {
		return nil
	}
	last := ts[len(ts)-1]
	return &last
}

// FirstEvacuationTime is the step of the first evacuation; nil if none.
func FirstEvacuationTime(times map[string]*int) *int {
	ts := evacuatedTimes(times)
	if len(ts) == 0 {
		return nil
	}
	first := ts[0]
	return &first
}

// TimeTo50Percent is the smallest evacuation time by which at least half of
// all agents had evacuated, scanning times in ascending order. Nil if fewer
// than half ever evacuate.
func TimeTo50Percent(times map[string]*int) *int {
	total := len(times)
	if total == 0 {
		return nil
	}
	threshold := float64(total) / 2
	evacuated := 0
	for _, t := range evacuatedTimes(times) {
		evacuated++
		if float64(evacuated) >= threshold {
			v := t
			return &v
		}
	}
	return nil
}

// ExtractPath returns the agent's position per frame. Frames where the
// agent is off the grid, or missing entirely, are recorded as exited.
func ExtractPath(name string, t *sim.Trajectory) []sim.Pos {
	path := make([]sim.Pos, 0, t.Steps())
	for _, frame := range t.Frames {
		if pos, ok := frame[name]; ok {
			path = append(path, pos)
		} else {
			path = append(path, sim.Pos{Exited: true})
		}
	}
	return path
}

// TimeToFirstMove is the 1-indexed frame where the agent's cell first
// differs from its cell in frame 0. Nil if it never moves, starts already
// exited, or there is no history.
func TimeToFirstMove(name string, t *sim.Trajectory) *int {
	if t.Steps() == 0 {
		return nil
	}
	start, ok := t.Frames[0][name]
	if !ok || start.Exited {
		return nil
	}
	for i := 1; i < t.Steps(); i++ {
		pos, ok := t.Frames[i][name]
		if !ok || pos.Exited || pos.Cell != start.Cell {
			step := i + 1
			return &step
		}
	}
	return nil
}

// OptimalPathRatio compares the Chebyshev-optimal step count from start to
// door against the moves actually taken before exit. 1.0 is a perfect
// path, values shrink toward 0 with wasted movement, and 0.0 means the
// agent never exited without moving. The result is clamped to [0, 1].
func OptimalPathRatio(start, door grid.Cell, path []sim.Pos) float64 {
	optimal := grid.Chebyshev(start, door)
	if optimal == 0 {
		return 1.0
	}

	actualSteps := 0
	for i := 1; i < len(path); i++ {
		if path[i].Exited {
			break
		}
		if path[i].Cell != path[i-1].Cell {
			actualSteps++
		}
	}

	if actualSteps == 0 {
		// No movement recorded: perfect only for a zero-length optimal
		// path that still exited, which the optimal==0 branch already
		// covered.
		return 0.0
	}

	ratio := float64(optimal) / float64(actualSteps)
	if ratio > 1.0 {
		return 1.0
	}
	return ratio
}

// DirectionChanges counts changes of the movement vector (dx, dy) between
// successive non-stationary moves, stopping at the first exited marker.
func DirectionChanges(path []sim.Pos) int {
	type vec struct{ dx, dy int }
	var vectors []vec
	for i := 1; i < len(path); i++ {
		if path[i].Exited || path[i-1].Exited {
			break
		}
		prev, curr := path[i-1].Cell, path[i].Cell
		if curr != prev {
			vectors = append(vectors, vec{curr.X - prev.X, curr.Y - prev.Y})
		}
	}

	changes := 0
	for i := 1; i < len(vectors); i++ {
		if vectors[i] != vectors[i-1] {
			changes++
		}
	}
	return changes
}

// BottleneckEvent is a step where near-door crowding reached the threshold.
type BottleneckEvent struct {
	Step       int      `json:"step"`
	AgentCount int      `json:"agentCount"`
	Agents     []string `json:"agents"`
}

// BottleneckEvents scans each step for active agents within Chebyshev
// distance 1 of the door and emits an event whenever the count reaches
// threshold. Steps are 1-indexed and agent names sorted.
func BottleneckEvents(t *sim.Trajectory, door grid.Cell, threshold int) []BottleneckEvent {
	events := []BottleneckEvent{}
	for i, frame := range t.Frames {
		var near []string
		for name, pos := range frame {
			if pos.Exited {
				continue
			}
			if grid.Chebyshev(pos.Cell, door) <= 1 {
				near = append(near, name)
			}
		}
		if len(near) >= threshold {
			sort.Strings(near)
			events = append(events, BottleneckEvent{
				Step:       i + 1,
				AgentCount: len(near),
				Agents:     near,
			})
		}
	}
	return events
}

// PeakBottleneckDensity is the maximum number of active agents within the
// given radius of the door in any single step.
func PeakBottleneckDensity(t *sim.Trajectory, door grid.Cell, radius int) int {
	peak := 0
	for _, frame := range t.Frames {
		count := 0
		for _, pos := range frame {
			if !pos.Exited && grid.Chebyshev(pos.Cell, door) <= radius {
				count++
			}
		}
		if count > peak {
			peak = count
		}
	}
	return peak
}

// WastedExitCapacity counts steps where the door cell stood empty while
// agents were still on the grid.
func WastedExitCapacity(t *sim.Trajectory, door grid.Cell) int {
	wasted := 0
	for _, frame := range t.Frames {
		onGrid := false
		doorOccupied := false
		for _, pos := range frame {
			if pos.Exited {
				continue
			}
			onGrid = true
			if pos.Cell == door {
				doorOccupied = true
			}
		}
		if onGrid && !doorOccupied {
			wasted++
		}
	}
	return wasted
}

// ExitUtilization attributes evacuations to exits. With a single exit every
// evacuation counts toward it; the key is the exit cell as "(x,y)".
func ExitUtilization(times map[string]*int, exits []grid.Cell) map[string]int {
	evacuated := 0
	for _, t := range times {
		if t != nil {
			evacuated++
		}
	}
	out := make(map[string]int, len(exits))
	for _, e := range exits {
		out[cellKey(e)] = evacuated
	}
	return out
}
