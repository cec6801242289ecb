package metrics

import (
	"fmt"

	"github.com/talgya/evacsim/internal/grid"
	"github.com/talgya/evacsim/internal/sim"
)

func cellKey(c grid.Cell) string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// FinalStatuses returns each agent's terminal status from the status
// history, or nil when the run recorded no statuses (hazard disabled).
func FinalStatuses(t *sim.Trajectory) map[string]sim.Status {
	if len(t.Statuses) == 0 {
		return nil
	}
	last := t.Statuses[len(t.Statuses)-1]
	out := make(map[string]sim.Status, len(last))
	for name, st := range last {
		out[name] = st
	}
	return out
}

// DeathCount counts agents whose final status is dead. Zero without status
// history.
func DeathCount(t *sim.Trajectory) int {
	deaths := 0
	for _, st := range FinalStatuses(t) {
		if st == sim.StatusDead {
			deaths++
		}
	}
	return deaths
}

// CasualtyHeatmap maps "(x,y)" cells to the number of agents that died
// there. The death cell is the agent's last on-grid position before its
// status flipped to dead, falling back to its start position for a
// first-step death. Nil without status history.
func CasualtyHeatmap(t *sim.Trajectory, starts map[string]grid.Cell) map[string]int {
	if len(t.Statuses) == 0 {
		return nil
	}

	heatmap := make(map[string]int)
	for name := range t.Frames[0] {
		deathFrame := -1
		for i, statuses := range t.Statuses {
			if statuses[name] == sim.StatusDead {
				deathFrame = i
				break
			}
		}
		if deathFrame < 0 {
			continue
		}

		cell, found := starts[name]
		for i := deathFrame; i >= 0; i-- {
			if pos, ok := t.Frames[i][name]; ok && pos.OnGrid() {
				cell, found = pos.Cell, true
				break
			}
		}
		if found {
			heatmap[cellKey(cell)]++
		}
	}
	return heatmap
}

// TimeInDangerZone counts the frames an agent spent on or Moore-adjacent to
// an ignited cell. Nil without fire history.
func TimeInDangerZone(name string, t *sim.Trajectory) *int {
	if len(t.Fires) == 0 {
		return nil
	}
	steps := 0
	for i, frame := range t.Frames {
		pos, ok := frame[name]
		if !ok || pos.Exited || i >= len(t.Fires) {
			continue
		}
		for _, f := range t.Fires[i] {
			if grid.Chebyshev(pos.Cell, f) <= 1 {
				steps++
				break
			}
		}
	}
	return &steps
}

// DangerTimelineEntry summarizes one step of the fire front against the
// evacuation progress.
type DangerTimelineEntry struct {
	Step                int `json:"step"`
	IgnitedCells        int `json:"ignitedCells"`
	ActiveAgents        int `json:"activeAgents"`
	CumulativeEvacuated int `json:"cumulativeEvacuated"`
	CumulativeDeaths    int `json:"cumulativeDeaths"`
}

// DangerTimeline builds the per-step danger-versus-evacuation series. Nil
// without fire history.
func DangerTimeline(t *sim.Trajectory) []DangerTimelineEntry {
	if len(t.Fires) == 0 {
		return nil
	}

	timeline := make([]DangerTimelineEntry, 0, t.Steps())
	for i := range t.Frames {
		entry := DangerTimelineEntry{Step: i + 1}
		if i < len(t.Fires) {
			entry.IgnitedCells = len(t.Fires[i])
		}
		if i < len(t.Statuses) {
			for _, st := range t.Statuses[i] {
				switch st {
				case sim.StatusActive:
					entry.ActiveAgents++
				case sim.StatusExited:
					entry.CumulativeEvacuated++
				case sim.StatusDead:
					entry.CumulativeDeaths++
				}
			}
		}
		timeline = append(timeline, entry)
	}
	return timeline
}
