package sim

import (
	"encoding/json"
	"fmt"

	"github.com/talgya/evacsim/internal/grid"
)

// ExitedSentinel is the literal frame value for an agent that is no longer
// on the grid.
const ExitedSentinel = "exited"

// Pos is one frame entry: a grid cell, or the "exited" sentinel once the
// agent has left the grid (by evacuation or death). It marshals as either
// [x, y] or the string "exited".
type Pos struct {
	Cell   grid.Cell
	Exited bool
}

// OnGrid reports whether the entry holds a real cell.
func (p Pos) OnGrid() bool { return !p.Exited }

// MarshalJSON encodes [x, y] or "exited".
func (p Pos) MarshalJSON() ([]byte, error) {
	if p.Exited {
		return json.Marshal(ExitedSentinel)
	}
	return json.Marshal(p.Cell)
}

// UnmarshalJSON decodes either form.
func (p *Pos) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != ExitedSentinel {
			return fmt.Errorf("unknown frame sentinel %q", s)
		}
		p.Exited = true
		return nil
	}
	p.Exited = false
	return json.Unmarshal(data, &p.Cell)
}

// Frame is one step's snapshot: every agent that ever existed maps to its
// current cell or the exited sentinel.
type Frame map[string]Pos

// StatusFrame is the parallel per-step status snapshot, recorded when the
// hazard is enabled so analytics can tell deaths from evacuations.
type StatusFrame map[string]Status

// Trajectory is the full recorded history of one run. Frames, Statuses, and
// Fires are parallel slices of the same length. The trajectory is immutable
// once the run completes.
type Trajectory struct {
	Frames   []Frame       `json:"history"`
	Statuses []StatusFrame `json:"statusHistory,omitempty"`
	Fires    [][]grid.Cell `json:"fireHistory,omitempty"`
}

// Steps returns the number of recorded frames.
func (t *Trajectory) Steps() int { return len(t.Frames) }

// Recorder accumulates frames during a run. The engine is its only writer.
type Recorder struct {
	traj       Trajectory
	withStatus bool
}

// NewRecorder creates a recorder. withStatus enables the parallel status
// and fire histories.
func NewRecorder(withStatus bool) *Recorder {
	return &Recorder{withStatus: withStatus}
}

// Record appends one frame covering every agent. Fire cells are recorded
// only when status tracking is on.
func (r *Recorder) Record(agents []*Agent, fire []grid.Cell) {
	frame := make(Frame, len(agents))
	var statuses StatusFrame
	if r.withStatus {
		statuses = make(StatusFrame, len(agents))
	}

	for _, a := range agents {
		if a.Active() {
			frame[a.Name] = Pos{Cell: a.Pos}
		} else {
			frame[a.Name] = Pos{Exited: true}
		}
		if statuses != nil {
			statuses[a.Name] = a.Status
		}
	}

	r.traj.Frames = append(r.traj.Frames, frame)
	if r.withStatus {
		r.traj.Statuses = append(r.traj.Statuses, statuses)
		r.traj.Fires = append(r.traj.Fires, fire)
	}
}

// Trajectory returns the recorded history. Valid even for a run aborted
// between steps.
func (r *Recorder) Trajectory() *Trajectory {
	return &r.traj
}
