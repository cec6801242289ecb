package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/talgya/evacsim/internal/grid"
)

// State is the engine run state. Complete is terminal.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateComplete State = "complete"
)

// AgentStart names an agent and its initial cell.
type AgentStart struct {
	Name string
	Pos  grid.Cell
}

// HazardConfig enables fire propagation for a run.
type HazardConfig struct {
	NumInitialFires   int
	SpreadProbability float64
}

// Options tunes an engine beyond the required geometry.
type Options struct {
	// Provider supplies per-agent decisions. Nil means the deterministic
	// Policy drives every agent directly.
	Provider Decider
	// Hazard enables the fire field. Nil disables it.
	Hazard *HazardConfig
	// Seed drives fire placement and spread. The engine owns the rng.
	Seed int64
}

// Engine owns the grid, the agents, and the hazard field for the duration
// of one run, advancing them step by step and recording each frame.
type Engine struct {
	world    *grid.World
	agents   []*Agent
	deadline int
	provider Decider
	hazard   *HazardField
	rec      *Recorder
	rng      *rand.Rand

	stepIndex int
	state     State
}

// NewEngine validates the full configuration and builds a run in the Idle
// state. All invalid-configuration errors surface here; no step-level
// operation can fail once construction succeeds.
func NewEngine(w *grid.World, starts []AgentStart, deadline int, opts Options) (*Engine, error) {
	if deadline <= 0 {
		return nil, fmt.Errorf("deadline must be positive, got %d", deadline)
	}
	if len(starts) > w.FreeCellCount() {
		return nil, fmt.Errorf("cannot place %d agents on a grid with %d free cells", len(starts), w.FreeCellCount())
	}

	seen := make(map[string]bool, len(starts))
	taken := make(map[grid.Cell]bool, len(starts))
	agents := make([]*Agent, 0, len(starts))
	for _, s := range starts {
		if s.Name == "" {
			return nil, fmt.Errorf("agent with empty name")
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("duplicate agent name %q", s.Name)
		}
		if !w.InBounds(s.Pos) {
			return nil, fmt.Errorf("agent %q starts outside the grid at %v", s.Name, s.Pos)
		}
		if w.IsObstacle(s.Pos) {
			return nil, fmt.Errorf("agent %q starts on an obstacle at %v", s.Name, s.Pos)
		}
		if taken[s.Pos] {
			return nil, fmt.Errorf("agents share start position %v", s.Pos)
		}
		seen[s.Name] = true
		taken[s.Pos] = true
		agents = append(agents, &Agent{Name: s.Name, Start: s.Pos, Pos: s.Pos, Status: StatusActive})
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	e := &Engine{
		world:    w,
		agents:   agents,
		deadline: deadline,
		provider: opts.Provider,
		rec:      NewRecorder(opts.Hazard != nil),
		rng:      rng,
		state:    StateIdle,
	}

	if opts.Hazard != nil {
		field, err := NewHazardField(w, opts.Hazard.SpreadProbability, rng)
		if err != nil {
			return nil, err
		}
		if err := field.Seed(opts.Hazard.NumInitialFires, taken); err != nil {
			return nil, err
		}
		e.hazard = field
	}

	return e, nil
}

// State returns the current run state.
func (e *Engine) State() State { return e.state }

// StepIndex returns the number of steps executed so far.
func (e *Engine) StepIndex() int { return e.stepIndex }

// Agents returns the engine-owned agent list in processing order.
func (e *Engine) Agents() []*Agent { return e.agents }

// Trajectory returns the history recorded so far. After Run returns it is
// final and safe to share.
func (e *Engine) Trajectory() *Trajectory { return e.rec.Trajectory() }

// activeCount returns the number of agents still on the grid.
func (e *Engine) activeCount() int {
	n := 0
	for _, a := range e.agents {
		if a.Active() {
			n++
		}
	}
	return n
}

// Run executes steps until the deadline passes, no agents remain active, or
// the context is cancelled between steps. A cancelled run still leaves a
// valid partial trajectory.
func (e *Engine) Run(ctx context.Context) error {
	if e.state == StateComplete {
		return fmt.Errorf("engine already complete")
	}
	e.state = StateRunning
	slog.Info("simulation started",
		"agents", len(e.agents),
		"deadline", e.deadline,
		"grid", fmt.Sprintf("%dx%d", e.world.Width, e.world.Height),
		"hazard", e.hazard != nil,
	)

	for {
		if e.stepIndex >= e.deadline || e.activeCount() == 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			e.state = StateComplete
			slog.Warn("simulation aborted", "step", e.stepIndex, "error", err)
			return err
		}
		e.step(ctx)
	}

	e.state = StateComplete
	slog.Info("simulation complete",
		"steps", e.stepIndex,
		"active_remaining", e.activeCount(),
	)
	return nil
}

// step advances the run by one tick in the mandated order: movement, fire
// deaths, door exits, fire spread, fire death re-check, then frame
// recording. Agents can escape one step ahead of the fire, and the fire
// can kill agents that failed to escape this step.
func (e *Engine) step(ctx context.Context) {
	e.resolveMovement(ctx)
	e.checkFireDeaths()
	e.checkDoorExits()
	if e.hazard != nil {
		e.hazard.Spread()
	}
	e.checkFireDeaths()

	e.stepIndex++
	var fire []grid.Cell
	if e.hazard != nil {
		fire = e.hazard.Cells()
	}
	e.rec.Record(e.agents, fire)
}

// resolveMovement gathers all decisions, then applies them one agent at a
// time so each move is visible to the next agent processed in the same
// step. Two agents can never resolve against a stale occupancy view that
// lets them collide.
func (e *Engine) resolveMovement(ctx context.Context) {
	decisions := e.gatherDecisions(ctx)

	occupied := make(map[grid.Cell]bool, len(e.agents))
	for _, a := range e.agents {
		if a.Active() {
			occupied[a.Pos] = true
		}
	}

	for i, a := range e.agents {
		if !a.Active() {
			continue
		}

		// Standing on a door: exit before any move is attempted.
		if e.world.IsDoor(a.Pos) {
			delete(occupied, a.Pos)
			a.markExited()
			continue
		}

		delete(occupied, a.Pos)
		door := e.world.NearestDoor(a.Pos)

		target := a.Pos
		if d := decisions[i]; d.ok && e.legalMove(a.Pos, d.action, occupied) {
			if !d.action.Stay {
				target = d.action.Target
			}
		} else {
			target = NextCell(e.world, a.Pos, door, func(c grid.Cell) bool { return occupied[c] })
		}

		if e.world.IsDoor(target) {
			a.markExited()
			continue
		}
		a.Pos = target
		occupied[target] = true
	}
}

// decision is a gathered provider result for one agent slot.
type decision struct {
	action Action
	ok     bool
}

// gatherDecisions fans the provider out across all active agents and waits
// for every answer before movement is applied. With no provider the
// deterministic path is taken inline during application instead, against
// live occupancy.
func (e *Engine) gatherDecisions(ctx context.Context) []decision {
	decisions := make([]decision, len(e.agents))
	if e.provider == nil {
		return decisions
	}

	env := e.snapshot()
	var wg sync.WaitGroup
	for i, a := range e.agents {
		if !a.Active() {
			continue
		}
		wg.Add(1)
		go func(i int, a *Agent) {
			defer wg.Done()
			view := AgentView{Name: a.Name, Pos: a.Pos}
			agentEnv := env
			agentEnv.Door = e.world.NearestDoor(a.Pos)
			agentEnv.Occupied = e.occupiedExcept(a.Name)
			act, err := e.provider.Decide(ctx, view, agentEnv)
			if err != nil {
				slog.Warn("decision provider failed, using fallback policy",
					"agent", a.Name, "step", e.stepIndex, "error", err)
				return
			}
			decisions[i] = decision{action: act, ok: true}
		}(i, a)
	}
	wg.Wait()
	return decisions
}

// snapshot builds the per-step environment view shared by all agents.
func (e *Engine) snapshot() EnvSnapshot {
	env := EnvSnapshot{
		Width:     e.world.Width,
		Height:    e.world.Height,
		Obstacles: e.world.Obstacles(),
	}
	if e.hazard != nil {
		env.Ignited = e.hazard.Cells()
	}
	return env
}

// occupiedExcept returns the positions of all active agents other than the
// named one, as seen at the start of the step.
func (e *Engine) occupiedExcept(name string) []grid.Cell {
	var out []grid.Cell
	for _, a := range e.agents {
		if a.Active() && a.Name != name {
			out = append(out, a.Pos)
		}
	}
	return out
}

// legalMove reports whether a provider action may be applied as-is: at most
// one cell of travel, in bounds, off walls, and into an unoccupied cell. An
// illegal action degrades to the fallback policy for this agent and step.
func (e *Engine) legalMove(pos grid.Cell, act Action, occupied map[grid.Cell]bool) bool {
	if act.Stay {
		return true
	}
	t := act.Target
	if grid.Chebyshev(pos, t) > 1 {
		return false
	}
	if !e.world.InBounds(t) || e.world.IsObstacle(t) {
		return false
	}
	if t != pos && occupied[t] {
		return false
	}
	return true
}

// checkFireDeaths marks every active agent on an ignited cell dead.
func (e *Engine) checkFireDeaths() {
	if e.hazard == nil {
		return
	}
	for _, a := range e.agents {
		if a.Active() && e.hazard.Ignited(a.Pos) {
			a.markDead()
			slog.Info("agent killed by fire", "agent", a.Name, "cell", a.Pos, "step", e.stepIndex)
		}
	}
}

// checkDoorExits marks every active agent standing on a door as exited.
func (e *Engine) checkDoorExits() {
	for _, a := range e.agents {
		if a.Active() && e.world.IsDoor(a.Pos) {
			a.markExited()
			slog.Info("agent exited", "agent", a.Name, "step", e.stepIndex)
		}
	}
}
