// Package config owns the scenario file schema: grid geometry, deadline,
// agents, and optional hazard parameters. All invalid-configuration errors
// are reported here or at engine construction, before any step runs.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/talgya/evacsim/internal/grid"
	"github.com/talgya/evacsim/internal/sim"
)

// Hazard enables fire propagation for a scenario.
type Hazard struct {
	NumInitialFires   int     `json:"numInitialFires"`
	SpreadProbability float64 `json:"spreadProbability"`
	RandomSeed        int64   `json:"randomSeed"`
}

// Environment is the static scenario geometry and timing.
type Environment struct {
	Width     int         `json:"width"`
	Height    int         `json:"height"`
	Deadline  int         `json:"deadline"`
	Door      grid.Cell   `json:"door"`
	Obstacles []grid.Cell `json:"obstacles"`
	Hazard    *Hazard     `json:"hazard,omitempty"`
}

// AgentConfig names one agent and places it on the grid. Role and
// personality only matter to LLM-backed decision providers.
type AgentConfig struct {
	Name        string    `json:"name"`
	Role        string    `json:"role,omitempty"`
	Personality string    `json:"personality,omitempty"`
	Position    grid.Cell `json:"position"`
}

// Config is a full scenario.
type Config struct {
	Environment Environment   `json:"environment"`
	Agents      []AgentConfig `json:"agents"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the scenario as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks every setup-time constraint: positive dimensions and
// deadline, door and agent positions inside the grid and off obstacles,
// enough free cells for the requested agents, and a spread probability
// within [0, 1].
func (c *Config) Validate() error {
	env := c.Environment
	if env.Width <= 0 || env.Height <= 0 {
		return fmt.Errorf("grid dimensions must be positive, got %dx%d", env.Width, env.Height)
	}
	if env.Deadline <= 0 {
		return fmt.Errorf("deadline must be positive, got %d", env.Deadline)
	}
	if len(c.Agents) == 0 {
		return fmt.Errorf("at least one agent is required")
	}

	// World construction checks door/obstacle placement.
	w, err := c.World()
	if err != nil {
		return err
	}

	if len(c.Agents) > w.FreeCellCount() {
		return fmt.Errorf("cannot place %d agents on a grid with %d free cells",
			len(c.Agents), w.FreeCellCount())
	}

	seen := make(map[string]bool, len(c.Agents))
	for _, a := range c.Agents {
		if a.Name == "" {
			return fmt.Errorf("agent with empty name")
		}
		if seen[a.Name] {
			return fmt.Errorf("duplicate agent name %q", a.Name)
		}
		seen[a.Name] = true
		if !w.InBounds(a.Position) {
			return fmt.Errorf("agent %q starts outside the grid at %v", a.Name, a.Position)
		}
		if w.IsObstacle(a.Position) {
			return fmt.Errorf("agent %q starts on an obstacle at %v", a.Name, a.Position)
		}
	}

	if h := env.Hazard; h != nil {
		if h.SpreadProbability < 0 || h.SpreadProbability > 1 {
			return fmt.Errorf("spread probability %v outside [0,1]", h.SpreadProbability)
		}
		if h.NumInitialFires < 0 {
			return fmt.Errorf("numInitialFires must be non-negative, got %d", h.NumInitialFires)
		}
	}
	return nil
}

// World builds the grid world described by the environment.
func (c *Config) World() (*grid.World, error) {
	return grid.NewWorld(c.Environment.Width, c.Environment.Height,
		[]grid.Cell{c.Environment.Door}, c.Environment.Obstacles)
}

// Starts returns the agents as engine start entries, in file order.
func (c *Config) Starts() []sim.AgentStart {
	starts := make([]sim.AgentStart, 0, len(c.Agents))
	for _, a := range c.Agents {
		starts = append(starts, sim.AgentStart{Name: a.Name, Pos: a.Position})
	}
	return starts
}

// StartMap returns agent name to start position, as analytics consume it.
func (c *Config) StartMap() map[string]grid.Cell {
	starts := make(map[string]grid.Cell, len(c.Agents))
	for _, a := range c.Agents {
		starts[a.Name] = a.Position
	}
	return starts
}

// EngineOptions maps the scenario onto engine options. The provider may be
// nil for the built-in deterministic policy.
func (c *Config) EngineOptions(provider sim.Decider) sim.Options {
	opts := sim.Options{Provider: provider}
	if h := c.Environment.Hazard; h != nil {
		opts.Seed = h.RandomSeed
		opts.Hazard = &sim.HazardConfig{
			NumInitialFires:   h.NumInitialFires,
			SpreadProbability: h.SpreadProbability,
		}
	}
	return opts
}
