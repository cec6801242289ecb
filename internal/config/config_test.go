package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/talgya/evacsim/internal/grid"
)

func validConfig() *Config {
	return &Config{
		Environment: Environment{
			Width:     10,
			Height:    10,
			Deadline:  30,
			Door:      grid.Cell{X: 9, Y: 5},
			Obstacles: []grid.Cell{{X: 3, Y: 3}},
		},
		Agents: []AgentConfig{
			{Name: "Alice", Position: grid.Cell{X: 0, Y: 0}},
			{Name: "Bob", Position: grid.Cell{X: 0, Y: 9}},
		},
	}
}

func TestValidateAcceptsGoodConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero width", func(c *Config) { c.Environment.Width = 0 }, "dimensions"},
		{"zero deadline", func(c *Config) { c.Environment.Deadline = 0 }, "deadline"},
		{"no agents", func(c *Config) { c.Agents = nil }, "agent"},
		{"door out of bounds", func(c *Config) { c.Environment.Door = grid.Cell{X: 10, Y: 5} }, "door"},
		{"door on obstacle", func(c *Config) { c.Environment.Door = grid.Cell{X: 3, Y: 3} }, "obstacle"},
		{"empty agent name", func(c *Config) { c.Agents[0].Name = "" }, "name"},
		{"duplicate agent name", func(c *Config) { c.Agents[1].Name = "Alice" }, "duplicate"},
		{"agent out of bounds", func(c *Config) { c.Agents[0].Position = grid.Cell{X: -1, Y: 0} }, "outside"},
		{"agent on obstacle", func(c *Config) { c.Agents[0].Position = grid.Cell{X: 3, Y: 3} }, "obstacle"},
		{"bad spread probability", func(c *Config) {
			c.Environment.Hazard = &Hazard{NumInitialFires: 1, SpreadProbability: 1.5}
		}, "probability"},
		{"negative fires", func(c *Config) {
			c.Environment.Hazard = &Hazard{NumInitialFires: -1, SpreadProbability: 0.5}
		}, "numInitialFires"},
	}

	for _, c := range cases {
		cfg := validConfig()
		c.mutate(cfg)
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("%s: expected validation error", c.name)
		}
		if !strings.Contains(err.Error(), c.want) {
			t.Fatalf("%s: error %q does not mention %q", c.name, err, c.want)
		}
	}
}

func TestValidateTooManyAgents(t *testing.T) {
	cfg := &Config{
		Environment: Environment{
			Width:    2,
			Height:   2,
			Deadline: 5,
			Door:     grid.Cell{X: 1, Y: 1},
		},
	}
	for i := 0; i < 5; i++ {
		cfg.Agents = append(cfg.Agents, AgentConfig{
			Name:     string(rune('A' + i)),
			Position: grid.Cell{X: i % 2, Y: i / 2},
		})
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for more agents than free cells")
	}
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.json")
	orig := validConfig()
	orig.Environment.Hazard = &Hazard{NumInitialFires: 2, SpreadProbability: 0.3, RandomSeed: 42}
	if err := orig.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Environment.Width != 10 || cfg.Environment.Door != (grid.Cell{X: 9, Y: 5}) {
		t.Fatalf("environment lost in round trip: %+v", cfg.Environment)
	}
	if len(cfg.Agents) != 2 || cfg.Agents[0].Name != "Alice" {
		t.Fatalf("agents lost in round trip: %+v", cfg.Agents)
	}
	if cfg.Environment.Hazard == nil || cfg.Environment.Hazard.RandomSeed != 42 {
		t.Fatalf("hazard lost in round trip: %+v", cfg.Environment.Hazard)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestStartsPreserveFileOrder(t *testing.T) {
	cfg := validConfig()
	starts := cfg.Starts()
	if len(starts) != 2 || starts[0].Name != "Alice" || starts[1].Name != "Bob" {
		t.Fatalf("unexpected starts %+v", starts)
	}
	if starts[0].Pos != (grid.Cell{X: 0, Y: 0}) {
		t.Fatalf("unexpected position %v", starts[0].Pos)
	}
}

func TestEngineOptionsCarryHazard(t *testing.T) {
	cfg := validConfig()
	if opts := cfg.EngineOptions(nil); opts.Hazard != nil {
		t.Fatal("no hazard configured, options must not carry one")
	}

	cfg.Environment.Hazard = &Hazard{NumInitialFires: 2, SpreadProbability: 0.3, RandomSeed: 7}
	opts := cfg.EngineOptions(nil)
	if opts.Hazard == nil || opts.Hazard.NumInitialFires != 2 || opts.Hazard.SpreadProbability != 0.3 {
		t.Fatalf("hazard not mapped: %+v", opts.Hazard)
	}
	if opts.Seed != 7 {
		t.Fatalf("seed = %d, want 7", opts.Seed)
	}
}
