// Command evacsim runs one evacuation simulation and produces the
// benchmark report: load or generate a scenario, run it to completion,
// compute the metrics, and archive the run.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/evacsim/internal/config"
	"github.com/talgya/evacsim/internal/grid"
	"github.com/talgya/evacsim/internal/llm"
	"github.com/talgya/evacsim/internal/persistence"
	"github.com/talgya/evacsim/internal/profile"
	"github.com/talgya/evacsim/internal/report"
	"github.com/talgya/evacsim/internal/scenario"
	"github.com/talgya/evacsim/internal/sim"
)

func main() {
	var (
		configPath   = flag.String("config", "", "scenario JSON file (omit to generate a random scenario)")
		outPath      = flag.String("out", "results/run_results.json", "report output path")
		trajPath     = flag.String("trajectory", "", "also write the raw trajectory JSON here")
		dbPath       = flag.String("db", "", "SQLite run archive path (empty disables archiving)")
		profilesPath = flag.String("profiles", "profiles.json", "agent profiles for vulnerability analysis (written here for generated scenarios)")
		numAgents    = flag.Int("agents", 5, "agent count for generated scenarios")
		seed         = flag.Int64("seed", 42, "seed for generated scenarios and hazard")
		density      = flag.Float64("obstacle-density", 0.12, "obstacle density for generated scenarios")
		fires        = flag.Int("fires", 0, "initial fire count for generated scenarios (0 disables hazard)")
		spreadProb   = flag.Float64("spread", 0.25, "fire spread probability for generated scenarios")
		useLLM       = flag.Bool("llm", false, "drive agents with the LLM decision provider (needs ANTHROPIC_API_KEY)")
		llmModel     = flag.String("llm-model", "", "override the LLM model name")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, profiles, err := loadOrGenerate(*configPath, *profilesPath, *numAgents, *seed, *density, *fires, *spreadProb)
	if err != nil {
		slog.Error("scenario setup failed", "error", err)
		os.Exit(1)
	}

	var provider sim.Decider
	if *useLLM {
		client := llm.NewClient(os.Getenv("ANTHROPIC_API_KEY"), *llmModel)
		if client.Enabled() {
			personas := make(map[string]string, len(cfg.Agents))
			for _, a := range cfg.Agents {
				if a.Role != "" || a.Personality != "" {
					personas[a.Name] = fmt.Sprintf("Your role: %s. Your personality: %s", a.Role, a.Personality)
				}
			}
			provider = &llm.Decider{Client: client, Personas: personas}
			slog.Info("LLM decision provider enabled")
		} else {
			slog.Warn("ANTHROPIC_API_KEY not set, using the deterministic policy")
		}
	}

	world, err := cfg.World()
	if err != nil {
		slog.Error("invalid scenario", "error", err)
		os.Exit(1)
	}
	engine, err := sim.NewEngine(world, cfg.Starts(), cfg.Environment.Deadline, cfg.EngineOptions(provider))
	if err != nil {
		slog.Error("invalid scenario", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	if err := engine.Run(ctx); err != nil {
		slog.Warn("run aborted, reporting on the partial trajectory", "error", err)
	}
	elapsed := time.Since(started)

	traj := engine.Trajectory()
	rep := report.Build(report.Params{
		Trajectory: traj,
		Door:       cfg.Environment.Door,
		Width:      cfg.Environment.Width,
		Height:     cfg.Environment.Height,
		Deadline:   cfg.Environment.Deadline,
		Starts:     cfg.StartMap(),
		Profiles:   profiles,
	})

	if err := report.Save(rep, *outPath); err != nil {
		slog.Error("write report", "path", *outPath, "error", err)
		os.Exit(1)
	}
	slog.Info("report written", "path", *outPath)

	if *trajPath != "" {
		if err := writeTrajectory(cfg, traj, *trajPath); err != nil {
			slog.Error("write trajectory", "path", *trajPath, "error", err)
			os.Exit(1)
		}
		slog.Info("trajectory written", "path", *trajPath)
	}

	if *dbPath != "" {
		db, err := persistence.Open(*dbPath)
		if err != nil {
			slog.Error("open run archive", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if _, err := db.SaveRun(cfg, traj, rep); err != nil {
			slog.Error("archive run", "error", err)
		}
	}

	printSummary(rep, elapsed)
}

// loadOrGenerate reads the scenario and profile files, or builds a random
// persona-backed scenario on a 10x10 room when no scenario file is given.
func loadOrGenerate(path, profilesPath string, numAgents int, seed int64, density float64, fires int, spreadProb float64) (*config.Config, []profile.Profile, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, nil, err
		}
		profiles, err := profile.Load(profilesPath)
		if err != nil {
			slog.Warn("profiles unavailable, vulnerability analysis disabled", "error", err)
		}
		return cfg, profiles, nil
	}

	env := config.Environment{
		Width:    10,
		Height:   10,
		Deadline: 30,
		Door:     grid.Cell{X: 9, Y: 5},
	}
	env.Obstacles = scenario.NoiseObstacles(env.Width, env.Height, []grid.Cell{env.Door}, seed, density)
	if fires > 0 {
		env.Hazard = &config.Hazard{
			NumInitialFires:   fires,
			SpreadProbability: spreadProb,
			RandomSeed:        seed,
		}
	}

	profiles, agents, err := scenario.Profiles(env, numAgents, seed)
	if err != nil {
		return nil, nil, err
	}

	cfg := &config.Config{Environment: env, Agents: agents}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	if err := profile.Save(profiles, profilesPath); err != nil {
		slog.Warn("could not write generated profiles", "path", profilesPath, "error", err)
	}
	slog.Info("generated random scenario",
		"agents", numAgents, "obstacles", len(env.Obstacles), "seed", seed, "hazard", fires > 0)
	return cfg, profiles, nil
}

// trajectoryFile is the standalone trajectory.json shape, with the grid
// echoed so the file is self-describing.
type trajectoryFile struct {
	Width     int         `json:"width"`
	Height    int         `json:"height"`
	Door      grid.Cell   `json:"door"`
	Obstacles []grid.Cell `json:"obstacles"`
	*sim.Trajectory
}

func writeTrajectory(cfg *config.Config, traj *sim.Trajectory, path string) error {
	data, err := json.MarshalIndent(trajectoryFile{
		Width:      cfg.Environment.Width,
		Height:     cfg.Environment.Height,
		Door:       cfg.Environment.Door,
		Obstacles:  cfg.Environment.Obstacles,
		Trajectory: traj,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func printSummary(rep *report.Report, elapsed time.Duration) {
	ov := rep.SimulationOverview

	fmt.Println("\n--- Benchmark Summary ---")
	fmt.Printf("  Agents: %s\n", humanize.Comma(int64(ov.TotalAgents)))
	fmt.Printf("  Evacuated: %s\n", humanize.Comma(int64(ov.TotalEvacuated)))
	fmt.Printf("  Deaths: %s\n", humanize.Comma(int64(ov.TotalDeaths)))
	fmt.Printf("  Survival rate: %.1f%%\n", ov.SurvivalRate*100)
	if ov.MeanEvacuationTime != nil {
		fmt.Printf("  Mean evacuation time: %.1f steps\n", *ov.MeanEvacuationTime)
	}
	if ov.TimeToFirstEvacuation != nil {
		fmt.Printf("  First evacuation at step: %d\n", *ov.TimeToFirstEvacuation)
	}
	if ov.LastEvacuationTime != nil {
		fmt.Printf("  Last evacuation at step: %d\n", *ov.LastEvacuationTime)
	}
	fmt.Printf("  Steps: %s of %s allowed\n",
		humanize.Comma(int64(ov.TotalSteps)), humanize.Comma(int64(ov.Deadline)))

	names := make([]string, 0, len(rep.AgentScorecards))
	for name := range rep.AgentScorecards {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\n  Per-agent:")
	for _, name := range names {
		sc := rep.AgentScorecards[name]
		status := "did not evacuate"
		if sc.Survived {
			status = fmt.Sprintf("evacuated at step %d", *sc.EvacuationTime)
		} else if sc.CauseOfDeath != nil {
			status = fmt.Sprintf("died (%s)", *sc.CauseOfDeath)
		}
		fmt.Printf("    %s: %s (efficiency: %.2f)\n", name, status, sc.OptimalPathRatio)
	}

	if n := len(rep.GroupDynamics.BottleneckEvents); n > 0 {
		fmt.Printf("\n  Bottleneck events: %d\n", n)
	}
	fmt.Printf("  Peak door density: %d\n", rep.SpatialAnalysis.PeakBottleneckDensity)
	fmt.Printf("  Wasted exit capacity: %d steps\n", rep.SpatialAnalysis.WastedExitCapacity)
	fmt.Printf("  Finished in %s\n", elapsed.Round(time.Millisecond))
}
