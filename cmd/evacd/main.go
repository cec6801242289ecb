// Command evacd serves the simulator over HTTP. Scenarios are submitted
// as JSON, run server-side, and archived to SQLite for later retrieval.
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/talgya/evacsim/internal/api"
	"github.com/talgya/evacsim/internal/llm"
	"github.com/talgya/evacsim/internal/persistence"
	"github.com/talgya/evacsim/internal/sim"
)

func main() {
	var (
		port     = flag.Int("port", 8080, "HTTP listen port")
		dbPath   = flag.String("db", "evacsim.db", "SQLite run archive path (empty disables archiving)")
		useLLM   = flag.Bool("llm", false, "drive submitted runs with the LLM decision provider")
		llmModel = flag.String("llm-model", "", "override the LLM model name")
		debug    = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	var db *persistence.DB
	if *dbPath != "" {
		var err error
		db, err = persistence.Open(*dbPath)
		if err != nil {
			slog.Error("open run archive", "path", *dbPath, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		slog.Info("run archive open", "path", *dbPath)
	}

	var provider sim.Decider
	if *useLLM {
		client := llm.NewClient(os.Getenv("ANTHROPIC_API_KEY"), *llmModel)
		if client.Enabled() {
			provider = &llm.Decider{Client: client}
			slog.Info("LLM decision provider enabled")
		} else {
			slog.Warn("ANTHROPIC_API_KEY not set, submitted runs use the deterministic policy")
		}
	}

	server := &api.Server{DB: db, Port: *port, Provider: provider}
	server.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	slog.Info("shutting down")
}
