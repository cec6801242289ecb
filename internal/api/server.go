// Package api exposes the simulator over HTTP: submit a scenario, run it,
// and fetch the benchmark report, or browse previously archived runs.
// GET endpoints are public; simulation POSTs are rate limited per client.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/talgya/evacsim/internal/config"
	"github.com/talgya/evacsim/internal/persistence"
	"github.com/talgya/evacsim/internal/report"
	"github.com/talgya/evacsim/internal/sim"
)

// Server serves the simulator over HTTP.
type Server struct {
	DB   *persistence.DB
	Port int
	// Provider optionally replaces the deterministic policy for submitted
	// runs. Nil keeps the built-in policy.
	Provider sim.Decider
	// StepBudget caps per-request simulation time. Zero means one minute.
	StepBudget time.Duration
}

// simulateResponse is the POST /simulate payload.
type simulateResponse struct {
	RunID      string          `json:"runId"`
	StepsRun   int             `json:"stepsRun"`
	Trajectory *sim.Trajectory `json:"trajectory"`
	Report     *report.Report  `json:"report"`
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	simulateLimiter := NewRateLimiter(30, time.Hour)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/health", s.handleHealth)
	mux.HandleFunc("/api/v1/simulate", RateLimitMiddleware(simulateLimiter, s.handleSimulate))
	mux.HandleFunc("/api/v1/runs", s.handleRuns)
	mux.HandleFunc("/api/v1/run/", s.handleRunDetail)

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr)

	go func() {
		handler := corsMiddleware(mux)
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware allows browser frontends to call the API. Set CORS_ORIGINS
// to a comma-separated list of extra allowed origins; localhost dev servers
// are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSimulate runs a submitted scenario to completion and returns the
// trajectory plus the full benchmark report. Completed runs are archived.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var cfg config.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("parse config: %v", err))
		return
	}
	if err := cfg.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	world, err := cfg.World()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	engine, err := sim.NewEngine(world, cfg.Starts(), cfg.Environment.Deadline, cfg.EngineOptions(s.Provider))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	budget := s.StepBudget
	if budget == 0 {
		budget = time.Minute
	}
	ctx, cancel := context.WithTimeout(r.Context(), budget)
	defer cancel()

	// A timed-out run still yields a valid partial trajectory; report on
	// whatever was recorded.
	if err := engine.Run(ctx); err != nil {
		slog.Warn("simulation cut short", "error", err)
	}

	traj := engine.Trajectory()
	rep := report.Build(report.Params{
		Trajectory: traj,
		Door:       cfg.Environment.Door,
		Width:      cfg.Environment.Width,
		Height:     cfg.Environment.Height,
		Deadline:   cfg.Environment.Deadline,
		Starts:     cfg.StartMap(),
	})

	resp := simulateResponse{
		StepsRun:   traj.Steps(),
		Trajectory: traj,
		Report:     rep,
	}
	if s.DB != nil {
		id, err := s.DB.SaveRun(&cfg, traj, rep)
		if err != nil {
			slog.Error("archive run", "error", err)
		} else {
			resp.RunID = id
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleRuns lists archived runs, newest first.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeError(w, http.StatusServiceUnavailable, "run archive disabled")
		return
	}
	runs, err := s.DB.ListRuns(50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// handleRunDetail returns one archived run by id.
func (s *Server) handleRunDetail(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeError(w, http.StatusServiceUnavailable, "run archive disabled")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/run/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "run id required")
		return
	}
	run, err := s.DB.GetRun(id)
	if errors.Is(err, persistence.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}
