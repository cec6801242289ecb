package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const scenarioBody = `{
	"environment": {
		"width": 10,
		"height": 10,
		"deadline": 30,
		"door": [9, 5],
		"obstacles": []
	},
	"agents": [
		{"name": "Alice", "position": [0, 0]},
		{"name": "Bob", "position": [9, 0]}
	]
}`

func TestHandleSimulate(t *testing.T) {
	s := &Server{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/simulate", strings.NewReader(scenarioBody))
	w := httptest.NewRecorder()
	s.handleSimulate(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp simulateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.StepsRun != 9 {
		t.Fatalf("stepsRun = %d, want 9", resp.StepsRun)
	}
	if resp.Report == nil || resp.Report.SimulationOverview.TotalEvacuated != 2 {
		t.Fatalf("unexpected report %+v", resp.Report)
	}
	if resp.Trajectory == nil || resp.Trajectory.Steps() != 9 {
		t.Fatal("trajectory missing from response")
	}
	if resp.RunID != "" {
		t.Fatalf("no archive configured, runId must be empty, got %q", resp.RunID)
	}
}

func TestHandleSimulateRejectsBadMethod(t *testing.T) {
	s := &Server{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/simulate", nil)
	w := httptest.NewRecorder()
	s.handleSimulate(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", w.Code)
	}
}

func TestHandleSimulateRejectsInvalidConfig(t *testing.T) {
	cases := []string{
		`{not json`,
		`{"environment": {"width": 0, "height": 10, "deadline": 30, "door": [0,0]}, "agents": [{"name": "A", "position": [1,1]}]}`,
		`{"environment": {"width": 10, "height": 10, "deadline": 30, "door": [9,5]}, "agents": []}`,
	}
	for i, body := range cases {
		s := &Server{}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/simulate", strings.NewReader(body))
		w := httptest.NewRecorder()
		s.handleSimulate(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("case %d: status = %d, want 400", i, w.Code)
		}
		var errResp map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
			t.Fatalf("case %d: error body is not JSON: %v", i, err)
		}
		if errResp["error"] == "" {
			t.Fatalf("case %d: missing error message", i)
		}
	}
}

func TestHandleHealth(t *testing.T) {
	s := &Server{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	s.handleHealth(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestRunEndpointsWithoutArchive(t *testing.T) {
	s := &Server{}

	w := httptest.NewRecorder()
	s.handleRuns(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("runs status = %d, want 503", w.Code)
	}

	w = httptest.NewRecorder()
	s.handleRunDetail(w, httptest.NewRequest(http.MethodGet, "/api/v1/run/abc", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("run detail status = %d, want 503", w.Code)
	}
}

func TestCORSPreflightAndAllowedOrigin(t *testing.T) {
	handler := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/simulate", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("allow-origin = %q", got)
	}

	// Unknown origins get no CORS headers.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected allow-origin %q for unknown origin", got)
	}
}
