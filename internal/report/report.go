// Package report assembles the metric outputs into the four-section
// benchmark report. Metrics this core cannot compute for a given run are
// still present in the output as explicit null / 0 / empty placeholders so
// the report shape never varies.
package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/talgya/evacsim/internal/grid"
	"github.com/talgya/evacsim/internal/metrics"
	"github.com/talgya/evacsim/internal/profile"
	"github.com/talgya/evacsim/internal/sim"
)

// Default analytics thresholds, matching the benchmark definitions.
const (
	DefaultClusterThreshold    = 2
	DefaultBottleneckThreshold = 3
	DefaultBottleneckRadius    = 1
)

// Params carries everything the assembler reads: the finished trajectory
// plus the initial configuration. It owns no simulation state.
type Params struct {
	Trajectory *sim.Trajectory
	Door       grid.Cell
	Width      int
	Height     int
	Deadline   int
	Starts     map[string]grid.Cell
	Profiles   []profile.Profile

	// Zero values select the defaults above.
	ClusterThreshold    int
	BottleneckThreshold int
}

// Overview is the aggregate simulation summary.
type Overview struct {
	SurvivalRate              float64   `json:"survivalRate"`
	TotalDeaths               int       `json:"totalDeaths"`
	TotalInjuries             int       `json:"totalInjuries"`
	MeanEvacuationTime        *float64  `json:"meanEvacuationTime"`
	LastEvacuationTime        *int      `json:"lastEvacuationTime"`
	TimeToFirstEvacuation     *int      `json:"timeToFirstEvacuation"`
	TimeTo50PercentEvacuation *int      `json:"timeTo50PercentEvacuation"`
	TotalAgents               int       `json:"totalAgents"`
	TotalEvacuated            int       `json:"totalEvacuated"`
	Deadline                  int       `json:"deadline"`
	GridSize                  [2]int    `json:"gridSize"`
	DoorPosition              grid.Cell `json:"doorPosition"`
	TotalSteps                int       `json:"totalSteps"`
}

// Scorecard is the per-agent view.
type Scorecard struct {
	Survived         bool      `json:"survived"`
	EvacuationTime   *int      `json:"evacuationTime"`
	StartPosition    grid.Cell `json:"startPosition"`
	Path             []sim.Pos `json:"path"`
	TimeToFirstMove  *int      `json:"timeToFirstMove"`
	OptimalPathRatio float64   `json:"optimalPathRatio"`
	DirectionChanges int       `json:"directionChanges"`
	PeopleHelped     int       `json:"peopleHelped"`
	PeopleInfluenced int       `json:"peopleInfluenced"`
	PeopleHarmed     int       `json:"peopleHarmed"`
	CauseOfDeath     *string   `json:"causeOfDeath"`
	InjuryLevel      *int      `json:"injuryLevel"`
	FinalPanicLevel  *float64  `json:"finalPanicLevel"`
	TimeInDangerZone *int      `json:"timeInDangerZone"`
}

// GroupDynamics covers clustering, crowding, and vulnerability.
type GroupDynamics struct {
	ClustersFormed              [][][]string                    `json:"clustersFormed"`
	BottleneckEvents            []metrics.BottleneckEvent       `json:"bottleneckEvents"`
	VulnerableAgentOutcomes     metrics.VulnerableAgentOutcomes `json:"vulnerableAgentOutcomes"`
	LeadersEmerged              []string                        `json:"leadersEmerged"`
	CooperationRatio            *float64                        `json:"cooperationRatio"`
	InformationPropagationSpeed *float64                        `json:"informationPropagationSpeed"`
	ConflictEvents              []any                           `json:"conflictEvents"`
}

// SpatialAnalysis covers exit usage and the fire front.
type SpatialAnalysis struct {
	ExitUtilization            map[string]int                `json:"exitUtilization"`
	ExitBalanceScore           *float64                      `json:"exitBalanceScore"`
	PeakBottleneckDensity      int                           `json:"peakBottleneckDensity"`
	WastedExitCapacity         int                           `json:"wastedExitCapacity"`
	CasualtyHeatmap            map[string]int                `json:"casualtyHeatmap"`
	DangerVsEvacuationTimeline []metrics.DangerTimelineEntry `json:"dangerVsEvacuationTimeline"`
	StampedeEvents             []any                         `json:"stampedeEvents"`
}

// Report is the complete four-section benchmark result.
type Report struct {
	SimulationOverview Overview             `json:"simulationOverview"`
	AgentScorecards    map[string]Scorecard `json:"agentScorecards"`
	GroupDynamics      GroupDynamics        `json:"groupDynamics"`
	SpatialAnalysis    SpatialAnalysis      `json:"spatialAnalysis"`
}

// Build computes every section from the trajectory. It never fails: every
// metric has a defined default for degenerate input.
func Build(p Params) *Report {
	clusterThreshold := p.ClusterThreshold
	if clusterThreshold == 0 {
		clusterThreshold = DefaultClusterThreshold
	}
	bottleneckThreshold := p.BottleneckThreshold
	if bottleneckThreshold == 0 {
		bottleneckThreshold = DefaultBottleneckThreshold
	}

	t := p.Trajectory
	times := metrics.EvacuationTimes(t)
	finalStatuses := metrics.FinalStatuses(t)

	totalAgents := len(times)
	totalEvacuated := 0
	for _, et := range times {
		if et != nil {
			totalEvacuated++
		}
	}
	totalDeaths := totalAgents - totalEvacuated
	if finalStatuses != nil {
		totalDeaths = metrics.DeathCount(t)
	}

	overview := Overview{
		SurvivalRate:              metrics.SurvivalRate(times),
		TotalDeaths:               totalDeaths,
		TotalInjuries:             0, // needs an injury model
		MeanEvacuationTime:        metrics.MeanEvacuationTime(times),
		LastEvacuationTime:        metrics.LastEvacuationTime(times),
		TimeToFirstEvacuation:     metrics.FirstEvacuationTime(times),
		TimeTo50PercentEvacuation: metrics.TimeTo50Percent(times),
		TotalAgents:               totalAgents,
		TotalEvacuated:            totalEvacuated,
		Deadline:                  p.Deadline,
		GridSize:                  [2]int{p.Width, p.Height},
		DoorPosition:              p.Door,
		TotalSteps:                t.Steps(),
	}

	scorecards := make(map[string]Scorecard, totalAgents)
	names := make([]string, 0, totalAgents)
	for name := range times {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := metrics.ExtractPath(name, t)
		start := p.Starts[name]

		var causeOfDeath *string
		if finalStatuses != nil && finalStatuses[name] == sim.StatusDead {
			cause := "fire"
			causeOfDeath = &cause
		}

		scorecards[name] = Scorecard{
			Survived:         times[name] != nil,
			EvacuationTime:   times[name],
			StartPosition:    start,
			Path:             path,
			TimeToFirstMove:  metrics.TimeToFirstMove(name, t),
			OptimalPathRatio: metrics.OptimalPathRatio(start, p.Door, path),
			DirectionChanges: metrics.DirectionChanges(path),
			PeopleHelped:     0, // needs message logs
			PeopleInfluenced: 0,
			PeopleHarmed:     0,
			CauseOfDeath:     causeOfDeath,
			InjuryLevel:      nil,
			FinalPanicLevel:  nil,
			TimeInDangerZone: metrics.TimeInDangerZone(name, t),
		}
	}

	group := GroupDynamics{
		ClustersFormed:          metrics.ClustersPerStep(t, clusterThreshold),
		BottleneckEvents:        metrics.BottleneckEvents(t, p.Door, bottleneckThreshold),
		VulnerableAgentOutcomes: metrics.VulnerableOutcomes(p.Profiles, times),
		LeadersEmerged:          []string{}, // needs message logs
		ConflictEvents:          []any{},
	}

	exits := []grid.Cell{p.Door}
	var exitBalance *float64
	if len(exits) == 1 {
		one := 1.0
		exitBalance = &one
	}

	spatial := SpatialAnalysis{
		ExitUtilization:            metrics.ExitUtilization(times, exits),
		ExitBalanceScore:           exitBalance,
		PeakBottleneckDensity:      metrics.PeakBottleneckDensity(t, p.Door, DefaultBottleneckRadius),
		WastedExitCapacity:         metrics.WastedExitCapacity(t, p.Door),
		CasualtyHeatmap:            metrics.CasualtyHeatmap(t, p.Starts),
		DangerVsEvacuationTimeline: metrics.DangerTimeline(t),
		StampedeEvents:             []any{},
	}

	return &Report{
		SimulationOverview: overview,
		AgentScorecards:    scorecards,
		GroupDynamics:      group,
		SpatialAnalysis:    spatial,
	}
}

// Save writes the report as indented JSON, creating parent directories.
func Save(r *Report, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
