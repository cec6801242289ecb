package metrics

import (
	"sort"

	"github.com/talgya/evacsim/internal/profile"
)

// VulnerableOutcome is one agent's profile cross-referenced with its
// evacuation result.
type VulnerableOutcome struct {
	Name           string `json:"name"`
	Age            int    `json:"age"`
	Mobility       int    `json:"mobility"`
	Evacuated      bool   `json:"evacuated"`
	EvacuationTime *int   `json:"evacuationTime"`
}

// VulnerabilitySummary aggregates outcomes over the vulnerable group.
type VulnerabilitySummary struct {
	TotalVulnerable        int      `json:"totalVulnerable"`
	VulnerableEvacuated    int      `json:"vulnerableEvacuated"`
	VulnerableSurvivalRate *float64 `json:"vulnerableSurvivalRate"`
}

// VulnerableAgentOutcomes partitions agents by vulnerability (age < 12,
// age > 65, or mobility < 40). Summary is nil when no profile data was
// supplied, never an error.
type VulnerableAgentOutcomes struct {
	Vulnerable    []VulnerableOutcome   `json:"vulnerable"`
	NonVulnerable []VulnerableOutcome   `json:"nonVulnerable"`
	Summary       *VulnerabilitySummary `json:"summary"`
}

// VulnerableOutcomes classifies every profiled agent and reports the
// vulnerable group's survival.
func VulnerableOutcomes(profiles []profile.Profile, times map[string]*int) VulnerableAgentOutcomes {
	out := VulnerableAgentOutcomes{
		Vulnerable:    []VulnerableOutcome{},
		NonVulnerable: []VulnerableOutcome{},
	}
	if len(profiles) == 0 {
		return out
	}

	sorted := make([]profile.Profile, len(profiles))
	copy(sorted, profiles)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for _, p := range sorted {
		t := times[p.Name]
		entry := VulnerableOutcome{
			Name:           p.Name,
			Age:            p.Age,
			Mobility:       p.Mobility(),
			Evacuated:      t != nil,
			EvacuationTime: t,
		}
		if p.Vulnerable() {
			out.Vulnerable = append(out.Vulnerable, entry)
		} else {
			out.NonVulnerable = append(out.NonVulnerable, entry)
		}
	}

	evacuated := 0
	for _, v := range out.Vulnerable {
		if v.Evacuated {
			evacuated++
		}
	}
	summary := &VulnerabilitySummary{
		TotalVulnerable:     len(out.Vulnerable),
		VulnerableEvacuated: evacuated,
	}
	if len(out.Vulnerable) > 0 {
		rate := float64(evacuated) / float64(len(out.Vulnerable))
		summary.VulnerableSurvivalRate = &rate
	}
	out.Summary = summary
	return out
}
