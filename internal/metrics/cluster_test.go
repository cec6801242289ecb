package metrics

import (
	"testing"

	"github.com/talgya/evacsim/internal/sim"
)

// A and B sit two cells apart, C is far from both: threshold 2 yields one
// cluster {A, B} and C belongs to none.
func TestClustersPairWithinThreshold(t *testing.T) {
	traj := &sim.Trajectory{Frames: []sim.Frame{
		{"A": at(0, 0), "B": at(2, 0), "C": at(7, 7)},
	}}
	clusters := ClustersPerStep(traj, 2)
	if len(clusters) != 1 {
		t.Fatalf("expected 1 step, got %d", len(clusters))
	}
	step := clusters[0]
	if len(step) != 1 {
		t.Fatalf("expected 1 cluster, got %v", step)
	}
	if len(step[0]) != 2 || step[0][0] != "A" || step[0][1] != "B" {
		t.Fatalf("expected cluster [A B], got %v", step[0])
	}
}

// Transitive chaining: A-B and B-C within threshold joins all three even
// though A and C are too far apart directly.
func TestClustersAreTransitive(t *testing.T) {
	traj := &sim.Trajectory{Frames: []sim.Frame{
		{"A": at(0, 0), "B": at(2, 0), "C": at(4, 0)},
	}}
	clusters := ClustersPerStep(traj, 2)
	step := clusters[0]
	if len(step) != 1 || len(step[0]) != 3 {
		t.Fatalf("expected one cluster of 3, got %v", step)
	}
}

func TestClustersIgnoreSingletons(t *testing.T) {
	traj := &sim.Trajectory{Frames: []sim.Frame{
		{"A": at(0, 0), "B": at(9, 9)},
	}}
	clusters := ClustersPerStep(traj, 2)
	if len(clusters[0]) != 0 {
		t.Fatalf("expected no clusters, got %v", clusters[0])
	}
}

func TestClustersSkipExitedAgents(t *testing.T) {
	traj := &sim.Trajectory{Frames: []sim.Frame{
		{"A": at(0, 0), "B": at(1, 0), "C": at(1, 1)},
		{"A": exited(), "B": exited(), "C": at(1, 1)},
	}}
	clusters := ClustersPerStep(traj, 2)
	if len(clusters[0]) != 1 || len(clusters[0][0]) != 3 {
		t.Fatalf("step 1 should cluster all three, got %v", clusters[0])
	}
	if len(clusters[1]) != 0 {
		t.Fatalf("step 2 has one active agent, expected no clusters, got %v", clusters[1])
	}
}

func TestClustersSeparateComponents(t *testing.T) {
	traj := &sim.Trajectory{Frames: []sim.Frame{
		{"A": at(0, 0), "B": at(1, 0), "C": at(8, 8), "D": at(9, 8)},
	}}
	clusters := ClustersPerStep(traj, 2)
	step := clusters[0]
	if len(step) != 2 {
		t.Fatalf("expected 2 clusters, got %v", step)
	}
	// Clusters are sorted by their first member.
	if step[0][0] != "A" || step[1][0] != "C" {
		t.Fatalf("clusters not sorted: %v", step)
	}
}
