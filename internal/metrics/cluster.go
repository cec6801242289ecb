package metrics

import (
	"sort"

	"github.com/talgya/evacsim/internal/grid"
	"github.com/talgya/evacsim/internal/sim"
)

// unionFind is a disjoint-set over agent names with path halving.
type unionFind struct {
	parent map[string]string
}

func newUnionFind(names []string) *unionFind {
	parent := make(map[string]string, len(names))
	for _, n := range names {
		parent[n] = n
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(x string) string {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}

// clusterFrame groups the given agents into proximity components, keeping
// only components of two or more members. Members and clusters are sorted
// for stable output.
func clusterFrame(positions map[string]grid.Cell, threshold int) [][]string {
	names := make([]string, 0, len(positions))
	for n := range positions {
		names = append(names, n)
	}
	sort.Strings(names)

	uf := newUnionFind(names)
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			if grid.Chebyshev(positions[names[i]], positions[names[j]]) <= threshold {
				uf.union(names[i], names[j])
			}
		}
	}

	byRoot := make(map[string][]string)
	for _, n := range names {
		root := uf.find(n)
		byRoot[root] = append(byRoot[root], n)
	}

	clusters := [][]string{}
	for _, members := range byRoot {
		if len(members) >= 2 {
			sort.Strings(members)
			clusters = append(clusters, members)
		}
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i][0] < clusters[j][0] })
	return clusters
}

// ClustersPerStep runs proximity clustering over the active agents of every
// frame. Each step yields the clusters (size >= 2) of agents within the
// Chebyshev distance threshold of one another, directly or transitively.
func ClustersPerStep(t *sim.Trajectory, threshold int) [][][]string {
	result := make([][][]string, 0, t.Steps())
	for _, frame := range t.Frames {
		active := make(map[string]grid.Cell)
		for name, pos := range frame {
			if !pos.Exited {
				active[name] = pos.Cell
			}
		}
		result = append(result, clusterFrame(active, threshold))
	}
	return result
}
