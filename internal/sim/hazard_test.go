package sim

import (
	"math/rand"
	"testing"

	"github.com/talgya/evacsim/internal/grid"
)

func TestNewHazardFieldRejectsBadProbability(t *testing.T) {
	w := mustWorld(t, 5, 5, grid.Cell{X: 4, Y: 4}, nil)
	rng := rand.New(rand.NewSource(1))
	if _, err := NewHazardField(w, -0.1, rng); err == nil {
		t.Fatal("expected error for negative probability")
	}
	if _, err := NewHazardField(w, 1.1, rng); err == nil {
		t.Fatal("expected error for probability above 1")
	}
}

func TestSeedAvoidsDoorsObstaclesAndExcluded(t *testing.T) {
	w := mustWorld(t, 3, 3, grid.Cell{X: 2, Y: 2}, []grid.Cell{{X: 1, Y: 1}})
	rng := rand.New(rand.NewSource(7))
	h, err := NewHazardField(w, 0.5, rng)
	if err != nil {
		t.Fatalf("NewHazardField: %v", err)
	}
	exclude := map[grid.Cell]bool{{X: 0, Y: 0}: true}
	// 9 cells minus door, obstacle, and one excluded start leaves 6.
	if err := h.Seed(6, exclude); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if h.Count() != 6 {
		t.Fatalf("expected 6 fires, got %d", h.Count())
	}
	for _, c := range []grid.Cell{{X: 2, Y: 2}, {X: 1, Y: 1}, {X: 0, Y: 0}} {
		if h.Ignited(c) {
			t.Fatalf("cell %v must not ignite", c)
		}
	}
}

func TestSeedFailsWhenNotEnoughCells(t *testing.T) {
	w := mustWorld(t, 3, 3, grid.Cell{X: 2, Y: 2}, nil)
	rng := rand.New(rand.NewSource(7))
	h, err := NewHazardField(w, 0.5, rng)
	if err != nil {
		t.Fatalf("NewHazardField: %v", err)
	}
	if err := h.Seed(9, nil); err == nil {
		t.Fatal("expected error, only 8 candidate cells exist")
	}
}

func TestSpreadZeroProbabilityNeverGrows(t *testing.T) {
	w := mustWorld(t, 5, 5, grid.Cell{X: 4, Y: 4}, nil)
	rng := rand.New(rand.NewSource(3))
	h, err := NewHazardField(w, 0, rng)
	if err != nil {
		t.Fatalf("NewHazardField: %v", err)
	}
	if err := h.Seed(2, nil); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	before := h.Count()
	for i := 0; i < 20; i++ {
		h.Spread()
	}
	if h.Count() != before {
		t.Fatalf("fire grew with zero probability: %d -> %d", before, h.Count())
	}
}

func TestSpreadCertainProbabilityAdvancesOneRing(t *testing.T) {
	// A 5x1 corridor with the door at the far end and fire forced to (0,0):
	// every other candidate cell is excluded.
	w := mustWorld(t, 5, 1, grid.Cell{X: 4, Y: 0}, nil)
	rng := rand.New(rand.NewSource(11))
	h, err := NewHazardField(w, 1, rng)
	if err != nil {
		t.Fatalf("NewHazardField: %v", err)
	}
	exclude := map[grid.Cell]bool{
		{X: 1, Y: 0}: true,
		{X: 2, Y: 0}: true,
		{X: 3, Y: 0}: true,
	}
	if err := h.Seed(1, exclude); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if !h.Ignited(grid.Cell{X: 0, Y: 0}) {
		t.Fatal("fire should start at (0,0)")
	}

	// One spread ignites only the direct neighbor; cells ignited within a
	// step never ignite further cells in the same step.
	h.Spread()
	if !h.Ignited(grid.Cell{X: 1, Y: 0}) {
		t.Fatal("(1,0) should ignite on the first spread")
	}
	if h.Ignited(grid.Cell{X: 2, Y: 0}) {
		t.Fatal("(2,0) must not ignite in the same step as (1,0)")
	}

	h.Spread()
	if !h.Ignited(grid.Cell{X: 2, Y: 0}) {
		t.Fatal("(2,0) should ignite on the second spread")
	}

	// The door never ignites no matter how long the fire burns.
	for i := 0; i < 10; i++ {
		h.Spread()
	}
	if h.Ignited(grid.Cell{X: 4, Y: 0}) {
		t.Fatal("door cell must never ignite")
	}
	if h.Count() != 4 {
		t.Fatalf("expected all 4 non-door cells burning, got %d", h.Count())
	}
}

func TestSpreadCertainProbabilityCoversNeighborhood(t *testing.T) {
	// Fire forced to the center of an open 5x5 room. With certain spread,
	// k steps ignite every non-door cell within Chebyshev distance k.
	w := mustWorld(t, 5, 5, grid.Cell{X: 4, Y: 4}, nil)
	rng := rand.New(rand.NewSource(5))
	h, err := NewHazardField(w, 1, rng)
	if err != nil {
		t.Fatalf("NewHazardField: %v", err)
	}
	center := grid.Cell{X: 2, Y: 2}
	exclude := make(map[grid.Cell]bool)
	for x := 0; x < 5; x++ {
		for y := 0; y < 5; y++ {
			if c := (grid.Cell{X: x, Y: y}); c != center {
				exclude[c] = true
			}
		}
	}
	if err := h.Seed(1, exclude); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	for k := 1; k <= 2; k++ {
		h.Spread()
		for x := 0; x < 5; x++ {
			for y := 0; y < 5; y++ {
				c := grid.Cell{X: x, Y: y}
				if w.IsDoor(c) || grid.Chebyshev(c, center) > k {
					continue
				}
				if !h.Ignited(c) {
					t.Fatalf("after %d spreads, %v should be ignited", k, c)
				}
			}
		}
	}
	// Everything but the door burns by now.
	if h.Count() != 24 {
		t.Fatalf("expected 24 burning cells, got %d", h.Count())
	}
}

func TestSpreadReproducibleFromSeed(t *testing.T) {
	run := func() []grid.Cell {
		w := mustWorld(t, 8, 8, grid.Cell{X: 7, Y: 7}, nil)
		rng := rand.New(rand.NewSource(99))
		h, err := NewHazardField(w, 0.3, rng)
		if err != nil {
			t.Fatalf("NewHazardField: %v", err)
		}
		if err := h.Seed(2, nil); err != nil {
			t.Fatalf("Seed: %v", err)
		}
		for i := 0; i < 5; i++ {
			h.Spread()
		}
		return h.Cells()
	}

	first := run()
	second := run()
	if len(first) != len(second) {
		t.Fatalf("runs diverged: %d vs %d cells", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("runs diverged at %d: %v vs %v", i, first[i], second[i])
		}
	}
}
