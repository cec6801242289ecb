// Package scenario generates evacuation scenarios: noise-based obstacle
// layouts, randomly placed agents, and coherent persona profiles for
// vulnerability analytics. Generation is deterministic from a seed.
package scenario

import (
	"fmt"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/evacsim/internal/config"
	"github.com/talgya/evacsim/internal/grid"
)

// NoiseObstacles derives an obstacle layout from layered simplex noise.
// density in (0, 1) is the approximate fraction of cells turned into walls.
// Doors and their Moore neighborhoods always stay clear so no exit can be
// walled off.
func NoiseObstacles(width, height int, doors []grid.Cell, seed int64, density float64) []grid.Cell {
	if density <= 0 {
		return nil
	}
	if density > 0.4 {
		density = 0.4
	}

	clear := make(map[grid.Cell]bool, len(doors)*9)
	for _, d := range doors {
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				clear[grid.Cell{X: d.X + dx, Y: d.Y + dy}] = true
			}
		}
	}

	noise := opensimplex.NewNormalized(seed)
	threshold := 1.0 - density

	var obstacles []grid.Cell
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			c := grid.Cell{X: x, Y: y}
			if clear[c] {
				continue
			}
			if octaveNoise(noise, float64(x), float64(y), 3, 0.3, 0.5) >= threshold {
				obstacles = append(obstacles, c)
			}
		}
	}
	return obstacles
}

// octaveNoise layers multiple noise frequencies into fractal detail.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// RandomAgents places n uniquely named agents on free cells, avoiding doors
// and obstacles. Placement is a seeded shuffle of the valid cells.
func RandomAgents(env config.Environment, n int, seed int64) ([]config.AgentConfig, error) {
	if n <= 0 {
		return nil, fmt.Errorf("agent count must be positive, got %d", n)
	}

	blocked := make(map[grid.Cell]bool, len(env.Obstacles)+1)
	blocked[env.Door] = true
	for _, o := range env.Obstacles {
		blocked[o] = true
	}

	var valid []grid.Cell
	for x := 0; x < env.Width; x++ {
		for y := 0; y < env.Height; y++ {
			c := grid.Cell{X: x, Y: y}
			if !blocked[c] {
				valid = append(valid, c)
			}
		}
	}
	if n > len(valid) {
		return nil, fmt.Errorf("cannot place %d agents on %dx%d grid with %d blocked cells; max is %d",
			n, env.Width, env.Height, len(blocked), len(valid))
	}

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(valid), func(i, j int) { valid[i], valid[j] = valid[j], valid[i] })

	agents := make([]config.AgentConfig, 0, n)
	for i := 0; i < n; i++ {
		agents = append(agents, config.AgentConfig{
			Name:     fmt.Sprintf("Agent %d", i+1),
			Role:     "participant",
			Position: valid[i],
		})
	}
	return agents, nil
}
