package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/talgya/evacsim/internal/grid"
	"github.com/talgya/evacsim/internal/sim"
)

// directionDeltas maps the eight direction words the model may answer with
// onto cell offsets.
var directionDeltas = map[string][2]int{
	"north":     {0, 1},
	"south":     {0, -1},
	"east":      {1, 0},
	"west":      {-1, 0},
	"northeast": {1, 1},
	"northwest": {-1, 1},
	"southeast": {1, -1},
	"southwest": {-1, -1},
	"stay":      {0, 0},
}

// Decider asks the model for one movement direction per agent per step.
// Any failure (network, rate limit, unparseable answer) surfaces as an
// error and the engine degrades to the deterministic policy for that agent
// and step only.
type Decider struct {
	Client *Client
	// Personas maps agent name to a short role/personality line woven
	// into the system prompt. Optional.
	Personas map[string]string
}

// Decide implements sim.Decider.
func (d *Decider) Decide(ctx context.Context, agent sim.AgentView, env sim.EnvSnapshot) (sim.Action, error) {
	if !d.Client.Enabled() {
		return sim.Action{}, fmt.Errorf("LLM client not configured")
	}

	system := d.systemPrompt(agent, env)
	user := stepPrompt(agent, env)

	text, err := d.Client.Complete(ctx, system, user, 16)
	if err != nil {
		return sim.Action{}, err
	}

	delta, err := parseDirection(text)
	if err != nil {
		return sim.Action{}, err
	}
	if delta == [2]int{0, 0} {
		return sim.Action{Stay: true}, nil
	}
	return sim.Action{Target: grid.Cell{X: agent.Pos.X + delta[0], Y: agent.Pos.Y + delta[1]}}, nil
}

func (d *Decider) systemPrompt(agent sim.AgentView, env sim.EnvSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a human participant in an evacuation simulation.\n", agent.Name)
	if persona := d.Personas[agent.Name]; persona != "" {
		fmt.Fprintf(&b, "%s\n", persona)
	}
	fmt.Fprintf(&b, "The grid is %d x %d. Valid positions: x from 0 to %d, y from 0 to %d. "+
		"You cannot move outside these bounds.\n",
		env.Width, env.Height, env.Width-1, env.Height-1)
	fmt.Fprintf(&b, "The exit door is at (%d,%d). Impassable walls are at: %s.\n",
		env.Door.X, env.Door.Y, cellList(env.Obstacles))
	if len(env.Ignited) > 0 {
		fmt.Fprintf(&b, "Cells on fire (lethal): %s.\n", cellList(env.Ignited))
	}
	b.WriteString("Each turn, answer with EXACTLY ONE word: one of North, South, East, West, " +
		"NorthEast, NorthWest, SouthEast, SouthWest, or Stay.")
	return b.String()
}

func stepPrompt(agent sim.AgentView, env sim.EnvSnapshot) string {
	return fmt.Sprintf("You are at (%d,%d). Other participants occupy: %s. "+
		"Your goal is to reach the door at (%d,%d) and leave the room. "+
		"Which single step do you take? Answer with one direction word.",
		agent.Pos.X, agent.Pos.Y, cellList(env.Occupied), env.Door.X, env.Door.Y)
}

func cellList(cells []grid.Cell) string {
	if len(cells) == 0 {
		return "none"
	}
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = fmt.Sprintf("(%d,%d)", c.X, c.Y)
	}
	return strings.Join(parts, ", ")
}

// parseDirection extracts the first recognized direction word from the
// model's answer.
func parseDirection(text string) ([2]int, error) {
	cleaned := strings.ToLower(strings.TrimSpace(text))
	fields := strings.FieldsFunc(cleaned, func(r rune) bool {
		return !('a' <= r && r <= 'z')
	})
	for _, f := range fields {
		if delta, ok := directionDeltas[f]; ok {
			return delta, nil
		}
	}
	return [2]int{}, fmt.Errorf("no direction in answer %q", text)
}
