package scenario

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/talgya/evacsim/internal/config"
	"github.com/talgya/evacsim/internal/profile"
)

var firstNames = []string{
	"James", "Mary", "Robert", "Patricia", "John", "Jennifer", "Michael",
	"Linda", "David", "Elizabeth", "William", "Barbara", "Richard", "Susan",
	"Joseph", "Jessica", "Thomas", "Sarah", "Charles", "Karen", "Daniel",
	"Lisa", "Matthew", "Nancy", "Anthony", "Betty", "Mark", "Margaret",
	"Donald", "Sandra", "Steven", "Ashley", "Andrew", "Dorothy", "Paul",
	"Kimberly", "Joshua", "Emily", "Kenneth", "Donna", "Kevin", "Michelle",
	"Brian", "Carol", "George", "Amanda", "Timothy", "Melissa", "Ronald",
	"Deborah",
}

var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller",
	"Davis", "Rodriguez", "Martinez", "Hernandez", "Lopez", "Gonzalez",
	"Wilson", "Anderson", "Thomas", "Taylor", "Moore", "Jackson", "Martin",
	"Lee", "Perez", "Thompson", "White", "Harris", "Sanchez", "Clark",
	"Ramirez", "Lewis", "Robinson", "Walker", "Young", "Allen", "King",
	"Wright", "Scott", "Torres", "Nguyen", "Hill", "Flores", "Green",
	"Adams", "Nelson", "Baker", "Hall", "Rivera", "Campbell", "Mitchell",
	"Carter", "Roberts",
}

var roles = []string{
	"office worker", "security guard", "student", "nurse", "tourist",
	"janitor", "engineer", "teacher", "delivery driver", "receptionist",
	"construction worker", "firefighter", "retail clerk", "accountant",
	"chef", "paramedic", "librarian", "electrician", "professor",
	"event staff",
}

var traitSnippets = map[string][]string{
	"high_assertiveness": {
		"Takes charge in group settings",
		"Speaks up without hesitation",
		"Naturally commanding presence",
	},
	"low_assertiveness": {
		"Prefers to follow rather than lead",
		"Quiet and deferential",
		"Avoids confrontation",
	},
	"high_agreeableness": {
		"Warm and cooperative",
		"Eager to help others",
		"Goes along with the group",
	},
	"low_agreeableness": {
		"Blunt and self-focused",
		"Rarely compromises",
		"Prioritises own interests",
	},
	"high_neuroticism": {
		"Prone to anxiety under pressure",
		"Easily overwhelmed by stress",
		"Worries about worst-case outcomes",
	},
	"low_neuroticism": {
		"Calm and emotionally stable",
		"Keeps composure in a crisis",
		"Hard to rattle",
	},
	"high_impulsivity": {
		"Acts first, thinks later",
		"Quick to react without planning",
		"Restless and impatient",
	},
	"low_impulsivity": {
		"Methodical and deliberate",
		"Thinks carefully before acting",
		"Patient and measured",
	},
}

func clampScore(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}

func gaussAttr(rng *rand.Rand) int {
	return clampScore(rng.NormFloat64()*18 + 50)
}

func fillCategory(rng *rand.Rand, keys ...string) map[string]int {
	cat := make(map[string]int, len(keys))
	for _, k := range keys {
		cat[k] = gaussAttr(rng)
	}
	return cat
}

// genAttributes rolls the eight attribute categories and applies age-based
// modifiers for children and elders.
func genAttributes(rng *rand.Rand, age int) profile.Attributes {
	attrs := profile.Attributes{
		"stress_response": fillCategory(rng,
			"panic_susceptibility", "stress_tolerance", "emotional_volatility",
			"freeze_tendency", "emotional_recovery_speed"),
		"decision_making": fillCategory(rng,
			"decision_speed", "situational_awareness", "risk_taking",
			"analytical_thinking", "adaptability", "creativity"),
		"social_behavior": fillCategory(rng,
			"leadership", "altruism", "compliance", "herding_tendency",
			"cooperation", "competitiveness"),
		"general_personality": fillCategory(rng,
			"introversion", "agreeableness", "conscientiousness", "neuroticism",
			"openness_to_experience", "assertiveness", "stubbornness",
			"optimism", "impulsivity"),
		"communication": fillCategory(rng,
			"vocal_tendency", "persuasiveness", "information_sharing"),
		"emotional_psychological": fillCategory(rng,
			"empathy", "self_preservation_drive", "authority_trust",
			"claustrophobia", "prior_trauma", "denial_tendency"),
		"physical": fillCategory(rng,
			"mobility", "strength", "pain_tolerance"),
		"knowledge_preparation": fillCategory(rng,
			"environment_familiarity", "emergency_training", "general_knowledge"),
	}

	scale := func(cat, key string, factor float64) {
		attrs[cat][key] = clampScore(float64(attrs[cat][key]) * factor)
	}

	switch {
	case age < 12:
		scale("physical", "strength", 0.2)
		scale("physical", "mobility", 0.8)
		scale("social_behavior", "leadership", 0.15)
		scale("social_behavior", "compliance", 1.4)
		scale("social_behavior", "herding_tendency", 1.3)
		scale("knowledge_preparation", "emergency_training", 0.1)
		scale("knowledge_preparation", "general_knowledge", 0.2)
		scale("decision_making", "decision_speed", 0.3)
		scale("decision_making", "situational_awareness", 0.3)
		scale("stress_response", "panic_susceptibility", 1.5)
		scale("stress_response", "emotional_volatility", 1.5)
	case age > 65:
		scale("physical", "mobility", 0.4)
		scale("physical", "strength", 0.3)
		scale("knowledge_preparation", "general_knowledge", 1.3)
		scale("knowledge_preparation", "environment_familiarity", 1.2)
		scale("decision_making", "analytical_thinking", 1.2)
		scale("general_personality", "conscientiousness", 1.2)
	}

	return attrs
}

// pickPersonality builds a one-sentence personality from the two most
// extreme general-personality traits.
func pickPersonality(rng *rand.Rand, attrs profile.Attributes) string {
	gp := attrs["general_personality"]
	type scored struct {
		key  string
		skew int
	}
	pick := func(attr, high, low string) scored {
		v := gp[attr]
		key := low
		if v >= 60 {
			key = high
		}
		skew := v - 50
		if skew < 0 {
			skew = -skew
		}
		return scored{key: key, skew: skew}
	}

	traits := []scored{
		pick("assertiveness", "high_assertiveness", "low_assertiveness"),
		pick("agreeableness", "high_agreeableness", "low_agreeableness"),
		pick("neuroticism", "high_neuroticism", "low_neuroticism"),
		pick("impulsivity", "high_impulsivity", "low_impulsivity"),
	}
	first, second := traits[0], traits[1]
	if second.skew > first.skew {
		first, second = second, first
	}
	for _, t := range traits[2:] {
		if t.skew > first.skew {
			second = first
			first = t
		} else if t.skew > second.skew {
			second = t
		}
	}

	a := traitSnippets[first.key][rng.Intn(len(traitSnippets[first.key]))]
	b := traitSnippets[second.key][rng.Intn(len(traitSnippets[second.key]))]
	return fmt.Sprintf("%s; %s.", strings.TrimRight(a, "."),
		strings.ToLower(b[:1])+strings.TrimRight(b[1:], "."))
}

// pickDescription builds a short background sentence.
func pickDescription(name string, age int, role string, attrs profile.Attributes) string {
	mobility := attrs["physical"]["mobility"]
	training := attrs["knowledge_preparation"]["emergency_training"]

	if age < 12 {
		return fmt.Sprintf("%s is a %d-year-old child, dependent on adults during emergencies.", name, age)
	}
	if age > 65 {
		fitness := "reasonably mobile for their age"
		if mobility < 40 {
			fitness = "limited mobility"
		}
		return fmt.Sprintf("%s is a %d-year-old retiree with %s and life experience.", name, age, fitness)
	}

	fitnessWord := "average fitness"
	if mobility >= 65 {
		fitnessWord = "fit"
	}
	trainingWord := "no formal emergency training"
	if training >= 60 {
		trainingWord = "trained in emergencies"
	}
	return fmt.Sprintf("%s is a %d-year-old %s who is %s with %s.", name, age, role, fitnessWord, trainingWord)
}

// rollAge skews toward working-age adults with child and elder tails.
func rollAge(rng *rand.Rand) int {
	r := rng.Float64()
	switch {
	case r < 0.10:
		return 5 + rng.Intn(7) // 5-11, child
	case r < 0.25:
		return 66 + rng.Intn(20) // 66-85, elder
	default:
		return 18 + rng.Intn(48) // 18-65
	}
}

// Profiles generates n coherent persona profiles plus the matching agent
// configs placed on free cells of the environment. Deterministic from the
// seed.
func Profiles(env config.Environment, n int, seed int64) ([]profile.Profile, []config.AgentConfig, error) {
	agents, err := RandomAgents(env, n, seed)
	if err != nil {
		return nil, nil, err
	}

	rng := rand.New(rand.NewSource(seed))

	firsts := append([]string(nil), firstNames...)
	lasts := append([]string(nil), lastNames...)
	rng.Shuffle(len(firsts), func(i, j int) { firsts[i], firsts[j] = firsts[j], firsts[i] })
	rng.Shuffle(len(lasts), func(i, j int) { lasts[i], lasts[j] = lasts[j], lasts[i] })

	profiles := make([]profile.Profile, 0, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("%s %s", firsts[i%len(firsts)], lasts[i%len(lasts)])
		age := rollAge(rng)
		role := roles[rng.Intn(len(roles))]
		if age < 12 {
			role = "child"
		} else if age > 65 {
			role = "retiree"
		}
		attrs := genAttributes(rng, age)

		p := profile.Profile{
			Name:        name,
			Age:         age,
			Role:        role,
			Personality: pickPersonality(rng, attrs),
			Description: pickDescription(name, age, role, attrs),
			Attributes:  attrs,
		}
		profiles = append(profiles, p)

		agents[i].Name = name
		agents[i].Role = role
		agents[i].Personality = p.Personality
	}

	return profiles, agents, nil
}
