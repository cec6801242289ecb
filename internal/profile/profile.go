// Package profile defines agent persona profiles: demographic and
// behavioral attributes consumed by vulnerability analytics and by the
// scenario generator. Profiles are optional; analytics degrade to a null
// summary without them.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
)

// Attributes holds the eight attribute categories, each mapping attribute
// name to a 0..100 score.
type Attributes map[string]map[string]int

// Profile is one agent's persona.
type Profile struct {
	Name        string     `json:"name"`
	Age         int        `json:"age"`
	Role        string     `json:"role"`
	Personality string     `json:"personality"`
	Description string     `json:"description"`
	Attributes  Attributes `json:"attributes"`
}

// Mobility returns the physical mobility score, defaulting to 100 when the
// attribute is absent.
func (p Profile) Mobility() int {
	if phys, ok := p.Attributes["physical"]; ok {
		if m, ok := phys["mobility"]; ok {
			return m
		}
	}
	return 100
}

// Vulnerable reports whether the profile belongs to a vulnerable agent:
// a child, an elder, or anyone with heavily limited mobility.
func (p Profile) Vulnerable() bool {
	return p.Age < 12 || p.Age > 65 || p.Mobility() < 40
}

// file is the on-disk profiles.json shape.
type file struct {
	Profiles []Profile `json:"profiles"`
}

// Load reads a profiles.json file. A missing file is not an error; it
// yields nil profiles, which analytics treat as "no profile data".
func Load(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	return f.Profiles, nil
}

// Save writes profiles to path as indented JSON.
func Save(profiles []Profile, path string) error {
	data, err := json.MarshalIndent(file{Profiles: profiles}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
