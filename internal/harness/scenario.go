package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: a story world to seed and
// the alerts a scan of it is expected to raise.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Project is the story project under test.
	Project ProjectSpec `yaml:"project"`

	// Characters declares the cast.
	Characters []CharacterSpec `yaml:"characters,omitempty"`

	// Rules declares the world rules in force.
	Rules []RuleSpec `yaml:"rules,omitempty"`

	// Scenes declares the narrative structure. Act and chapter default to 1.
	Scenes []SceneSpec `yaml:"scenes"`

	// Snapshots is the character state history, in insertion order.
	Snapshots []SnapshotSpec `yaml:"snapshots,omitempty"`

	// Policy is optional inline CUE overriding the default scan policy.
	Policy string `yaml:"policy,omitempty"`

	// Expect describes the alerts the scan must raise.
	Expect ExpectSpec `yaml:"expect,omitempty"`
}

// ProjectSpec identifies the seeded project.
type ProjectSpec struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
}

// CharacterSpec declares one character.
type CharacterSpec struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// RuleSpec declares one world rule.
type RuleSpec struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Scope       string   `yaml:"scope"`
	Keywords    []string `yaml:"keywords,omitempty"`
}

// SceneSpec declares one scene and which characters are active in it.
type SceneSpec struct {
	ID       string   `yaml:"id"`
	Title    string   `yaml:"title,omitempty"`
	Act      int      `yaml:"act,omitempty"`
	Chapter  int      `yaml:"chapter,omitempty"`
	Position int      `yaml:"position"`
	Content  string   `yaml:"content"`
	Time     string   `yaml:"time,omitempty"`
	Present  []string `yaml:"present,omitempty"`
}

// SnapshotSpec appends one state snapshot for a character in a scene.
type SnapshotSpec struct {
	Character string `yaml:"character"`
	Scene     string `yaml:"scene"`
	State     string `yaml:"state"`
}

// ExpectSpec describes the expected scan outcome.
type ExpectSpec struct {
	Alerts []ExpectedAlert `yaml:"alerts,omitempty"`
}

// ExpectedAlert is a subset match against one raised alert.
type ExpectedAlert struct {
	Type     string `yaml:"type"`
	Severity string `yaml:"severity,omitempty"`
	Scene    string `yaml:"scene,omitempty"`
}

// LoadScenario reads and validates a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &s, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Project.ID == "" {
		return fmt.Errorf("project.id is required")
	}
	if len(s.Scenes) == 0 {
		return fmt.Errorf("at least one scene is required")
	}

	sceneIDs := map[string]bool{}
	for i, sc := range s.Scenes {
		if sc.ID == "" {
			return fmt.Errorf("scenes[%d]: id is required", i)
		}
		if sceneIDs[sc.ID] {
			return fmt.Errorf("scenes[%d]: duplicate scene id %q", i, sc.ID)
		}
		sceneIDs[sc.ID] = true
	}

	charIDs := map[string]bool{}
	for i, c := range s.Characters {
		if c.ID == "" {
			return fmt.Errorf("characters[%d]: id is required", i)
		}
		charIDs[c.ID] = true
	}

	for i, sc := range s.Scenes {
		for _, id := range sc.Present {
			if !charIDs[id] {
				return fmt.Errorf("scenes[%d]: unknown character %q in present", i, id)
			}
		}
	}
	for i, snap := range s.Snapshots {
		if !charIDs[snap.Character] {
			return fmt.Errorf("snapshots[%d]: unknown character %q", i, snap.Character)
		}
		if !sceneIDs[snap.Scene] {
			return fmt.Errorf("snapshots[%d]: unknown scene %q", i, snap.Scene)
		}
	}
	return nil
}
