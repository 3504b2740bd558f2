package story

import "time"

// Project is a story project: the root of the narrative hierarchy.
type Project struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Genre          string `json:"genre,omitempty"`
	IntendedLength string `json:"intended_length"` // short_story, novella, novel, series
	Description    string `json:"description,omitempty"`
	Status         string `json:"status"` // draft, in_progress, complete, archived
}

// Character is a named actor in a project. CurrentState holds the latest
// state snapshot as raw JSON text; the authoritative history lives in the
// per-scene snapshot log.
type Character struct {
	ID           string `json:"id"`
	ProjectID    string `json:"project_id"`
	Name         string `json:"name"`
	Role         string `json:"role"` // protagonist, antagonist, supporting, minor
	CurrentState string `json:"current_state,omitempty"`
}

// Act is one act of a project's plot structure.
type Act struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// Chapter is a numbered chapter within an act.
type Chapter struct {
	ID     string `json:"id"`
	ActID  string `json:"act_id"`
	Title  string `json:"title,omitempty"`
	Number int    `json:"number"`
}

// Scene is the unit of narrative content. TimeDescription is free-form
// authored text; the engine treats it as an unverified hint except for the
// structured temporal markers it can recognize.
type Scene struct {
	ID              string `json:"id"`
	ChapterID       string `json:"chapter_id"`
	Title           string `json:"title,omitempty"`
	Position        int    `json:"position"`
	Location        string `json:"location,omitempty"`
	TimeDescription string `json:"time_description,omitempty"`
	Content         string `json:"content"`
	Outline         string `json:"scene_outline,omitempty"`
}

// ScenePresence records that a character appears in a scene and how.
type ScenePresence struct {
	SceneID     string `json:"scene_id"`
	CharacterID string `json:"character_id"`
	RoleInScene string `json:"role_in_scene"` // protagonist, active, mentioned, background
}

// Active reports whether the character actually participates in the scene,
// as opposed to being mentioned or background. Only active appearances can
// explain a state change.
func (p ScenePresence) Active() bool {
	return p.RoleInScene == "protagonist" || p.RoleInScene == "active"
}

// WorldRule is an author-declared constraint on the story world. Rules are
// free-form prose plus a keyword set; the engine matches them by keyword
// only and never evaluates their truth automatically.
//
// Logically read-only input: the engine never mutates rules.
type WorldRule struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Scope       RuleScope `json:"scope"`
	Examples    string    `json:"examples,omitempty"`
	Keywords    []string  `json:"keywords,omitempty"`
}

// RuleScope is the reach of a world rule.
type RuleScope string

// Rule scopes, broadest first.
const (
	ScopeUniversal   RuleScope = "universal"
	ScopeRegional    RuleScope = "regional"
	ScopeSituational RuleScope = "situational"
)

// ValidRuleScopes defines allowed rule scopes.
var ValidRuleScopes = map[RuleScope]bool{
	ScopeUniversal:   true,
	ScopeRegional:    true,
	ScopeSituational: true,
}

// StateSnapshot is one per-scene record of a character's state: a raw JSON
// object mapping attribute names to values. Snapshots are append-only; a
// scene edit produces a fresh snapshot rather than rewriting history.
type StateSnapshot struct {
	ID          string    `json:"id"`
	CharacterID string    `json:"character_id"`
	SceneID     string    `json:"scene_id"`
	Raw         string    `json:"state_snapshot"`
	Seq         int64     `json:"seq"` // insertion order tiebreaker (rowid)
	CreatedAt   time.Time `json:"created_at"`
}

// AttributeAssertion is a single (attribute, value) fact about a character,
// anchored to the scene and narrative position where it was established.
// Immutable once created; the full ordered sequence per character is the
// character's belief history.
type AttributeAssertion struct {
	CharacterID string            `json:"character_id"`
	Attribute   string            `json:"attribute"`
	Value       string            `json:"value"`
	SceneID     string            `json:"scene_id"`
	Position    NarrativePosition `json:"position"`
	Seq         int64             `json:"seq"`
	AssertedAt  time.Time         `json:"asserted_at"`
}
