package story

import "sort"

// ElementKind identifies what an alert element refers to.
type ElementKind string

// Element kinds.
const (
	ElementAssertion ElementKind = "assertion"
	ElementRule      ElementKind = "rule"
	ElementScene     ElementKind = "scene"
	ElementSnapshot  ElementKind = "snapshot"
)

// ElementRef is a structured reference to one of the assertions, rules, or
// scenes an alert cites as contradicting one another. The sorted set of an
// alert's element refs is its deduplication identity.
//
// Fields not applicable to a kind are left empty and omitted from the
// canonical form.
type ElementRef struct {
	Kind        ElementKind `json:"kind"`
	CharacterID string      `json:"character_id,omitempty"`
	Attribute   string      `json:"attribute,omitempty"`
	Value       string      `json:"value,omitempty"`
	SceneID     string      `json:"scene_id,omitempty"`
	RuleID      string      `json:"rule_id,omitempty"`
}

// AssertionElement builds the element ref for an attribute assertion.
func AssertionElement(a AttributeAssertion) ElementRef {
	return ElementRef{
		Kind:        ElementAssertion,
		CharacterID: a.CharacterID,
		Attribute:   a.Attribute,
		Value:       a.Value,
		SceneID:     a.SceneID,
	}
}

// RuleElement builds the element ref for a world rule.
func RuleElement(r WorldRule) ElementRef {
	return ElementRef{Kind: ElementRule, RuleID: r.ID}
}

// SceneElement builds the element ref for a scene.
func SceneElement(sceneID string) ElementRef {
	return ElementRef{Kind: ElementScene, SceneID: sceneID}
}

// SnapshotElement builds the element ref for a character's state snapshot in
// a scene. Used when the snapshot itself is the problem (unparsable payload)
// and no individual assertion can be cited.
func SnapshotElement(characterID, sceneID string) ElementRef {
	return ElementRef{Kind: ElementSnapshot, CharacterID: characterID, SceneID: sceneID}
}

// CanonicalMap returns the element as a map with only its populated fields,
// suitable for canonical JSON serialization.
func (e ElementRef) CanonicalMap() map[string]any {
	m := map[string]any{"kind": string(e.Kind)}
	if e.CharacterID != "" {
		m["character_id"] = e.CharacterID
	}
	if e.Attribute != "" {
		m["attribute"] = e.Attribute
	}
	if e.Value != "" {
		m["value"] = e.Value
	}
	if e.SceneID != "" {
		m["scene_id"] = e.SceneID
	}
	if e.RuleID != "" {
		m["rule_id"] = e.RuleID
	}
	return m
}

// sortKey is a total order over element refs so that signatures are
// independent of the order in which the detector discovered the elements.
func (e ElementRef) sortKey() string {
	return string(e.Kind) + "\x00" + e.CharacterID + "\x00" + e.Attribute +
		"\x00" + e.Value + "\x00" + e.SceneID + "\x00" + e.RuleID
}

// SortElements sorts element refs into their canonical order in place and
// returns the slice.
func SortElements(elems []ElementRef) []ElementRef {
	sort.Slice(elems, func(i, j int) bool {
		return elems[i].sortKey() < elems[j].sortKey()
	})
	return elems
}
