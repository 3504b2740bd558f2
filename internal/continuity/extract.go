package continuity

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/fablekeep/continuity/internal/story"
)

// ExtractAssertions parses one state snapshot into attribute assertions,
// one per top-level key, in sorted attribute order. Values are flattened to
// strings; numbers keep their literal form so "17" never becomes "17.0".
//
// A snapshot that is not a single JSON object yields no assertions and a
// low-severity factual inconsistency candidate instead. Extraction never
// fails a scan.
func ExtractAssertions(snap story.StateSnapshot, pos story.NarrativePosition) ([]story.AttributeAssertion, *Candidate) {
	dec := json.NewDecoder(strings.NewReader(snap.Raw))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, malformedSnapshot(snap, err.Error())
	}
	if dec.More() {
		return nil, malformedSnapshot(snap, "trailing data after JSON object")
	}
	if payload == nil {
		return nil, malformedSnapshot(snap, "snapshot is null, expected an object")
	}

	attrs := make([]string, 0, len(payload))
	for name := range payload {
		attrs = append(attrs, name)
	}
	sort.Strings(attrs)

	assertions := make([]story.AttributeAssertion, 0, len(attrs))
	for _, name := range attrs {
		value, err := flattenValue(payload[name])
		if err != nil {
			return nil, malformedSnapshot(snap, fmt.Sprintf("attribute %q: %v", name, err))
		}
		assertions = append(assertions, story.AttributeAssertion{
			CharacterID: snap.CharacterID,
			Attribute:   name,
			Value:       value,
			SceneID:     snap.SceneID,
			Position:    pos,
			Seq:         snap.Seq,
			AssertedAt:  snap.CreatedAt,
		})
	}
	return assertions, nil
}

// flattenValue renders a decoded JSON value as the assertion value string.
// Scalars keep their literal text; nested structures are re-serialized as
// compact JSON so they still compare and hash deterministically.
func flattenValue(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case bool:
		if val {
			return "true", nil
		}
		return "false", nil
	case json.Number:
		return val.String(), nil
	case nil:
		return "null", nil
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return "", fmt.Errorf("serialize nested value: %w", err)
		}
		return string(data), nil
	}
}

func malformedSnapshot(snap story.StateSnapshot, reason string) *Candidate {
	return &Candidate{
		Type:     story.AlertFactualInconsistency,
		Severity: story.SeverityLow,
		SceneID:  snap.SceneID,
		Description: fmt.Sprintf(
			"state snapshot for character %s in scene %s could not be parsed: %s",
			snap.CharacterID, snap.SceneID, reason),
		SuggestedResolution: "Re-save the character's state for this scene as a JSON object of attribute values.",
		Elements: []story.ElementRef{
			story.SnapshotElement(snap.CharacterID, snap.SceneID),
			story.SceneElement(snap.SceneID),
		},
		EvidenceAt: snap.CreatedAt,
	}
}
