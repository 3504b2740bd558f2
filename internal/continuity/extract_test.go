package continuity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fablekeep/continuity/internal/story"
)

func testSnapshot(raw string) story.StateSnapshot {
	return story.StateSnapshot{
		ID:          "snap-1",
		CharacterID: "jin",
		SceneID:     "s1",
		Raw:         raw,
		Seq:         7,
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestExtractAssertions_SortedAttributes(t *testing.T) {
	pos := story.NarrativePosition{Act: 1, Chapter: 2, Scene: 3}
	asserts, malformed := ExtractAssertions(testSnapshot(`{"weapon": "staff", "age": "17", "mood": "wary"}`), pos)
	require.Nil(t, malformed)
	require.Len(t, asserts, 3)

	assert.Equal(t, "age", asserts[0].Attribute)
	assert.Equal(t, "mood", asserts[1].Attribute)
	assert.Equal(t, "weapon", asserts[2].Attribute)

	a := asserts[0]
	assert.Equal(t, "jin", a.CharacterID)
	assert.Equal(t, "17", a.Value)
	assert.Equal(t, "s1", a.SceneID)
	assert.Equal(t, pos, a.Position)
	assert.Equal(t, int64(7), a.Seq)
}

func TestExtractAssertions_NumbersKeepLiteralForm(t *testing.T) {
	asserts, malformed := ExtractAssertions(testSnapshot(`{"age": 17, "gold": 12.50}`), story.NarrativePosition{})
	require.Nil(t, malformed)
	require.Len(t, asserts, 2)
	assert.Equal(t, "17", asserts[0].Value)
	assert.Equal(t, "12.50", asserts[1].Value)
}

func TestExtractAssertions_ScalarKinds(t *testing.T) {
	asserts, malformed := ExtractAssertions(testSnapshot(`{"alive": true, "ghost": false, "fate": null}`), story.NarrativePosition{})
	require.Nil(t, malformed)
	require.Len(t, asserts, 3)
	assert.Equal(t, "true", asserts[0].Value)
	assert.Equal(t, "null", asserts[1].Value)
	assert.Equal(t, "false", asserts[2].Value)
}

func TestExtractAssertions_NestedValuesAsCompactJSON(t *testing.T) {
	asserts, malformed := ExtractAssertions(testSnapshot(`{"items": ["sword", "map"]}`), story.NarrativePosition{})
	require.Nil(t, malformed)
	require.Len(t, asserts, 1)
	assert.Equal(t, `["sword","map"]`, asserts[0].Value)
}

func TestExtractAssertions_Malformed(t *testing.T) {
	cases := map[string]string{
		"invalid json":  `{broken`,
		"array":         `["a", "b"]`,
		"string":        `"just text"`,
		"null":          `null`,
		"trailing data": `{"age": "17"} {"age": "18"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			asserts, malformed := ExtractAssertions(testSnapshot(raw), story.NarrativePosition{})
			assert.Nil(t, asserts)
			require.NotNil(t, malformed)
			assert.Equal(t, story.AlertFactualInconsistency, malformed.Type)
			assert.Equal(t, story.SeverityLow, malformed.Severity)
			assert.Equal(t, "s1", malformed.SceneID)
			assert.Contains(t, malformed.Description, "jin")
			assert.Equal(t, testSnapshot(raw).CreatedAt, malformed.EvidenceAt)
		})
	}
}

func TestExtractAssertions_EmptyObject(t *testing.T) {
	asserts, malformed := ExtractAssertions(testSnapshot(`{}`), story.NarrativePosition{})
	require.Nil(t, malformed)
	assert.Empty(t, asserts)
}
