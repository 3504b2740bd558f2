package continuity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fablekeep/continuity/internal/store"
	"github.com/fablekeep/continuity/internal/story"
)

func testIndex() *Index {
	return NewIndex([]store.ScenePosition{
		{SceneID: "s1", Position: story.NarrativePosition{Act: 1, Chapter: 1, Scene: 1}},
		{SceneID: "s2", Position: story.NarrativePosition{Act: 1, Chapter: 1, Scene: 2}},
		{SceneID: "s3", Position: story.NarrativePosition{Act: 1, Chapter: 2, Scene: 1}},
		{SceneID: "s4", Position: story.NarrativePosition{Act: 2, Chapter: 1, Scene: 1}},
	})
}

func TestIndex_PositionOf(t *testing.T) {
	ix := testIndex()

	pos, err := ix.PositionOf("s3")
	require.NoError(t, err)
	assert.Equal(t, story.NarrativePosition{Act: 1, Chapter: 2, Scene: 1}, pos)
}

func TestIndex_PositionOfUnknownSceneFailsClosed(t *testing.T) {
	ix := testIndex()

	_, err := ix.PositionOf("ghost")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, ix.Known("ghost"))
}

func TestIndex_SceneIDsKeepStructuralOrder(t *testing.T) {
	ix := testIndex()
	assert.Equal(t, []string{"s1", "s2", "s3", "s4"}, ix.SceneIDs())
}

func TestIndex_Between(t *testing.T) {
	ix := testIndex()

	from := story.NarrativePosition{Act: 1, Chapter: 1, Scene: 1}
	to := story.NarrativePosition{Act: 2, Chapter: 1, Scene: 1}
	assert.Equal(t, []string{"s2", "s3"}, ix.Between(from, to))

	// Adjacent positions have nothing between them.
	assert.Empty(t, ix.Between(
		story.NarrativePosition{Act: 1, Chapter: 1, Scene: 1},
		story.NarrativePosition{Act: 1, Chapter: 1, Scene: 2},
	))
}

func TestIndex_DuplicateSceneIDsKeepFirst(t *testing.T) {
	ix := NewIndex([]store.ScenePosition{
		{SceneID: "s1", Position: story.NarrativePosition{Act: 1, Chapter: 1, Scene: 1}},
		{SceneID: "s1", Position: story.NarrativePosition{Act: 2, Chapter: 2, Scene: 2}},
	})

	pos, err := ix.PositionOf("s1")
	require.NoError(t, err)
	assert.Equal(t, story.NarrativePosition{Act: 1, Chapter: 1, Scene: 1}, pos)
	assert.Len(t, ix.SceneIDs(), 1)
}
