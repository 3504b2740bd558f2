package continuity

import (
	"github.com/fablekeep/continuity/internal/store"
	"github.com/fablekeep/continuity/internal/story"
)

// Index resolves scenes to their structural narrative position and preserves
// the project's deterministic scene walk order. Structural position (act,
// chapter, scene) is the only ordering the engine trusts; authored time
// descriptions are hints checked against it, never a substitute for it.
type Index struct {
	positions map[string]story.NarrativePosition
	ordered   []string // scene ids in structural order
}

// NewIndex builds an index from the store's resolved scene positions.
func NewIndex(rows []store.ScenePosition) *Index {
	ix := &Index{
		positions: make(map[string]story.NarrativePosition, len(rows)),
		ordered:   make([]string, 0, len(rows)),
	}
	for _, row := range rows {
		if _, ok := ix.positions[row.SceneID]; ok {
			continue
		}
		ix.positions[row.SceneID] = row.Position
		ix.ordered = append(ix.ordered, row.SceneID)
	}
	return ix
}

// PositionOf resolves a scene's structural position.
// Fails closed with NOT_FOUND for scenes outside the structure; the caller
// skips the dependent item rather than guessing an order.
func (ix *Index) PositionOf(sceneID string) (story.NarrativePosition, error) {
	pos, ok := ix.positions[sceneID]
	if !ok {
		return story.NarrativePosition{}, NewNotFoundError(sceneID, "scene has no resolved narrative position")
	}
	return pos, nil
}

// Known reports whether the scene has a resolved position.
func (ix *Index) Known(sceneID string) bool {
	_, ok := ix.positions[sceneID]
	return ok
}

// SceneIDs returns the scene ids in structural order. Callers must not
// mutate the returned slice.
func (ix *Index) SceneIDs() []string {
	return ix.ordered
}

// Between returns the scene ids strictly between two positions in
// structural order.
func (ix *Index) Between(from, to story.NarrativePosition) []string {
	var ids []string
	for _, id := range ix.ordered {
		pos := ix.positions[id]
		if from.Before(pos) && pos.Before(to) {
			ids = append(ids, id)
		}
	}
	return ids
}
