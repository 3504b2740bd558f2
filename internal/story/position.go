package story

import "fmt"

// NarrativePosition is the structural ordering key for a scene: the act's
// position in the plot structure, the chapter's number within the act, and
// the scene's position within the chapter.
//
// Positions have a strict total order: compare by act, then chapter, then
// scene. This is "story order" (order of telling), independent of any
// in-world timeline.
type NarrativePosition struct {
	Act     int `json:"act"`
	Chapter int `json:"chapter"`
	Scene   int `json:"scene"`
}

// Compare returns -1 if a orders before b, +1 if after, 0 if equal.
func (a NarrativePosition) Compare(b NarrativePosition) int {
	if a.Act != b.Act {
		return sign(a.Act - b.Act)
	}
	if a.Chapter != b.Chapter {
		return sign(a.Chapter - b.Chapter)
	}
	return sign(a.Scene - b.Scene)
}

// Before reports whether a orders strictly before b.
func (a NarrativePosition) Before(b NarrativePosition) bool {
	return a.Compare(b) < 0
}

// String renders the position as "act.chapter.scene", e.g. "1.3.2".
func (a NarrativePosition) String() string {
	return fmt.Sprintf("%d.%d.%d", a.Act, a.Chapter, a.Scene)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
