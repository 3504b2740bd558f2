package continuity

import (
	"regexp"
	"strings"
)

// MarkerDirection says which side of the referenced scene the marker claims
// to be on.
type MarkerDirection string

// Marker directions.
const (
	MarkerAfter  MarkerDirection = "after"
	MarkerBefore MarkerDirection = "before"
)

// TemporalMarker is one structured claim recognized inside a scene's
// free-form time description, e.g. "3 days after scene the-harbor" or
// "before scene s2". Only recognized markers are checked; everything else in
// the time description is ignored.
type TemporalMarker struct {
	SceneID   string // scene whose time description carries the marker
	Direction MarkerDirection
	Ref       string // referenced scene, by id or title
	Offset    string // e.g. "3 days", empty for a bare before/after
	Text      string // the matched fragment, verbatim, for alert text
}

// markerRe recognizes "[N unit(s)] (after|before) scene <ref>". The ref runs
// to the next punctuation so quoted and multi-word titles both work.
var markerRe = regexp.MustCompile(
	`(?i)\b(?:(\d+)\s+(hour|day|week|month|year)s?\s+)?(after|before)\s+scene\s+"?([^".,;]+?)"?\s*(?:[.,;]|$)`)

// ParseMarkers extracts every recognized temporal marker from a scene's
// time description.
func ParseMarkers(sceneID, timeDescription string) []TemporalMarker {
	if strings.TrimSpace(timeDescription) == "" {
		return nil
	}

	var markers []TemporalMarker
	for _, m := range markerRe.FindAllStringSubmatch(timeDescription, -1) {
		marker := TemporalMarker{
			SceneID:   sceneID,
			Direction: MarkerDirection(strings.ToLower(m[3])),
			Ref:       strings.TrimSpace(m[4]),
			Text:      strings.TrimSpace(m[0]),
		}
		if m[1] != "" {
			unit := strings.ToLower(m[2])
			if m[1] != "1" {
				unit += "s"
			}
			marker.Offset = m[1] + " " + unit
		}
		if marker.Ref != "" {
			markers = append(markers, marker)
		}
	}
	return markers
}
