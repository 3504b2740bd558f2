package continuity

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fablekeep/continuity/internal/policy"
	"github.com/fablekeep/continuity/internal/story"
)

// Candidate is a detected conflict before deduplication. The alert lifecycle
// manager decides whether it becomes a new alert, reopens a resolved one, or
// is dropped against an existing open one.
type Candidate struct {
	Type                story.AlertType
	Severity            story.Severity
	SceneID             string
	Description         string
	SuggestedResolution string
	Elements            []story.ElementRef

	// EvidenceAt is the newest timestamp among the evidence the candidate
	// cites. A resolved alert with the same signature reopens only when
	// EvidenceAt postdates its resolution.
	EvidenceAt time.Time
}

// Detector runs the Tier-1 conflict checks over a project's extracted
// assertions and scenes. It is built fresh per scan from a consistent read
// of the store and holds no mutable state.
type Detector struct {
	policy  *policy.Policy
	index   *Index
	matcher *Matcher

	scenes      map[string]story.Scene
	sceneText   map[string]string          // folded content + outline
	active      map[string]map[string]bool // scene id -> character id -> active
	titleIndex  map[string]string          // folded title -> scene id
	charNames   map[string]string
	intentional map[string]bool // char\x00attr with a prior intentional resolution
}

// NewDetector assembles a detector from a scan's loaded inputs. priorAlerts
// is the project's full alert history; resolutions of earlier state
// conflicts mark (character, attribute) pairs as intentionally changed.
func NewDetector(
	pol *policy.Policy,
	index *Index,
	rules []story.WorldRule,
	scenes []story.Scene,
	presences []story.ScenePresence,
	characters []story.Character,
	priorAlerts []story.ContinuityAlert,
) *Detector {
	d := &Detector{
		policy:      pol,
		index:       index,
		matcher:     NewMatcher(rules),
		scenes:      make(map[string]story.Scene, len(scenes)),
		sceneText:   make(map[string]string, len(scenes)),
		active:      map[string]map[string]bool{},
		titleIndex:  map[string]string{},
		charNames:   make(map[string]string, len(characters)),
		intentional: map[string]bool{},
	}

	for _, sc := range scenes {
		d.scenes[sc.ID] = sc
		d.sceneText[sc.ID] = fold(sc.Content + "\n" + sc.Outline)
		if sc.Title != "" {
			key := fold(sc.Title)
			if _, ok := d.titleIndex[key]; !ok {
				d.titleIndex[key] = sc.ID
			}
		}
	}
	for _, p := range presences {
		if !p.Active() {
			continue
		}
		if d.active[p.SceneID] == nil {
			d.active[p.SceneID] = map[string]bool{}
		}
		d.active[p.SceneID][p.CharacterID] = true
	}
	for _, c := range characters {
		d.charNames[c.ID] = c.Name
	}
	for _, a := range priorAlerts {
		if a.Type != story.AlertCharacterStateConflict {
			continue
		}
		if a.AuthorDecision != story.DecisionUpdatedFact && a.AuthorDecision != story.DecisionRevisedContent {
			continue
		}
		for _, el := range a.ConflictingElements {
			if el.Kind == story.ElementAssertion && el.CharacterID != "" && el.Attribute != "" {
				d.intentional[el.CharacterID+"\x00"+el.Attribute] = true
			}
		}
	}
	return d
}

// Detect runs all checks over the assertion set and returns candidates in a
// deterministic order: state conflicts, then rule violations, then timeline
// contradictions. Assertions must already be position-resolved.
func (d *Detector) Detect(assertions []story.AttributeAssertion) ([]Candidate, []ValidationNote) {
	ordered := make([]story.AttributeAssertion, len(assertions))
	copy(ordered, assertions)
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.CharacterID != b.CharacterID {
			return a.CharacterID < b.CharacterID
		}
		if a.Attribute != b.Attribute {
			return a.Attribute < b.Attribute
		}
		if c := a.Position.Compare(b.Position); c != 0 {
			return c < 0
		}
		return a.Seq < b.Seq
	})

	candidates := d.detectStateConflicts(ordered)
	candidates = append(candidates, d.detectRuleViolations(ordered)...)
	timeline, notes := d.detectTimelineContradictions()
	candidates = append(candidates, timeline...)
	return candidates, notes
}

// detectStateConflicts walks each character's per-attribute belief history
// in narrative order and flags consecutive value changes that nothing
// explains. ordered must be sorted by (character, attribute, position, seq).
func (d *Detector) detectStateConflicts(ordered []story.AttributeAssertion) []Candidate {
	var candidates []Candidate
	for i := 1; i < len(ordered); i++ {
		prev, cur := ordered[i-1], ordered[i]
		if prev.CharacterID != cur.CharacterID || prev.Attribute != cur.Attribute {
			continue
		}
		if fold(prev.Value) == fold(cur.Value) {
			continue
		}

		pn, pok := parseNumeric(prev.Value)
		cn, cok := parseNumeric(cur.Value)
		jump := pok && cok && relDiffPercent(pn, cn) > float64(d.policy.NumericJumpPercent)

		explained := d.intentional[cur.CharacterID+"\x00"+cur.Attribute] ||
			d.explainedByScene(prev, cur)

		// Large numeric jumps stay flagged even when nominally explained;
		// everything else passes once an explanation is found.
		if !jump && explained {
			continue
		}

		severity := story.SeverityMedium
		desc := fmt.Sprintf("%s's %s changes from %q (scene %s) to %q (scene %s) with no explanation in between",
			d.charName(cur.CharacterID), cur.Attribute,
			prev.Value, d.sceneLabel(prev.SceneID),
			cur.Value, d.sceneLabel(cur.SceneID))
		if jump {
			severity = story.SeverityHigh
			desc = fmt.Sprintf("%s's %s jumps from %q (scene %s) to %q (scene %s), a change beyond the %d%% review threshold",
				d.charName(cur.CharacterID), cur.Attribute,
				prev.Value, d.sceneLabel(prev.SceneID),
				cur.Value, d.sceneLabel(cur.SceneID),
				d.policy.NumericJumpPercent)
		}

		candidates = append(candidates, Candidate{
			Type:                story.AlertCharacterStateConflict,
			Severity:            severity,
			SceneID:             cur.SceneID,
			Description:         desc,
			SuggestedResolution: "Add a scene motivating the change, or resolve this alert as an intentional fact update.",
			Elements: []story.ElementRef{
				story.AssertionElement(prev),
				story.AssertionElement(cur),
			},
			EvidenceAt: laterTime(prev.AssertedAt, cur.AssertedAt),
		})
	}
	return candidates
}

// explainedByScene reports whether some scene strictly between the two
// assertions features the character actively and mentions the new value (or
// a policy synonym of it).
func (d *Detector) explainedByScene(prev, cur story.AttributeAssertion) bool {
	keywords := d.policy.SynonymsFor(fold(cur.Value))
	for _, sceneID := range d.index.Between(prev.Position, cur.Position) {
		if !d.active[sceneID][cur.CharacterID] {
			continue
		}
		text := d.sceneText[sceneID]
		for _, kw := range keywords {
			if kw != "" && strings.Contains(text, fold(kw)) {
				return true
			}
		}
	}
	return false
}

// detectRuleViolations finds pairs of assertions about the same attribute
// that a shared world rule governs but whose values disagree.
func (d *Detector) detectRuleViolations(ordered []story.AttributeAssertion) []Candidate {
	byRule := map[string][]story.AttributeAssertion{}
	rulesByID := map[string]story.WorldRule{}
	var ruleOrder []string

	for _, a := range ordered {
		sceneText := ""
		if sc, ok := d.scenes[a.SceneID]; ok {
			sceneText = sc.Content + "\n" + sc.Outline
		}
		for _, r := range d.matcher.Match(a.Attribute, a.Value, sceneText) {
			if _, seen := rulesByID[r.ID]; !seen {
				rulesByID[r.ID] = r
				ruleOrder = append(ruleOrder, r.ID)
			}
			byRule[r.ID] = append(byRule[r.ID], a)
		}
	}

	var candidates []Candidate
	for _, ruleID := range ruleOrder {
		rule := rulesByID[ruleID]
		group := byRule[ruleID]
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if fold(a.Attribute) != fold(b.Attribute) {
					continue
				}
				if !d.valuesIncompatible(a.Value, b.Value) {
					continue
				}
				candidates = append(candidates, Candidate{
					Type:     story.AlertWorldRuleViolation,
					Severity: d.policy.ViolationSeverity(rule.Scope),
					SceneID:  b.SceneID,
					Description: fmt.Sprintf("rule %q (%s): %s's %s is %q in scene %s but %q in scene %s",
						rule.Name, rule.Scope,
						d.charName(a.CharacterID), a.Attribute,
						a.Value, d.sceneLabel(a.SceneID),
						b.Value, d.sceneLabel(b.SceneID)),
					SuggestedResolution: "Reconcile the two facts with the rule, or adjust the rule's keywords or scope if the match is spurious.",
					Elements: []story.ElementRef{
						story.RuleElement(rule),
						story.AssertionElement(a),
						story.AssertionElement(b),
					},
					EvidenceAt: laterTime(a.AssertedAt, b.AssertedAt),
				})
			}
		}
	}
	return candidates
}

// valuesIncompatible decides whether two values matched to the same rule
// disagree. Numeric values compare within the policy tolerance; everything
// else compares by folded equality.
func (d *Detector) valuesIncompatible(a, b string) bool {
	na, aok := parseNumeric(a)
	nb, bok := parseNumeric(b)
	if aok && bok {
		return relDiffPercent(na, nb) > float64(d.policy.NumericTolerancePercent)
	}
	return fold(a) != fold(b)
}

// detectTimelineContradictions checks each scene's recognized temporal
// markers against the structural order. Markers referencing unknown scenes
// become validation notes, not alerts.
func (d *Detector) detectTimelineContradictions() ([]Candidate, []ValidationNote) {
	var candidates []Candidate
	var notes []ValidationNote

	for _, sceneID := range d.index.SceneIDs() {
		sc := d.scenes[sceneID]
		for _, marker := range ParseMarkers(sceneID, sc.TimeDescription) {
			refID, ok := d.resolveSceneRef(marker.Ref)
			if !ok {
				notes = append(notes, ValidationNote{
					EntityID: sceneID,
					Reason:   fmt.Sprintf("time description references unknown scene %q", marker.Ref),
				})
				continue
			}

			scenePos, err := d.index.PositionOf(sceneID)
			if err != nil {
				continue
			}
			refPos, err := d.index.PositionOf(refID)
			if err != nil {
				notes = append(notes, ValidationNote{
					EntityID: refID,
					Reason:   "referenced scene has no resolved narrative position",
				})
				continue
			}

			consistent := false
			switch marker.Direction {
			case MarkerAfter:
				consistent = refPos.Before(scenePos)
			case MarkerBefore:
				consistent = scenePos.Before(refPos)
			}
			if consistent {
				continue
			}

			relation := "comes later in the narrative order"
			if marker.Direction == MarkerBefore {
				relation = "comes earlier in the narrative order"
			}
			candidates = append(candidates, Candidate{
				Type:     story.AlertTimelineContradiction,
				Severity: story.SeverityMedium,
				SceneID:  sceneID,
				Description: fmt.Sprintf("scene %s claims to take place %q, but scene %s %s",
					d.sceneLabel(sceneID), marker.Text, d.sceneLabel(refID), relation),
				SuggestedResolution: "Move one of the scenes or rewrite the time description to match the structural order.",
				Elements: []story.ElementRef{
					story.SceneElement(sceneID),
					story.SceneElement(refID),
				},
			})
		}
	}
	return candidates, notes
}

// resolveSceneRef maps a marker's scene reference to a scene id, trying the
// id directly and then the folded title.
func (d *Detector) resolveSceneRef(ref string) (string, bool) {
	if d.index.Known(ref) {
		return ref, true
	}
	if id, ok := d.titleIndex[fold(ref)]; ok {
		return id, true
	}
	return "", false
}

func (d *Detector) charName(characterID string) string {
	if name, ok := d.charNames[characterID]; ok && name != "" {
		return name
	}
	return characterID
}

func (d *Detector) sceneLabel(sceneID string) string {
	if sc, ok := d.scenes[sceneID]; ok && sc.Title != "" {
		return sc.Title
	}
	return sceneID
}

var numericRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// parseNumeric extracts the first number embedded in a value, so "25" and
// "25 years" both read as 25.
func parseNumeric(value string) (float64, bool) {
	match := numericRe.FindString(value)
	if match == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// relDiffPercent is the relative difference between two numbers as a
// percentage of the larger magnitude.
func relDiffPercent(a, b float64) float64 {
	base := math.Max(math.Abs(a), math.Abs(b))
	if base == 0 {
		return 0
	}
	return math.Abs(a-b) / base * 100
}

func laterTime(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
