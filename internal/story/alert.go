package story

import "time"

// AlertType categorizes a continuity alert.
type AlertType string

// Alert types.
const (
	AlertWorldRuleViolation     AlertType = "world_rule_violation"
	AlertCharacterStateConflict AlertType = "character_state_conflict"
	AlertTimelineContradiction  AlertType = "timeline_contradiction"
	AlertFactualInconsistency   AlertType = "factual_inconsistency"
)

// ValidAlertTypes defines allowed alert types.
var ValidAlertTypes = map[AlertType]bool{
	AlertWorldRuleViolation:     true,
	AlertCharacterStateConflict: true,
	AlertTimelineContradiction:  true,
	AlertFactualInconsistency:   true,
}

// Severity grades how urgently an alert warrants author attention.
type Severity string

// Severities, lowest first.
const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ValidSeverities defines allowed severities.
var ValidSeverities = map[Severity]bool{
	SeverityLow:    true,
	SeverityMedium: true,
	SeverityHigh:   true,
}

// Decision is the author's triage decision on an alert.
//
// State machine: pending -> {revised_content, updated_fact, dismissed}.
// Resolved alerts are terminal; a resolved conflict resurfaces only when a
// new candidate with fresh evidence arrives for the same signature.
type Decision string

// Author decisions.
const (
	DecisionPending        Decision = "pending"
	DecisionRevisedContent Decision = "revised_content"
	DecisionUpdatedFact    Decision = "updated_fact"
	DecisionDismissed      Decision = "dismissed"
)

// ValidDecisions defines allowed author decisions.
var ValidDecisions = map[Decision]bool{
	DecisionPending:        true,
	DecisionRevisedContent: true,
	DecisionUpdatedFact:    true,
	DecisionDismissed:      true,
}

// Resolved reports whether the decision is terminal.
func (d Decision) Resolved() bool {
	return d == DecisionRevisedContent || d == DecisionUpdatedFact || d == DecisionDismissed
}

// ContinuityAlert is a durable, triageable record of a detected
// contradiction. Alerts are created by the detector, mutated only through an
// explicit author decision, and never deleted.
//
// Signature is the content hash of (project, type, sorted conflicting
// elements); at most one open alert may exist per signature.
type ContinuityAlert struct {
	ID                  string       `json:"id"`
	ProjectID           string       `json:"project_id"`
	SceneID             string       `json:"scene_id,omitempty"`
	Type                AlertType    `json:"alert_type"`
	Severity            Severity     `json:"severity"`
	Description         string       `json:"description"`
	ConflictingElements []ElementRef `json:"conflicting_elements"`
	Signature           string       `json:"signature"`
	SuggestedResolution string       `json:"suggested_resolution,omitempty"`
	AuthorDecision      Decision     `json:"author_decision"`
	AuthorNotes         string       `json:"author_notes,omitempty"`
	CreatedAt           time.Time    `json:"created_at"`
	ResolvedAt          *time.Time   `json:"resolved_at,omitempty"`
}
