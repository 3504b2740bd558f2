package continuity

import (
	"github.com/fablekeep/continuity/internal/story"
)

// ValidationNote records an item the scan skipped and why. Notes are
// informational; they never fail a scan.
type ValidationNote struct {
	EntityID string `json:"entity_id"`
	Reason   string `json:"reason"`
}

// ScanReport summarizes one scan run for triage.
type ScanReport struct {
	ScanID    string `json:"scan_id"`
	ProjectID string `json:"project_id"`
	Scope     string `json:"scope"`              // "project" or "scene"
	SceneID   string `json:"scene_id,omitempty"` // set for scene scans

	NewAlerts       []string `json:"new_alerts"`
	ReopenedAlerts  []string `json:"reopened_alerts"`
	SkippedOpen     int      `json:"skipped_open"`
	SkippedResolved int      `json:"skipped_resolved"`

	CountsByType     map[story.AlertType]int `json:"counts_by_type"`
	CountsBySeverity map[story.Severity]int  `json:"counts_by_severity"`

	Notes []ValidationNote `json:"notes"`
}

func newScanReport(scanID, projectID, scope, sceneID string) *ScanReport {
	return &ScanReport{
		ScanID:           scanID,
		ProjectID:        projectID,
		Scope:            scope,
		SceneID:          sceneID,
		NewAlerts:        []string{},
		ReopenedAlerts:   []string{},
		CountsByType:     map[story.AlertType]int{},
		CountsBySeverity: map[story.Severity]int{},
		Notes:            []ValidationNote{},
	}
}

// observe folds one record outcome into the report. Counts cover alerts this
// scan actually raised (new or reopened), not pre-existing ones it skipped.
func (r *ScanReport) observe(alert story.ContinuityAlert, outcome RecordOutcome) {
	switch outcome {
	case OutcomeRecorded:
		r.NewAlerts = append(r.NewAlerts, alert.ID)
	case OutcomeReopened:
		r.ReopenedAlerts = append(r.ReopenedAlerts, alert.ID)
	case OutcomeSkippedOpen:
		r.SkippedOpen++
		return
	case OutcomeSkippedResolved:
		r.SkippedResolved++
		return
	}
	r.CountsByType[alert.Type]++
	r.CountsBySeverity[alert.Severity]++
}

// Raised is the number of alerts this scan created, new plus reopened.
func (r *ScanReport) Raised() int {
	return len(r.NewAlerts) + len(r.ReopenedAlerts)
}
