package continuity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fablekeep/continuity/internal/signature"
	"github.com/fablekeep/continuity/internal/store"
	"github.com/fablekeep/continuity/internal/story"
)

// RecordOutcome says what Record did with a candidate.
type RecordOutcome string

// Record outcomes.
const (
	OutcomeRecorded        RecordOutcome = "recorded"
	OutcomeReopened        RecordOutcome = "reopened"
	OutcomeSkippedOpen     RecordOutcome = "skipped_open"
	OutcomeSkippedResolved RecordOutcome = "skipped_resolved"
)

// Alerts is the alert lifecycle manager: the only writer of continuity
// alerts. It enforces the dedup invariant (at most one open alert per
// signature) and the author decision state machine.
type Alerts struct {
	store  *store.Store
	clock  Clock
	ids    IDGenerator
	logger *slog.Logger
}

// NewAlerts builds the lifecycle manager.
func NewAlerts(st *store.Store, clock Clock, ids IDGenerator, logger *slog.Logger) *Alerts {
	if logger == nil {
		logger = slog.Default()
	}
	return &Alerts{store: st, clock: clock, ids: ids, logger: logger}
}

// Record decides a candidate's fate against the existing alert history:
//
//   - an open alert already carries the signature: skip, keep the open one;
//   - the signature was resolved and the candidate cites no newer evidence:
//     skip, the author's decision stands;
//   - the signature was resolved but the candidate's evidence postdates the
//     resolution: insert a fresh pending alert (reopen);
//   - otherwise: insert a new pending alert.
//
// Returns the surviving alert row alongside the outcome.
func (m *Alerts) Record(ctx context.Context, projectID string, cand Candidate) (story.ContinuityAlert, RecordOutcome, error) {
	elements := story.SortElements(append([]story.ElementRef(nil), cand.Elements...))
	sig, err := signature.Alert(projectID, cand.Type, elements)
	if err != nil {
		return story.ContinuityAlert{}, "", &ScanError{
			Code:    CodeValidationFailure,
			Message: "compute alert signature",
			Err:     err,
		}
	}

	existing, err := m.store.AlertsBySignature(ctx, projectID, sig)
	if err != nil {
		return story.ContinuityAlert{}, "", NewStoreError("load alerts by signature", err)
	}

	for _, a := range existing {
		if !a.AuthorDecision.Resolved() {
			m.logger.Debug("candidate already open, skipping",
				"signature", sig, "alert_id", a.ID)
			return a, OutcomeSkippedOpen, nil
		}
	}
	if len(existing) > 0 {
		latest := existing[len(existing)-1]
		if latest.ResolvedAt != nil && (cand.EvidenceAt.IsZero() || !cand.EvidenceAt.After(*latest.ResolvedAt)) {
			m.logger.Debug("candidate resolved with no newer evidence, skipping",
				"signature", sig, "alert_id", latest.ID)
			return latest, OutcomeSkippedResolved, nil
		}
	}

	alert := story.ContinuityAlert{
		ID:                  m.ids.NewID(),
		ProjectID:           projectID,
		SceneID:             cand.SceneID,
		Type:                cand.Type,
		Severity:            cand.Severity,
		Description:         cand.Description,
		ConflictingElements: elements,
		Signature:           sig,
		SuggestedResolution: cand.SuggestedResolution,
		AuthorDecision:      story.DecisionPending,
		CreatedAt:           m.clock.Now().UTC(),
	}
	if _, err := m.store.InsertAlert(ctx, alert); err != nil {
		return story.ContinuityAlert{}, "", NewStoreError("insert alert", err)
	}

	outcome := OutcomeRecorded
	if len(existing) > 0 {
		outcome = OutcomeReopened
		m.logger.Info("reopened resolved conflict with newer evidence",
			"signature", sig, "alert_id", alert.ID)
	}
	return alert, outcome, nil
}

// Resolve applies an author decision to an alert. Pending alerts accept any
// terminal decision; a resolved alert can only be re-resolved to
// revised_content (the author went back and changed the text after all).
func (m *Alerts) Resolve(ctx context.Context, alertID string, decision story.Decision, notes string) (story.ContinuityAlert, error) {
	if !story.ValidDecisions[decision] || decision == story.DecisionPending {
		return story.ContinuityAlert{}, NewValidationError(alertID,
			fmt.Sprintf("invalid decision %q", decision))
	}

	alert, err := m.store.AlertByID(ctx, alertID)
	if errors.Is(err, sql.ErrNoRows) {
		return story.ContinuityAlert{}, NewNotFoundError(alertID, "alert not found")
	}
	if err != nil {
		return story.ContinuityAlert{}, NewStoreError("load alert", err)
	}

	if alert.AuthorDecision.Resolved() && decision != story.DecisionRevisedContent {
		return story.ContinuityAlert{}, NewValidationError(alertID,
			fmt.Sprintf("alert already resolved as %q", alert.AuthorDecision))
	}

	now := m.clock.Now().UTC()
	err = m.store.UpdateAlertDecision(ctx, alertID, decision, notes, now)
	if errors.Is(err, sql.ErrNoRows) {
		return story.ContinuityAlert{}, NewNotFoundError(alertID, "alert not found")
	}
	if err != nil {
		return story.ContinuityAlert{}, NewStoreError("update alert decision", err)
	}

	m.logger.Info("alert resolved",
		"alert_id", alertID, "decision", string(decision))

	alert.AuthorDecision = decision
	alert.AuthorNotes = notes
	alert.ResolvedAt = &now
	return alert, nil
}

// List returns a project's alerts, optionally filtered by decision, newest
// first. An empty decision means all alerts.
func (m *Alerts) List(ctx context.Context, projectID string, decision story.Decision) ([]story.ContinuityAlert, error) {
	if decision != "" && !story.ValidDecisions[decision] {
		return nil, NewValidationError(projectID,
			fmt.Sprintf("invalid decision filter %q", decision))
	}
	alerts, err := m.store.ListAlerts(ctx, projectID, decision)
	if err != nil {
		return nil, NewStoreError("list alerts", err)
	}
	return alerts, nil
}
