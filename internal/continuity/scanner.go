package continuity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fablekeep/continuity/internal/policy"
	"github.com/fablekeep/continuity/internal/store"
	"github.com/fablekeep/continuity/internal/story"
)

// Scanner coordinates continuity scans: it loads a project's narrative
// state, runs the detector, and records candidates through the alert
// lifecycle manager. A single Scanner is safe for concurrent use; scans of
// the same project serialize on a keyed mutex.
type Scanner struct {
	store  *store.Store
	policy *policy.Policy
	clock  Clock
	ids    IDGenerator
	logger *slog.Logger
	alerts *Alerts
	locks  *projectLocks
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithClock overrides the wall clock, for deterministic tests.
func WithClock(c Clock) Option {
	return func(s *Scanner) { s.clock = c }
}

// WithIDGenerator overrides alert/scan id generation, for deterministic
// tests.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Scanner) { s.ids = g }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// NewScanner builds a scanner over a store. A nil policy means the built-in
// default policy.
func NewScanner(st *store.Store, pol *policy.Policy, opts ...Option) *Scanner {
	if pol == nil {
		pol = policy.Default()
	}
	s := &Scanner{
		store:  st,
		policy: pol,
		clock:  SystemClock{},
		ids:    UUIDGenerator{},
		logger: slog.Default(),
		locks:  newProjectLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.alerts = NewAlerts(st, s.clock, s.ids, s.logger)
	return s
}

// Alerts exposes the lifecycle manager for resolve/list operations outside
// a scan.
func (s *Scanner) Alerts() *Alerts {
	return s.alerts
}

// ScanProject runs a full continuity scan over one project.
func (s *Scanner) ScanProject(ctx context.Context, projectID string) (*ScanReport, error) {
	return s.scan(ctx, projectID, "project", "", nil)
}

// ScanScene runs an incremental scan scoped to one scene: only characters
// with a snapshot in that scene are re-checked, but across their full
// histories, since a single scene edit can contradict facts established
// anywhere.
func (s *Scanner) ScanScene(ctx context.Context, sceneID string) (*ScanReport, error) {
	projectID, err := s.store.ProjectIDForScene(ctx, sceneID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NewNotFoundError(sceneID, "scene not found or not linked to a project")
	}
	if err != nil {
		return nil, NewStoreError("resolve scene project", err)
	}

	charIDs, err := s.store.CharactersSnapshottedInScene(ctx, sceneID)
	if err != nil {
		return nil, NewStoreError("load scene snapshot characters", err)
	}
	filter := make(map[string]bool, len(charIDs))
	for _, id := range charIDs {
		filter[id] = true
	}

	return s.scan(ctx, projectID, "scene", sceneID, filter)
}

func (s *Scanner) scan(ctx context.Context, projectID, scope, sceneID string, charFilter map[string]bool) (*ScanReport, error) {
	unlock := s.locks.lock(projectID)
	defer unlock()

	start := s.clock.Now()
	report := newScanReport(s.ids.NewID(), projectID, scope, sceneID)

	// Load phase. One consistent read of everything the detector needs;
	// the write phase never re-reads narrative state.
	positions, err := s.store.ScenePositions(ctx, projectID)
	if err != nil {
		return nil, NewStoreError("load scene positions", err)
	}
	scenes, err := s.store.Scenes(ctx, projectID)
	if err != nil {
		return nil, NewStoreError("load scenes", err)
	}
	rules, err := s.store.WorldRules(ctx, projectID)
	if err != nil {
		return nil, NewStoreError("load world rules", err)
	}
	presences, err := s.store.ScenePresences(ctx, projectID)
	if err != nil {
		return nil, NewStoreError("load scene presences", err)
	}
	characters, err := s.store.Characters(ctx, projectID)
	if err != nil {
		return nil, NewStoreError("load characters", err)
	}
	history, err := s.store.StateHistory(ctx, projectID)
	if err != nil {
		return nil, NewStoreError("load state history", err)
	}
	priorAlerts, err := s.store.ListAlerts(ctx, projectID, "")
	if err != nil {
		return nil, NewStoreError("load prior alerts", err)
	}
	if err := checkpoint(ctx); err != nil {
		return nil, err
	}

	index := NewIndex(positions)

	// Extraction phase. The history is append-only; within one scene the
	// newest snapshot per character supersedes the rest.
	latest := map[string]string{} // char\x00scene -> snapshot id
	for _, snap := range history {
		latest[snap.CharacterID+"\x00"+snap.SceneID] = snap.ID
	}

	var assertions []story.AttributeAssertion
	var candidates []Candidate
	for _, snap := range history {
		if latest[snap.CharacterID+"\x00"+snap.SceneID] != snap.ID {
			continue
		}
		if charFilter != nil && !charFilter[snap.CharacterID] {
			continue
		}
		pos, err := index.PositionOf(snap.SceneID)
		if err != nil {
			report.Notes = append(report.Notes, ValidationNote{
				EntityID: snap.ID,
				Reason:   fmt.Sprintf("snapshot scene %s has no resolved narrative position", snap.SceneID),
			})
			continue
		}
		extracted, malformed := ExtractAssertions(snap, pos)
		if malformed != nil {
			candidates = append(candidates, *malformed)
			continue
		}
		assertions = append(assertions, extracted...)
	}
	if err := checkpoint(ctx); err != nil {
		return nil, err
	}

	// Detection phase.
	detector := NewDetector(s.policy, index, rules, scenes, presences, characters, priorAlerts)
	detected, notes := detector.Detect(assertions)
	candidates = append(candidates, detected...)
	report.Notes = append(report.Notes, notes...)
	if err := checkpoint(ctx); err != nil {
		return nil, err
	}

	// Record phase. Store failures abort; everything written so far is
	// individually idempotent, so a retried scan is safe.
	for _, cand := range candidates {
		alert, outcome, err := s.alerts.Record(ctx, projectID, cand)
		if err != nil {
			return nil, err
		}
		report.observe(alert, outcome)
	}

	s.logger.Info("scan complete",
		"project_id", projectID,
		"scope", scope,
		"new_alerts", len(report.NewAlerts),
		"reopened", len(report.ReopenedAlerts),
		"skipped_open", report.SkippedOpen,
		"skipped_resolved", report.SkippedResolved,
		"notes", len(report.Notes),
		"duration", s.clock.Now().Sub(start),
	)
	return report, nil
}

// checkpoint enforces the ctx deadline between phases. Phases themselves
// run to completion; cancellation never leaves a phase half-applied.
func checkpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("scan canceled: %w", err)
	}
	return nil
}
