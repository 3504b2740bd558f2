package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fablekeep/continuity/internal/story"
)

// ScenePosition pairs a scene with its resolved structural position.
type ScenePosition struct {
	SceneID  string
	Position story.NarrativePosition
}

// ProjectIDForScene resolves the project a scene belongs to by walking the
// scene -> chapter -> act -> plot structure linkage.
// Returns sql.ErrNoRows if the scene or any link is missing.
func (s *Store) ProjectIDForScene(ctx context.Context, sceneID string) (string, error) {
	var projectID string
	err := s.db.QueryRowContext(ctx, `
		SELECT ps.story_project_id
		FROM scenes sc
		JOIN chapters ch ON sc.chapter_id = ch.id
		JOIN acts a ON ch.act_id = a.id
		JOIN plot_structures ps ON a.plot_structure_id = ps.id
		WHERE sc.id = ?
	`, sceneID).Scan(&projectID)
	if err != nil {
		return "", err
	}
	return projectID, nil
}

// ScenePositions returns the structural position of every fully linked
// scene in a project. Scenes whose chapter/act linkage cannot be resolved
// do not appear; position lookups for them fail closed in the engine.
//
// Results are ordered by position with scene id as tiebreaker so repeated
// scans walk scenes in an identical sequence.
func (s *Store) ScenePositions(ctx context.Context, projectID string) ([]ScenePosition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sc.id, a.position, ch.number, sc.position
		FROM scenes sc
		JOIN chapters ch ON sc.chapter_id = ch.id
		JOIN acts a ON ch.act_id = a.id
		JOIN plot_structures ps ON a.plot_structure_id = ps.id
		WHERE ps.story_project_id = ?
		ORDER BY a.position ASC, ch.number ASC, sc.position ASC, sc.id COLLATE BINARY ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query scene positions: %w", err)
	}
	defer rows.Close()

	var positions []ScenePosition
	for rows.Next() {
		var sp ScenePosition
		if err := rows.Scan(&sp.SceneID, &sp.Position.Act, &sp.Position.Chapter, &sp.Position.Scene); err != nil {
			return nil, fmt.Errorf("scan scene position: %w", err)
		}
		positions = append(positions, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scene positions: %w", err)
	}

	if positions == nil {
		positions = []ScenePosition{}
	}
	return positions, nil
}

// Scenes returns all scenes of a project in structural order.
func (s *Store) Scenes(ctx context.Context, projectID string) ([]story.Scene, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sc.id, sc.chapter_id, sc.title, sc.position, sc.location,
		       sc.time_description, sc.content, sc.scene_outline
		FROM scenes sc
		JOIN chapters ch ON sc.chapter_id = ch.id
		JOIN acts a ON ch.act_id = a.id
		JOIN plot_structures ps ON a.plot_structure_id = ps.id
		WHERE ps.story_project_id = ?
		ORDER BY a.position ASC, ch.number ASC, sc.position ASC, sc.id COLLATE BINARY ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query scenes: %w", err)
	}
	defer rows.Close()

	var scenes []story.Scene
	for rows.Next() {
		sc, err := scanScene(rows)
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scenes: %w", err)
	}

	if scenes == nil {
		scenes = []story.Scene{}
	}
	return scenes, nil
}

// SceneByID retrieves a single scene.
// Returns sql.ErrNoRows if not found.
func (s *Store) SceneByID(ctx context.Context, sceneID string) (story.Scene, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, chapter_id, title, position, location, time_description, content, scene_outline
		FROM scenes
		WHERE id = ?
	`, sceneID)

	var sc story.Scene
	var title, location, timeDesc, outline sql.NullString
	err := row.Scan(&sc.ID, &sc.ChapterID, &title, &sc.Position, &location, &timeDesc, &sc.Content, &outline)
	if err != nil {
		return story.Scene{}, err
	}
	sc.Title = fromNullString(title)
	sc.Location = fromNullString(location)
	sc.TimeDescription = fromNullString(timeDesc)
	sc.Outline = fromNullString(outline)
	return sc, nil
}

// Characters returns all characters of a project ordered by name.
func (s *Store) Characters(ctx context.Context, projectID string) ([]story.Character, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, story_project_id, name, role, current_state
		FROM characters
		WHERE story_project_id = ?
		ORDER BY name ASC, id COLLATE BINARY ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query characters: %w", err)
	}
	defer rows.Close()

	var characters []story.Character
	for rows.Next() {
		var c story.Character
		var state sql.NullString
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Name, &c.Role, &state); err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		c.CurrentState = fromNullString(state)
		characters = append(characters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate characters: %w", err)
	}

	if characters == nil {
		characters = []story.Character{}
	}
	return characters, nil
}

// WorldRules returns all world rules of a project ordered by name.
func (s *Store) WorldRules(ctx context.Context, projectID string) ([]story.WorldRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, story_project_id, name, description, scope, examples, keywords
		FROM world_rules
		WHERE story_project_id = ?
		ORDER BY name ASC, id COLLATE BINARY ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query world rules: %w", err)
	}
	defer rows.Close()

	var rules []story.WorldRule
	for rows.Next() {
		var r story.WorldRule
		var scope string
		var examples, keywords sql.NullString
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.Name, &r.Description, &scope, &examples, &keywords); err != nil {
			return nil, fmt.Errorf("scan world rule: %w", err)
		}
		r.Scope = story.RuleScope(scope)
		r.Examples = fromNullString(examples)
		r.Keywords, err = unmarshalKeywords(keywords)
		if err != nil {
			return nil, fmt.Errorf("world rule %s: %w", r.ID, err)
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate world rules: %w", err)
	}

	if rules == nil {
		rules = []story.WorldRule{}
	}
	return rules, nil
}

// StateHistory returns the full append-only snapshot log for a project,
// in insertion order (rowid) so the engine can use it as a tiebreaker.
func (s *Store) StateHistory(ctx context.Context, projectID string) ([]story.StateSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT h.id, h.character_id, h.scene_id, h.state_snapshot, h.rowid, h.created_at
		FROM character_state_history h
		JOIN characters c ON h.character_id = c.id
		WHERE c.story_project_id = ?
		ORDER BY h.rowid ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query state history: %w", err)
	}
	defer rows.Close()

	return collectSnapshots(rows)
}

// CharactersSnapshottedInScene returns the ids of characters that have a
// state snapshot attached to the given scene. Used by incremental scans to
// restrict which belief histories are re-walked.
func (s *Store) CharactersSnapshottedInScene(ctx context.Context, sceneID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT character_id
		FROM character_state_history
		WHERE scene_id = ?
		ORDER BY character_id COLLATE BINARY ASC
	`, sceneID)
	if err != nil {
		return nil, fmt.Errorf("query scene snapshot characters: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan character id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate character ids: %w", err)
	}

	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// ScenePresences returns every (scene, character, role) row for a project.
func (s *Store) ScenePresences(ctx context.Context, projectID string) ([]story.ScenePresence, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.scene_id, p.character_id, p.role_in_scene
		FROM scene_characters p
		JOIN characters c ON p.character_id = c.id
		WHERE c.story_project_id = ?
		ORDER BY p.scene_id COLLATE BINARY ASC, p.character_id COLLATE BINARY ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query scene presences: %w", err)
	}
	defer rows.Close()

	var presences []story.ScenePresence
	for rows.Next() {
		var p story.ScenePresence
		if err := rows.Scan(&p.SceneID, &p.CharacterID, &p.RoleInScene); err != nil {
			return nil, fmt.Errorf("scan scene presence: %w", err)
		}
		presences = append(presences, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scene presences: %w", err)
	}

	if presences == nil {
		presences = []story.ScenePresence{}
	}
	return presences, nil
}

// AlertsBySignature returns all alerts (open and resolved) carrying the
// given conflict signature, oldest first.
func (s *Store) AlertsBySignature(ctx context.Context, projectID, sig string) ([]story.ContinuityAlert, error) {
	rows, err := s.db.QueryContext(ctx, alertSelect+`
		WHERE story_project_id = ? AND signature = ?
		ORDER BY created_at ASC, id COLLATE BINARY ASC
	`, projectID, sig)
	if err != nil {
		return nil, fmt.Errorf("query alerts by signature: %w", err)
	}
	defer rows.Close()

	return collectAlerts(rows)
}

// ListAlerts returns a project's alerts, optionally filtered by author
// decision, newest first.
func (s *Store) ListAlerts(ctx context.Context, projectID string, decision story.Decision) ([]story.ContinuityAlert, error) {
	query := alertSelect + ` WHERE story_project_id = ?`
	args := []any{projectID}
	if decision != "" {
		query += ` AND author_decision = ?`
		args = append(args, string(decision))
	}
	query += ` ORDER BY created_at DESC, id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	return collectAlerts(rows)
}

// AlertByID retrieves a single alert.
// Returns sql.ErrNoRows if not found.
func (s *Store) AlertByID(ctx context.Context, alertID string) (story.ContinuityAlert, error) {
	row := s.db.QueryRowContext(ctx, alertSelect+` WHERE id = ?`, alertID)
	return scanAlertRow(row)
}

const alertSelect = `
	SELECT id, story_project_id, scene_id, alert_type, severity, description,
	       conflicting_elements, signature, suggested_resolution,
	       author_decision, author_notes, created_at, resolved_at
	FROM continuity_alerts
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScene(rows *sql.Rows) (story.Scene, error) {
	var sc story.Scene
	var title, location, timeDesc, outline sql.NullString
	err := rows.Scan(&sc.ID, &sc.ChapterID, &title, &sc.Position, &location, &timeDesc, &sc.Content, &outline)
	if err != nil {
		return story.Scene{}, fmt.Errorf("scan scene: %w", err)
	}
	sc.Title = fromNullString(title)
	sc.Location = fromNullString(location)
	sc.TimeDescription = fromNullString(timeDesc)
	sc.Outline = fromNullString(outline)
	return sc, nil
}

func collectSnapshots(rows *sql.Rows) ([]story.StateSnapshot, error) {
	var snaps []story.StateSnapshot
	for rows.Next() {
		var snap story.StateSnapshot
		var created string
		if err := rows.Scan(&snap.ID, &snap.CharacterID, &snap.SceneID, &snap.Raw, &snap.Seq, &created); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		t, err := parseTime(created)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", snap.ID, err)
		}
		snap.CreatedAt = t
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}

	if snaps == nil {
		snaps = []story.StateSnapshot{}
	}
	return snaps, nil
}

func collectAlerts(rows *sql.Rows) ([]story.ContinuityAlert, error) {
	var alerts []story.ContinuityAlert
	for rows.Next() {
		alert, err := scanAlertRow(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}

	if alerts == nil {
		alerts = []story.ContinuityAlert{}
	}
	return alerts, nil
}

func scanAlertRow(row rowScanner) (story.ContinuityAlert, error) {
	var a story.ContinuityAlert
	var alertType, severity, decision, created string
	var sceneID, elements, suggested, notes, resolved sql.NullString

	err := row.Scan(&a.ID, &a.ProjectID, &sceneID, &alertType, &severity,
		&a.Description, &elements, &a.Signature, &suggested, &decision,
		&notes, &created, &resolved)
	if err != nil {
		return story.ContinuityAlert{}, err
	}

	a.SceneID = fromNullString(sceneID)
	a.Type = story.AlertType(alertType)
	a.Severity = story.Severity(severity)
	a.SuggestedResolution = fromNullString(suggested)
	a.AuthorDecision = story.Decision(decision)
	a.AuthorNotes = fromNullString(notes)

	a.ConflictingElements, err = unmarshalElements(elements)
	if err != nil {
		return story.ContinuityAlert{}, fmt.Errorf("alert %s: %w", a.ID, err)
	}

	a.CreatedAt, err = parseTime(created)
	if err != nil {
		return story.ContinuityAlert{}, fmt.Errorf("alert %s: %w", a.ID, err)
	}
	if resolved.Valid && resolved.String != "" {
		t, err := parseTime(resolved.String)
		if err != nil {
			return story.ContinuityAlert{}, fmt.Errorf("alert %s: %w", a.ID, err)
		}
		a.ResolvedAt = &t
	}

	return a, nil
}
