package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fablekeep/continuity/internal/story"
)

// InsertAlert inserts a continuity alert.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - a retried scan that
// re-inserts the same alert id is silently ignored. Returns whether a new
// row was actually written.
func (s *Store) InsertAlert(ctx context.Context, a story.ContinuityAlert) (inserted bool, err error) {
	elements, err := marshalElements(a.ConflictingElements)
	if err != nil {
		return false, fmt.Errorf("insert alert: %w", err)
	}

	var resolved sql.NullString
	if a.ResolvedAt != nil {
		resolved = sql.NullString{String: formatTime(*a.ResolvedAt), Valid: true}
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO continuity_alerts
		(id, story_project_id, scene_id, alert_type, severity, description,
		 conflicting_elements, signature, suggested_resolution,
		 author_decision, author_notes, created_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		a.ID,
		a.ProjectID,
		nullString(a.SceneID),
		string(a.Type),
		string(a.Severity),
		a.Description,
		elements,
		a.Signature,
		nullString(a.SuggestedResolution),
		string(a.AuthorDecision),
		nullString(a.AuthorNotes),
		formatTime(a.CreatedAt),
		resolved,
	)
	if err != nil {
		return false, fmt.Errorf("insert alert: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert alert: rows affected: %w", err)
	}
	return n > 0, nil
}

// UpdateAlertDecision records an author decision on an alert and stamps
// resolved_at. The transition itself is validated by the alert lifecycle
// manager; the store only guards against updating a nonexistent row.
// Returns sql.ErrNoRows if the alert does not exist.
func (s *Store) UpdateAlertDecision(ctx context.Context, alertID string, decision story.Decision, notes string, resolvedAt time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE continuity_alerts
		SET author_decision = ?, author_notes = ?, resolved_at = ?
		WHERE id = ?
	`, string(decision), nullString(notes), formatTime(resolvedAt), alertID)
	if err != nil {
		return fmt.Errorf("update alert decision: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update alert decision: rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreateProject inserts a story project. Used by fixtures and the seed path
// of the harness; the engine itself never creates projects.
func (s *Store) CreateProject(ctx context.Context, p story.Project) error {
	length := p.IntendedLength
	if length == "" {
		length = "novel"
	}
	status := p.Status
	if status == "" {
		status = "draft"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO story_projects (id, title, genre, intended_length, description, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.Title, nullString(p.Genre), length, nullString(p.Description), status)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// CreateCharacter inserts a character.
func (s *Store) CreateCharacter(ctx context.Context, c story.Character) error {
	role := c.Role
	if role == "" {
		role = "supporting"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO characters (id, story_project_id, name, role, current_state)
		VALUES (?, ?, ?, ?, ?)
	`, c.ID, c.ProjectID, c.Name, role, nullString(c.CurrentState))
	if err != nil {
		return fmt.Errorf("create character: %w", err)
	}
	return nil
}

// CreatePlotStructure inserts the (single) plot structure for a project.
func (s *Store) CreatePlotStructure(ctx context.Context, id, projectID, structureType string) error {
	if structureType == "" {
		structureType = "three_act"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plot_structures (id, story_project_id, structure_type)
		VALUES (?, ?, ?)
	`, id, projectID, structureType)
	if err != nil {
		return fmt.Errorf("create plot structure: %w", err)
	}
	return nil
}

// CreateAct inserts an act into a plot structure.
func (s *Store) CreateAct(ctx context.Context, id, plotStructureID, name string, position int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO acts (id, plot_structure_id, name, position)
		VALUES (?, ?, ?, ?)
	`, id, plotStructureID, name, position)
	if err != nil {
		return fmt.Errorf("create act: %w", err)
	}
	return nil
}

// CreateChapter inserts a chapter into an act.
func (s *Store) CreateChapter(ctx context.Context, ch story.Chapter) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chapters (id, act_id, title, number)
		VALUES (?, ?, ?, ?)
	`, ch.ID, ch.ActID, nullString(ch.Title), ch.Number)
	if err != nil {
		return fmt.Errorf("create chapter: %w", err)
	}
	return nil
}

// CreateScene inserts a scene into a chapter.
func (s *Store) CreateScene(ctx context.Context, sc story.Scene) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scenes (id, chapter_id, title, position, location, time_description, content, scene_outline)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, sc.ID, sc.ChapterID, nullString(sc.Title), sc.Position,
		nullString(sc.Location), nullString(sc.TimeDescription), sc.Content, nullString(sc.Outline))
	if err != nil {
		return fmt.Errorf("create scene: %w", err)
	}
	return nil
}

// AddScenePresence records that a character appears in a scene.
func (s *Store) AddScenePresence(ctx context.Context, id string, p story.ScenePresence) error {
	role := p.RoleInScene
	if role == "" {
		role = "active"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scene_characters (id, scene_id, character_id, role_in_scene)
		VALUES (?, ?, ?, ?)
	`, id, p.SceneID, p.CharacterID, role)
	if err != nil {
		return fmt.Errorf("add scene presence: %w", err)
	}
	return nil
}

// CreateWorldRule inserts a world rule.
func (s *Store) CreateWorldRule(ctx context.Context, r story.WorldRule) error {
	keywords, err := marshalKeywords(r.Keywords)
	if err != nil {
		return fmt.Errorf("create world rule: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO world_rules (id, story_project_id, name, description, scope, examples, keywords)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.ProjectID, r.Name, r.Description, string(r.Scope), nullString(r.Examples), keywords)
	if err != nil {
		return fmt.Errorf("create world rule: %w", err)
	}
	return nil
}

// AddStateSnapshot appends a character state snapshot for a scene.
// History is append-only: snapshots are never updated in place.
func (s *Store) AddStateSnapshot(ctx context.Context, id, characterID, sceneID, raw string, createdAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO character_state_history (id, character_id, scene_id, state_snapshot, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, characterID, sceneID, raw, formatTime(createdAt))
	if err != nil {
		return fmt.Errorf("add state snapshot: %w", err)
	}
	return nil
}
