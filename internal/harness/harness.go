package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fablekeep/continuity/internal/continuity"
	"github.com/fablekeep/continuity/internal/policy"
	"github.com/fablekeep/continuity/internal/store"
	"github.com/fablekeep/continuity/internal/story"
	"github.com/fablekeep/continuity/internal/testutil"
)

// seedBase anchors all scenario timestamps. Snapshots are stamped one minute
// apart in declaration order; the scan clock starts a day later.
var seedBase = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Result is the outcome of running one scenario.
type Result struct {
	Report *continuity.ScanReport

	// Alerts holds the alerts the scan raised, new then reopened, in the
	// order the report lists them.
	Alerts []story.ContinuityAlert
}

// Run seeds an in-memory database from the scenario and executes a full
// project scan with a fixed clock and sequential ids, so repeated runs of
// the same scenario produce identical results.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("open scenario store: %w", err)
	}
	defer st.Close()

	if err := seed(ctx, st, scenario); err != nil {
		return nil, fmt.Errorf("seed scenario %s: %w", scenario.Name, err)
	}

	pol, err := scenarioPolicy(scenario)
	if err != nil {
		return nil, err
	}

	scanner := continuity.NewScanner(st, pol,
		continuity.WithClock(testutil.NewFixedClock(seedBase.Add(24*time.Hour), time.Second)),
		continuity.WithIDGenerator(testutil.NewSequenceIDGenerator("id")),
		continuity.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	report, err := scanner.ScanProject(ctx, scenario.Project.ID)
	if err != nil {
		return nil, fmt.Errorf("scan scenario %s: %w", scenario.Name, err)
	}

	result := &Result{Report: report}
	for _, id := range report.NewAlerts {
		alert, err := st.AlertByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load raised alert %s: %w", id, err)
		}
		result.Alerts = append(result.Alerts, alert)
	}
	for _, id := range report.ReopenedAlerts {
		alert, err := st.AlertByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load reopened alert %s: %w", id, err)
		}
		result.Alerts = append(result.Alerts, alert)
	}
	return result, nil
}

// Verify checks the scenario's expectations against the result, returning
// one error per unmet expectation.
func Verify(scenario *Scenario, result *Result) []error {
	var errs []error
	if len(result.Alerts) != len(scenario.Expect.Alerts) {
		errs = append(errs, fmt.Errorf("scan raised %d alerts, scenario expects %d",
			len(result.Alerts), len(scenario.Expect.Alerts)))
	}
	for _, want := range scenario.Expect.Alerts {
		if !matchesAny(want, result.Alerts) {
			errs = append(errs, fmt.Errorf("no raised alert matches type=%q severity=%q scene=%q",
				want.Type, want.Severity, want.Scene))
		}
	}
	return errs
}

func matchesAny(want ExpectedAlert, alerts []story.ContinuityAlert) bool {
	for _, a := range alerts {
		if want.Type != "" && string(a.Type) != want.Type {
			continue
		}
		if want.Severity != "" && string(a.Severity) != want.Severity {
			continue
		}
		if want.Scene != "" && a.SceneID != want.Scene {
			continue
		}
		return true
	}
	return false
}

func scenarioPolicy(s *Scenario) (*policy.Policy, error) {
	if s.Policy == "" {
		return policy.Default(), nil
	}
	pol, err := policy.LoadBytes(s.Name+".cue", []byte(s.Policy))
	if err != nil {
		return nil, fmt.Errorf("scenario %s policy: %w", s.Name, err)
	}
	return pol, nil
}

// seed writes the scenario's story world into the store. Acts and chapters
// are created lazily, in the order scenes first reference them.
func seed(ctx context.Context, st *store.Store, s *Scenario) error {
	project := story.Project{ID: s.Project.ID, Title: s.Project.Title}
	if project.Title == "" {
		project.Title = s.Name
	}
	if err := st.CreateProject(ctx, project); err != nil {
		return err
	}

	plotID := s.Project.ID + "-plot"
	if err := st.CreatePlotStructure(ctx, plotID, s.Project.ID, ""); err != nil {
		return err
	}

	for _, c := range s.Characters {
		char := story.Character{ID: c.ID, ProjectID: s.Project.ID, Name: c.Name}
		if err := st.CreateCharacter(ctx, char); err != nil {
			return err
		}
	}

	for _, r := range s.Rules {
		rule := story.WorldRule{
			ID:          r.ID,
			ProjectID:   s.Project.ID,
			Name:        r.Name,
			Description: r.Description,
			Scope:       story.RuleScope(r.Scope),
			Keywords:    r.Keywords,
		}
		if rule.Scope == "" {
			rule.Scope = story.ScopeUniversal
		}
		if err := st.CreateWorldRule(ctx, rule); err != nil {
			return err
		}
	}

	acts := map[int]string{}
	chapters := map[[2]int]string{}
	for _, sc := range s.Scenes {
		act, chapter := sc.Act, sc.Chapter
		if act == 0 {
			act = 1
		}
		if chapter == 0 {
			chapter = 1
		}

		actID, ok := acts[act]
		if !ok {
			actID = fmt.Sprintf("%s-act-%d", s.Project.ID, act)
			if err := st.CreateAct(ctx, actID, plotID, fmt.Sprintf("Act %d", act), act); err != nil {
				return err
			}
			acts[act] = actID
		}

		chKey := [2]int{act, chapter}
		chapterID, ok := chapters[chKey]
		if !ok {
			chapterID = fmt.Sprintf("%s-ch-%d-%d", s.Project.ID, act, chapter)
			ch := story.Chapter{ID: chapterID, ActID: actID, Number: chapter}
			if err := st.CreateChapter(ctx, ch); err != nil {
				return err
			}
			chapters[chKey] = chapterID
		}

		scene := story.Scene{
			ID:              sc.ID,
			ChapterID:       chapterID,
			Title:           sc.Title,
			Position:        sc.Position,
			TimeDescription: sc.Time,
			Content:         sc.Content,
		}
		if err := st.CreateScene(ctx, scene); err != nil {
			return err
		}

		for _, charID := range sc.Present {
			presence := story.ScenePresence{SceneID: sc.ID, CharacterID: charID, RoleInScene: "active"}
			if err := st.AddScenePresence(ctx, charID+"-in-"+sc.ID, presence); err != nil {
				return err
			}
		}
	}

	for i, snap := range s.Snapshots {
		id := fmt.Sprintf("snap-%04d", i+1)
		at := seedBase.Add(time.Duration(i) * time.Minute)
		if err := st.AddStateSnapshot(ctx, id, snap.Character, snap.Scene, snap.State, at); err != nil {
			return err
		}
	}
	return nil
}
