package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/fablekeep/continuity/internal/signature"
	"github.com/fablekeep/continuity/internal/story"
)

// Snapshot reduces a result to its deterministic fields as canonical JSON.
// Alert ids from the sequential generator are stable across runs; timestamps
// and signature hashes are omitted so goldens stay hand-checkable.
func Snapshot(scenario *Scenario, result *Result) ([]byte, error) {
	alerts := make([]any, 0, len(result.Alerts))
	for _, a := range result.Alerts {
		elements := make([]any, 0, len(a.ConflictingElements))
		for _, el := range story.SortElements(a.ConflictingElements) {
			elements = append(elements, el.CanonicalMap())
		}
		alerts = append(alerts, map[string]any{
			"id":                   a.ID,
			"type":                 string(a.Type),
			"severity":             string(a.Severity),
			"scene_id":             a.SceneID,
			"description":          a.Description,
			"suggested_resolution": a.SuggestedResolution,
			"elements":             elements,
		})
	}

	countsByType := map[string]any{}
	for k, v := range result.Report.CountsByType {
		countsByType[string(k)] = v
	}
	countsBySeverity := map[string]any{}
	for k, v := range result.Report.CountsBySeverity {
		countsBySeverity[string(k)] = v
	}

	newAlerts := make([]any, 0, len(result.Report.NewAlerts))
	for _, id := range result.Report.NewAlerts {
		newAlerts = append(newAlerts, id)
	}
	reopened := make([]any, 0, len(result.Report.ReopenedAlerts))
	for _, id := range result.Report.ReopenedAlerts {
		reopened = append(reopened, id)
	}

	return signature.MarshalCanonical(map[string]any{
		"scenario":           scenario.Name,
		"scope":              result.Report.Scope,
		"alerts":             alerts,
		"counts_by_type":     countsByType,
		"counts_by_severity": countsBySeverity,
		"new_alerts":         newAlerts,
		"reopened_alerts":    reopened,
	})
}

// RunWithGolden runs a scenario, checks its expectations, and compares the
// result snapshot against the golden file named after the scenario.
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		t.Fatalf("run scenario %s: %v", scenario.Name, err)
	}
	for _, verr := range Verify(scenario, result) {
		t.Error(verr)
	}

	snap, err := Snapshot(scenario, result)
	if err != nil {
		t.Fatalf("snapshot scenario %s: %v", scenario.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snap)
	return result
}
