package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fablekeep/continuity/internal/story"
)

func TestLoadBytes_FullPolicy(t *testing.T) {
	src := []byte(`
policy: {
	numeric_jump_percent:      75
	numeric_tolerance_percent: 5
	severity_by_scope: {
		universal:   "high"
		situational: "medium"
	}
	synonyms: {
		dead: ["died", "killed", "slain"]
	}
}
`)
	p, err := LoadBytes("test.cue", src)
	require.NoError(t, err)

	assert.Equal(t, 75, p.NumericJumpPercent)
	assert.Equal(t, 5, p.NumericTolerancePercent)
	assert.Equal(t, story.SeverityHigh, p.SeverityByScope[story.ScopeUniversal])
	assert.Equal(t, story.SeverityMedium, p.SeverityByScope[story.ScopeSituational])
	assert.Equal(t, []string{"died", "killed", "slain"}, p.Synonyms["dead"])
}

func TestLoadBytes_MissingFieldsKeepDefaults(t *testing.T) {
	p, err := LoadBytes("test.cue", []byte(`policy: {}`))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.NumericJumpPercent, p.NumericJumpPercent)
	assert.Equal(t, def.SeverityByScope, p.SeverityByScope)
	assert.Empty(t, p.Synonyms)
}

func TestLoadBytes_MissingPolicyStruct(t *testing.T) {
	_, err := LoadBytes("test.cue", []byte(`other: 1`))
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "policy", ce.Field)
}

func TestLoadBytes_RejectsFloatThreshold(t *testing.T) {
	_, err := LoadBytes("test.cue", []byte(`policy: {numeric_jump_percent: 50.5}`))
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "numeric_jump_percent", ce.Field)
}

func TestLoadBytes_RejectsNegativeThreshold(t *testing.T) {
	_, err := LoadBytes("test.cue", []byte(`policy: {numeric_jump_percent: -1}`))
	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
}

func TestLoadBytes_RejectsUnknownScope(t *testing.T) {
	_, err := LoadBytes("test.cue", []byte(`policy: {severity_by_scope: {galactic: "high"}}`))
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "severity_by_scope", ce.Field)
	assert.Contains(t, ce.Message, "galactic")
}

func TestLoadBytes_RejectsUnknownSeverity(t *testing.T) {
	_, err := LoadBytes("test.cue", []byte(`policy: {severity_by_scope: {universal: "catastrophic"}}`))
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Message, "catastrophic")
}

func TestLoadBytes_RejectsNonListSynonyms(t *testing.T) {
	_, err := LoadBytes("test.cue", []byte(`policy: {synonyms: {dead: "died"}}`))
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "synonyms", ce.Field)
}

func TestLoadBytes_SyntaxErrorPositioned(t *testing.T) {
	_, err := LoadBytes("broken.cue", []byte(`policy: {`))
	require.Error(t, err)
}

func TestViolationSeverity(t *testing.T) {
	p := Default()
	assert.Equal(t, story.SeverityHigh, p.ViolationSeverity(story.ScopeUniversal))
	assert.Equal(t, story.SeverityMedium, p.ViolationSeverity(story.ScopeRegional))
	assert.Equal(t, story.SeverityLow, p.ViolationSeverity(story.ScopeSituational))
	assert.Equal(t, story.SeverityMedium, p.ViolationSeverity(story.RuleScope("weird")))
}

func TestSynonymsFor(t *testing.T) {
	p := Default()
	p.Synonyms["dead"] = []string{"died"}

	assert.Equal(t, []string{"dead", "died"}, p.SynonymsFor("dead"))
	assert.Equal(t, []string{"alive"}, p.SynonymsFor("alive"))
}
