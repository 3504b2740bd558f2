package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fablekeep/continuity/internal/story"
)

func testElements() []story.ElementRef {
	return []story.ElementRef{
		{Kind: story.ElementAssertion, CharacterID: "jin", Attribute: "age", Value: "17", SceneID: "s1"},
		{Kind: story.ElementAssertion, CharacterID: "jin", Attribute: "age", Value: "25", SceneID: "s2"},
	}
}

func TestAlert_Deterministic(t *testing.T) {
	first, err := Alert("proj-1", story.AlertCharacterStateConflict, testElements())
	require.NoError(t, err)
	second, err := Alert("proj-1", story.AlertCharacterStateConflict, testElements())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 64, "hex encoded SHA-256")
}

func TestAlert_ElementOrderIrrelevant(t *testing.T) {
	elems := testElements()
	reversed := []story.ElementRef{elems[1], elems[0]}

	a, err := Alert("proj-1", story.AlertCharacterStateConflict, elems)
	require.NoError(t, err)
	b, err := Alert("proj-1", story.AlertCharacterStateConflict, reversed)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAlert_InputDoesNotAliasSort(t *testing.T) {
	elems := testElements()
	orig := make([]story.ElementRef, len(elems))
	copy(orig, elems)

	_, err := Alert("proj-1", story.AlertCharacterStateConflict, elems)
	require.NoError(t, err)
	assert.Equal(t, orig, elems, "caller's slice must not be reordered")
}

func TestAlert_DiscriminatesInputs(t *testing.T) {
	base := MustAlert("proj-1", story.AlertCharacterStateConflict, testElements())

	otherProject := MustAlert("proj-2", story.AlertCharacterStateConflict, testElements())
	assert.NotEqual(t, base, otherProject)

	otherType := MustAlert("proj-1", story.AlertWorldRuleViolation, testElements())
	assert.NotEqual(t, base, otherType)

	fewerElems := MustAlert("proj-1", story.AlertCharacterStateConflict, testElements()[:1])
	assert.NotEqual(t, base, fewerElems)
}

func TestAssertion_Deterministic(t *testing.T) {
	a := story.AttributeAssertion{
		CharacterID: "jin", Attribute: "age", Value: "17", SceneID: "s1", Seq: 4,
	}
	first, err := Assertion(a)
	require.NoError(t, err)
	second, err := Assertion(a)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	a.Seq = 5
	third, err := Assertion(a)
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestAlertAndAssertionDomainsDiffer(t *testing.T) {
	// Same payload bytes under different domains must not collide.
	assert.NotEqual(t,
		hashWithDomain(DomainAlert, []byte("x")),
		hashWithDomain(DomainAssertion, []byte("x")))
}
