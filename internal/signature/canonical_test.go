package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"
)

func TestMarshalCanonical_SortedKeys(t *testing.T) {
	b, err := MarshalCanonical(map[string]any{"zeta": "1", "alpha": "2", "mid": "3"})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":"2","mid":"3","zeta":"1"}`, string(b))
}

func TestMarshalCanonical_NoHTMLEscape(t *testing.T) {
	b, err := MarshalCanonical("a<b&c>d")
	require.NoError(t, err)
	assert.Equal(t, `"a<b&c>d"`, string(b))
}

func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	// "é" composed vs decomposed must serialize identically.
	composed := "café"
	decomposed := "café"
	require.NotEqual(t, composed, decomposed)
	require.Equal(t, norm.NFC.String(composed), norm.NFC.String(decomposed))

	a, err := MarshalCanonical(composed)
	require.NoError(t, err)
	b, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMarshalCanonical_RejectsFloats(t *testing.T) {
	_, err := MarshalCanonical(3.14)
	require.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"x": 1.0})
	require.Error(t, err)
}

func TestMarshalCanonical_RejectsNull(t *testing.T) {
	_, err := MarshalCanonical(nil)
	require.Error(t, err)

	_, err = MarshalCanonical([]any{"a", nil})
	require.Error(t, err)
}

func TestMarshalCanonical_Ints(t *testing.T) {
	b, err := MarshalCanonical(map[string]any{"n": 42, "m": int64(-7)})
	require.NoError(t, err)
	assert.Equal(t, `{"m":-7,"n":42}`, string(b))
}

func TestMarshalCanonical_NestedStructures(t *testing.T) {
	b, err := MarshalCanonical(map[string]any{
		"list": []any{"b", "a"},
		"obj":  map[string]any{"y": true, "x": false},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"list":["b","a"],"obj":{"x":false,"y":true}}`, string(b))
}

func TestMarshalCanonical_ArrayOrderPreserved(t *testing.T) {
	// Arrays are positional; only object keys get sorted.
	b, err := MarshalCanonical([]any{"z", "a"})
	require.NoError(t, err)
	assert.Equal(t, `["z","a"]`, string(b))
}
