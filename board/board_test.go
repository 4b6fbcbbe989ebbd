package board

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTaskTitle(t *testing.T) {
	assert.NoError(t, ValidateTaskTitle("Fix the login flow"))
	assert.NoError(t, ValidateTaskTitle(strings.Repeat("x", 50)))

	var ve *ValidationError
	require.ErrorAs(t, ValidateTaskTitle(""), &ve)
	assert.Error(t, ValidateTaskTitle("   "))
	assert.Error(t, ValidateTaskTitle(strings.Repeat("x", 51)))
}

func TestValidateColumnTitle(t *testing.T) {
	assert.NoError(t, ValidateColumnTitle("Backlog"))
	assert.NoError(t, ValidateColumnTitle(strings.Repeat("x", 30)))
	assert.Error(t, ValidateColumnTitle(""))
	assert.Error(t, ValidateColumnTitle(strings.Repeat("x", 31)))
}

func TestValidatePoints(t *testing.T) {
	for _, p := range []int{0, 1, 2, 3, 5, 8, 13} {
		assert.NoError(t, ValidatePoints(p), "points %d", p)
	}
	for _, p := range []int{4, 6, 7, 21, -1} {
		assert.Error(t, ValidatePoints(p), "points %d", p)
	}
}

func TestValidateTechnology(t *testing.T) {
	for _, tech := range []Technology{"", TechFrontend, TechBackend, TechLLM, TechFullstack} {
		assert.NoError(t, ValidateTechnology(tech))
	}
	assert.Error(t, ValidateTechnology("cobol"))
}

func TestValidateState(t *testing.T) {
	for _, s := range AllStates {
		assert.NoError(t, ValidateState(s))
	}
	assert.Error(t, ValidateState("done"))
}

func TestNormalizeReferenceURL(t *testing.T) {
	got, err := NormalizeReferenceURL("example.com/issue/42")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/issue/42", got)

	got, err = NormalizeReferenceURL("http://example.com")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com", got)

	got, err = NormalizeReferenceURL("https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", got)

	// empty clears the reference
	got, err = NormalizeReferenceURL("")
	require.NoError(t, err)
	assert.Equal(t, "", got)

	_, err = NormalizeReferenceURL(strings.Repeat("a", MaxReferenceURLLen+1))
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}
