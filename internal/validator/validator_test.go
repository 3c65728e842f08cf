package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/valpere/difftran/internal/detector"
)

func newValidator() *Validator {
	return New(detector.New())
}

func TestIsValid_MatchingLanguage(t *testing.T) {
	v := newValidator()

	ok, err := v.IsValid("The merchant greeted the travellers warmly at the gate.", "en")
	assert.True(t, ok)
	assert.NoError(t, err)
}

func TestIsValid_WrongLanguage(t *testing.T) {
	v := newValidator()

	ok, err := v.IsValid("The merchant greeted the travellers warmly at the gate.", "uk")
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestIsValid_ShortTextPasses(t *testing.T) {
	v := newValidator()

	ok, err := v.IsValid("Так", "uk")
	assert.True(t, ok)
	assert.NoError(t, err)
}

func TestIsValid_EmptyFails(t *testing.T) {
	v := newValidator()

	ok, err := v.IsValid("   ", "uk")
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestIsValid_NoTargetConfigured(t *testing.T) {
	v := newValidator()

	ok, err := v.IsValid("anything at all", "")
	assert.True(t, ok)
	assert.NoError(t, err)
}
