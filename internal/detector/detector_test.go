package detector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectISO(t *testing.T) {
	d := New()

	code, ok := d.DetectISO("The quick brown fox jumps over the lazy dog near the river bank.")
	assert.True(t, ok)
	assert.Equal(t, "en", strings.ToLower(code))
}

func TestDetectISO_Empty(t *testing.T) {
	d := New()

	_, ok := d.DetectISO("")
	assert.False(t, ok)
}

func TestDetectISOFromSamples(t *testing.T) {
	d := New()

	code, ok := d.DetectISOFromSamples([]string{
		"Welcome to the ancient library.",
		"  ",
		"Please keep your voice down while reading.",
	})
	assert.True(t, ok)
	assert.Equal(t, "en", strings.ToLower(code))
}

func TestDetectISOFromSamples_AllEmpty(t *testing.T) {
	d := New()

	_, ok := d.DetectISOFromSamples([]string{"", "   "})
	assert.False(t, ok)
}
