package placeholder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProtectRestore_RoundTrip(t *testing.T) {
	text := `Hello <b>{player}</b>, you found %d coins!`

	protected, captured := Protect(text)
	assert.NotContains(t, protected, "<b>")
	assert.NotContains(t, protected, "{player}")
	assert.Len(t, captured, 4) // <b>, </b>, {player}, %d

	restored := Restore(protected, captured)
	assert.Equal(t, text, restored)
}

func TestProtect_NoSpecials(t *testing.T) {
	protected, captured := Protect("plain sentence")
	assert.Equal(t, "plain sentence", protected)
	assert.Empty(t, captured)
}

func TestRestore_MarkerOrderIndependent(t *testing.T) {
	_, captured := Protect("<i>one</i> {two}")
	// A model may legally reorder markers.
	restored := Restore("[PH2] translated [PH0]text[PH1]", captured)
	assert.Equal(t, "{two} translated <i>text</i>", restored)
}

func TestRestore_UnknownIndexKept(t *testing.T) {
	restored := Restore("text [PH9]", []string{"<b>"})
	assert.Equal(t, "text [PH9]", restored)
}

func TestMissing(t *testing.T) {
	_, captured := Protect("<b>x</b> {y}")
	missing := Missing("[PH0] only", captured)
	assert.Equal(t, []int{1, 2}, missing)
}

func TestMissing_AllPresent(t *testing.T) {
	protected, captured := Protect("<b>x</b>")
	assert.Empty(t, Missing(protected, captured))
}
