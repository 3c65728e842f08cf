// Package placeholder protects non-translatable fragments inside record
// cells (markup tags, template variables like {player} or %s) during
// translation by replacing them with numbered markers ([PH0], [PH1], …).
// After translation, Restore substitutes the markers back.
package placeholder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// markup tags: opening, closing, and self-closing
	reTag = regexp.MustCompile(`<[^>]+>`)

	// template variables: {name} and printf-style verbs
	reBraceVar  = regexp.MustCompile(`\{[A-Za-z_][A-Za-z0-9_]*\}`)
	rePrintfVar = regexp.MustCompile(`%[sdvf]`)

	// marker reference in translated text
	reMarker = regexp.MustCompile(`\[PH(\d+)\]`)
)

// Protect replaces markup and template variables with numbered markers in
// the order they appear. It returns the modified text and the captured
// originals so Restore can put them back.
func Protect(text string) (string, []string) {
	var captured []string

	replace := func(match string) string {
		id := fmt.Sprintf("[PH%d]", len(captured))
		captured = append(captured, match)
		return id
	}

	text = reTag.ReplaceAllStringFunc(text, replace)
	text = reBraceVar.ReplaceAllStringFunc(text, replace)
	text = rePrintfVar.ReplaceAllStringFunc(text, replace)

	return text, captured
}

// Restore substitutes [PHn] markers in text back with the originals
// captured by Protect. Unrecognised indices leave the marker as-is.
func Restore(text string, captured []string) string {
	return reMarker.ReplaceAllStringFunc(text, func(match string) string {
		sub := reMarker.FindStringSubmatch(match)
		if len(sub) < 2 {
			return match
		}
		idx, err := strconv.Atoi(sub[1])
		if err != nil || idx < 0 || idx >= len(captured) {
			return match
		}
		return captured[idx]
	})
}

// Missing returns the indices of markers created by Protect that are no
// longer present in the translated text (a sign the model dropped them).
func Missing(text string, captured []string) []int {
	var missing []int
	for i := range captured {
		if !strings.Contains(text, fmt.Sprintf("[PH%d]", i)) {
			missing = append(missing, i)
		}
	}
	return missing
}
