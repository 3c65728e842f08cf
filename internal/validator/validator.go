// Package validator checks that translated cells are in the expected
// target language.
package validator

import (
	"fmt"
	"strings"

	"github.com/valpere/difftran/internal/detector"
)

// minValidationLength is the minimum rune count required to attempt
// language detection. Shorter texts produce unreliable results and are
// accepted without validation.
const minValidationLength = 20

// Validator checks translation output against a target language code.
type Validator struct {
	det *detector.Detector
}

// New creates a Validator around an existing detector instance; the
// detector is expensive to build and is shared with auto-detection.
func New(det *detector.Detector) *Validator {
	return &Validator{det: det}
}

// IsValid returns true when text appears to be written in targetLang.
//
// Empty text fails. Short texts and texts whose language cannot be
// determined pass without error. When the detected language differs from
// targetLang the returned error names both codes.
func (v *Validator) IsValid(text, targetLang string) (bool, error) {
	if targetLang == "" {
		return true, nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return false, fmt.Errorf("translation is empty")
	}

	if len([]rune(text)) < minValidationLength {
		return true, nil
	}

	detected, ok := v.det.DetectISO(text)
	if !ok {
		return true, nil
	}

	if !strings.EqualFold(detected, targetLang) {
		return false, fmt.Errorf("expected %s but detected %s", targetLang, detected)
	}
	return true, nil
}
