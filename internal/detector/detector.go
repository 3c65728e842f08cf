// Package detector wraps lingua-go language detection. Building the
// detector is expensive; construct once and share.
package detector

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"
)

type Detector struct {
	detector lingua.LanguageDetector
}

func New() *Detector {
	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			Build(),
	}
}

// DetectISO returns the ISO 639-1 code of the text's language.
func (d *Detector) DetectISO(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return lang.IsoCode639_1().String(), true
}

// DetectISOFromSamples joins sample fragments and detects the language of
// the whole. Individual CSV cells are often too short for a reliable
// reading; a handful together usually is not.
func (d *Detector) DetectISOFromSamples(samples []string) (string, bool) {
	var nonEmpty []string
	for _, s := range samples {
		if s = strings.TrimSpace(s); s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	if len(nonEmpty) == 0 {
		return "", false
	}
	return d.DetectISO(strings.Join(nonEmpty, "\n"))
}
