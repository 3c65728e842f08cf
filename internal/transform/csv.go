// Package transform implements the translation transform: CSV record
// content in, translated CSV content out. The dispatcher treats it as an
// opaque function; everything about providers, caching and placeholder
// protection is contained here.
package transform

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/valpere/difftran/internal/detector"
	"github.com/valpere/difftran/internal/placeholder"
	"github.com/valpere/difftran/internal/translator"
	"github.com/valpere/difftran/internal/unit"
	"github.com/valpere/difftran/internal/validator"
)

// detectSampleSize is how many translatable cells feed source-language
// auto-detection.
const detectSampleSize = 5

// Error reports a failed translation of one unit. It fails the unit, not
// the run.
type Error struct {
	Err error
}

func (e *Error) Error() string { return "translation failed: " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// Transform turns raw unit content into translated content.
type Transform interface {
	Translate(ctx context.Context, content string) (string, error)
}

// Memory is the translation-memory cache consulted per cell. Implemented
// by the sqlite store; nil disables caching.
type Memory interface {
	GetCachedTranslation(ctx context.Context, text, sourceLang, targetLang string) (string, bool, error)
	SaveToMemory(ctx context.Context, text, sourceLang, targetLang, finalText, serviceUsed string) error
}

// CSV translates the selected columns of every data row through the
// provider chain. The header row and the origin column pass through
// untouched. All fields are read-only after construction, so one CSV
// value may serve concurrent dispatch workers.
type CSV struct {
	Chain      *translator.Chain
	Cfg        translator.ServiceConfig
	SourceLang string
	TargetLang string
	// Columns selects data columns to translate (0-indexed). Empty means
	// every column except origin.
	Columns   []int
	Memory    Memory
	Detector  *detector.Detector
	Validator *validator.Validator
	Log       zerolog.Logger
}

func (t *CSV) Translate(ctx context.Context, content string) (string, error) {
	r := csv.NewReader(strings.NewReader(content))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return "", &Error{Err: fmt.Errorf("parse csv: %w", err)}
	}
	if len(records) < 2 {
		return "", &Error{Err: fmt.Errorf("content has no data rows")}
	}

	header := records[0]
	originIdx := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), unit.OriginColumn) {
			originIdx = i
		}
	}

	selected := make(map[int]bool, len(t.Columns))
	for _, c := range t.Columns {
		selected[c] = true
	}
	translateAll := len(t.Columns) == 0

	wants := func(col int) bool {
		if col == originIdx {
			return false
		}
		return translateAll || selected[col]
	}

	sourceLang := t.resolveSourceLang(records[1:], wants)

	out := make([][]string, len(records))
	out[0] = header
	for i, row := range records[1:] {
		rowIdx := i + 1
		out[rowIdx] = make([]string, len(row))
		copy(out[rowIdx], row)

		for colIdx, cell := range row {
			if !wants(colIdx) || cell == "" {
				continue
			}

			translated, err := t.translateCell(ctx, cell, sourceLang)
			if err != nil {
				return "", &Error{Err: fmt.Errorf("row %d col %d: %w", rowIdx, colIdx, err)}
			}
			out[rowIdx][colIdx] = translated
		}
	}

	var buf strings.Builder
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(out); err != nil {
		return "", &Error{Err: fmt.Errorf("serialize csv: %w", err)}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", &Error{Err: fmt.Errorf("serialize csv: %w", err)}
	}
	return buf.String(), nil
}

// resolveSourceLang auto-detects the source language from a sample of
// translatable cells when configured as "auto". Detection failure keeps
// "auto" and lets the providers decide.
func (t *CSV) resolveSourceLang(rows [][]string, wants func(int) bool) string {
	if t.SourceLang != "auto" || t.Detector == nil {
		return t.SourceLang
	}

	var samples []string
	for _, row := range rows {
		for colIdx, cell := range row {
			if wants(colIdx) && cell != "" {
				samples = append(samples, cell)
				if len(samples) == detectSampleSize {
					break
				}
			}
		}
		if len(samples) == detectSampleSize {
			break
		}
	}

	if detected, ok := t.Detector.DetectISOFromSamples(samples); ok {
		lang := strings.ToLower(detected)
		t.Log.Debug().Str("lang", lang).Msg("detected source language")
		return lang
	}
	return t.SourceLang
}

func (t *CSV) translateCell(ctx context.Context, cell, sourceLang string) (string, error) {
	if t.Memory != nil {
		if cached, found, err := t.Memory.GetCachedTranslation(ctx, cell, sourceLang, t.TargetLang); err == nil && found {
			return cached, nil
		}
	}

	protected, captured := placeholder.Protect(cell)

	text, serviceUsed, err := t.Chain.Translate(ctx, t.Cfg, translator.Request{
		Text:       protected,
		SourceLang: sourceLang,
		TargetLang: t.TargetLang,
	})
	if err != nil {
		return "", err
	}

	if missing := placeholder.Missing(text, captured); len(missing) > 0 {
		t.Log.Warn().Ints("markers", missing).Str("cell", snippet(cell)).
			Msg("translation dropped placeholder markers")
	}
	text = placeholder.Restore(text, captured)

	if t.Validator != nil {
		if ok, verr := t.Validator.IsValid(text, t.TargetLang); !ok {
			t.Log.Warn().Err(verr).Str("cell", snippet(cell)).
				Msg("translation may be in the wrong language")
		}
	}

	if t.Memory != nil {
		if err := t.Memory.SaveToMemory(ctx, cell, sourceLang, t.TargetLang, text, serviceUsed); err != nil {
			t.Log.Warn().Err(err).Msg("cannot save to translation memory")
		}
	}
	return text, nil
}

func snippet(s string) string {
	if len(s) > 40 {
		return s[:37] + "..."
	}
	return s
}
