// Package dispatch decides, for each candidate unit, whether it has
// already been translated — via the completion index, via destination
// existence, or via in-run duplication — and, if not, routes it through
// the translation transform and persists the result.
package dispatch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/valpere/difftran/internal/index"
	"github.com/valpere/difftran/internal/transform"
	"github.com/valpere/difftran/internal/unit"
)

type Status int

const (
	StatusTranslated Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusTranslated:
		return "translated"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

type SkipReason int

const (
	SkipNone SkipReason = iota
	SkipAlreadyTranslated
	SkipDestinationExists
	SkipDuplicateInRun
)

func (r SkipReason) String() string {
	switch r {
	case SkipAlreadyTranslated:
		return "already translated"
	case SkipDestinationExists:
		return "destination exists"
	case SkipDuplicateInRun:
		return "duplicate in run"
	}
	return ""
}

// Outcome is the result of dispatching one candidate.
type Outcome struct {
	Locator  string
	Identity string
	Dest     string
	Status   Status
	Reason   SkipReason
	Err      error
}

// Policy is the per-run skip configuration, immutable for the run.
type Policy struct {
	// DestDir is where translated output lands.
	DestDir string
	// SkipExisting enables the destination-existence skip signal.
	// Inverted by the CLI --overwrite flag.
	SkipExisting bool
}

// Dispatcher applies the skip decision and the transform to candidates.
// Safe for concurrent use: the index is read-only, and the seen set is
// guarded.
type Dispatcher struct {
	idx       index.Index
	policy    Policy
	transform transform.Transform
	log       zerolog.Logger

	mu   sync.Mutex
	seen map[string]bool
}

func New(idx index.Index, policy Policy, tf transform.Transform, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		idx:       idx,
		policy:    policy,
		transform: tf,
		log:       log,
		seen:      make(map[string]bool),
	}
}

// Dispatch runs one candidate through identity resolution, the two
// completion signals, the transform, and the atomic write. Every error is
// unit-local; the caller keeps going regardless of the outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, c *unit.Candidate) Outcome {
	out := Outcome{Locator: c.Locator}

	key, err := c.Identity(ctx)
	if err != nil {
		var merr *unit.MalformedError
		if errors.As(err, &merr) {
			d.log.Warn().Str("unit", c.Locator).Str("reason", merr.Reason).
				Msg("skipping malformed unit")
		} else {
			d.log.Error().Err(err).Str("unit", c.Locator).Msg("cannot resolve unit identity")
		}
		out.Status = StatusFailed
		out.Err = err
		return out
	}
	out.Identity = key

	if dup := d.markSeen(key); dup {
		d.log.Warn().Str("unit", c.Locator).Str("identity", key).
			Msg("duplicate identity within run")
		out.Status = StatusSkipped
		out.Reason = SkipDuplicateInRun
		return out
	}

	// The two completion signals are independent and ORed: the index may
	// predate the destination tree and vice versa.
	if d.idx.Has(key) {
		out.Status = StatusSkipped
		out.Reason = SkipAlreadyTranslated
		return out
	}

	dest := index.ResolveDestination(d.policy.DestDir, key)
	out.Dest = dest
	if d.policy.SkipExisting && index.DestinationExists(dest) {
		out.Status = StatusSkipped
		out.Reason = SkipDestinationExists
		return out
	}

	content, err := c.Content(ctx)
	if err != nil {
		d.log.Error().Err(err).Str("unit", c.Locator).Msg("cannot fetch unit content")
		out.Status = StatusFailed
		out.Err = err
		return out
	}

	translated, err := d.transform.Translate(ctx, content)
	if err != nil {
		d.log.Error().Err(err).Str("unit", c.Locator).Msg("translation failed")
		out.Status = StatusFailed
		out.Err = err
		return out
	}

	if err := writeAtomic(dest, []byte(translated)); err != nil {
		d.log.Error().Err(err).Str("unit", c.Locator).Str("dest", dest).
			Msg("cannot write destination")
		out.Status = StatusFailed
		out.Err = err
		return out
	}

	out.Status = StatusTranslated
	return out
}

// markSeen records key and reports whether it was already dispatched in
// this run.
func (d *Dispatcher) markSeen(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[key] {
		return true
	}
	d.seen[key] = true
	return false
}

// writeAtomic persists data so the destination is either fully written or
// not created at all: same-directory temp file, then rename.
func writeAtomic(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".difftran-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
