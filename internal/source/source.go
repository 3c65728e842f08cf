// Package source enumerates candidate units from one of two origins: a
// local corpus folder or a remote diff feed. Both variants implement the
// same produce-once contract; the orchestrator does not care which one it
// is driving.
package source

import (
	"context"

	"github.com/valpere/difftran/internal/unit"
)

// Enumerator produces a finite, lazy sequence of candidates in a single
// forward pass. emit is called once per candidate; an error returned by
// emit stops enumeration and is passed through. An error returned by
// Produce itself invalidates the whole candidate set and is fatal to the
// run.
type Enumerator interface {
	Produce(ctx context.Context, emit func(*unit.Candidate) error) error
}

// FetchError reports a failed remote retrieval: transport failure,
// unexpected HTTP status, or an undecodable body. On the manifest fetch
// it is run-fatal; on a per-asset fetch it fails only that unit.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return "fetch " + e.URL + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error { return e.Err }
