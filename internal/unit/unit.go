// Package unit defines the candidate unit of translation work and the
// extraction of its content-derived identity key.
//
// A unit's raw content is CSV text whose header row declares an "origin"
// column holding the canonical source URL of the record set. The identity
// key is that URL, so the same logical unit dedupes no matter where its
// bytes came from (local file or remote feed).
package unit

import (
	"context"
	"encoding/csv"
	"io"
	"strings"
)

// OriginColumn is the header column that carries the identity key.
const OriginColumn = "origin"

// MalformedError reports content that cannot be parsed into the expected
// CSV shape. It is unit-local: the offending candidate is skipped and the
// run continues.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return "malformed content: " + e.Reason
}

// Candidate is one piece of content eligible for translation, before the
// skip decision. It is created by an enumerator, consumed once by the
// dispatcher, and never mutated after creation (the lazy fields only ever
// transition from unset to set).
type Candidate struct {
	// Locator is the opaque origin reference: a file path in folder mode,
	// the asset URL in remote-diff mode. Used for reporting only.
	Locator string

	identity string
	raw      string
	loaded   bool
	fetch    func(ctx context.Context) (string, error)
}

// NewLoaded builds a candidate whose content is already in memory.
// The identity key is extracted from the content on first use.
func NewLoaded(locator, raw string) *Candidate {
	return &Candidate{Locator: locator, raw: raw, loaded: true}
}

// NewLazy builds a candidate with a known identity key and a deferred
// content fetch. The dispatcher can make its skip decision without
// touching the network.
func NewLazy(locator, identity string, fetch func(ctx context.Context) (string, error)) *Candidate {
	return &Candidate{Locator: locator, identity: identity, fetch: fetch}
}

// Identity returns the candidate's identity key, extracting it from the
// content when it was not known up front. The result is cached.
func (c *Candidate) Identity(ctx context.Context) (string, error) {
	if c.identity != "" {
		return c.identity, nil
	}

	raw, err := c.Content(ctx)
	if err != nil {
		return "", err
	}

	key, _, err := ExtractIdentity(raw)
	if err != nil {
		return "", err
	}
	c.identity = key
	return key, nil
}

// Content returns the candidate's raw content, fetching it on first use
// for lazily-sourced candidates.
func (c *Candidate) Content(ctx context.Context) (string, error) {
	if c.loaded {
		return c.raw, nil
	}

	raw, err := c.fetch(ctx)
	if err != nil {
		return "", err
	}
	c.raw = raw
	c.loaded = true
	return raw, nil
}

// ExtractIdentity parses raw as CSV and derives the identity key from the
// origin column of the first data row. It also returns the header layout
// (column name, lowercased, to index) for downstream consumers.
func ExtractIdentity(raw string) (string, map[string]int, error) {
	r := csv.NewReader(strings.NewReader(raw))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return "", nil, &MalformedError{Reason: "empty content"}
	}
	if err != nil {
		return "", nil, &MalformedError{Reason: "invalid csv header: " + err.Error()}
	}

	layout := make(map[string]int, len(header))
	for i, name := range header {
		layout[strings.ToLower(strings.TrimSpace(name))] = i
	}

	originIdx, ok := layout[OriginColumn]
	if !ok {
		return "", nil, &MalformedError{Reason: "missing required header field " + OriginColumn}
	}

	row, err := r.Read()
	if err == io.EOF {
		return "", nil, &MalformedError{Reason: "no data rows"}
	}
	if err != nil {
		return "", nil, &MalformedError{Reason: "invalid csv row: " + err.Error()}
	}
	if originIdx >= len(row) {
		return "", nil, &MalformedError{Reason: "first data row has no " + OriginColumn + " value"}
	}

	key := strings.TrimSpace(row[originIdx])
	if key == "" {
		return "", nil, &MalformedError{Reason: OriginColumn + " value is empty"}
	}

	return key, layout, nil
}
