// Package index tracks which identity keys were already translated.
//
// The index is a snapshot loaded once per run from a JSON file mapping
// identity key to a destination marker. It is never written back by the
// run: the second completion signal is the physical existence of the
// resolved destination file, which covers output produced by runs that
// predate or bypass the index file. The two signals are deliberately kept
// independent and ORed by the dispatcher.
package index

import (
	"encoding/json"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// OutputExt is the extension destination files are normalized to.
const OutputExt = ".csv"

// LoadError reports an index path that was configured but could not be
// read or decoded. It is fatal to the run: without the completion state
// the run cannot safely decide what to skip.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return "cannot load completion index " + e.Path + ": " + e.Err.Error()
}

func (e *LoadError) Unwrap() error { return e.Err }

// Index maps identity keys to destination markers. Read-only during a run.
type Index map[string]string

// Load reads the persisted index snapshot. An empty path means no index
// is configured and yields an empty mapping.
func Load(path string) (Index, error) {
	if path == "" {
		return Index{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	var ix Index
	if err := json.Unmarshal(data, &ix); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if ix == nil {
		ix = Index{}
	}
	return ix, nil
}

// Has reports whether key was recorded as translated.
func (ix Index) Has(key string) bool {
	_, ok := ix[key]
	return ok
}

// ResolveDestination maps an identity key to its output path under
// destDir: the basename of the key's URL path with the extension
// normalized to OutputExt. Identity keys that do not parse as URLs fall
// back to plain basename handling.
func ResolveDestination(destDir, identityKey string) string {
	name := identityKey
	if u, err := url.Parse(identityKey); err == nil && u.Path != "" {
		name = u.Path
	}
	name = path.Base(name)
	if ext := path.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	return filepath.Join(destDir, name+OutputExt)
}

// DestinationExists reports whether the resolved destination file is
// already present on disk.
func DestinationExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
