package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/valpere/difftran/internal/unit"
)

// DefaultNamespace selects the record files inside a diff manifest; paths
// outside it belong to other asset kinds and are never candidates.
const DefaultNamespace = "json/"

// manifest is the remote diff feed shape. Only added entries are
// enumerated: updates to previously translated content are not
// re-processed, the dedup model is add-only.
type manifest struct {
	Added    map[string]json.RawMessage `json:"added"`
	Modified map[string]json.RawMessage `json:"modified"`
	Removed  map[string]json.RawMessage `json:"removed"`
}

// Diff enumerates candidates from a remote diff manifest. The manifest at
// <DiffURL>/<Tag>.json names paths changed since the tag marker; each
// selected path becomes a lazy candidate whose identity is the full asset
// URL, so the destination check can run before any content is fetched.
type Diff struct {
	DiffURL   string
	AssetURL  string
	Tag       string
	Namespace string
	Client    *http.Client
	Log       zerolog.Logger
}

func NewDiff(diffURL, assetURL, tag string, log zerolog.Logger) *Diff {
	return &Diff{
		DiffURL:   diffURL,
		AssetURL:  assetURL,
		Tag:       tag,
		Namespace: DefaultNamespace,
		Client:    &http.Client{Timeout: 60 * time.Second},
		Log:       log,
	}
}

func (d *Diff) Produce(ctx context.Context, emit func(*unit.Candidate) error) error {
	manifestURL := fmt.Sprintf("%s/%s.json", strings.TrimSuffix(d.DiffURL, "/"), d.Tag)

	m, err := d.fetchManifest(ctx, manifestURL)
	if err != nil {
		return err
	}

	paths := make([]string, 0, len(m.Added))
	for p := range m.Added {
		if strings.HasPrefix(p, d.Namespace) {
			paths = append(paths, p)
		}
	}
	// Map order is random; keep runs reproducible.
	sort.Strings(paths)

	d.Log.Info().Int("added", len(m.Added)).Int("selected", len(paths)).
		Str("manifest", manifestURL).Msg("diff manifest loaded")

	for _, p := range paths {
		assetURL := strings.TrimSuffix(d.AssetURL, "/") + "/" + p
		if err := emit(unit.NewLazy(assetURL, assetURL, d.fetcher(assetURL))); err != nil {
			return err
		}
	}
	return nil
}

func (d *Diff) fetchManifest(ctx context.Context, url string) (*manifest, error) {
	body, err := d.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var m manifest
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	return &m, nil
}

// fetcher defers the asset download until the dispatcher has decided the
// unit is actually new.
func (d *Diff) fetcher(url string) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		body, err := d.get(ctx, url)
		if err != nil {
			return "", err
		}
		return string(body), nil
	}
}

func (d *Diff) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	return body, nil
}
