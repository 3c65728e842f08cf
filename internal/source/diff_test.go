package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/difftran/internal/unit"
)

// diffServer serves a manifest at /diff/<tag>.json and assets below /assets/.
func diffServer(t *testing.T, manifestBody string, assets map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/diff/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(manifestBody))
	})
	mux.HandleFunc("/assets/", func(w http.ResponseWriter, r *http.Request) {
		body, ok := assets[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(body))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newDiff(srv *httptest.Server, tag string) *Diff {
	d := NewDiff(srv.URL+"/diff", srv.URL+"/assets", tag, zerolog.Nop())
	d.Client = srv.Client()
	return d
}

func TestDiff_SelectsAddedUnderNamespace(t *testing.T) {
	srv := diffServer(t, `{"added": {"json/c.json": true, "other/d.json": true}, "modified": {"json/m.json": true}}`, nil)

	got := collect(t, newDiff(srv, "v1"))

	require.Len(t, got, 1)
	key, err := got[0].Identity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/assets/json/c.json", key)
}

func TestDiff_EmptyAddedSet(t *testing.T) {
	srv := diffServer(t, `{"added": {}, "removed": {"json/r.json": true}}`, nil)

	got := collect(t, newDiff(srv, "v1"))
	assert.Empty(t, got)
}

func TestDiff_DeterministicOrder(t *testing.T) {
	srv := diffServer(t, `{"added": {"json/b.json": 1, "json/a.json": 1, "json/c.json": 1}}`, nil)

	got := collect(t, newDiff(srv, "v1"))
	require.Len(t, got, 3)
	assert.Equal(t, srv.URL+"/assets/json/a.json", got[0].Locator)
	assert.Equal(t, srv.URL+"/assets/json/b.json", got[1].Locator)
	assert.Equal(t, srv.URL+"/assets/json/c.json", got[2].Locator)
}

func TestDiff_ManifestHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewDiff(srv.URL+"/diff", srv.URL+"/assets", "v1", zerolog.Nop())
	d.Client = srv.Client()

	err := d.Produce(context.Background(), func(*unit.Candidate) error { return nil })

	var ferr *FetchError
	require.Error(t, err)
	assert.True(t, errors.As(err, &ferr))
}

func TestDiff_ManifestNotJSON(t *testing.T) {
	srv := diffServer(t, "<html>definitely not a manifest</html>", nil)

	err := newDiff(srv, "v1").Produce(context.Background(), func(*unit.Candidate) error { return nil })

	var ferr *FetchError
	require.Error(t, err)
	assert.True(t, errors.As(err, &ferr))
}

func TestDiff_LazyAssetFetch(t *testing.T) {
	srv := diffServer(t, `{"added": {"json/c.json": true}}`,
		map[string]string{"/assets/json/c.json": "origin,text\nhttp://x/json/c.json,hello\n"})

	got := collect(t, newDiff(srv, "v1"))
	require.Len(t, got, 1)

	raw, err := got[0].Content(context.Background())
	require.NoError(t, err)
	assert.Contains(t, raw, "hello")
}

func TestDiff_AssetFetchFailureIsUnitLocal(t *testing.T) {
	// Manifest lists an asset the server does not have; enumeration still
	// succeeds and the failure surfaces on Content.
	srv := diffServer(t, `{"added": {"json/gone.json": true}}`, nil)

	got := collect(t, newDiff(srv, "v1"))
	require.Len(t, got, 1)

	_, err := got[0].Content(context.Background())
	var ferr *FetchError
	require.Error(t, err)
	assert.True(t, errors.As(err, &ferr))
}
