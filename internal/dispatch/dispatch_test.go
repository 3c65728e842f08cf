package dispatch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/difftran/internal/index"
	"github.com/valpere/difftran/internal/unit"
)

// countingTransform records calls and shouts the content back.
type countingTransform struct {
	calls int
	err   error
}

func (f *countingTransform) Translate(ctx context.Context, content string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return strings.ToUpper(content), nil
}

func newDispatcher(t *testing.T, ix index.Index, tf *countingTransform) (*Dispatcher, string) {
	t.Helper()
	dest := t.TempDir()
	d := New(ix, Policy{DestDir: dest, SkipExisting: true}, tf, zerolog.Nop())
	return d, dest
}

func loaded(identity string) *unit.Candidate {
	return unit.NewLoaded("src.csv", "origin,text\n"+identity+",hello\n")
}

func TestDispatch_SkipsIndexedUnit(t *testing.T) {
	tf := &countingTransform{}
	d, dest := newDispatcher(t, index.Index{"http://x/a.json": "a.csv"}, tf)

	out := d.Dispatch(context.Background(), loaded("http://x/a.json"))

	assert.Equal(t, StatusSkipped, out.Status)
	assert.Equal(t, SkipAlreadyTranslated, out.Reason)
	assert.Equal(t, 0, tf.calls)

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Empty(t, entries, "no file must be written")
}

func TestDispatch_SkipsExistingDestination(t *testing.T) {
	tf := &countingTransform{}
	d, dest := newDispatcher(t, index.Index{}, tf)
	require.NoError(t, os.WriteFile(filepath.Join(dest, "b.csv"), []byte("old"), 0644))

	out := d.Dispatch(context.Background(), loaded("http://x/b.json"))

	assert.Equal(t, StatusSkipped, out.Status)
	assert.Equal(t, SkipDestinationExists, out.Reason)
	assert.Equal(t, 0, tf.calls)

	// Existing output stays untouched.
	data, err := os.ReadFile(filepath.Join(dest, "b.csv"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestDispatch_OverwriteDisablesDestinationSignal(t *testing.T) {
	tf := &countingTransform{}
	dest := t.TempDir()
	d := New(index.Index{}, Policy{DestDir: dest, SkipExisting: false}, tf, zerolog.Nop())
	require.NoError(t, os.WriteFile(filepath.Join(dest, "b.csv"), []byte("old"), 0644))

	out := d.Dispatch(context.Background(), loaded("http://x/b.json"))

	assert.Equal(t, StatusTranslated, out.Status)
	assert.Equal(t, 1, tf.calls)
}

func TestDispatch_TranslatesAndWrites(t *testing.T) {
	tf := &countingTransform{}
	d, dest := newDispatcher(t, index.Index{}, tf)

	out := d.Dispatch(context.Background(), loaded("http://x/b.json"))

	assert.Equal(t, StatusTranslated, out.Status)
	assert.Equal(t, filepath.Join(dest, "b.csv"), out.Dest)
	assert.Equal(t, 1, tf.calls)

	data, err := os.ReadFile(out.Dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "HELLO")
}

func TestDispatch_Idempotent(t *testing.T) {
	tf := &countingTransform{}
	ix := index.Index{}
	dest := t.TempDir()

	first := New(ix, Policy{DestDir: dest, SkipExisting: true}, tf, zerolog.Nop())
	out := first.Dispatch(context.Background(), loaded("http://x/b.json"))
	require.Equal(t, StatusTranslated, out.Status)

	// A fresh run over the same destination state must skip, not rewrite.
	second := New(ix, Policy{DestDir: dest, SkipExisting: true}, tf, zerolog.Nop())
	out = second.Dispatch(context.Background(), loaded("http://x/b.json"))

	assert.Equal(t, StatusSkipped, out.Status)
	assert.Equal(t, SkipDestinationExists, out.Reason)
	assert.Equal(t, 1, tf.calls)
}

func TestDispatch_MalformedContentFailsUnitOnly(t *testing.T) {
	tf := &countingTransform{}
	d, dest := newDispatcher(t, index.Index{}, tf)

	out := d.Dispatch(context.Background(), unit.NewLoaded("bad.csv", "speaker,text\na,b\n"))

	assert.Equal(t, StatusFailed, out.Status)
	var merr *unit.MalformedError
	assert.True(t, errors.As(out.Err, &merr))
	assert.Equal(t, 0, tf.calls)

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDispatch_TransformFailureLeavesNoFile(t *testing.T) {
	tf := &countingTransform{err: errors.New("all providers down")}
	d, dest := newDispatcher(t, index.Index{}, tf)

	out := d.Dispatch(context.Background(), loaded("http://x/b.json"))

	assert.Equal(t, StatusFailed, out.Status)
	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Empty(t, entries, "no partial or temp file may remain")
}

func TestDispatch_FetchFailureFailsUnit(t *testing.T) {
	tf := &countingTransform{}
	d, _ := newDispatcher(t, index.Index{}, tf)

	wantErr := errors.New("asset gone")
	c := unit.NewLazy("http://x/json/c.json", "http://x/json/c.json",
		func(ctx context.Context) (string, error) { return "", wantErr })

	out := d.Dispatch(context.Background(), c)

	assert.Equal(t, StatusFailed, out.Status)
	assert.ErrorIs(t, out.Err, wantErr)
	assert.Equal(t, 0, tf.calls)
}

func TestDispatch_LazySkipNeedsNoFetch(t *testing.T) {
	tf := &countingTransform{}
	d, _ := newDispatcher(t, index.Index{"http://x/json/c.json": "done"}, tf)

	fetched := false
	c := unit.NewLazy("http://x/json/c.json", "http://x/json/c.json",
		func(ctx context.Context) (string, error) {
			fetched = true
			return "", nil
		})

	out := d.Dispatch(context.Background(), c)

	assert.Equal(t, StatusSkipped, out.Status)
	assert.False(t, fetched, "skip decision must not touch the network")
}

func TestDispatch_DuplicateIdentityWithinRun(t *testing.T) {
	tf := &countingTransform{}
	d, _ := newDispatcher(t, index.Index{}, tf)

	first := d.Dispatch(context.Background(), loaded("http://x/b.json"))
	require.Equal(t, StatusTranslated, first.Status)

	// Same identity from a different locator in the same run.
	dup := unit.NewLoaded("copy.csv", "origin,text\nhttp://x/b.json,hello again\n")
	out := d.Dispatch(context.Background(), dup)

	assert.Equal(t, StatusSkipped, out.Status)
	assert.Equal(t, SkipDuplicateInRun, out.Reason)
	assert.Equal(t, 1, tf.calls)
}
