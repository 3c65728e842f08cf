package source

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/valpere/difftran/internal/unit"
)

// sourceExt is the recognized extracted-record format.
const sourceExt = ".csv"

// alternateExts are recognized structured formats that the pipeline does
// not translate directly; they must be extracted to CSV first. Walking
// over one is worth a warning, not an error.
var alternateExts = map[string]bool{
	".json": true,
	".yaml": true,
	".yml":  true,
}

// Folder enumerates CSV record files under a directory tree. Content is
// read eagerly: folder-sourced identity lives inside the content, so the
// skip decision needs the bytes anyway.
type Folder struct {
	Root string
	Log  zerolog.Logger
}

func NewFolder(root string, log zerolog.Logger) *Folder {
	return &Folder{Root: root, Log: log}
}

func (f *Folder) Produce(ctx context.Context, emit func(*unit.Candidate) error) error {
	return filepath.WalkDir(f.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext != sourceExt {
			if alternateExts[ext] {
				f.Log.Warn().Str("path", path).
					Msg("unsupported source format, extract to csv first")
			}
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			// Unreadable file is unit-local: report and move on.
			f.Log.Error().Err(err).Str("path", path).Msg("cannot read source file")
			return nil
		}

		return emit(unit.NewLoaded(path, string(data)))
	})
}
