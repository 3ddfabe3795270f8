package backends

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/brettbedarf/jsontree"
	"github.com/brettbedarf/jsontree/internal/util"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

const (
	fileMode = 0o644
	dirMode  = 0o755
)

// AferoBackend stores records as plain files in an afero filesystem.
type AferoBackend struct {
	fs     afero.Fs
	sync   bool
	logger zerolog.Logger
}

var _ jsontree.Backend = (*AferoBackend)(nil)

// NewAferoBackend wraps fs. With sync set, every leaf write is flushed to
// stable storage before it is reported done.
func NewAferoBackend(fs afero.Fs, sync bool) *AferoBackend {
	return &AferoBackend{
		fs:     fs,
		sync:   sync,
		logger: util.GetLogger("backend"),
	}
}

// Fs exposes the underlying filesystem.
func (b *AferoBackend) Fs() afero.Fs {
	return b.fs
}

func nativePath(path jsontree.Path) string {
	if len(path) == 0 {
		return "."
	}
	return filepath.Join(path...)
}

// pathErr strips the *fs.PathError wrapper since IOError already carries
// the operation and path.
func pathErr(op string, path jsontree.Path, err error) error {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		err = pe.Err
	}
	return &jsontree.IOError{Op: op, Path: path, Err: err}
}

func (b *AferoBackend) WriteField(path jsontree.Path, rec jsontree.Record) error {
	data, err := rec.MarshalText()
	if err != nil {
		return pathErr("encode", path, err)
	}
	f, err := b.fs.OpenFile(nativePath(path), fsCreateFlags, fileMode)
	if err != nil {
		return pathErr("create", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return pathErr("write", path, err)
	}
	if b.sync {
		if err := f.Sync(); err != nil {
			f.Close()
			return pathErr("sync", path, err)
		}
	}
	if err := f.Close(); err != nil {
		return pathErr("close", path, err)
	}
	b.logger.Trace().Stringer("path", path).Int("bytes", len(data)).Msg("WriteField")
	return nil
}

func (b *AferoBackend) ReadField(path jsontree.Path) (jsontree.Record, error) {
	f, err := b.fs.Open(nativePath(path))
	if err != nil {
		return jsontree.Record{}, pathErr("open", path, err)
	}
	defer f.Close()

	rec, err := jsontree.ReadRecord(f)
	if err != nil {
		return jsontree.Record{}, pathErr("read", path, err)
	}
	return rec, nil
}

func (b *AferoBackend) EnsurePath(path jsontree.Path) error {
	if err := b.fs.MkdirAll(nativePath(path), dirMode); err != nil {
		return pathErr("mkdir", path, err)
	}
	return nil
}

func (b *AferoBackend) Stat(path jsontree.Path) (bool, error) {
	fi, err := b.fs.Stat(nativePath(path))
	if err != nil {
		return false, pathErr("stat", path, err)
	}
	return fi.IsDir(), nil
}

func (b *AferoBackend) List(path jsontree.Path) ([]string, error) {
	infos, err := afero.ReadDir(b.fs, nativePath(path))
	if err != nil {
		return nil, pathErr("list", path, err)
	}
	names := make([]string, len(infos))
	for i, fi := range infos {
		names[i] = fi.Name()
	}
	return names, nil
}
