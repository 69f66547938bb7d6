package archive

import (
	"archive/zip"
	"fmt"
	"io"

	"github.com/matzehuels/wheeltag/pkg/errors"
)

// maxEntryBytes bounds how much of a single entry is read into memory.
// Metadata entries are tiny; anything bigger is not a manifest.
const maxEntryBytes = int64(64 * 1024 * 1024)

// Reader gives read access to the entries of a zip archive.
type Reader struct {
	path  string
	rc    *zip.ReadCloser
	files map[string]*zip.File
	names []string
}

// Open opens the archive at path.
func Open(path string) (*Reader, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	r := &Reader{
		path:  path,
		rc:    rc,
		files: make(map[string]*zip.File, len(rc.File)),
		names: make([]string, 0, len(rc.File)),
	}
	for _, f := range rc.File {
		if _, dup := r.files[f.Name]; !dup {
			r.files[f.Name] = f
		}
		r.names = append(r.names, f.Name)
	}
	return r, nil
}

// Path returns the archive path.
func (r *Reader) Path() string { return r.path }

// Names returns the entry names in archive order.
func (r *Reader) Names() []string { return r.names }

// ReadFile returns the uncompressed content of the named entry.
func (r *Reader) ReadFile(name string) ([]byte, error) {
	f, ok := r.files[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeFileNotFound, "entry %q not found in archive", name).WithPath(r.path)
	}
	if f.UncompressedSize64 > uint64(maxEntryBytes) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "entry %q too large", name).WithPath(r.path)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxEntryBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read entry %s: %w", name, err)
	}
	if int64(len(data)) > maxEntryBytes {
		return nil, errors.New(errors.ErrCodeInvalidInput, "entry %q too large", name).WithPath(r.path)
	}
	return data, nil
}

// Has reports whether the archive contains an entry called name.
func (r *Reader) Has(name string) bool {
	_, ok := r.files[name]
	return ok
}

// Close releases the archive.
func (r *Reader) Close() error {
	return r.rc.Close()
}
