package archive

import (
	"archive/zip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/matzehuels/wheeltag/pkg/errors"
	"github.com/matzehuels/wheeltag/pkg/observability"
)

// Status classifies the result of a rewrite.
type Status int

const (
	// NoOp means nothing was written.
	NoOp Status = iota
	// Written means the destination now holds the rewritten archive.
	Written
)

// String returns a lowercase name for s.
func (s Status) String() string {
	switch s {
	case NoOp:
		return "noop"
	case Written:
		return "written"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Outcome is the result of [Rewrite].
type Outcome struct {
	Status Status
	Path   string // destination path, set when Status is Written
}

// zip64ExtraID is the extra field carrying 64-bit sizes; it is recomputed by
// the writer for patched entries.
const zip64ExtraID = 0x0001

// dataDescriptorFlag marks entries whose sizes follow the data.
const dataDescriptorFlag = 0x8

// ResolveDestination returns the path a rewritten archive goes to: filename
// inside outDir when set, otherwise inside the source's directory.
func ResolveDestination(src, outDir, filename string) string {
	dir := outDir
	if dir == "" {
		dir = filepath.Dir(src)
	}
	return filepath.Join(dir, filename)
}

// SameFile reports whether a and b name the same existing file. A missing b
// is never the same file.
func SameFile(a, b string) (bool, error) {
	ai, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	bi, err := os.Stat(b)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return os.SameFile(ai, bi), nil
}

// Rewrite copies the archive at src to dst, replacing the content of every
// entry named in patches.
//
// With no patches and dst being src, Rewrite performs no I/O and returns
// NoOp. When dst is src reached through a symlink, the link is kept and the
// file it points to is replaced. If dst exists, is not src, and clobber is false, it fails with
// DESTINATION_EXISTS before writing anything. With no patches and a distinct
// dst, the file is copied verbatim.
func Rewrite(src, dst string, patches map[string][]byte, clobber bool) (out Outcome, err error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return Outcome{}, fmt.Errorf("stat source: %w", err)
	}
	same, err := SameFile(src, dst)
	if err != nil {
		return Outcome{}, fmt.Errorf("stat destination: %w", err)
	}
	if same && len(patches) == 0 {
		return Outcome{Status: NoOp}, nil
	}
	if !same && !clobber {
		if _, statErr := os.Lstat(dst); statErr == nil {
			return Outcome{}, errors.DestinationExists(dst)
		} else if !os.IsNotExist(statErr) {
			return Outcome{}, fmt.Errorf("stat destination: %w", statErr)
		}
	}
	for name := range patches {
		if err := errors.ValidateEntryName(name); err != nil {
			return Outcome{}, err
		}
	}

	// An in-place update through a symlink replaces the link target.
	target := dst
	if same {
		if target, err = filepath.EvalSymlinks(dst); err != nil {
			return Outcome{}, fmt.Errorf("resolve destination: %w", err)
		}
	}

	start := time.Now()
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return Outcome{}, fmt.Errorf("create staging file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if len(patches) == 0 {
		err = copyFile(tmp, src)
	} else {
		err = writePatched(tmp, src, patches)
	}
	if err != nil {
		return Outcome{}, err
	}

	if err = tmp.Sync(); err != nil {
		return Outcome{}, fmt.Errorf("sync staging file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return Outcome{}, fmt.Errorf("close staging file: %w", err)
	}
	if err = os.Chmod(tmpPath, srcInfo.Mode().Perm()); err != nil {
		return Outcome{}, fmt.Errorf("chmod staging file: %w", err)
	}
	info, err := os.Stat(tmpPath)
	if err != nil {
		return Outcome{}, fmt.Errorf("stat staging file: %w", err)
	}
	if err = os.Rename(tmpPath, target); err != nil {
		return Outcome{}, fmt.Errorf("finalize %s: %w", dst, err)
	}
	observability.Archive().OnRewrite(dst, len(patches), info.Size(), time.Since(start))
	return Outcome{Status: Written, Path: dst}, nil
}

func copyFile(w io.Writer, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return nil
}

func writePatched(w io.Writer, src string, patches map[string][]byte) (err error) {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", src, err)
	}
	defer zr.Close()

	zw := zip.NewWriter(w)
	if err := zw.SetComment(zr.Comment); err != nil {
		return fmt.Errorf("copy archive comment: %w", err)
	}

	applied := make(map[string]bool, len(patches))
	for _, f := range zr.File {
		content, ok := patches[f.Name]
		if !ok {
			if err := zw.Copy(f); err != nil {
				return fmt.Errorf("copy entry %s: %w", f.Name, err)
			}
			continue
		}

		hdr := patchedHeader(f.FileHeader)
		ew, err := zw.CreateHeader(&hdr)
		if err != nil {
			return fmt.Errorf("create entry %s: %w", f.Name, err)
		}
		if _, err := ew.Write(content); err != nil {
			return fmt.Errorf("write entry %s: %w", f.Name, err)
		}
		applied[f.Name] = true
	}

	for name := range patches {
		if !applied[name] {
			return errors.New(errors.ErrCodeInvalidManifest, "entry %q not found in archive", name).WithPath(src)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}
	return nil
}

// patchedHeader prepares a copy of h for writing new content under the same
// name, method, modification time and attributes. Sizes and checksum are
// recomputed by the writer.
func patchedHeader(h zip.FileHeader) zip.FileHeader {
	h.CRC32 = 0
	h.CompressedSize = 0
	h.CompressedSize64 = 0
	h.UncompressedSize = 0
	h.UncompressedSize64 = 0
	h.Flags &^= dataDescriptorFlag
	h.Extra = stripExtra(h.Extra, zip64ExtraID)
	// A zero Modified keeps the original MS-DOS date and time fields and any
	// extended timestamp already present in Extra.
	h.Modified = time.Time{}
	return h
}

// stripExtra removes every extra field block with the given id.
func stripExtra(extra []byte, id uint16) []byte {
	var out []byte
	for len(extra) >= 4 {
		tag := binary.LittleEndian.Uint16(extra[0:2])
		size := int(binary.LittleEndian.Uint16(extra[2:4]))
		if 4+size > len(extra) {
			break
		}
		if tag != id {
			out = append(out, extra[:4+size]...)
		}
		extra = extra[4+size:]
	}
	return out
}
