package addplat

import (
	"archive/zip"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/wheeltag/pkg/errors"
	"github.com/matzehuels/wheeltag/pkg/manifest"
	"github.com/matzehuels/wheeltag/pkg/tags"
)

const (
	macWheel    = "pkg-1.0-py3-none-macosx_10_9_x86_64.whl"
	macManifest = "Wheel-Version: 1.0\nGenerator: bdist_wheel\nRoot-Is-Purelib: false\nTag: py3-none-macosx_10_9_x86_64\n"
)

func writeWheel(t *testing.T, dir, name, wheel string) string {
	t.Helper()
	id, err := tags.ParseIdentity(name)
	if err != nil {
		t.Fatal(err)
	}
	distInfo := id.DistInfoDir()
	entries := []struct{ name, content string }{
		{"pkg/__init__.py", "VERSION = '1.0'\n"},
		{distInfo + "/WHEEL", wheel},
		{distInfo + "/RECORD", "pkg/__init__.py,,\n" + distInfo + "/WHEEL,sha256=old,1\n" + distInfo + "/RECORD,,\n"},
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(w, e.content); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func readEntry(t *testing.T, path, name string) string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			t.Fatal(err)
		}
		return string(data)
	}
	t.Fatalf("entry %s not found in %s", name, path)
	return ""
}

func mustRequest(t *testing.T, subTags ...string) tags.Request {
	t.Helper()
	req, err := tags.NewRequest(subTags...)
	if err != nil {
		t.Fatal(err)
	}
	return req
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestSynchronizeRenamesAndPatches(t *testing.T) {
	dir := t.TempDir()
	src := writeWheel(t, dir, macWheel, macManifest)

	out, err := Synchronize(src, mustRequest(t, "macosx_10_9_intel"), Options{})
	if err != nil {
		t.Fatalf("Synchronize() error: %v", err)
	}
	want := filepath.Join(dir, "pkg-1.0-py3-none-macosx_10_9_intel.macosx_10_9_x86_64.whl")
	if out != want {
		t.Errorf("Synchronize() = %q, want %q", out, want)
	}

	got := readEntry(t, out, "pkg-1.0.dist-info/WHEEL")
	wantManifest := macManifest + "Tag: py3-none-macosx_10_9_intel\n"
	if got != wantManifest {
		t.Errorf("WHEEL =\n%s\nwant\n%s", got, wantManifest)
	}
	if !exists(src) {
		t.Error("source should be left in place")
	}
	if readEntry(t, out, "pkg/__init__.py") != "VERSION = '1.0'\n" {
		t.Error("payload entry changed")
	}
}

func TestSynchronizeIdempotent(t *testing.T) {
	dir := t.TempDir()
	src := writeWheel(t, dir, macWheel, macManifest)
	req := mustRequest(t, "macosx_10_9_intel")

	out, err := Synchronize(src, req, Options{})
	if err != nil {
		t.Fatal(err)
	}
	again, err := Synchronize(out, req, Options{})
	if err != nil {
		t.Fatalf("second Synchronize() error: %v", err)
	}
	if again != "" {
		t.Errorf("second Synchronize() = %q, want no output", again)
	}
}

func TestSynchronizeManifestOnly(t *testing.T) {
	// The filename already lists both tags; only the manifest lags behind.
	dir := t.TempDir()
	name := "pkg-1.0-py3-none-macosx_10_9_intel.macosx_10_9_x86_64.whl"
	src := writeWheel(t, dir, name, macManifest)

	out, err := Synchronize(src, mustRequest(t, "macosx_10_9_intel"), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if out != src {
		t.Errorf("Synchronize() = %q, want in-place %q", out, src)
	}
	got := readEntry(t, src, "pkg-1.0.dist-info/WHEEL")
	if !strings.HasSuffix(got, "Tag: py3-none-macosx_10_9_x86_64\nTag: py3-none-macosx_10_9_intel\n") {
		t.Errorf("WHEEL = %q, want appended intel tag", got)
	}
}

func TestSynchronizeFilenameOnly(t *testing.T) {
	// The manifest already lists the tag; the filename does not.
	dir := t.TempDir()
	wheel := macManifest + "Tag: py3-none-macosx_10_9_intel\n"
	src := writeWheel(t, dir, macWheel, wheel)

	plan, err := NewPlan(src, mustRequest(t, "macosx_10_9_intel"), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !plan.NeedsRename || plan.NeedsManifestPatch {
		t.Errorf("NeedsRename = %v, NeedsManifestPatch = %v, want true, false", plan.NeedsRename, plan.NeedsManifestPatch)
	}

	out, err := Apply(plan, false)
	if err != nil {
		t.Fatal(err)
	}
	if got := readEntry(t, out, "pkg-1.0.dist-info/WHEEL"); got != wheel {
		t.Errorf("WHEEL = %q, want unchanged %q", got, wheel)
	}
}

func TestSynchronizeCrossProduct(t *testing.T) {
	dir := t.TempDir()
	name := "pkg-1.0-cp39-cp39-linux_x86_64.whl"
	wheel := "Wheel-Version: 1.0\nTag: cp39-cp39-linux_x86_64\nTag: cp39-abi3-linux_x86_64\n"
	src := writeWheel(t, dir, name, wheel)

	out, err := Synchronize(src, mustRequest(t, "manylinux1_x86_64", "manylinux2010_x86_64"), Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := wheel +
		"Tag: cp39-cp39-manylinux1_x86_64\n" +
		"Tag: cp39-cp39-manylinux2010_x86_64\n" +
		"Tag: cp39-abi3-manylinux1_x86_64\n" +
		"Tag: cp39-abi3-manylinux2010_x86_64\n"
	if got := readEntry(t, out, "pkg-1.0.dist-info/WHEEL"); got != want {
		t.Errorf("WHEEL =\n%s\nwant\n%s", got, want)
	}
	if base := filepath.Base(out); base != "pkg-1.0-cp39-cp39-linux_x86_64.manylinux1_x86_64.manylinux2010_x86_64.whl" {
		t.Errorf("output filename = %q", base)
	}
}

func TestSynchronizePureArchive(t *testing.T) {
	dir := t.TempDir()
	src := writeWheel(t, dir, "pkg-1.0-py3-none-any.whl", "Wheel-Version: 1.0\nTag: py3-none-any\n")
	before, _ := os.ReadFile(src)

	_, err := Synchronize(src, mustRequest(t, "macosx_10_9_x86_64"), Options{})
	if !errors.Is(err, errors.ErrCodePureArchive) {
		t.Fatalf("Synchronize() error = %v, want PURE_ARCHIVE", err)
	}
	var e *errors.Error
	if stderrors.As(err, &e) && e.Path != src {
		t.Errorf("Path = %q, want %q", e.Path, src)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only the source", len(entries))
	}
	after, _ := os.ReadFile(src)
	if string(before) != string(after) {
		t.Error("source archive was modified")
	}
}

func TestSynchronizeEmptyRequest(t *testing.T) {
	dir := t.TempDir()
	src := writeWheel(t, dir, macWheel, macManifest)

	_, err := Synchronize(src, tags.Request{}, Options{})
	if !errors.Is(err, errors.ErrCodeEmptyRequest) {
		t.Errorf("Synchronize() error = %v, want EMPTY_REQUEST", err)
	}
}

func TestSynchronizeMalformedFilename(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "pkg-1.0-linux.whl")
	if err := os.WriteFile(src, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Synchronize(src, mustRequest(t, "linux_x86_64"), Options{})
	if !errors.Is(err, errors.ErrCodeMalformedFilename) {
		t.Errorf("Synchronize() error = %v, want MALFORMED_FILENAME", err)
	}
}

func TestSynchronizeMissingManifest(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, macWheel)
	f, err := os.Create(src)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	if _, err := zw.Create("pkg/__init__.py"); err != nil {
		t.Fatal(err)
	}
	zw.Close()
	f.Close()

	_, err = Synchronize(src, mustRequest(t, "macosx_10_9_intel"), Options{})
	if !errors.Is(err, errors.ErrCodeInvalidManifest) {
		t.Errorf("Synchronize() error = %v, want INVALID_MANIFEST", err)
	}
	if exists(filepath.Join(dir, "pkg-1.0-py3-none-macosx_10_9_intel.macosx_10_9_x86_64.whl")) {
		t.Error("output written despite error")
	}
}

func TestSynchronizeCollision(t *testing.T) {
	dir := t.TempDir()
	src := writeWheel(t, dir, macWheel, macManifest)
	dst := filepath.Join(dir, "pkg-1.0-py3-none-macosx_10_9_intel.macosx_10_9_x86_64.whl")
	if err := os.WriteFile(dst, []byte("unrelated"), 0o644); err != nil {
		t.Fatal(err)
	}
	req := mustRequest(t, "macosx_10_9_intel")

	_, err := Synchronize(src, req, Options{})
	if !errors.Is(err, errors.ErrCodeDestinationExists) {
		t.Fatalf("Synchronize() error = %v, want DESTINATION_EXISTS", err)
	}
	if data, _ := os.ReadFile(dst); string(data) != "unrelated" {
		t.Error("destination modified without clobber")
	}

	out, err := Synchronize(src, req, Options{Clobber: true})
	if err != nil {
		t.Fatalf("Synchronize(clobber) error: %v", err)
	}
	if out != dst {
		t.Errorf("Synchronize(clobber) = %q, want %q", out, dst)
	}
	if got := readEntry(t, dst, "pkg-1.0.dist-info/WHEEL"); !strings.Contains(got, "macosx_10_9_intel") {
		t.Errorf("WHEEL = %q, want intel tag", got)
	}
}

func TestSynchronizeOutputDir(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	src := writeWheel(t, srcDir, macWheel, macManifest)

	out, err := Synchronize(src, mustRequest(t, "macosx_10_9_intel"), Options{OutputDir: outDir})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(out) != outDir {
		t.Errorf("output dir = %q, want %q", filepath.Dir(out), outDir)
	}
	if !exists(src) {
		t.Error("source removed")
	}
}

func TestSynchronizeOutputDirWithoutChanges(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	wheel := macManifest + "Tag: py3-none-macosx_10_9_intel\n"
	name := "pkg-1.0-py3-none-macosx_10_9_intel.macosx_10_9_x86_64.whl"
	src := writeWheel(t, srcDir, name, wheel)

	out, err := Synchronize(src, mustRequest(t, "macosx_10_9_intel"), Options{OutputDir: outDir})
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(outDir, name)
	if out != want {
		t.Errorf("Synchronize() = %q, want copy at %q", out, want)
	}
	srcData, _ := os.ReadFile(src)
	outData, _ := os.ReadFile(out)
	if string(srcData) != string(outData) {
		t.Error("copy differs from source")
	}

	// The source's own directory is not a relocation.
	out, err = Synchronize(src, mustRequest(t, "macosx_10_9_intel"), Options{OutputDir: srcDir})
	if err != nil {
		t.Fatal(err)
	}
	if out != "" {
		t.Errorf("Synchronize(same dir) = %q, want no output", out)
	}
}

func TestSynchronizeOutputDirRepeatRun(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	wheel := macManifest + "Tag: py3-none-macosx_10_9_intel\n"
	src := writeWheel(t, srcDir, "pkg-1.0-py3-none-macosx_10_9_intel.macosx_10_9_x86_64.whl", wheel)
	req := mustRequest(t, "macosx_10_9_intel")

	if _, err := Synchronize(src, req, Options{OutputDir: outDir}); err != nil {
		t.Fatal(err)
	}
	_, err := Synchronize(src, req, Options{OutputDir: outDir})
	if !errors.Is(err, errors.ErrCodeDestinationExists) {
		t.Errorf("second Synchronize() error = %v, want DESTINATION_EXISTS", err)
	}
	if _, err := Synchronize(src, req, Options{OutputDir: outDir, Clobber: true}); err != nil {
		t.Errorf("Synchronize(clobber) error = %v", err)
	}
}

func TestSynchronizeUpdateRecord(t *testing.T) {
	dir := t.TempDir()
	src := writeWheel(t, dir, macWheel, macManifest)

	out, err := Synchronize(src, mustRequest(t, "macosx_10_9_intel"), Options{UpdateRecord: true})
	if err != nil {
		t.Fatal(err)
	}
	wheel := readEntry(t, out, "pkg-1.0.dist-info/WHEEL")
	record := readEntry(t, out, "pkg-1.0.dist-info/RECORD")

	row := "pkg-1.0.dist-info/WHEEL," + manifest.RecordHash([]byte(wheel)) + ","
	if !strings.Contains(record, row) {
		t.Errorf("RECORD = %q, want row starting %q", record, row)
	}
	if !strings.HasPrefix(record, "pkg/__init__.py,,\n") {
		t.Errorf("RECORD = %q, other rows should be kept", record)
	}
}

func TestSynchronizeKeepsRecordByDefault(t *testing.T) {
	dir := t.TempDir()
	src := writeWheel(t, dir, macWheel, macManifest)
	before := readEntry(t, src, "pkg-1.0.dist-info/RECORD")

	out, err := Synchronize(src, mustRequest(t, "macosx_10_9_intel"), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := readEntry(t, out, "pkg-1.0.dist-info/RECORD"); got != before {
		t.Errorf("RECORD = %q, want unchanged %q", got, before)
	}
}

func TestPlanNoOp(t *testing.T) {
	dir := t.TempDir()
	wheel := macManifest + "Tag: py3-none-macosx_10_9_intel\n"
	src := writeWheel(t, dir, "pkg-1.0-py3-none-macosx_10_9_intel.macosx_10_9_x86_64.whl", wheel)

	plan, err := NewPlan(src, mustRequest(t, "macosx_10_9_x86_64", "macosx_10_9_intel"), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !plan.NoOp() {
		t.Errorf("NoOp() = false, want true (plan %+v)", plan)
	}
	if len(plan.AddedTags) != 0 {
		t.Errorf("AddedTags = %v, want none", plan.AddedTags)
	}
}

func TestPlanRootIsPurelib(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		want     bool
	}{
		{"platlib", macManifest, false},
		{"purelib", strings.Replace(macManifest, "Root-Is-Purelib: false", "Root-Is-Purelib: true", 1), true},
		{"absent", "Wheel-Version: 1.0\nTag: py3-none-macosx_10_9_x86_64\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := writeWheel(t, t.TempDir(), macWheel, tt.manifest)
			plan, err := NewPlan(src, mustRequest(t, "macosx_10_9_intel"), Options{})
			if err != nil {
				t.Fatal(err)
			}
			if plan.RootIsPurelib != tt.want {
				t.Errorf("RootIsPurelib = %v, want %v", plan.RootIsPurelib, tt.want)
			}
			if !plan.NeedsRename || !plan.NeedsManifestPatch {
				t.Errorf("plan = %+v, want rename and manifest patch", plan)
			}
		})
	}
}
