// Package addplat adds platform tags to a wheel's filename and WHEEL manifest.
//
// # Overview
//
// Synchronizing tags is split into two phases:
//
//  1. Plan: read the archive once, merge the requested sub-tags into the
//     filename ([tags.MergeFilename]) and into the manifest
//     ([manifest.Manifest.Merge]), and decide the destination path. Nothing
//     is written.
//  2. Apply: hand the plan to [archive.Rewrite], which stages and finalizes
//     the new archive.
//
// The two merges are independent: a filename that already lists every
// requested tag can still need new manifest lines, and the reverse.
//
// # Usage
//
//	req, _ := tags.NewRequest("macosx_10_9_intel", "macosx_10_9_x86_64")
//	out, err := addplat.Synchronize(path, req, addplat.Options{OutputDir: "dist"})
//	if out == "" {
//	    // already had every tag
//	}
package addplat

import (
	"path/filepath"
	"strings"

	"github.com/matzehuels/wheeltag/pkg/archive"
	"github.com/matzehuels/wheeltag/pkg/errors"
	"github.com/matzehuels/wheeltag/pkg/manifest"
	"github.com/matzehuels/wheeltag/pkg/tags"
)

// Options controls where and how a synchronized wheel is written.
type Options struct {
	// OutputDir receives the result. Empty means the source's directory.
	OutputDir string

	// Clobber permits replacing a distinct pre-existing destination file.
	Clobber bool

	// UpdateRecord also refreshes the RECORD row of the patched manifest.
	UpdateRecord bool
}

// Plan is the outcome of the merge phase for one archive.
type Plan struct {
	Source      string
	Destination string

	Identity    tags.Identity // parsed from the source filename
	NewIdentity tags.Identity // after the filename merge

	ManifestPath string        // entry name of the WHEEL file
	Manifest     []byte        // patched WHEEL content, nil when unchanged
	AddedTags    []tags.Triple // Tag lines the manifest merge appends

	// RootIsPurelib mirrors the manifest's Root-Is-Purelib header. Such a
	// wheel is still tagged when its filename names a platform.
	RootIsPurelib bool

	// Patches maps entry names to replacement content. It holds the manifest
	// and, when requested, the refreshed RECORD.
	Patches map[string][]byte

	NeedsRename        bool
	NeedsManifestPatch bool

	// Relocate is set when the destination directory differs from the
	// source's, so a copy is placed there even without tag changes.
	Relocate bool
}

// Changed reports whether either merge produced a change.
func (p *Plan) Changed() bool {
	return p.NeedsRename || p.NeedsManifestPatch
}

// NoOp reports whether applying the plan would write nothing.
func (p *Plan) NoOp() bool {
	return !p.Changed() && !p.Relocate
}

// NewPlan computes the plan for adding req to the wheel at path.
//
// It reads the archive but writes nothing. It fails with EMPTY_REQUEST for an
// empty request, MALFORMED_FILENAME or MALFORMED_TAG for unparsable input,
// PURE_ARCHIVE when the wheel is platform independent, and INVALID_MANIFEST
// when the archive has no usable WHEEL entry.
func NewPlan(path string, req tags.Request, opts Options) (*Plan, error) {
	id, err := tags.ParseIdentity(path)
	if err != nil {
		return nil, err
	}
	if req.Empty() {
		return nil, errors.New(errors.ErrCodeEmptyRequest, "need at least one platform tag").WithPath(path)
	}

	if id.IsPure() {
		return nil, errors.PureArchive(path)
	}

	newID, renamed, err := tags.MergeFilename(id, req)
	if err != nil {
		return nil, errors.WithPath(err, path)
	}

	r, err := archive.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	manifestPath, err := manifest.Select(r.Names(), id.DistInfoDir())
	if err != nil {
		return nil, errors.WithPath(err, path)
	}
	data, err := r.ReadFile(manifestPath)
	if err != nil {
		return nil, err
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return nil, errors.WithPath(err, path)
	}
	purelib, _ := m.Get(manifest.RootIsPurelibKey)

	var patched []byte
	added := m.Merge(req)
	if len(added) > 0 {
		patched = m.Bytes()
	}

	plan := &Plan{
		Source:             path,
		Identity:           id,
		NewIdentity:        newID,
		ManifestPath:       manifestPath,
		Manifest:           patched,
		AddedTags:          added,
		RootIsPurelib:      strings.EqualFold(purelib, "true"),
		Patches:            map[string][]byte{},
		NeedsRename:        renamed,
		NeedsManifestPatch: patched != nil,
	}

	if plan.NeedsManifestPatch {
		plan.Patches[manifestPath] = patched
		if opts.UpdateRecord {
			if err := plan.refreshRecord(r); err != nil {
				return nil, err
			}
		}
	}

	filename := filepath.Base(path)
	if renamed {
		filename = newID.Filename()
	}
	plan.Destination = archive.ResolveDestination(path, opts.OutputDir, filename)

	if opts.OutputDir != "" {
		same, err := sameDir(filepath.Dir(path), opts.OutputDir)
		if err != nil {
			return nil, err
		}
		plan.Relocate = !same
	}
	return plan, nil
}

func (p *Plan) refreshRecord(r *archive.Reader) error {
	recordPath := manifest.RecordPathFor(p.ManifestPath)
	if !r.Has(recordPath) {
		return nil
	}
	record, err := r.ReadFile(recordPath)
	if err != nil {
		return err
	}
	updated, found, err := manifest.RefreshRecord(record, p.ManifestPath, p.Manifest)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidManifest, err, "refresh %s", recordPath).WithPath(p.Source)
	}
	if found {
		p.Patches[recordPath] = updated
	}
	return nil
}

// Apply executes the plan. It returns the written path, or "" when nothing
// needed writing.
func Apply(p *Plan, clobber bool) (string, error) {
	if p.NoOp() {
		return "", nil
	}
	out, err := archive.Rewrite(p.Source, p.Destination, p.Patches, clobber)
	if err != nil {
		return "", err
	}
	if out.Status == archive.NoOp {
		return "", nil
	}
	return out.Path, nil
}

// Synchronize adds the sub-tags of req to the filename and manifest of the
// wheel at path and returns the path written, or "" when the wheel already
// carried every requested tag in both places and no copy to another
// directory was requested.
//
// With OutputDir set, a wheel is always copied there, even one that already
// carries every tag. A repeated run therefore meets its own earlier output
// and fails with DESTINATION_EXISTS unless Clobber is set.
func Synchronize(path string, req tags.Request, opts Options) (string, error) {
	plan, err := NewPlan(path, req, opts)
	if err != nil {
		return "", err
	}
	return Apply(plan, opts.Clobber)
}

// sameDir reports whether a and b resolve to the same directory. A missing
// b is never the same directory.
func sameDir(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	if absA == absB {
		return true, nil
	}
	return archive.SameFile(absA, absB)
}
