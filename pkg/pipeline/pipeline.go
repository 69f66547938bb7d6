// Package pipeline runs platform tag synchronization over a batch of wheels.
//
// It is the layer shared by the CLI and any other caller that processes more
// than one archive: it builds the tag request from user options, prepares the
// output directory, calls [addplat.Synchronize] for each wheel, and collects a
// per-wheel [Result].
//
// # Usage
//
//	runner := pipeline.NewRunner(logger)
//	result, err := runner.Run(ctx, pipeline.Options{
//	    Wheels:      []string{"dist/pkg-1.0-cp39-cp39-macosx_10_9_x86_64.whl"},
//	    OSXVersions: []string{"10_9"},
//	    WheelDir:    "fixed",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, e := range result.Entries {
//	    fmt.Println(e.Wheel, e.Status, e.Output)
//	}
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/wheeltag/pkg/errors"
	"github.com/matzehuels/wheeltag/pkg/tags"
)

// =============================================================================
// Options
// =============================================================================

// Options configures a batch run.
type Options struct {
	// Wheels are the archive paths to process, in order.
	Wheels []string `json:"wheels" yaml:"wheels"`

	// PlatTags are platform sub-tags added verbatim.
	PlatTags []string `json:"plat_tags,omitempty" yaml:"plat_tags,omitempty"`

	// OSXVersions are macOS versions such as "10_9". Each expands to a
	// dual-architecture tag and an x86_64 tag.
	OSXVersions []string `json:"osx_versions,omitempty" yaml:"osx_versions,omitempty"`

	// DualArch names the dual-architecture flavor for OSXVersions.
	DualArch string `json:"dual_arch,omitempty" yaml:"dual_arch,omitempty"`

	// WheelDir receives the results. Empty means next to each source.
	WheelDir string `json:"wheel_dir,omitempty" yaml:"wheel_dir,omitempty"`

	Clobber      bool `json:"clobber,omitempty" yaml:"clobber,omitempty"`
	RmOrig       bool `json:"rm_orig,omitempty" yaml:"rm_orig,omitempty"`
	SkipErrors   bool `json:"skip_errors,omitempty" yaml:"skip_errors,omitempty"`
	UpdateRecord bool `json:"update_record,omitempty" yaml:"update_record,omitempty"`

	// Logger overrides the runner's logger for this run.
	Logger *log.Logger `json:"-" yaml:"-"`
}

// ValidateAndSetDefaults checks the options and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if len(o.Wheels) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "at least one wheel is required")
	}
	if o.DualArch == "" {
		o.DualArch = tags.DefaultDualArch
	}
	return nil
}

// BuildRequest combines PlatTags and the tags derived from OSXVersions into
// one request. Explicit tags come first. The request fails with EMPTY_REQUEST
// when it ends up empty.
func (o *Options) BuildRequest() (tags.Request, error) {
	dual := o.DualArch
	if dual == "" {
		dual = tags.DefaultDualArch
	}
	osx, err := tags.MacOSTags(o.OSXVersions, dual)
	if err != nil {
		return tags.Request{}, err
	}

	subTags := make([]string, 0, len(o.PlatTags)+len(osx))
	subTags = append(subTags, o.PlatTags...)
	subTags = append(subTags, osx...)

	req, err := tags.NewRequest(subTags...)
	if err != nil {
		return tags.Request{}, err
	}
	if req.Empty() {
		return tags.Request{}, errors.New(errors.ErrCodeEmptyRequest,
			"need at least one --osx-ver or --plat-tag")
	}
	return req, nil
}

// =============================================================================
// Result
// =============================================================================

// Status is the outcome of processing one wheel.
type Status string

const (
	// StatusWritten means a new or updated archive was written.
	StatusWritten Status = "written"
	// StatusUnchanged means the wheel already had every requested tag.
	StatusUnchanged Status = "unchanged"
	// StatusSkipped means processing failed and the error was skipped.
	StatusSkipped Status = "skipped"
)

// Entry records what happened to one wheel.
type Entry struct {
	Wheel           string `json:"wheel" yaml:"wheel"`
	Output          string `json:"output,omitempty" yaml:"output,omitempty"`
	Status          Status `json:"status" yaml:"status"`
	RemovedOriginal bool   `json:"removed_original,omitempty" yaml:"removed_original,omitempty"`
	Error           string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Result is the outcome of a batch run.
type Result struct {
	RunID    string        `json:"run_id" yaml:"run_id"`
	Tags     []string      `json:"tags" yaml:"tags"`
	Started  time.Time     `json:"started" yaml:"started"`
	Duration time.Duration `json:"duration_ns" yaml:"duration"`
	Entries  []Entry       `json:"entries" yaml:"entries"`
}

// Count returns the number of entries with status s.
func (r *Result) Count(s Status) int {
	n := 0
	for _, e := range r.Entries {
		if e.Status == s {
			n++
		}
	}
	return n
}

// Written returns the output paths of all written wheels.
func (r *Result) Written() []string {
	var out []string
	for _, e := range r.Entries {
		if e.Status == StatusWritten {
			out = append(out, e.Output)
		}
	}
	return out
}
