package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/wheeltag/pkg/addplat"
	"github.com/matzehuels/wheeltag/pkg/archive"
	"github.com/matzehuels/wheeltag/pkg/errors"
	"github.com/matzehuels/wheeltag/pkg/observability"
	"github.com/matzehuels/wheeltag/pkg/tags"
)

// Runner processes batches of wheels.
//
// The Runner holds no per-run state. Multiple goroutines can use the same
// Runner with different options as long as their wheels do not overlap.
type Runner struct {
	Logger *log.Logger

	// now is replaced in tests.
	now func() time.Time
}

// NewRunner creates a runner. A nil logger uses log.Default().
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Logger: logger, now: time.Now}
}

// Run synchronizes the requested tags into every wheel in opts.Wheels.
//
// The request is built and validated before any wheel is touched. Wheels are
// processed one at a time in order. A failing wheel aborts the run unless
// SkipErrors is set, in which case it is recorded as skipped. The returned
// Result covers every wheel processed so far, also when err is non-nil.
func (r *Runner) Run(ctx context.Context, opts Options) (result *Result, err error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)
	logger := opts.Logger

	req, err := opts.BuildRequest()
	if err != nil {
		return nil, err
	}

	if opts.WheelDir != "" {
		if err := os.MkdirAll(opts.WheelDir, 0o755); err != nil {
			return nil, fmt.Errorf("create wheel dir: %w", err)
		}
	}

	now := r.now
	if now == nil {
		now = time.Now
	}
	result = &Result{
		RunID:   uuid.NewString(),
		Tags:    req.SubTags(),
		Started: now(),
	}
	hooks := observability.Pipeline()
	hooks.OnBatchStart(ctx, result.RunID, len(opts.Wheels), result.Tags)
	defer func() {
		result.Duration = now().Sub(result.Started)
		hooks.OnBatchComplete(ctx, result.RunID, result.Duration, err)
	}()

	syncOpts := addplat.Options{
		OutputDir:    opts.WheelDir,
		Clobber:      opts.Clobber,
		UpdateRecord: opts.UpdateRecord,
	}

	for _, wheel := range opts.Wheels {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if len(opts.Wheels) > 1 {
			logger.Info("setting platform tags", "tags", req.String(), "wheel", wheel)
		}

		hooks.OnWheelStart(ctx, wheel)
		start := now()
		entry, werr := r.process(wheel, req, syncOpts, opts.RmOrig, logger)
		if werr != nil {
			if !opts.SkipErrors {
				hooks.OnWheelComplete(ctx, wheel, "", now().Sub(start), werr)
				return result, werr
			}
			logger.Warn("cannot modify wheel", "wheel", wheel, "err", errors.UserMessage(werr))
			entry = Entry{Wheel: wheel, Status: StatusSkipped, Error: werr.Error()}
		}
		hooks.OnWheelComplete(ctx, wheel, string(entry.Status), now().Sub(start), werr)
		result.Entries = append(result.Entries, entry)
	}

	logger.Debug("batch complete",
		"run_id", result.RunID,
		"written", result.Count(StatusWritten),
		"unchanged", result.Count(StatusUnchanged),
		"skipped", result.Count(StatusSkipped))
	return result, nil
}

func (r *Runner) process(wheel string, req tags.Request, syncOpts addplat.Options, rmOrig bool, logger *log.Logger) (Entry, error) {
	plan, err := addplat.NewPlan(wheel, req, syncOpts)
	if err != nil {
		return Entry{}, err
	}
	logger.Debug("planned wheel",
		"wheel", wheel,
		"rename", plan.NeedsRename,
		"manifest", plan.NeedsManifestPatch,
		"added", len(plan.AddedTags),
		"destination", plan.Destination)
	if plan.RootIsPurelib && plan.Changed() {
		logger.Warn("adding platform tags to a wheel whose manifest declares Root-Is-Purelib: true", "wheel", wheel)
	}

	out, err := addplat.Apply(plan, syncOpts.Clobber)
	if err != nil {
		return Entry{}, err
	}
	if out == "" {
		logger.Debug("wheel already has tags", "wheel", wheel, "tags", req.String())
		return Entry{Wheel: wheel, Status: StatusUnchanged}, nil
	}

	entry := Entry{Wheel: wheel, Output: out, Status: StatusWritten}
	logger.Debug("wrote wheel", "path", out)

	if rmOrig {
		same, err := archive.SameFile(wheel, out)
		if err != nil {
			return Entry{}, err
		}
		if !same {
			if err := os.Remove(wheel); err != nil {
				return Entry{}, fmt.Errorf("remove original: %w", err)
			}
			entry.RemovedOriginal = true
			logger.Debug("removed original", "wheel", wheel)
		}
	}
	return entry, nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
}
