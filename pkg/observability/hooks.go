// Package observability provides hooks for metrics and tracing.
//
// Consumers register hooks at startup to receive events about batch runs and
// archive rewrites without the libraries depending on a metrics backend:
//
//	func main() {
//	    observability.SetPipelineHooks(&myPipelineHooks{})
//	    observability.SetArchiveHooks(&myArchiveHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnWheelStart(ctx, wheel)
//	// ... synchronize ...
//	observability.Pipeline().OnWheelComplete(ctx, wheel, "written", duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from batch runs.
type PipelineHooks interface {
	OnBatchStart(ctx context.Context, runID string, wheels int, tags []string)
	OnBatchComplete(ctx context.Context, runID string, duration time.Duration, err error)

	OnWheelStart(ctx context.Context, wheel string)
	// OnWheelComplete reports the wheel's status: written, unchanged or
	// skipped. status is empty when err aborted the run.
	OnWheelComplete(ctx context.Context, wheel, status string, duration time.Duration, err error)
}

// =============================================================================
// Archive Hooks
// =============================================================================

// ArchiveHooks receives events from archive rewrites.
type ArchiveHooks interface {
	// OnRewrite records a finalized archive: its path, the number of patched
	// entries and the bytes written.
	OnRewrite(path string, patched int, size int64, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnBatchStart(context.Context, string, int, []string)                   {}
func (NoopPipelineHooks) OnBatchComplete(context.Context, string, time.Duration, error)         {}
func (NoopPipelineHooks) OnWheelStart(context.Context, string)                                  {}
func (NoopPipelineHooks) OnWheelComplete(context.Context, string, string, time.Duration, error) {}

// NoopArchiveHooks is a no-op implementation of ArchiveHooks.
type NoopArchiveHooks struct{}

func (NoopArchiveHooks) OnRewrite(string, int, int64, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	archiveHooks  ArchiveHooks  = NoopArchiveHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetArchiveHooks registers custom archive hooks. A nil h is ignored.
func SetArchiveHooks(h ArchiveHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		archiveHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Archive returns the registered archive hooks.
func Archive() ArchiveHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return archiveHooks
}

// Reset restores all hooks to their no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	archiveHooks = NoopArchiveHooks{}
}
