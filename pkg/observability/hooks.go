// Package observability provides hooks for metrics, tracing, and logging.
//
// Instrumentation is optional and carries no dependency on a specific backend.
// The pipeline emits events through the registered hooks; main decides what
// listens. [LogHooks] is the built-in listener used by the CLI in verbose mode.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(observability.NewLogHooks(logger))
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnLayoutStart(ctx, engine)
//	// ... run the layout program ...
//	observability.Pipeline().OnLayoutComplete(ctx, engine, cached, duration, err)
package observability

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// =============================================================================
// Hook Interfaces
// =============================================================================

// PipelineHooks receives events from the render pipeline.
type PipelineHooks interface {
	OnResolveComplete(ctx context.Context, vertices, edges int, duration time.Duration, err error)
	OnLayoutStart(ctx context.Context, engine string)
	OnLayoutComplete(ctx context.Context, engine string, cached bool, duration time.Duration, err error)
	OnRenderComplete(ctx context.Context, bytes int, duration time.Duration, err error)
}

// CacheHooks receives events from cache lookups made by the pipeline.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnResolveComplete(context.Context, int, int, time.Duration, error)      {}
func (NoopPipelineHooks) OnLayoutStart(context.Context, string)                                  {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, string, bool, time.Duration, error) {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, int, time.Duration, error)            {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Log Implementation
// =============================================================================

// LogHooks writes every event as a debug line. It implements both
// PipelineHooks and CacheHooks.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log to l.
func NewLogHooks(l *log.Logger) *LogHooks {
	return &LogHooks{logger: l.WithPrefix("hooks")}
}

func (h *LogHooks) OnResolveComplete(_ context.Context, vertices, edges int, d time.Duration, err error) {
	h.logger.Debug("resolve", "vertices", vertices, "edges", edges, "duration", d, "err", err)
}

func (h *LogHooks) OnLayoutStart(_ context.Context, engine string) {
	h.logger.Debug("layout start", "engine", engine)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, engine string, cached bool, d time.Duration, err error) {
	h.logger.Debug("layout", "engine", engine, "cached", cached, "duration", d, "err", err)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, bytes int, d time.Duration, err error) {
	h.logger.Debug("render", "bytes", bytes, "duration", d, "err", err)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "size", size)
}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any pipeline operations.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
}
