// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Hooks are passed to the
// components that emit events (source clients, the pipeline runner) at
// construction time; components default to the no-op implementations.
//
// # Usage
//
//	hooks := observability.NewLogHooks(logger)
//	client := integrations.NewClient("estat", limits, policy, integrations.WithHooks(hooks))
//	runner := pipeline.NewRunner(cfg, logger, pipeline.WithHooks(hooks))
//
// Components call hooks to emit events:
//
//	hooks.OnToolStart(ctx, "generate-chart")
//	// ... do work ...
//	hooks.OnToolComplete(ctx, "generate-chart", duration, err)
package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// =============================================================================
// Tool Hooks
// =============================================================================

// ToolHooks receives events from tool invocations in the pipeline runner.
type ToolHooks interface {
	OnToolStart(ctx context.Context, tool string)
	OnToolComplete(ctx context.Context, tool string, duration time.Duration, err error)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from source client HTTP operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, source, method, url string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, source, method, url string, statusCode int, duration time.Duration)

	// OnError records a transport failure (no response received).
	OnError(ctx context.Context, source, method, url string, err error)

	// OnRetry records a backoff before the next attempt.
	OnRetry(ctx context.Context, source string, attempt int, delay time.Duration, err error)

	// OnThrottle records time spent waiting for rate-limit admission.
	OnThrottle(ctx context.Context, source string, waited time.Duration)
}

// Hooks combines all hook categories.
type Hooks interface {
	ToolHooks
	HTTPHooks
}

// =============================================================================
// No-op Implementations
// =============================================================================

// Noop is a no-op implementation of Hooks.
type Noop struct{}

func (Noop) OnToolStart(context.Context, string)                                   {}
func (Noop) OnToolComplete(context.Context, string, time.Duration, error)          {}
func (Noop) OnRequest(context.Context, string, string, string)                     {}
func (Noop) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (Noop) OnError(context.Context, string, string, string, error)                {}
func (Noop) OnRetry(context.Context, string, int, time.Duration, error)            {}
func (Noop) OnThrottle(context.Context, string, time.Duration)                     {}

// =============================================================================
// Logging Implementation
// =============================================================================

// throttleLogThreshold suppresses throttle logs for negligible waits.
const throttleLogThreshold = 10 * time.Millisecond

// LogHooks writes every event to a charm logger at debug level, except
// failures which are logged as warnings.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks creates logging hooks. A nil logger uses log.Default().
func NewLogHooks(l *log.Logger) *LogHooks {
	if l == nil {
		l = log.Default()
	}
	return &LogHooks{Logger: l}
}

func (h *LogHooks) OnToolStart(_ context.Context, tool string) {
	h.Logger.Debug("tool call", "tool", tool)
}

func (h *LogHooks) OnToolComplete(_ context.Context, tool string, d time.Duration, err error) {
	if err != nil {
		h.Logger.Warn("tool failed", "tool", tool, "duration", d.Round(time.Millisecond), "err", err)
		return
	}
	h.Logger.Debug("tool done", "tool", tool, "duration", d.Round(time.Millisecond))
}

func (h *LogHooks) OnRequest(_ context.Context, source, method, url string) {
	h.Logger.Debug("request", "source", source, "method", method, "url", url)
}

func (h *LogHooks) OnResponse(_ context.Context, source, _, _ string, status int, d time.Duration) {
	h.Logger.Debug("response", "source", source, "status", status, "duration", d.Round(time.Millisecond))
}

func (h *LogHooks) OnError(_ context.Context, source, _, url string, err error) {
	h.Logger.Warn("request failed", "source", source, "url", url, "err", err)
}

func (h *LogHooks) OnRetry(_ context.Context, source string, attempt int, delay time.Duration, err error) {
	h.Logger.Warn("retrying", "source", source, "attempt", attempt+1, "delay", delay, "err", err)
}

func (h *LogHooks) OnThrottle(_ context.Context, source string, waited time.Duration) {
	if waited < throttleLogThreshold {
		return
	}
	h.Logger.Debug("throttled", "source", source, "waited", waited.Round(time.Millisecond))
}

var (
	_ Hooks = Noop{}
	_ Hooks = (*LogHooks)(nil)
)
