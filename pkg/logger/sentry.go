package logger

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
)

// SentryReportingHandler wraps another slog.Handler and forwards every
// record at or above its configured level (slog.LevelError when built by
// NewSlogLoggerWithSentry) to Sentry as a captured event, in addition to
// letting the wrapped handler do its normal formatting and output.
type SentryReportingHandler struct {
	next  slog.Handler
	level slog.Level
}

// NewSentryReportingHandler wraps next so records at or above level are also
// reported to Sentry. Call sentry.Init before constructing a logger with
// this handler; if Sentry was never initialized, CaptureEvent is a no-op.
func NewSentryReportingHandler(next slog.Handler, level slog.Level) *SentryReportingHandler {
	return &SentryReportingHandler{next: next, level: level}
}

func (h *SentryReportingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *SentryReportingHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= h.level {
		h.report(r)
	}
	return h.next.Handle(ctx, r)
}

func (h *SentryReportingHandler) report(r slog.Record) {
	event := sentry.NewEvent()
	event.Message = r.Message
	event.Level = sentryLevel(r.Level)
	event.Timestamp = r.Time
	event.Extra = make(map[string]interface{})

	r.Attrs(func(a slog.Attr) bool {
		event.Extra[a.Key] = a.Value.Any()
		return true
	})

	sentry.CaptureEvent(event)
}

func sentryLevel(level slog.Level) sentry.Level {
	switch {
	case level >= slog.LevelError:
		return sentry.LevelError
	case level >= slog.LevelWarn:
		return sentry.LevelWarning
	case level >= slog.LevelInfo:
		return sentry.LevelInfo
	default:
		return sentry.LevelDebug
	}
}

func (h *SentryReportingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SentryReportingHandler{next: h.next.WithAttrs(attrs), level: h.level}
}

func (h *SentryReportingHandler) WithGroup(name string) slog.Handler {
	return &SentryReportingHandler{next: h.next.WithGroup(name), level: h.level}
}

// NewSlogLoggerWithSentry builds a SlogLogger identical to NewSlogLogger but
// whose Error-level (and above) records are also sent to Sentry via dsn.
// Call sentry.Flush after the process is done logging to drain the queue.
func NewSlogLoggerWithSentry(minLevel slog.Level, writer io.Writer, dsn string) (*SlogLogger, error) {
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		AttachStacktrace: true,
	}); err != nil {
		return nil, err
	}

	base := NewSlogLogger(minLevel, writer)
	reporting := NewSentryReportingHandler(base.logger.Handler(), slog.LevelError)
	return &SlogLogger{logger: slog.New(reporting)}, nil
}

// FlushSentry blocks up to timeout waiting for buffered Sentry events to
// send, for use during graceful shutdown.
func FlushSentry(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}
