package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

// contextHandler decorates a stdlib slog handler with update metadata carried in context.
type contextHandler struct {
	next slog.Handler
}

func newContextHandler(w io.Writer, format logFormat, level slog.Leveler) *contextHandler {
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: replaceAttr}
	var next slog.Handler
	if format == formatKV {
		next = slog.NewTextHandler(w, opts)
	} else {
		next = slog.NewJSONHandler(w, opts)
	}
	return &contextHandler{next: next}
}

// Enabled reports whether the handler allows processing the provided level.
func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle enriches the record with rid/update/user/chat/handler attributes before delegating.
func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	hasEvent := false
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "event" {
			hasEvent = true
		}
		out.AddAttrs(a)
		return true
	})
	if !hasEvent && r.Message != "" {
		out.AddAttrs(slog.String("event", r.Message))
	}
	out.AddAttrs(contextAttrs(ctx)...)
	return h.next.Handle(ctx, out)
}

// WithAttrs returns a handler enriched with attrs.
func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{next: h.next.WithAttrs(attrs)}
}

// WithGroup returns a handler with an additional group prefix.
func (h *contextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &contextHandler{next: h.next.WithGroup(name)}
}

func contextAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var attrs []slog.Attr
	if rid := RIDFrom(ctx); rid != "" {
		attrs = append(attrs, slog.String("rid", CompactRID(rid)))
	}
	if id := UpdateIDFrom(ctx); id != 0 {
		attrs = append(attrs, slog.Int("update_id", id))
	}
	if id := UserIDFrom(ctx); id != 0 {
		attrs = append(attrs, slog.Int64("user_id", id))
	}
	if id := ChatIDFrom(ctx); id != 0 {
		attrs = append(attrs, slog.Int64("chat_id", id))
	}
	if handler := HandlerFrom(ctx); handler != "" {
		attrs = append(attrs, slog.String("handler", handler))
	}
	return attrs
}

func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		return slog.String("ts", a.Value.Time().UTC().Truncate(time.Millisecond).Format(timeFormatMillis))
	case slog.MessageKey:
		// The message is mirrored into "event" by Handle.
		return slog.Attr{}
	}
	if a.Value.Kind() == slog.KindDuration {
		return slog.Int64(durationKey(a.Key), RoundMS(a.Value.Duration()).Milliseconds())
	}
	if a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, strings.TrimSpace(a.Value.String()))
	}
	return a
}

func durationKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_ms"):
		return key
	default:
		return key + "_ms"
	}
}
