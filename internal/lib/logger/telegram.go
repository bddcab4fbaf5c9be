package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Reporter delivers a plain text message to the administrator chat.
type Reporter interface {
	SendMessage(msg string)
}

// TelegramHandler mirrors records at or above its level to the admin chat.
type TelegramHandler struct {
	next     slog.Handler
	reporter Reporter
	level    slog.Level
	attrs    []slog.Attr
}

func SetupTelegramHandler(log *slog.Logger, reporter Reporter, level slog.Level) *slog.Logger {
	if reporter == nil {
		return log
	}
	return slog.New(&TelegramHandler{
		next:     log.Handler(),
		reporter: reporter,
		level:    level,
	})
}

func (h *TelegramHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level) || level >= h.level
}

func (h *TelegramHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= h.level {
		h.reporter.SendMessage(h.format(r))
	}
	if h.next.Enabled(ctx, r.Level) {
		return h.next.Handle(ctx, r)
	}
	return nil
}

func (h *TelegramHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &TelegramHandler{
		next:     h.next.WithAttrs(attrs),
		reporter: h.reporter,
		level:    h.level,
		attrs:    merged,
	}
}

// WithGroup keeps the report flat; only the wrapped handler sees the group.
func (h *TelegramHandler) WithGroup(name string) slog.Handler {
	return &TelegramHandler{
		next:     h.next.WithGroup(name),
		reporter: h.reporter,
		level:    h.level,
		attrs:    h.attrs,
	}
}

func (h *TelegramHandler) format(r slog.Record) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s\n%s", r.Level.String(), r.Time.Format(time.DateTime), r.Message))
	for _, a := range h.attrs {
		sb.WriteString(fmt.Sprintf("\n%s: %s", a.Key, a.Value.String()))
	}
	r.Attrs(func(a slog.Attr) bool {
		sb.WriteString(fmt.Sprintf("\n%s: %s", a.Key, a.Value.String()))
		return true
	})
	return sb.String()
}
