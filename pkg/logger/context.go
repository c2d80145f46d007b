package logger

import (
	"context"
	"log/slog"
)

type tabKey struct{}

// WithTab tags ctx with the browsing context it runs in. Loggers built by
// New add it to every record as "tab".
func WithTab(ctx context.Context, tab string) context.Context {
	if tab == "" {
		return ctx
	}
	return context.WithValue(ctx, tabKey{}, tab)
}

// TabFrom returns the tab set by WithTab, or "".
func TabFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	tab, _ := ctx.Value(tabKey{}).(string)
	return tab
}

// contextHandler adds context-scoped attributes at Handle time.
type contextHandler struct {
	next slog.Handler
}

func (h contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	if tab := TabFrom(ctx); tab != "" {
		rec.AddAttrs(slog.String("tab", tab))
	}
	return h.next.Handle(ctx, rec)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{next: h.next.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{next: h.next.WithGroup(name)}
}
