package router

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// reportf writes a diagnostic to the structured log and, when a debug
// chat is configured, mirrors it there. The mirror is best effort so
// diagnostics keep working with no debug chat set (tests, local runs).
func (r *Router) reportf(ctx context.Context, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	slog.Error(msg)
	r.mirror(ctx, msg)
}

// reportErr records a failure inside a dispatch stage.
func (r *Router) reportErr(ctx context.Context, ev Event, stage string, err error) {
	slog.Error("dispatch failure",
		"stage", stage,
		"chat_id", ev.ChatID,
		"message_id", ev.MessageID,
		"error", err,
	)
	r.mirror(ctx, fmt.Sprintf("dispatch failure in %s (chat %d): %v", stage, ev.ChatID, err))
}

// reportPanic records a recovered panic with its stack trace.
func (r *Router) reportPanic(ctx context.Context, ev Event, v any) {
	stack := debug.Stack()
	slog.Error("panic during dispatch",
		"chat_id", ev.ChatID,
		"panic", v,
		"stack", string(stack),
	)
	r.mirror(ctx, fmt.Sprintf("panic during dispatch (chat %d): %v\n\n%s", ev.ChatID, v, stack))
}

// mirror sends a diagnostic to the debug chat when one is configured.
// Mirror failures are swallowed: the log sink already has the message
// and a broken platform must not take reporting down with it.
func (r *Router) mirror(ctx context.Context, text string) {
	if r.debugChat == 0 {
		return
	}
	if _, err := r.platform.SendMessage(ctx, r.debugChat, text, SendOptions{Silent: true}); err != nil {
		slog.Debug("debug chat mirror failed", "error", err)
	}
}
