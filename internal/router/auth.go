package router

import (
	"context"
	"fmt"
	"log/slog"
)

// SoftError marks a non-fatal bookkeeping rejection, such as
// authorizing a chat twice or deauthorizing an absent one.
type SoftError struct {
	Op     string
	ChatID int64
}

func (e *SoftError) Error() string {
	return fmt.Sprintf("%s chat %d: no-op", e.Op, e.ChatID)
}

// authorize decides whether ev may trigger a handler restricted to
// scope. It runs in two modes: exact-command mode surfaces a
// diagnostic when a known chat sends a command it does not own, while
// pattern mode skips silently, since many patterns are tried per event
// and most simply do not apply to the chat.
//
// Order of checks:
//  1. events older than the router's start time are stale and rejected
//     without any report;
//  2. explicit membership in scope allows;
//  3. empty scope allows any chat in the authorized set;
//  4. a chat that is authorized but outside a pattern's scope is
//     skipped silently;
//  5. everything else runs the invalid-handler chain and, unless one
//     of them claims the event, emits an unauthorized report.
func (r *Router) authorize(ctx context.Context, ev Event, scope []int64, patternMode bool) bool {
	if ev.Time.Before(r.started) {
		slog.Debug("stale event rejected",
			"chat_id", ev.ChatID,
			"event_time", ev.Time,
			"started", r.started,
		)
		return false
	}

	if containsChat(scope, ev.ChatID) {
		return true
	}

	inSet := r.chatAuthorized(ev.ChatID)
	if len(scope) == 0 && inSet {
		return true
	}
	if inSet && patternMode {
		return false
	}

	handled := false
	for _, fn := range r.snapshotInvalid() {
		if fn(ctx, ev) {
			handled = true
		}
	}
	if !handled {
		r.reportf(ctx, "unauthorized access: chat %d (sender %d @%s) text %q",
			ev.ChatID, ev.SenderID, ev.Username, ev.Text)
	}
	return false
}

// scopeAllows is the quiet variant used by the audio and catch-all
// stages: explicit scope membership, or an empty scope together with
// membership in the authorized set. No diagnostics either way.
func (r *Router) scopeAllows(scope []int64, chatID int64) bool {
	if len(scope) == 0 {
		return r.chatAuthorized(chatID)
	}
	return containsChat(scope, chatID)
}
