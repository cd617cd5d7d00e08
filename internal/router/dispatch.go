package router

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// commandPrefix covers the token plus an optional @botname suffix, so
// the payload computation drops both ("/ping@relay_bot rest" → "rest").
var commandPrefix = regexp.MustCompile(`^/\w+(@\w+)?`)

// Dispatch routes one inbound text or audio event through the fixed
// stage order: exact command, patterns, audio handlers, catch-alls.
// A failing stage (returned error or panic) stops the current event
// and is reported; the router stays live for the next event.
func (r *Router) Dispatch(ctx context.Context, ev Event) {
	ctx, span := r.tracer.Start(ctx, "router.Dispatch",
		trace.WithAttributes(
			attribute.Int64("chat.id", ev.ChatID),
			attribute.Int("message.id", ev.MessageID),
			attribute.Bool("event.voice", ev.Voice),
		))
	defer span.End()

	defer func() {
		if v := recover(); v != nil {
			r.reportPanic(ctx, ev, v)
		}
	}()

	// Events queued while the process was down arrive with timestamps
	// before the start time. Drop them before anything else runs.
	if ev.Time.Before(r.started) {
		slog.Debug("stale event dropped",
			"chat_id", ev.ChatID,
			"event_time", ev.Time,
		)
		return
	}

	handled := false
	addressedDeleted := false

	// Deleting the triggering message when the bot was mentioned or
	// replied to keeps group chats clean. Best effort, at most once.
	deleteIfAddressed := func() {
		if addressedDeleted || (!ev.MentionsBot && !ev.ReplyToBot) {
			return
		}
		addressedDeleted = true
		if err := r.platform.DeleteMessage(ctx, ev.ChatID, ev.MessageID); err != nil {
			slog.Debug("delete of addressed message failed",
				"chat_id", ev.ChatID, "message_id", ev.MessageID, "error", err)
		}
	}

	// Stage 1+2: exact command.
	if token := strings.ToLower(ExtractCommandToken(ev.Text)); token != "" {
		if cmd := r.command(token); cmd != nil {
			if r.authorize(ctx, ev, cmd.scope, false) {
				deleteIfAddressed()
				payload := strings.TrimSpace(commandPrefix.ReplaceAllString(ev.Text, ""))
				if err := cmd.fn(ctx, ev, payload); err != nil {
					r.reportErr(ctx, ev, "command /"+cmd.token, err)
					return
				}
				handled = true
			}
		}
	}

	// Stage 3: patterns, in registration order. Every matching pattern
	// fires; there is no short-circuit after the first match.
	if !handled {
		for _, p := range r.snapshotPatterns() {
			match := p.re.FindStringSubmatch(ev.Text)
			if match == nil {
				continue
			}
			if !r.authorize(ctx, ev, p.scope, true) {
				continue
			}
			deleteIfAddressed()
			if err := p.fn(ctx, ev, handled, match); err != nil {
				r.reportErr(ctx, ev, "pattern "+p.re.String(), err)
				return
			}
			handled = true
		}
	}

	// Stage 4: audio handlers.
	if ev.Voice {
		for _, h := range r.snapshotAudio() {
			if !r.scopeAllows(h.scope, ev.ChatID) {
				continue
			}
			if err := h.fn(ctx, ev, handled); err != nil {
				r.reportErr(ctx, ev, "audio handler", err)
				return
			}
		}
	}

	// Stage 5: catch-alls see every event in their scope, with the
	// final handled flag.
	for _, h := range r.snapshotCatchAll() {
		if !r.scopeAllows(h.scope, ev.ChatID) {
			continue
		}
		if err := h.fn(ctx, ev, handled); err != nil {
			r.reportErr(ctx, ev, "catch-all handler", err)
			return
		}
	}
}
