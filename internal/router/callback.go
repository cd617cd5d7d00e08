package router

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const unknownButtonNotice = "An error occurred, please try again."

// DispatchCallback routes one button-press event. Known identifiers
// run their handler and the returned string becomes the callback
// acknowledgement (leading '!' requests a blocking alert). Unknown
// identifiers (typically buttons minted before a restart) degrade
// gracefully: the carrier message is deleted, a transient error notice
// is shown for the configured grace interval, then removed. The
// platform callback is answered in every branch so the pressing
// client never shows a perpetual loading state.
func (r *Router) DispatchCallback(ctx context.Context, ev Event) {
	ctx, span := r.tracer.Start(ctx, "router.DispatchCallback",
		trace.WithAttributes(
			attribute.Int64("chat.id", ev.ChatID),
			attribute.String("callback.data", ev.CallbackData),
		))
	defer span.End()

	defer func() {
		if v := recover(); v != nil {
			r.reportPanic(ctx, ev, v)
		}
	}()

	ackText := ""
	ackAlert := false

	if fn := r.button(ev.CallbackData); fn != nil {
		text, err := fn(ctx, ev)
		if err != nil {
			r.reportErr(ctx, ev, "button "+ev.CallbackData, err)
		} else if text != "" {
			if strings.HasPrefix(text, "!") {
				ackAlert = true
				text = text[1:]
			}
			ackText = text
		}
	} else {
		slog.Warn("callback with unknown button id",
			"data", ev.CallbackData, "chat_id", ev.ChatID)
		r.expireUnknownButton(ctx, ev)
	}

	if err := r.platform.AnswerCallback(ctx, ev.CallbackID, ackText, ackAlert); err != nil {
		slog.Debug("answer callback failed", "callback_id", ev.CallbackID, "error", err)
	}
}

// expireUnknownButton is the degradation path for identifiers the
// bridge no longer knows: remove the message carrying the dead button,
// show a short-lived error notice, and clean the notice up after the
// grace interval. Every step is best effort.
func (r *Router) expireUnknownButton(ctx context.Context, ev Event) {
	if ev.ChatID != 0 {
		if err := r.platform.DeleteMessage(ctx, ev.ChatID, ev.MessageID); err != nil {
			slog.Debug("delete of stale button message failed",
				"chat_id", ev.ChatID, "message_id", ev.MessageID, "error", err)
		}
	}

	noticeChat := ev.ChatID
	if noticeChat == 0 {
		noticeChat = r.debugChat
	}
	if noticeChat == 0 {
		return
	}

	notice, err := r.platform.SendMessage(ctx, noticeChat, unknownButtonNotice, SendOptions{Silent: true})
	if err != nil {
		slog.Debug("send of error notice failed", "chat_id", noticeChat, "error", err)
		return
	}

	select {
	case <-ctx.Done():
	case <-time.After(r.noticeDelay):
	}
	if err := r.platform.DeleteMessage(ctx, notice.ChatID, notice.MessageID); err != nil {
		slog.Debug("delete of error notice failed",
			"chat_id", notice.ChatID, "message_id", notice.MessageID, "error", err)
	}
}
