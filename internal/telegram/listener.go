package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mymmrac/telego"

	"github.com/nextlevelbuilder/tgrelay/internal/router"
)

// Listener runs the long-polling loop and feeds updates into the
// router. Message updates dispatch synchronously in arrival order;
// callback updates dispatch each in their own goroutine, since the
// stale-button degradation path sleeps for a grace interval and must
// not stall the loop.
type Listener struct {
	client *Client
	router *router.Router

	pollCancel context.CancelFunc
	pollDone   chan struct{}
}

// NewListener pairs a client with a router.
func NewListener(c *Client, r *router.Router) *Listener {
	return &Listener{client: c, router: r}
}

// Start begins long polling for Telegram updates. Non-blocking after
// setup.
func (l *Listener) Start(ctx context.Context) error {
	slog.Info("starting telegram relay (polling mode)")

	pollCtx, cancel := context.WithCancel(ctx)
	l.pollCancel = cancel
	l.pollDone = make(chan struct{})

	updates, err := l.client.bot.UpdatesViaLongPolling(pollCtx, &telego.GetUpdatesParams{
		Timeout: 30,
		AllowedUpdates: []string{
			"message",
			"callback_query",
		},
	})
	if err != nil {
		cancel()
		return fmt.Errorf("start long polling: %w", err)
	}

	slog.Info("telegram relay connected", "username", l.client.Username())

	// Publish registered commands as the bot menu, with retry.
	go func() {
		commands := l.router.Commands()
		for attempt := 1; attempt <= 3; attempt++ {
			if err := l.client.SyncMenuCommands(pollCtx, commands); err != nil {
				slog.Warn("failed to sync telegram menu commands", "error", err, "attempt", attempt)
				if attempt < 3 {
					select {
					case <-pollCtx.Done():
						return
					case <-time.After(time.Duration(attempt*5) * time.Second):
					}
				}
			} else {
				slog.Info("telegram menu commands synced", "count", len(commands))
				return
			}
		}
	}()

	go func() {
		defer close(l.pollDone)
		for {
			select {
			case <-pollCtx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					slog.Info("telegram updates channel closed")
					return
				}
				l.handleUpdate(pollCtx, update)
			}
		}
	}()

	return nil
}

// handleUpdate converts one update and hands it to the router.
func (l *Listener) handleUpdate(ctx context.Context, update telego.Update) {
	switch {
	case update.Message != nil:
		msg := update.Message
		if isServiceMessage(msg) {
			slog.Debug("telegram service message skipped", "chat_id", msg.Chat.ID)
			return
		}
		ev := messageEvent(msg, l.client.Username())
		slog.Debug("telegram message received",
			"chat_id", ev.ChatID,
			"sender_id", ev.SenderID,
			"voice", ev.Voice,
			"text_preview", truncate(ev.Text, 60),
		)
		l.router.Dispatch(ctx, ev)

	case update.CallbackQuery != nil:
		ev := callbackEvent(update.CallbackQuery)
		slog.Debug("telegram callback received",
			"chat_id", ev.ChatID,
			"data", ev.CallbackData,
		)
		go l.router.DispatchCallback(ctx, ev)

	default:
		slog.Debug("telegram update skipped (no message)", "update_id", update.UpdateID)
	}
}

// Stop shuts the listener down by cancelling the polling context and
// waiting for the loop to exit, so Telegram releases the getUpdates
// lock before another instance starts.
func (l *Listener) Stop(_ context.Context) error {
	slog.Info("stopping telegram relay")

	if l.pollCancel != nil {
		l.pollCancel()
	}
	if l.pollDone != nil {
		select {
		case <-l.pollDone:
			slog.Info("telegram relay stopped")
		case <-time.After(10 * time.Second):
			slog.Warn("telegram polling goroutine did not exit within timeout")
		}
	}
	return nil
}

// isServiceMessage reports whether the message is a service/system
// notification (member joined, title changed, pinned, etc.) rather
// than user content.
func isServiceMessage(msg *telego.Message) bool {
	if msg.Text != "" || msg.Caption != "" {
		return false
	}
	if msg.Photo != nil || msg.Audio != nil || msg.Video != nil ||
		msg.Document != nil || msg.Voice != nil || msg.VideoNote != nil ||
		msg.Sticker != nil || msg.Animation != nil || msg.Contact != nil ||
		msg.Location != nil || msg.Venue != nil || msg.Poll != nil {
		return false
	}
	return true
}

// truncate shortens a string for log previews.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
