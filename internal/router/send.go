package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// ErrChatNotAuthorized rejects outbound sends to chats outside the
// authorized set, before any network call is made.
var ErrChatNotAuthorized = errors.New("chat not in authorized set")

// Send delivers text to a chat and records the sent handle in the
// outbox. Targets outside the authorized set are rejected up front and
// reported.
func (r *Router) Send(ctx context.Context, chatID int64, text string, opts SendOptions) (SentMessage, error) {
	if !r.chatAuthorized(chatID) {
		r.reportf(ctx, "outbound send rejected: chat %d not authorized", chatID)
		return SentMessage{}, fmt.Errorf("send to chat %d: %w", chatID, ErrChatNotAuthorized)
	}
	sent, err := r.platform.SendMessage(ctx, chatID, text, opts)
	if err != nil {
		return SentMessage{}, fmt.Errorf("send to chat %d: %w", chatID, err)
	}
	r.outbox.Append(OutboxEntry{Ref: Ref{ChatID: sent.ChatID, MessageID: sent.MessageID}, Payload: sent.Payload})
	return sent, nil
}

// SendPoll delivers a poll and records the sent handle in the outbox.
func (r *Router) SendPoll(ctx context.Context, chatID int64, question string, options []string) (SentMessage, error) {
	if !r.chatAuthorized(chatID) {
		r.reportf(ctx, "outbound poll rejected: chat %d not authorized", chatID)
		return SentMessage{}, fmt.Errorf("poll to chat %d: %w", chatID, ErrChatNotAuthorized)
	}
	sent, err := r.platform.SendPoll(ctx, chatID, question, options)
	if err != nil {
		return SentMessage{}, fmt.Errorf("poll to chat %d: %w", chatID, err)
	}
	r.outbox.Append(OutboxEntry{Ref: Ref{ChatID: sent.ChatID, MessageID: sent.MessageID}, Payload: sent.Payload})
	return sent, nil
}

// SendDice delivers a randomized animation result and records the
// sent handle in the outbox. emoji "" uses the platform default.
func (r *Router) SendDice(ctx context.Context, chatID int64, emoji string) (SentMessage, error) {
	if !r.chatAuthorized(chatID) {
		r.reportf(ctx, "outbound dice rejected: chat %d not authorized", chatID)
		return SentMessage{}, fmt.Errorf("dice to chat %d: %w", chatID, ErrChatNotAuthorized)
	}
	sent, err := r.platform.SendDice(ctx, chatID, emoji)
	if err != nil {
		return SentMessage{}, fmt.Errorf("dice to chat %d: %w", chatID, err)
	}
	r.outbox.Append(OutboxEntry{Ref: Ref{ChatID: sent.ChatID, MessageID: sent.MessageID}, Payload: sent.Payload})
	return sent, nil
}

// Edit rewrites the text (and markup) of a previously sent message.
func (r *Router) Edit(ctx context.Context, chatID int64, messageID int, text string, opts SendOptions) error {
	if err := r.platform.EditMessage(ctx, chatID, messageID, text, opts); err != nil {
		return fmt.Errorf("edit message %d in chat %d: %w", messageID, chatID, err)
	}
	return nil
}

// Delete removes a single message.
func (r *Router) Delete(ctx context.Context, chatID int64, messageID int) error {
	if err := r.platform.DeleteMessage(ctx, chatID, messageID); err != nil {
		return fmt.Errorf("delete message %d in chat %d: %w", messageID, chatID, err)
	}
	return nil
}

// ClearMessages retracts every outbox entry belonging to a chat in
// chats, except entries listed in exclude. Deletes fan out as one
// unordered batch; a failing delete neither aborts its siblings nor
// restores the entry; failures are swallowed.
func (r *Router) ClearMessages(ctx context.Context, chats []int64, exclude map[Ref]bool) {
	targets := r.outbox.take(chats, exclude)
	if len(targets) == 0 {
		return
	}

	var g errgroup.Group
	for _, e := range targets {
		g.Go(func() error {
			if err := r.platform.DeleteMessage(ctx, e.ChatID, e.MessageID); err != nil {
				slog.Debug("bulk delete failed",
					"chat_id", e.ChatID, "message_id", e.MessageID, "error", err)
			}
			return nil
		})
	}
	g.Wait()
	slog.Info("outbox cleared", "chats", chats, "deleted", len(targets))
}
