// Package router is the routing and authorization core of tgrelay.
// It consumes platform-neutral inbound events, matches them against
// registered handlers in a fixed precedence order (command, pattern,
// audio, catch-all), gates every match on per-chat authorization, and
// tracks the messages the relay itself has sent so they can be bulk
// retracted later.
//
// All state is process-local. Handlers are registered once at startup
// and are immutable afterwards; only the authorized-chat set has
// mutation primitives.
package router

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Event is one inbound notification from the chat platform: a text
// message, an audio/voice message, or a button-press callback.
type Event struct {
	ChatID    int64
	MessageID int
	SenderID  int64
	Username  string
	Text      string
	Time      time.Time
	Voice     bool

	// MentionsBot and ReplyToBot drive the delete-if-addressed side
	// effect on the command and pattern stages.
	MentionsBot bool
	ReplyToBot  bool

	// Callback fields, populated only for button-press events.
	// ChatID/MessageID then refer to the message carrying the button
	// (zero when Telegram reports the message as inaccessible).
	CallbackID   string
	CallbackData string
}

// IsCallback reports whether the event is a button-press callback.
func (e Event) IsCallback() bool { return e.CallbackID != "" }

// SentMessage is the handle of a message the relay has sent.
type SentMessage struct {
	ChatID    int64
	MessageID int
	Payload   any // platform message object, kept opaque
}

// ParseMode selects outbound text formatting.
type ParseMode string

const (
	ModeNone     ParseMode = ""
	ModeMarkdown ParseMode = "Markdown"
	ModeHTML     ParseMode = "HTML"
)

// SendOptions carries the optional knobs of an outbound text send.
type SendOptions struct {
	Silent      bool
	Mode        ParseMode
	ReplyTo     int // message ID to reply to, 0 = none
	ReplyMarkup any // platform keyboard payload, kept opaque
}

// Platform is the narrow slice of the chat client the router needs.
// internal/telegram provides the production implementation; tests use
// in-package fakes.
type Platform interface {
	SendMessage(ctx context.Context, chatID int64, text string, opts SendOptions) (SentMessage, error)
	EditMessage(ctx context.Context, chatID int64, messageID int, text string, opts SendOptions) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	SendPoll(ctx context.Context, chatID int64, question string, options []string) (SentMessage, error)
	SendDice(ctx context.Context, chatID int64, emoji string) (SentMessage, error)
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
}

// Options configures a Router.
type Options struct {
	// DebugChat receives mirrored diagnostics and is implicitly always
	// authorized. Zero means no debug chat is configured.
	DebugChat int64

	// AuthorizedChats seeds the authorized-chat set.
	AuthorizedChats []int64

	// OutboxCapacity bounds the sent-message history. Zero selects
	// DefaultOutboxCapacity.
	OutboxCapacity int

	// NoticeDelay is how long the transient "error occurred" notice for
	// an unknown button stays visible before it is deleted. Zero selects
	// DefaultNoticeDelay.
	NoticeDelay time.Duration
}

// DefaultOutboxCapacity is the sent-message history bound used when
// Options.OutboxCapacity is zero.
const DefaultOutboxCapacity = 1000

// DefaultNoticeDelay is the grace interval for unknown-button error
// notices when Options.NoticeDelay is zero.
const DefaultNoticeDelay = 10 * time.Second

// Router owns the handler registry, the authorized-chat set, the
// outbox history and the button bridge. It is the explicit context
// object the host process constructs at startup and threads through
// all registration calls.
type Router struct {
	platform    Platform
	debugChat   int64
	started     time.Time
	noticeDelay time.Duration

	mu         sync.RWMutex
	commands   map[string]*commandHandler // key: case-folded token
	order      []string                   // command registration order
	patterns   []*patternHandler
	catchAll   []*scopedHandler
	audio      []*scopedHandler
	invalid    []InvalidFunc
	buttons    map[string]ButtonFunc
	authorized []int64

	outbox *Outbox
	tracer trace.Tracer
}

// New constructs a Router around the given platform. The moment of
// construction becomes the start time: events originating before it
// are treated as stale and dropped.
func New(p Platform, opts Options) *Router {
	capacity := opts.OutboxCapacity
	if capacity <= 0 {
		capacity = DefaultOutboxCapacity
	}
	delay := opts.NoticeDelay
	if delay <= 0 {
		delay = DefaultNoticeDelay
	}

	r := &Router{
		platform:    p,
		debugChat:   opts.DebugChat,
		started:     time.Now(),
		noticeDelay: delay,
		commands:    make(map[string]*commandHandler),
		buttons:     make(map[string]ButtonFunc),
		outbox:      NewOutbox(capacity),
		tracer:      otel.Tracer("github.com/nextlevelbuilder/tgrelay/internal/router"),
	}
	for _, chat := range opts.AuthorizedChats {
		r.addAuthorized(chat)
	}
	return r
}

// Outbox exposes the sent-message history.
func (r *Router) Outbox() *Outbox { return r.outbox }

// StartTime returns the instant routing began.
func (r *Router) StartTime() time.Time { return r.started }

// Uptime returns a human-readable duration since routing began.
func (r *Router) Uptime() string {
	return time.Since(r.started).Round(time.Second).String()
}

// AuthorizeChat adds a chat to the authorized set. Adding a chat that
// is already present is a soft error: logged, reported, state unchanged.
func (r *Router) AuthorizeChat(ctx context.Context, chatID int64) error {
	r.mu.Lock()
	for _, id := range r.authorized {
		if id == chatID {
			r.mu.Unlock()
			slog.Warn("authorize chat: already authorized", "chat_id", chatID)
			return &SoftError{Op: "authorize", ChatID: chatID}
		}
	}
	r.authorized = append(r.authorized, chatID)
	r.mu.Unlock()
	return nil
}

// DeauthorizeChat removes a chat from the authorized set. Removing an
// absent chat is a soft error. The debug chat cannot be removed; it is
// an implicit member, not a stored one.
func (r *Router) DeauthorizeChat(ctx context.Context, chatID int64) error {
	r.mu.Lock()
	for i, id := range r.authorized {
		if id == chatID {
			r.authorized = append(r.authorized[:i], r.authorized[i+1:]...)
			r.mu.Unlock()
			return nil
		}
	}
	r.mu.Unlock()
	slog.Warn("deauthorize chat: not in authorized set", "chat_id", chatID)
	return &SoftError{Op: "deauthorize", ChatID: chatID}
}

// AuthorizedChats returns a snapshot of the authorized set in
// insertion order, not including the implicit debug chat.
func (r *Router) AuthorizedChats() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]int64, len(r.authorized))
	copy(out, r.authorized)
	return out
}

// chatAuthorized reports membership in the authorized set, counting
// the implicit debug chat.
func (r *Router) chatAuthorized(chatID int64) bool {
	if r.debugChat != 0 && chatID == r.debugChat {
		return true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.authorized {
		if id == chatID {
			return true
		}
	}
	return false
}

// addAuthorized appends a chat if absent. Used by registration calls
// for auto-authorization, where duplicates are expected and silent.
func (r *Router) addAuthorized(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.authorized {
		if id == chatID {
			return
		}
	}
	r.authorized = append(r.authorized, chatID)
}

// containsChat reports whether scope explicitly lists chatID.
func containsChat(scope []int64, chatID int64) bool {
	for _, id := range scope {
		if id == chatID {
			return true
		}
	}
	return false
}
