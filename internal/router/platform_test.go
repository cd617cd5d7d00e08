package router

import (
	"context"
	"sync"
	"time"
)

// fakePlatform records outbound calls for assertions. Safe for
// concurrent use; ClearMessages fans deletes out across goroutines.
type fakePlatform struct {
	mu       sync.Mutex
	nextID   int
	sent     []fakeSent
	deleted  []Ref
	answers  []fakeAnswer
	sendErr  error
	delErr   error
	editErrs int

	delAttempts int
}

type fakeSent struct {
	ChatID    int64
	MessageID int
	Text      string
	Opts      SendOptions
}

type fakeAnswer struct {
	CallbackID string
	Text       string
	Alert      bool
}

func (f *fakePlatform) SendMessage(_ context.Context, chatID int64, text string, opts SendOptions) (SentMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return SentMessage{}, f.sendErr
	}
	f.nextID++
	f.sent = append(f.sent, fakeSent{ChatID: chatID, MessageID: f.nextID, Text: text, Opts: opts})
	return SentMessage{ChatID: chatID, MessageID: f.nextID}, nil
}

func (f *fakePlatform) EditMessage(_ context.Context, _ int64, _ int, _ string, _ SendOptions) error {
	return nil
}

func (f *fakePlatform) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delAttempts++
	if f.delErr != nil {
		return f.delErr
	}
	f.deleted = append(f.deleted, Ref{ChatID: chatID, MessageID: messageID})
	return nil
}

func (f *fakePlatform) SendPoll(ctx context.Context, chatID int64, question string, _ []string) (SentMessage, error) {
	return f.SendMessage(ctx, chatID, question, SendOptions{})
}

func (f *fakePlatform) SendDice(ctx context.Context, chatID int64, emoji string) (SentMessage, error) {
	return f.SendMessage(ctx, chatID, emoji, SendOptions{})
}

func (f *fakePlatform) AnswerCallback(_ context.Context, id, text string, alert bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, fakeAnswer{CallbackID: id, Text: text, Alert: alert})
	return nil
}

func (f *fakePlatform) sentMessages() []fakeSent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]fakeSent, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakePlatform) deletedRefs() []Ref {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Ref, len(f.deleted))
	copy(out, f.deleted)
	return out
}

func (f *fakePlatform) callbackAnswers() []fakeAnswer {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]fakeAnswer, len(f.answers))
	copy(out, f.answers)
	return out
}

// newTestRouter builds a router over a fresh fake platform with a
// short notice delay so callback tests stay fast.
func newTestRouter(opts Options) (*Router, *fakePlatform) {
	if opts.NoticeDelay == 0 {
		opts.NoticeDelay = time.Millisecond
	}
	p := &fakePlatform{}
	return New(p, opts), p
}

// textEvent builds a text message event stamped after router start.
func textEvent(chatID int64, text string) Event {
	return Event{
		ChatID:    chatID,
		MessageID: 1,
		SenderID:  7,
		Text:      text,
		Time:      time.Now().Add(time.Second),
	}
}
