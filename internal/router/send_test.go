package router

import (
	"context"
	"errors"
	"testing"
)

// TestSend_UnauthorizedTargetRejected verifies a send to a chat
// outside the authorized set fails before any network call and is
// reported to the debug chat.
func TestSend_UnauthorizedTargetRejected(t *testing.T) {
	r, p := newTestRouter(Options{DebugChat: 42, AuthorizedChats: []int64{100}})

	_, err := r.Send(context.Background(), 999, "leak", SendOptions{})
	if !errors.Is(err, ErrChatNotAuthorized) {
		t.Fatalf("err = %v, want ErrChatNotAuthorized", err)
	}

	for _, s := range p.sentMessages() {
		if s.ChatID == 999 {
			t.Error("rejected send still reached the platform")
		}
	}
	if n := len(p.sentMessages()); n != 1 {
		t.Errorf("expected 1 mirrored rejection report, got %d", n)
	}
	if r.Outbox().Len() != 0 {
		t.Error("rejected send appended to outbox")
	}
}

// TestSend_AppendsOutbox verifies successful sends land in the outbox
// with the platform-assigned message id.
func TestSend_AppendsOutbox(t *testing.T) {
	r, _ := newTestRouter(Options{AuthorizedChats: []int64{100}})

	sent, err := r.Send(context.Background(), 100, "hello", SendOptions{Mode: ModeMarkdown, Silent: true})
	if err != nil {
		t.Fatal(err)
	}

	entries := r.Outbox().Entries()
	if len(entries) != 1 {
		t.Fatalf("outbox len = %d, want 1", len(entries))
	}
	if entries[0].Ref != (Ref{ChatID: sent.ChatID, MessageID: sent.MessageID}) {
		t.Errorf("outbox entry %v does not match sent handle %v", entries[0].Ref, sent)
	}
}

// TestSend_DebugChatAlwaysSendable verifies the implicit debug chat
// authorization extends to outbound sends.
func TestSend_DebugChatAlwaysSendable(t *testing.T) {
	r, _ := newTestRouter(Options{DebugChat: 42})

	if _, err := r.Send(context.Background(), 42, "diag", SendOptions{}); err != nil {
		t.Fatalf("send to debug chat failed: %v", err)
	}
}

// TestSend_TransportFailurePropagates verifies platform errors surface
// to the caller and nothing is recorded.
func TestSend_TransportFailurePropagates(t *testing.T) {
	r, p := newTestRouter(Options{AuthorizedChats: []int64{100}})
	p.sendErr = errors.New("telegram 502")

	if _, err := r.Send(context.Background(), 100, "hello", SendOptions{}); err == nil {
		t.Fatal("expected transport error")
	}
	if r.Outbox().Len() != 0 {
		t.Error("failed send appended to outbox")
	}
}

// TestSendPollAndDice verifies the other outbound kinds share the
// authorization gate and outbox bookkeeping.
func TestSendPollAndDice(t *testing.T) {
	r, _ := newTestRouter(Options{AuthorizedChats: []int64{100}})
	ctx := context.Background()

	if _, err := r.SendPoll(ctx, 100, "lunch?", []string{"yes", "no"}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.SendDice(ctx, 100, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := r.SendPoll(ctx, 999, "leak?", []string{"a"}); !errors.Is(err, ErrChatNotAuthorized) {
		t.Errorf("poll to unauthorized chat: err = %v", err)
	}
	if _, err := r.SendDice(ctx, 999, ""); !errors.Is(err, ErrChatNotAuthorized) {
		t.Errorf("dice to unauthorized chat: err = %v", err)
	}

	if n := r.Outbox().Len(); n != 2 {
		t.Errorf("outbox len = %d, want 2", n)
	}
}
