package router

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// TestOutbox_BulkEviction verifies the compaction policy: appending
// N+1 entries to capacity N leaves exactly ⌈N/10⌉ of the newest
// entries, not N+1 and not zero.
func TestOutbox_BulkEviction(t *testing.T) {
	tests := []struct {
		capacity int
		want     int
	}{
		{10, 1},
		{100, 10},
		{95, 10},
		{1000, 100},
		{7, 1},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("capacity_%d", tt.capacity), func(t *testing.T) {
			o := NewOutbox(tt.capacity)
			for i := 0; i < tt.capacity+1; i++ {
				o.Append(OutboxEntry{Ref: Ref{ChatID: 1, MessageID: i}})
			}
			if o.Len() != tt.want {
				t.Fatalf("len = %d, want %d", o.Len(), tt.want)
			}
			// Survivors must be the newest entries.
			entries := o.Entries()
			if first := entries[0].MessageID; first != tt.capacity+1-tt.want {
				t.Errorf("oldest survivor = %d, want %d", first, tt.capacity+1-tt.want)
			}
			if last := entries[len(entries)-1].MessageID; last != tt.capacity {
				t.Errorf("newest survivor = %d, want %d", last, tt.capacity)
			}
		})
	}
}

// TestOutbox_NoEvictionBelowCapacity verifies nothing is dropped while
// the history is within bounds.
func TestOutbox_NoEvictionBelowCapacity(t *testing.T) {
	o := NewOutbox(100)
	for i := 0; i < 100; i++ {
		o.Append(OutboxEntry{Ref: Ref{ChatID: 1, MessageID: i}})
	}
	if o.Len() != 100 {
		t.Errorf("len = %d, want 100", o.Len())
	}
}

// TestClearMessages verifies scope filtering and the exclude set:
// in-scope entries are deleted and dropped, excluded and out-of-scope
// entries are retained.
func TestClearMessages(t *testing.T) {
	r, p := newTestRouter(Options{AuthorizedChats: []int64{100, 200}})
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if _, err := r.Send(ctx, 100, fmt.Sprintf("a%d", i), SendOptions{}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := r.Send(ctx, 200, "other chat", SendOptions{}); err != nil {
		t.Fatal(err)
	}

	entries := r.Outbox().Entries()
	excluded := entries[1].Ref // second message in chat 100
	r.ClearMessages(ctx, []int64{100}, map[Ref]bool{excluded: true})

	remaining := r.Outbox().Entries()
	if len(remaining) != 2 {
		t.Fatalf("retained %d entries, want 2 (excluded + other chat)", len(remaining))
	}
	for _, e := range remaining {
		if e.ChatID == 100 && e.Ref != excluded {
			t.Errorf("non-excluded chat-100 entry retained: %v", e.Ref)
		}
	}

	if n := len(p.deletedRefs()); n != 2 {
		t.Errorf("issued %d deletes, want 2", n)
	}
	for _, ref := range p.deletedRefs() {
		if ref == excluded {
			t.Error("excluded entry was deleted")
		}
	}
}

// TestClearMessages_DeleteFailureStillDrops verifies delete failures
// are swallowed, sibling deletes still run, and the entries are
// dropped regardless.
func TestClearMessages_DeleteFailureStillDrops(t *testing.T) {
	r, p := newTestRouter(Options{AuthorizedChats: []int64{100}})
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if _, err := r.Send(ctx, 100, fmt.Sprintf("doomed %d", i), SendOptions{}); err != nil {
			t.Fatal(err)
		}
	}

	p.mu.Lock()
	p.delErr = errors.New("message already gone")
	p.mu.Unlock()

	r.ClearMessages(ctx, []int64{100}, nil)

	if n := r.Outbox().Len(); n != 0 {
		t.Errorf("outbox holds %d entries after clear, want 0", n)
	}

	p.mu.Lock()
	attempts := p.delAttempts
	p.mu.Unlock()
	if attempts != 3 {
		t.Errorf("attempted %d deletes, want 3", attempts)
	}
}
