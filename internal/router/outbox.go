package router

import (
	"sync"
)

// Ref identifies a sent message by chat and message id.
type Ref struct {
	ChatID    int64
	MessageID int
}

// OutboxEntry is one retained sent-message handle.
type OutboxEntry struct {
	Ref
	Payload any
}

// Outbox is the bounded history of messages the relay has sent.
// Appends happen as sends complete, so entry order reflects completion
// order of the underlying network calls, not issuance order.
//
// Eviction is by bulk compaction: when an append pushes the length
// past capacity, only the newest tenth of capacity survives. The
// history momentarily holds capacity+1 entries rather than paying a
// strict per-insert sliding window.
type Outbox struct {
	mu       sync.Mutex
	capacity int
	entries  []OutboxEntry
}

// NewOutbox creates an Outbox holding at most capacity entries between
// compactions.
func NewOutbox(capacity int) *Outbox {
	return &Outbox{capacity: capacity}
}

// Append records a sent message, compacting when the history exceeds
// capacity.
func (o *Outbox) Append(e OutboxEntry) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.entries = append(o.entries, e)
	if len(o.entries) > o.capacity {
		keep := (o.capacity + 9) / 10
		kept := make([]OutboxEntry, keep)
		copy(kept, o.entries[len(o.entries)-keep:])
		o.entries = kept
	}
}

// Len returns the number of retained entries.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.entries)
}

// Entries returns a snapshot of the retained history, oldest first.
func (o *Outbox) Entries() []OutboxEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]OutboxEntry, len(o.entries))
	copy(out, o.entries)
	return out
}

// take removes and returns every entry whose chat is in chats and
// whose Ref is not excluded. Excluded and out-of-scope entries stay.
func (o *Outbox) take(chats []int64, exclude map[Ref]bool) []OutboxEntry {
	o.mu.Lock()
	defer o.mu.Unlock()

	var taken []OutboxEntry
	kept := o.entries[:0]
	for _, e := range o.entries {
		if containsChat(chats, e.ChatID) && !exclude[e.Ref] {
			taken = append(taken, e)
		} else {
			kept = append(kept, e)
		}
	}
	o.entries = kept
	return taken
}
