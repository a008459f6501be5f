package chat

import (
	"sort"
	"time"

	"quote-desk-backend/internal/model"
)

const DefaultContinuationWindow = 5 * time.Minute

// Orderer puts the messages of one conversation in display order. It holds
// no state besides its window and is safe for concurrent use.
type Orderer struct {
	ContinuationWindow time.Duration
}

func NewOrderer(window time.Duration) Orderer {
	if window <= 0 {
		window = DefaultContinuationWindow
	}
	return Orderer{ContinuationWindow: window}
}

// Less orders by createdAt, then by id, which makes the order total even
// when clocks collide.
func Less(a, b model.MessageItem) bool {
	if a.CreatedAt != b.CreatedAt {
		return a.CreatedAt < b.CreatedAt
	}
	return a.MessageID < b.MessageID
}

// Sort returns a sorted copy; the input is left untouched.
func (o Orderer) Sort(messages []model.MessageItem) []model.MessageItem {
	out := make([]model.MessageItem, len(messages))
	copy(out, messages)
	sort.SliceStable(out, func(i, j int) bool {
		return Less(out[i], out[j])
	})
	return out
}

// IsContinuation reports whether msg belongs to the same visual burst as the
// message right before it.
func (o Orderer) IsContinuation(msg model.MessageItem, previous *model.MessageItem) bool {
	if previous == nil {
		return false
	}
	if msg.SenderIdentity != previous.SenderIdentity {
		return false
	}
	if msg.Kind.SystemAuthored() || previous.Kind.SystemAuthored() {
		return false
	}
	if msg.Deleted || previous.Deleted {
		return false
	}

	window := o.ContinuationWindow
	if window <= 0 {
		window = DefaultContinuationWindow
	}
	return msg.CreatedAt-previous.CreatedAt < window.Milliseconds()
}

// InsertionIndex is the position at which msg can be inserted without
// breaking the order of sorted.
func (o Orderer) InsertionIndex(sorted []model.MessageItem, msg model.MessageItem) int {
	return sort.Search(len(sorted), func(i int) bool {
		return Less(msg, sorted[i])
	})
}

// Continuations flags each message of an already sorted slice.
func (o Orderer) Continuations(sorted []model.MessageItem) []bool {
	flags := make([]bool, len(sorted))
	for i := 1; i < len(sorted); i++ {
		flags[i] = o.IsContinuation(sorted[i], &sorted[i-1])
	}
	return flags
}
