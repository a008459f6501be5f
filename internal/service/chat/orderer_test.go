package chat

import (
	"reflect"
	"testing"

	"quote-desk-backend/internal/model"
)

func msg(id, sender string, createdAt int64) model.MessageItem {
	return model.MessageItem{
		MessageID:      id,
		SenderIdentity: sender,
		CreatedAt:      createdAt,
		Kind:           model.MessageKindText,
	}
}

func ids(messages []model.MessageItem) []string {
	out := make([]string, len(messages))
	for i, m := range messages {
		out[i] = m.MessageID
	}
	return out
}

func TestSortOrdersByTimeThenID(t *testing.T) {
	o := NewOrderer(0)
	input := []model.MessageItem{
		msg("c", "a", 2000),
		msg("b", "a", 1000),
		msg("a", "b", 1000),
		msg("d", "a", 500),
	}

	sorted := o.Sort(input)
	if got, want := ids(sorted), []string{"d", "a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected order %v, want %v", got, want)
	}
	if input[0].MessageID != "c" {
		t.Fatalf("input was mutated")
	}
}

func TestSortIsIdempotent(t *testing.T) {
	o := NewOrderer(0)
	sorted := o.Sort([]model.MessageItem{
		msg("3", "a", 10),
		msg("1", "a", 10),
		msg("2", "b", 5),
	})
	again := o.Sort(sorted)
	if !reflect.DeepEqual(sorted, again) {
		t.Fatalf("sorting a sorted slice changed it: %v vs %v", ids(sorted), ids(again))
	}
}

func TestIsContinuation(t *testing.T) {
	o := NewOrderer(DefaultContinuationWindow)
	first := msg("1", "a@x.com", 1000)

	if !o.IsContinuation(msg("2", "a@x.com", 1100), &first) {
		t.Fatalf("expected same sender inside window to continue")
	}
	if o.IsContinuation(msg("3", "admin1", 1100), &first) {
		t.Fatalf("different sender must not continue")
	}
	if o.IsContinuation(first, nil) {
		t.Fatalf("first message cannot continue")
	}

	late := msg("4", "a@x.com", 1000+DefaultContinuationWindow.Milliseconds())
	if o.IsContinuation(late, &first) {
		t.Fatalf("message at the window edge must not continue")
	}

	system := msg("5", "a@x.com", 1200)
	system.Kind = model.MessageKindSystem
	if o.IsContinuation(system, &first) {
		t.Fatalf("system message must not continue")
	}

	approved := msg("7", "admin", 1300)
	approved.Kind = model.MessageKindStatusUpdate
	rejected := msg("8", "admin", 1400)
	rejected.Kind = model.MessageKindStatusUpdate
	if o.IsContinuation(rejected, &approved) {
		t.Fatalf("consecutive status updates must not group")
	}

	deleted := msg("6", "a@x.com", 1200)
	deleted.Deleted = true
	if o.IsContinuation(deleted, &first) {
		t.Fatalf("deleted message must not continue")
	}
}

func TestInsertionIndexKeepsOrder(t *testing.T) {
	o := NewOrderer(0)
	sorted := o.Sort([]model.MessageItem{
		msg("a", "x", 100),
		msg("c", "x", 300),
		msg("d", "x", 300),
	})

	cases := []struct {
		message model.MessageItem
		want    int
	}{
		{msg("0", "x", 50), 0},
		{msg("b", "x", 200), 1},
		{msg("cc", "x", 300), 2},
		{msg("z", "x", 900), 3},
	}
	for _, tc := range cases {
		if got := o.InsertionIndex(sorted, tc.message); got != tc.want {
			t.Fatalf("InsertionIndex(%s) = %d, want %d", tc.message.MessageID, got, tc.want)
		}
	}
}

func TestContinuations(t *testing.T) {
	o := NewOrderer(0)
	sorted := []model.MessageItem{
		msg("1", "a", 1000),
		msg("2", "a", 1100),
		msg("3", "b", 1200),
	}
	if got, want := o.Continuations(sorted), []bool{false, true, false}; !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected flags %v, want %v", got, want)
	}
}
