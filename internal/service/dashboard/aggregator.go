package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"quote-desk-backend/internal/identity"
	"quote-desk-backend/internal/model"
	"quote-desk-backend/internal/queue"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultRetainApplied = 32
	defaultQueueSize     = 256
)

var ErrUnknownConversation = errors.New("dashboard: unknown conversation")

type Config struct {
	// Admins is the set of staff identities that get unread counters.
	Admins []string
	// PoolIdentity and SystemIdentity address the staff side of a conversation
	// without being admins themselves.
	PoolIdentity   string
	SystemIdentity string
	RetainApplied  int
	QueueSize      int
	// OnChange runs on the aggregator goroutine and must not call back into
	// the aggregator synchronously.
	OnChange   func(Change)
	Registerer prometheus.Registerer
	Now        func() time.Time
}

type thread struct {
	summary model.ConversationSummaryItem
	applied *appliedSet
}

func (t *thread) head() position {
	return position{at: t.summary.LastMessageAt, id: t.summary.LastMessageID}
}

// Aggregator owns the dashboard view. Every operation runs as a job on a
// single worker, so the state below is only touched by that goroutine.
type Aggregator struct {
	admins   []string
	adminSet map[string]struct{}
	staff    map[string]struct{}
	retain   int
	onChange func(Change)
	metrics  *metrics
	queue    *queue.RequestQueueManager
	now      func() time.Time

	threads map[string]*thread
	order   *redblacktree.Tree
	viewing map[string]map[string]struct{}
}

type orderKey struct {
	at int64
	id string
}

// compareOrder sorts newest first, then by conversation id.
func compareOrder(a, b interface{}) int {
	x := a.(orderKey)
	y := b.(orderKey)
	switch {
	case x.at > y.at:
		return -1
	case x.at < y.at:
		return 1
	}
	return strings.Compare(x.id, y.id)
}

func New(cfg Config) *Aggregator {
	retain := cfg.RetainApplied
	if retain <= 0 {
		retain = DefaultRetainApplied
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	a := &Aggregator{
		adminSet: make(map[string]struct{}),
		staff:    make(map[string]struct{}),
		retain:   retain,
		onChange: cfg.OnChange,
		metrics:  newMetrics(cfg.Registerer),
		queue:    queue.NewSerialQueue("dashboard", size),
		now:      now,
		threads:  make(map[string]*thread),
		order:    redblacktree.NewWith(compareOrder),
		viewing:  make(map[string]map[string]struct{}),
	}
	for _, admin := range cfg.Admins {
		admin = strings.TrimSpace(admin)
		if admin == "" {
			continue
		}
		if _, dup := a.adminSet[admin]; dup {
			continue
		}
		a.adminSet[admin] = struct{}{}
		a.staff[admin] = struct{}{}
		a.admins = append(a.admins, admin)
	}
	for _, id := range []string{cfg.PoolIdentity, cfg.SystemIdentity} {
		if id = strings.TrimSpace(id); id != "" {
			a.staff[id] = struct{}{}
		}
	}
	return a
}

// Admins returns the known admin identities.
func (a *Aggregator) Admins() []string {
	out := make([]string, len(a.admins))
	copy(out, a.admins)
	return out
}

func (a *Aggregator) IsAdmin(id string) bool {
	_, ok := a.adminSet[id]
	return ok
}

// Apply routes an event by its type. Admins currently viewing the
// conversation are not counted as unread.
func (a *Aggregator) Apply(ev Event) (Outcome, error) {
	var outcome Outcome
	err := a.queue.Do(func() error {
		var err error
		switch ev.Type {
		case EventRemoved:
			outcome, err = a.applyRemoved(ev)
		default:
			outcome, err = a.applyUpsert(ev, "")
		}
		return err
	})
	return outcome, err
}

// ApplyUpsert folds one message into its conversation summary. viewing is
// the admin looking at the conversation, if any.
func (a *Aggregator) ApplyUpsert(ev Event, viewing string) (Outcome, error) {
	var outcome Outcome
	err := a.queue.Do(func() error {
		var err error
		outcome, err = a.applyUpsert(ev, strings.TrimSpace(viewing))
		return err
	})
	return outcome, err
}

func (a *Aggregator) ApplyRemoved(ev Event) (Outcome, error) {
	var outcome Outcome
	err := a.queue.Do(func() error {
		var err error
		outcome, err = a.applyRemoved(ev)
		return err
	})
	return outcome, err
}

func (a *Aggregator) MarkRead(conversationID, admin string) error {
	return a.queue.Do(func() error {
		return a.markRead(conversationID, strings.TrimSpace(admin))
	})
}

// SetViewing records that admin has the conversation open and clears their
// unread counter for it.
func (a *Aggregator) SetViewing(conversationID, admin string) error {
	admin = strings.TrimSpace(admin)
	return a.queue.Do(func() error {
		if admin == "" {
			return identity.ErrInvalidIdentity
		}
		if strings.TrimSpace(conversationID) == "" {
			return ErrUnknownConversation
		}
		viewers, ok := a.viewing[conversationID]
		if !ok {
			viewers = make(map[string]struct{})
			a.viewing[conversationID] = viewers
		}
		viewers[admin] = struct{}{}

		if _, known := a.threads[conversationID]; !known {
			return nil
		}
		return a.markRead(conversationID, admin)
	})
}

func (a *Aggregator) ClearViewing(conversationID, admin string) error {
	admin = strings.TrimSpace(admin)
	return a.queue.Do(func() error {
		viewers := a.viewing[conversationID]
		delete(viewers, admin)
		if len(viewers) == 0 {
			delete(a.viewing, conversationID)
		}
		return nil
	})
}

func (a *Aggregator) Archive(conversationID string, archived bool) error {
	return a.queue.Do(func() error {
		t, ok := a.threads[conversationID]
		if !ok {
			return ErrUnknownConversation
		}
		if t.summary.Archived == archived {
			return nil
		}
		t.summary.Archived = archived
		t.summary.UpdatedAt = a.now().UnixMilli()
		a.notify(Change{Summary: t.summary.Clone()})
		return nil
	})
}

// Seed loads stored summaries. Conversations already known are left alone,
// so it should run before events are consumed. Messages up to each seeded
// head count as already applied.
func (a *Aggregator) Seed(summaries []model.ConversationSummaryItem) error {
	return a.queue.Do(func() error {
		for _, stored := range summaries {
			id := strings.TrimSpace(stored.ConversationID)
			if id == "" {
				continue
			}
			if _, ok := a.threads[id]; ok {
				continue
			}

			summary := stored.Clone()
			summary.UnreadCountByAdmin = a.normaliseUnread(stored.UnreadCountByAdmin)
			t := &thread{summary: summary, applied: newAppliedSet(a.retain)}
			if summary.LastMessageID != "" {
				t.applied.raise(t.head())
			}
			a.threads[id] = t
			a.order.Put(orderKey{at: summary.LastMessageAt, id: id}, id)
		}
		a.metrics.setConversations(len(a.threads))
		return nil
	})
}

// List returns every summary, newest first, ties by conversation id.
func (a *Aggregator) List() []model.ConversationSummaryItem {
	var out []model.ConversationSummaryItem
	_ = a.queue.Do(func() error {
		out = make([]model.ConversationSummaryItem, 0, a.order.Size())
		it := a.order.Iterator()
		for it.Next() {
			out = append(out, a.threads[it.Value().(string)].summary.Clone())
		}
		return nil
	})
	return out
}

func (a *Aggregator) Summary(conversationID string) (model.ConversationSummaryItem, bool) {
	var (
		out   model.ConversationSummaryItem
		found bool
	)
	_ = a.queue.Do(func() error {
		if t, ok := a.threads[conversationID]; ok {
			out, found = t.summary.Clone(), true
		}
		return nil
	})
	return out, found
}

// UnreadTotal sums the admin's counters over conversations that are not
// archived.
func (a *Aggregator) UnreadTotal(admin string) int {
	total := 0
	_ = a.queue.Do(func() error {
		for _, t := range a.threads {
			if !t.summary.Archived {
				total += t.summary.UnreadCountByAdmin[admin]
			}
		}
		return nil
	})
	return total
}

// Consume applies events from ch until it closes or ctx is done. Invalid
// events are logged and dropped.
func (a *Aggregator) Consume(ctx context.Context, ch <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if _, err := a.Apply(ev); err != nil {
				if errors.Is(err, queue.ErrClosed) {
					return nil
				}
				log.Printf("dashboard: dropped event for %q: %v", ev.ConversationID, err)
			}
		}
	}
}

// Follow subscribes to the feed before loading stored summaries, so writes
// landing in between stay buffered on the subscription. It then seeds from
// load and consumes the subscription in the background; the returned channel
// yields Consume's result.
func (a *Aggregator) Follow(
	ctx context.Context,
	subscribe func(context.Context) (<-chan Event, error),
	load func(context.Context) ([]model.ConversationSummaryItem, error),
) (<-chan error, error) {
	events, err := subscribe(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard: subscribe: %w", err)
	}
	summaries, err := load(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard: load summaries: %w", err)
	}
	if err := a.Seed(summaries); err != nil {
		return nil, fmt.Errorf("dashboard: seed: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- a.Consume(ctx, events)
	}()
	return done, nil
}

func (a *Aggregator) Close() {
	a.queue.Shutdown()
}

func (a *Aggregator) applyUpsert(ev Event, viewing string) (Outcome, error) {
	if err := ev.Validate(); err != nil || ev.Type != EventUpserted {
		a.metrics.observe(OutcomeInvalid)
		if err == nil {
			err = ErrInvalidEvent
		}
		return OutcomeInvalid, err
	}

	msg := *ev.Message
	t, created := a.lookup(ev.ConversationID, msg)
	pos := position{at: msg.CreatedAt, id: msg.MessageID}

	counted := false
	expired := t.applied.expired(pos)
	if !t.applied.seen(pos) {
		a.countUnread(t, msg, viewing)
		t.applied.add(pos)
		counted = true
	}

	outcome := OutcomeDuplicate
	switch {
	case created || pos.after(t.head()):
		a.moveHead(t, msg, created)
		outcome = OutcomeApplied
	case msg.MessageID == t.summary.LastMessageID:
		if msg.Body != t.summary.LastMessageBody {
			t.summary.LastMessageBody = msg.Body
			outcome = OutcomeRefreshed
		}
	case counted:
		outcome = OutcomeStale
	case expired:
		outcome = OutcomeExpired
	}

	a.metrics.observe(outcome)
	if outcome != OutcomeDuplicate && outcome != OutcomeExpired {
		t.summary.UpdatedAt = a.now().UnixMilli()
		a.notify(Change{Summary: t.summary.Clone()})
	}
	return outcome, nil
}

func (a *Aggregator) applyRemoved(ev Event) (Outcome, error) {
	if err := ev.Validate(); err != nil || ev.Type != EventRemoved {
		a.metrics.observe(OutcomeInvalid)
		if err == nil {
			err = ErrInvalidEvent
		}
		return OutcomeInvalid, err
	}

	t, ok := a.threads[ev.ConversationID]
	if !ok {
		a.metrics.observe(OutcomeIgnored)
		return OutcomeIgnored, nil
	}
	a.order.Remove(orderKey{at: t.summary.LastMessageAt, id: ev.ConversationID})
	delete(a.threads, ev.ConversationID)
	delete(a.viewing, ev.ConversationID)

	a.metrics.observe(OutcomeRemoved)
	a.metrics.setConversations(len(a.threads))
	a.notify(Change{Summary: t.summary.Clone(), Removed: true})
	return OutcomeRemoved, nil
}

func (a *Aggregator) markRead(conversationID, admin string) error {
	if admin == "" {
		return identity.ErrInvalidIdentity
	}
	t, ok := a.threads[conversationID]
	if !ok {
		return ErrUnknownConversation
	}
	if _, known := a.adminSet[admin]; !known {
		return nil
	}
	if t.summary.UnreadCountByAdmin[admin] == 0 {
		return nil
	}
	t.summary.UnreadCountByAdmin[admin] = 0
	t.summary.UpdatedAt = a.now().UnixMilli()
	a.notify(Change{Summary: t.summary.Clone()})
	return nil
}

func (a *Aggregator) lookup(conversationID string, msg model.MessageItem) (*thread, bool) {
	if t, ok := a.threads[conversationID]; ok {
		return t, false
	}
	nowMs := a.now().UnixMilli()
	t := &thread{
		summary: model.ConversationSummaryItem{
			ConversationID:     conversationID,
			CustomerIdentity:   a.customerOf(conversationID, msg),
			UnreadCountByAdmin: a.normaliseUnread(nil),
			CreatedAt:          nowMs,
			UpdatedAt:          nowMs,
		},
		applied: newAppliedSet(a.retain),
	}
	a.threads[conversationID] = t
	a.metrics.setConversations(len(a.threads))
	return t, true
}

func (a *Aggregator) moveHead(t *thread, msg model.MessageItem, created bool) {
	if !created {
		a.order.Remove(orderKey{at: t.summary.LastMessageAt, id: t.summary.ConversationID})
	}
	t.summary.LastMessageID = msg.MessageID
	t.summary.LastMessageBody = msg.Body
	t.summary.LastMessageAt = msg.CreatedAt
	t.summary.LastSenderIdentity = msg.SenderIdentity
	a.order.Put(orderKey{at: msg.CreatedAt, id: t.summary.ConversationID}, t.summary.ConversationID)
}

// countUnread adds one to every admin that neither wrote nor caused the
// message and is not looking at the conversation.
func (a *Aggregator) countUnread(t *thread, msg model.MessageItem, viewing string) {
	viewers := a.viewing[t.summary.ConversationID]
	for _, admin := range a.admins {
		if admin == msg.SenderIdentity || admin == msg.ActorIdentity || admin == viewing {
			continue
		}
		if _, open := viewers[admin]; open {
			continue
		}
		t.summary.UnreadCountByAdmin[admin]++
	}
}

func (a *Aggregator) customerOf(conversationID string, msg model.MessageItem) string {
	if _, staff := a.staff[msg.SenderIdentity]; !staff {
		return msg.SenderIdentity
	}
	if _, staff := a.staff[msg.ReceiverIdentity]; !staff {
		return msg.ReceiverIdentity
	}
	if first, second, ok := identity.SplitConversationKey(conversationID); ok {
		if _, staff := a.staff[first]; !staff {
			return first
		}
		return second
	}
	return msg.ReceiverIdentity
}

// normaliseUnread keeps exactly the known admins as keys, none negative.
func (a *Aggregator) normaliseUnread(in map[string]int) map[string]int {
	out := make(map[string]int, len(a.admins))
	for _, admin := range a.admins {
		if n := in[admin]; n > 0 {
			out[admin] = n
		} else {
			out[admin] = 0
		}
	}
	return out
}

func (a *Aggregator) notify(change Change) {
	if a.onChange != nil {
		a.onChange(change)
	}
}
