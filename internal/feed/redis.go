package feed

import (
	"context"
	"fmt"
	"log"

	"quote-desk-backend/internal/env"
	"quote-desk-backend/internal/model"
	"quote-desk-backend/internal/service/dashboard"

	"github.com/go-redis/redis/v8"
)

const defaultBuffer = 64

func NewRedisClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     env.Get(env.FeedRedisURL),
		Password: env.Get(env.FeedRedisPass),
		DB:       0,
	})
}

type publishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

type Publisher struct {
	client publishClient
}

func NewPublisher(client publishClient) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) PublishUpsert(ctx context.Context, conversationID string, message model.MessageItem) error {
	return p.publish(ctx, dashboard.Upserted(conversationID, message))
}

func (p *Publisher) PublishRemoved(ctx context.Context, conversationID string) error {
	return p.publish(ctx, dashboard.Removed(conversationID))
}

func (p *Publisher) publish(ctx context.Context, ev dashboard.Event) error {
	payload, err := Encode(ev)
	if err != nil {
		return fmt.Errorf("feed publish: %w", err)
	}
	if err := p.client.Publish(ctx, Channel(ev.ConversationID), string(payload)).Err(); err != nil {
		return fmt.Errorf("feed publish: redis publish: %w", err)
	}
	return nil
}

type Subscriber struct {
	client *redis.Client
	buffer int
}

func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client, buffer: defaultBuffer}
}

// Watch follows the given conversations until ctx is done.
func (s *Subscriber) Watch(ctx context.Context, conversationIDs ...string) (<-chan dashboard.Event, error) {
	if len(conversationIDs) == 0 {
		return nil, fmt.Errorf("feed watch: no conversation given")
	}
	channels := make([]string, len(conversationIDs))
	for i, id := range conversationIDs {
		channels[i] = Channel(id)
	}
	return s.start(ctx, s.client.Subscribe(ctx, channels...))
}

// WatchAll follows every conversation.
func (s *Subscriber) WatchAll(ctx context.Context) (<-chan dashboard.Event, error) {
	return s.start(ctx, s.client.PSubscribe(ctx, ChannelPrefix+"*"))
}

func (s *Subscriber) start(ctx context.Context, pubsub *redis.PubSub) (<-chan dashboard.Event, error) {
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("feed subscribe: %w", err)
	}

	out := make(chan dashboard.Event, s.buffer)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				ev, err := Decode([]byte(msg.Payload))
				if err != nil {
					log.Printf("feed: dropped payload on %s: %v", msg.Channel, err)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
