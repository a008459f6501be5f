package feed

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"quote-desk-backend/internal/model"
	"quote-desk-backend/internal/service/dashboard"

	"github.com/go-redis/redis/v8"
)

func sampleMessage() model.MessageItem {
	return model.MessageItem{
		MessageID:        "m1",
		ConversationID:   "admin|a@x%2Ecom",
		SenderIdentity:   "a@x.com",
		ReceiverIdentity: "admin",
		Body:             "hello",
		CreatedAt:        1000,
		Kind:             model.MessageKindText,
		DeliveryStatus:   model.DeliveryStatusSent,
	}
}

func TestEncodeDecode(t *testing.T) {
	m := sampleMessage()
	payload, err := Encode(dashboard.Upserted(m.ConversationID, m))
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	ev, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if ev.Type != dashboard.EventUpserted || ev.ConversationID != m.ConversationID {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Message.MessageID != "m1" || ev.Message.PK != model.MessagePK(m.ConversationID, "m1") || ev.Message.Kind != model.MessageKindText {
		t.Fatalf("unexpected message %+v", ev.Message)
	}
}

func TestDecodeLegacyTypesAndRemoved(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"Changed","key":"c","record":{"id":"m","senderIdentity":"a","receiverIdentity":"b","createdAt":5}}`))
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if ev.Type != dashboard.EventUpserted || ev.Message.ConversationID != "c" {
		t.Fatalf("unexpected event %+v", ev)
	}

	ev, err = Decode([]byte(`{"type":"removed","key":"c"}`))
	if err != nil || ev.Type != dashboard.EventRemoved {
		t.Fatalf("removed event = %+v, %v", ev, err)
	}
}

func TestDecodeInvalid(t *testing.T) {
	payloads := []string{
		`not json`,
		`{"type":"upserted","key":"c"}`,
		`{"type":"removed"}`,
		`{"type":"moved","key":"c"}`,
	}
	for _, p := range payloads {
		if _, err := Decode([]byte(p)); !errors.Is(err, dashboard.ErrInvalidEvent) {
			t.Fatalf("%s: expected ErrInvalidEvent, got %v", p, err)
		}
	}
}

type fakePublishClient struct {
	channel string
	payload string
}

func (f *fakePublishClient) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.payload, _ = message.(string)
	return redis.NewIntResult(1, nil)
}

func TestPublisher(t *testing.T) {
	client := &fakePublishClient{}
	p := NewPublisher(client)
	m := sampleMessage()

	if err := p.PublishUpsert(context.Background(), m.ConversationID, m); err != nil {
		t.Fatalf("PublishUpsert error: %v", err)
	}
	if client.channel != "conversation:"+m.ConversationID {
		t.Fatalf("unexpected channel %s", client.channel)
	}

	var env Envelope
	if err := json.Unmarshal([]byte(client.payload), &env); err != nil {
		t.Fatalf("payload is not json: %v", err)
	}
	if env.Type != "upserted" || env.Key != m.ConversationID || env.Record == nil || env.Record.Body != "hello" {
		t.Fatalf("unexpected envelope %+v", env)
	}

	if err := p.PublishUpsert(context.Background(), "", m); !errors.Is(err, dashboard.ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}
