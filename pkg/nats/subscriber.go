package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"bcct-chatbot-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

type EventHandler func(ctx context.Context, event events.Event) error

// Subscriber reads events back from the stream with a durable consumer.
type Subscriber struct {
	nc   *nats.Conn
	js   jetstream.JetStream
	cons jetstream.ConsumeContext
}

func NewSubscriber(url string) (*Subscriber, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{nc: nc, js: js}, nil
}

// Subscribe delivers every event matching subject to handler. A handler error
// naks the message so it is redelivered.
func (s *Subscriber) Subscribe(ctx context.Context, subject, durableName string, handler EventHandler) error {
	consumer, err := s.js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	s.cons, err = consumer.Consume(func(msg jetstream.Msg) {
		event, err := Decode(msg.Subject(), msg.Data())
		if err != nil {
			log.Printf("Dropping undecodable event on %s: %v", msg.Subject(), err)
			msg.Term()
			return
		}

		if err := handler(ctx, event); err != nil {
			log.Printf("Handler failed for event %s: %v", msg.Subject(), err)
			msg.Nak()
			return
		}
		msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	return nil
}

// Decode rebuilds an event from its subject and JSON payload. The payload's
// occurred_at wins over the delivery time.
func Decode(subject string, data []byte) (events.BaseEvent, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return events.BaseEvent{}, err
	}

	at := time.Now()
	if s, ok := payload["occurred_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			at = t
		}
	}
	return events.BaseEvent{
		Type:       events.TypeFromSubject(subject),
		Data:       payload,
		OccurredAt: at,
	}, nil
}

func (s *Subscriber) Close() {
	if s.cons != nil {
		s.cons.Stop()
	}
	if s.nc != nil {
		s.nc.Close()
	}
}
