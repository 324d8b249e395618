package pubsub

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
)

const DefaultTopic = "fleet.workers"

type PubSub interface {
	Publish(topic string, data []byte) error
	Subscribe(topic string, cb func([]byte)) error
	Close() error
}

// Publisher announces fleet lifecycle transitions.
type Publisher interface {
	Publish(ctx context.Context, event *metav1.FleetEvent) error
}

type eventPublisher struct {
	pubsub PubSub
	topic  string
}

func NewEventPublisher(ps PubSub, topic string) Publisher {
	if topic == "" {
		topic = DefaultTopic
	}

	return &eventPublisher{
		pubsub: ps,
		topic:  topic,
	}
}

func (p *eventPublisher) Publish(ctx context.Context, event *metav1.FleetEvent) error {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	b, err := jsoniter.Marshal(event)
	if err != nil {
		return err
	}

	return p.pubsub.Publish(p.topic, b)
}

// DecodeEvent is the inverse of what Publisher writes on the wire.
func DecodeEvent(b []byte) (*metav1.FleetEvent, error) {
	var event *metav1.FleetEvent

	if err := jsoniter.Unmarshal(b, &event); err != nil {
		return nil, err
	}

	return event, nil
}
