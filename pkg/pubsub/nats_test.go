package pubsub

import (
	"context"
	"testing"
	"time"

	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
	"github.com/zdunecki/graphfleet/test"
)

func TestNATSEventPublisher(t *testing.T) {
	srv, err := NewNATSServer("127.0.0.1", -1)
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Shutdown()

	ps, err := NewNATS(srv.ClientURL())
	if err != nil {
		t.Fatal(err)
	}
	defer ps.Close()

	eventC := make(chan []byte, 1)
	if err := ps.Subscribe(DefaultTopic, func(b []byte) {
		eventC <- b
	}); err != nil {
		t.Fatal(err)
	}

	at := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)
	expect := &metav1.FleetEvent{
		Type:     metav1.FleetEventWorkerActive,
		WorkerID: 3,
		Address:  "10.0.0.3:7780",
		Status:   metav1.WorkerStatusActive,
		At:       at,
	}

	if err := NewEventPublisher(ps, "").Publish(context.Background(), expect); err != nil {
		t.Fatal(err)
	}

	select {
	case b := <-eventC:
		event, err := DecodeEvent(b)
		if err != nil {
			t.Fatal(err)
		}
		test.Diff(t, "received event should equal", expect, event)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestEventPublisherSetsTime(t *testing.T) {
	ps := &recordingPubSub{}

	event := &metav1.FleetEvent{Type: metav1.FleetEventWorkerRemoved, WorkerID: 1}
	if err := NewEventPublisher(ps, "custom").Publish(context.Background(), event); err != nil {
		t.Fatal(err)
	}

	if event.At.IsZero() {
		t.Error("publisher should stamp the event time")
	}
	test.Diff(t, "topic should equal", []string{"custom"}, ps.topics)
}

type recordingPubSub struct {
	topics []string
}

func (r *recordingPubSub) Publish(topic string, data []byte) error {
	r.topics = append(r.topics, topic)
	return nil
}

func (r *recordingPubSub) Subscribe(topic string, cb func([]byte)) error {
	return nil
}

func (r *recordingPubSub) Close() error {
	return nil
}
