package pubsub

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

const kafkaWriteTimeout = 10 * time.Second

type kafkapubsub struct {
	broker string

	mu      sync.Mutex
	writers map[string]*kafka.Writer
	readers []*kafka.Reader

	ctx    context.Context
	cancel context.CancelFunc

	log *log.Entry
}

func NewKafka(broker string) (PubSub, error) {
	conn, err := kafka.DialContext(context.Background(), "tcp", broker)
	if err != nil {
		return nil, err
	}
	conn.Close()

	ctx, cancel := context.WithCancel(context.Background())

	return &kafkapubsub{
		broker:  broker,
		writers: make(map[string]*kafka.Writer),
		ctx:     ctx,
		cancel:  cancel,
		log: log.WithFields(map[string]interface{}{
			"service": "pubsub",
			"driver":  "kafka",
		}),
	}, nil
}

func (k *kafkapubsub) Publish(topic string, data []byte) error {
	ctx, cancel := context.WithTimeout(k.ctx, kafkaWriteTimeout)
	defer cancel()

	return k.writer(topic).WriteMessages(ctx, kafka.Message{
		Value: data,
	})
}

func (k *kafkapubsub) Subscribe(topic string, cb func([]byte)) error {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{k.broker},
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	k.mu.Lock()
	k.readers = append(k.readers, r)
	k.mu.Unlock()

	go func() {
		for {
			msg, err := r.ReadMessage(k.ctx)
			if err != nil {
				if k.ctx.Err() == nil {
					k.log.Error(err)
				}
				return
			}

			cb(msg.Value)
		}
	}()

	return nil
}

func (k *kafkapubsub) Close() error {
	k.cancel()

	k.mu.Lock()
	defer k.mu.Unlock()

	var result error

	for _, w := range k.writers {
		if err := w.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	for _, r := range k.readers {
		if err := r.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result
}

func (k *kafkapubsub) writer(topic string) *kafka.Writer {
	k.mu.Lock()
	defer k.mu.Unlock()

	if w, ok := k.writers[topic]; ok {
		return w
	}

	w := &kafka.Writer{
		Addr:     kafka.TCP(k.broker),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	k.writers[topic] = w

	return w
}
