package pubsub

import (
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

const natsReadyTimeout = 5 * time.Second

type natsPubSub struct {
	client *nats.Conn
}

// NewNATSServer starts an in-process nats server. Port -1 picks a random port.
func NewNATSServer(host string, port int) (*server.Server, error) {
	s, err := server.NewServer(&server.Options{
		Host:   host,
		Port:   port,
		NoLog:  true,
		NoSigs: true,
	})
	if err != nil {
		return nil, err
	}

	go s.Start()

	if !s.ReadyForConnections(natsReadyTimeout) {
		s.Shutdown()
		return nil, ErrNATSNotReady
	}

	return s, nil
}

func NewNATS(url string) (PubSub, error) {
	if url == "" {
		url = nats.DefaultURL
	}

	nc, err := nats.Connect(url, nats.Name("graphfleet"))
	if err != nil {
		return nil, err
	}

	return &natsPubSub{
		client: nc,
	}, nil
}

func (n *natsPubSub) Publish(subj string, data []byte) error {
	return n.client.Publish(subj, data)
}

func (n *natsPubSub) Subscribe(subj string, cb func([]byte)) error {
	if _, err := n.client.Subscribe(subj, func(msg *nats.Msg) {
		cb(msg.Data)
	}); err != nil {
		return err
	}

	// subscription is registered on the server once the flush round-trips
	return n.client.Flush()
}

func (n *natsPubSub) Close() error {
	if err := n.client.Drain(); err != nil {
		n.client.Close()
		return err
	}

	return nil
}
