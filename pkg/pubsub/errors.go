package pubsub

import "errors"

var (
	ErrNATSNotReady = errors.New("nats server is not ready for connections")
)
