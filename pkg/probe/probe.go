package probe

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v3"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultBackoff     = time.Second * 10
	DefaultTimeout     = time.Second * 900
	DefaultDialTimeout = time.Second * 5

	// CloseToken is the control message a booted worker expects right after accept.
	CloseToken = "close"
)

type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// AttemptFunc is called after every failed connect with the attempt number and the wait accumulated so far.
type AttemptFunc func(attempt int, waited time.Duration, err error)

type Probe interface {
	// Wait blocks until host:port accepts the handshake or the accumulated backoff reaches the timeout.
	Wait(ctx context.Context, host string, port int) error
}

type probe struct {
	backoff     time.Duration
	timeout     time.Duration
	dialTimeout time.Duration
	dialer      Dialer
	onAttempt   AttemptFunc

	log *log.Entry
}

func New(opts ...Option) Probe {
	p := &probe{
		backoff:     DefaultBackoff,
		timeout:     DefaultTimeout,
		dialTimeout: DefaultDialTimeout,
		log: log.WithFields(map[string]interface{}{
			"service": "probe",
		}),
	}

	for _, o := range opts {
		o(p)
	}

	if p.dialer == nil {
		p.dialer = &net.Dialer{Timeout: p.dialTimeout}
	}

	return p
}

func (p *probe) Wait(ctx context.Context, host string, port int) error {
	if ctx == nil {
		ctx = context.Background()
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))

	var (
		attempt  int
		waited   time.Duration
		timedOut bool
	)

	op := func() error {
		if waited >= p.timeout {
			timedOut = true
			return backoff.Permanent(ErrTimeout)
		}

		attempt++

		return p.handshake(ctx, addr)
	}

	notify := func(err error, next time.Duration) {
		waited += next

		p.log.Debugf("worker at %s is not ready yet, attempt=%d waited=%s: %v", addr, attempt, waited, err)

		if p.onAttempt != nil {
			p.onAttempt(attempt, waited, err)
		}
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(p.backoff), ctx)

	err := backoff.RetryNotify(op, b, notify)
	if err == nil {
		p.log.Debugf("worker at %s is ready, attempts=%d", addr, attempt)
		return nil
	}

	if timedOut {
		p.log.Warnf("worker at %s did not become ready in %s", addr, p.timeout)
		return ErrTimeout
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	return err
}

func (p *probe) handshake(ctx context.Context, addr string) error {
	dialCtx, cancel := context.WithTimeout(ctx, p.dialTimeout)
	defer cancel()

	conn, err := p.dialer.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.SetWriteDeadline(time.Now().Add(p.dialTimeout)); err != nil {
		return err
	}

	_, err = conn.Write([]byte(CloseToken))

	return err
}
