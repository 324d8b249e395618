package probe

import (
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

const (
	ShutdownToken    = "shdn"
	ShutdownAckToken = "shdn-ok"
)

// Shutdown asks a worker to stop gracefully. It does not retry.
func Shutdown(ctx context.Context, dialer Dialer, host string, port int, timeout time.Duration) error {
	if dialer == nil {
		dialer = &net.Dialer{Timeout: timeout}
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := dialer.DialContext(dialCtx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}

	if _, err := conn.Write([]byte(ShutdownToken)); err != nil {
		return err
	}

	resp := make([]byte, len(ShutdownAckToken))
	if _, err := io.ReadFull(conn, resp); err != nil {
		return err
	}

	if strings.TrimSpace(string(resp)) != ShutdownAckToken {
		return ErrUnexpectedResponse
	}

	return nil
}
