package test

import (
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func Diff(t *testing.T, title string, vExpect, vCurrent interface{}, opts ...cmp.Option) {
	t.Helper()

	if diff := cmp.Diff(vExpect, vCurrent, opts...); diff != "" {
		t.Errorf("%s mismatch (-want +got):\n%s", title, diff)
	}
}

// Eventually polls cond until it holds or the timeout passes.
func Eventually(t *testing.T, title string, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond * 10)
	}

	t.Errorf("%s: condition not met in %s", title, timeout)
}

// Listen opens a loopback tcp listener which reads one message per connection and sends it to the returned channel.
func Listen(t *testing.T) (net.Listener, <-chan string) {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	msgC := make(chan string, 128)

	go func() {
		for {
			conn, err := lis.Accept()
			if err != nil {
				return
			}

			go func(conn net.Conn) {
				defer conn.Close()

				buf := make([]byte, 64)
				n, _ := conn.Read(buf)
				if n > 0 {
					select {
					case msgC <- string(buf[:n]):
					default:
					}
				}
			}(conn)
		}
	}()

	t.Cleanup(func() {
		lis.Close()
	})

	return lis, msgC
}

func Port(t *testing.T, lis net.Listener) int {
	t.Helper()

	return lis.Addr().(*net.TCPAddr).Port
}

// ClosedPort returns a loopback port nothing listens on.
func ClosedPort(t *testing.T) int {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	port := lis.Addr().(*net.TCPAddr).Port
	lis.Close()

	return port
}
