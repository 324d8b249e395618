package sdk

import "time"

const DefaultTimeout = time.Second * 15

type Option func(*options)

type options struct {
	addr         string
	timeout      time.Duration
	retryElapsed time.Duration
}

func WithHTTPAddr(apiAddr string) Option {
	return func(o *options) {
		o.addr = apiAddr
	}
}

// WithTimeout bounds every request. Scale-ups wait for readiness probes, so it should cover the probe deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithRetry retries reads failing on transport errors with exponential backoff for up to maxElapsed.
func WithRetry(maxElapsed time.Duration) Option {
	return func(o *options) {
		o.retryElapsed = maxElapsed
	}
}
