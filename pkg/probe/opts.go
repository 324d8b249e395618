package probe

import "time"

type Option func(*probe)

func WithBackoff(d time.Duration) Option {
	return func(p *probe) {
		if d > 0 {
			p.backoff = d
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(p *probe) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithDialTimeout(d time.Duration) Option {
	return func(p *probe) {
		if d > 0 {
			p.dialTimeout = d
		}
	}
}

func WithDialer(d Dialer) Option {
	return func(p *probe) {
		p.dialer = d
	}
}

func WithAttemptFunc(f AttemptFunc) Option {
	return func(p *probe) {
		p.onAttempt = f
	}
}
