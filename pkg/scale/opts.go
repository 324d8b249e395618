package scale

import "time"

type Option func(*scaler)

// WithIdleTTL enables idle scale down, 0 keeps it off.
func WithIdleTTL(d time.Duration) Option {
	return func(s *scaler) {
		s.idleTTL = d
	}
}

func WithInterval(d time.Duration) Option {
	return func(s *scaler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithMinWorkers(n int) Option {
	return func(s *scaler) {
		if n > 0 {
			s.minWorkers = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *scaler) {
		s.now = now
	}
}
