package controller

import (
	"strconv"
	"time"

	"github.com/zdunecki/graphfleet/pkg/cluster"
	"github.com/zdunecki/graphfleet/pkg/metrics"
	"github.com/zdunecki/graphfleet/pkg/probe"
	"github.com/zdunecki/graphfleet/pkg/pubsub"
	"github.com/zdunecki/graphfleet/pkg/store"
)

type Option func(*controller) error

func WithCluster(c cluster.Cluster) Option {
	return func(ctrl *controller) error {
		ctrl.cluster = c
		return nil
	}
}

func WithStorage(s store.Repository) Option {
	return func(ctrl *controller) error {
		ctrl.store = s
		return nil
	}
}

func WithProbe(p probe.Probe) Option {
	return func(ctrl *controller) error {
		ctrl.probe = p
		return nil
	}
}

// WithMaxWorkerCount takes the raw configured value. Anything but a positive integer falls back to DefaultMaxWorkers.
func WithMaxWorkerCount(raw string) Option {
	return func(ctrl *controller) error {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			ctrl.log.Errorf("invalid max worker count %q, using default %d", raw, DefaultMaxWorkers)
			ctrl.maxWorkers = DefaultMaxWorkers
			return nil
		}

		ctrl.maxWorkers = n
		return nil
	}
}

func WithInstancePorts(port, dataPort int) Option {
	return func(ctrl *controller) error {
		if port <= 0 || dataPort <= 0 {
			return ErrInvalidPort
		}

		ctrl.instancePort = port
		ctrl.instanceDataPort = dataPort
		return nil
	}
}

func WithPublisher(p pubsub.Publisher) Option {
	return func(ctrl *controller) error {
		ctrl.publisher = p
		return nil
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(ctrl *controller) error {
		ctrl.metrics = m
		return nil
	}
}

// WithParallelism bounds concurrent spawns or deletes of one scale call, 0 means one task per id.
func WithParallelism(n int) Option {
	return func(ctrl *controller) error {
		ctrl.parallelism = n
		return nil
	}
}

func WithShutdown(dialer probe.Dialer, timeout time.Duration) Option {
	return func(ctrl *controller) error {
		ctrl.shutdownDialer = dialer
		if timeout > 0 {
			ctrl.shutdownTimeout = timeout
		}
		return nil
	}
}

func WithAllocator(a Allocator) Option {
	return func(ctrl *controller) error {
		ctrl.allocator = a
		return nil
	}
}
