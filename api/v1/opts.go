package v1

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/zdunecki/graphfleet/api/v1/objects"
	"github.com/zdunecki/graphfleet/pkg/controller"
	"github.com/zdunecki/graphfleet/pkg/scale"
)

type Option func(*v1) error

func WithController(c controller.Controller) Option {
	return func(a *v1) error {
		if c == nil {
			return objects.ErrNoController
		}

		a.controller = c
		return nil
	}
}

// WithGatherer exposes g on /metrics. Without it the route is not mounted.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(a *v1) error {
		a.gatherer = g
		return nil
	}
}

// WithScaler mounts the pick, acquire and release routes backed by s.
func WithScaler(s scale.Scaler) Option {
	return func(a *v1) error {
		a.scaler = s
		return nil
	}
}
