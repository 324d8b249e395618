package controller

import (
	"context"
	"sync"
)

var (
	instance     Controller
	instanceErr  error
	instanceOnce sync.Once
)

// Instance returns the process-wide controller, building it on first use. Later arguments are ignored.
func Instance(ctx context.Context, masterAddr string, requestedWorkers int, opts ...Option) (Controller, error) {
	instanceOnce.Do(func() {
		instance, instanceErr = New(ctx, masterAddr, requestedWorkers, opts...)
	})

	return instance, instanceErr
}
