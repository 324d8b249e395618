package controller

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

func (c *controller) ScaleUp(ctx context.Context, count int) map[int]string {
	logger := c.log.WithField("batch", uuid.New().String())

	workers := make(map[int]string)

	r := c.fleet.reserve(c.allocator, count, c.maxWorkers)
	if r.Count == 0 {
		logger.Infof("fleet is at capacity (%d), requested %d", c.maxWorkers, count)
		return workers
	}

	if r.Count < count {
		logger.Warnf("scale up clamped from %d to %d, max workers %d", count, r.Count, c.maxWorkers)
	}
	logger.Infof("scaling up ids [%d, %d)", r.Start, r.End())

	var mu sync.Mutex

	g := c.group()
	for _, id := range r.IDs() {
		id := id

		g.Go(func() error {
			addr := c.spawn(ctx, id)
			if addr == "" {
				return nil
			}

			mu.Lock()
			workers[id] = addr
			mu.Unlock()

			return nil
		})
	}
	g.Wait()

	logger.Infof("scale up finished, %d of %d workers active, fleet size %d", len(workers), r.Count, c.Count())

	return workers
}

func (c *controller) ScaleDown(ctx context.Context, ids []int) {
	logger := c.log.WithField("batch", uuid.New().String())
	logger.Infof("scaling down %v", ids)

	g := c.group()
	for _, id := range ids {
		id := id

		g.Go(func() error {
			// failures are logged by DeleteWorker
			c.DeleteWorker(ctx, id)
			return nil
		})
	}
	g.Wait()

	logger.Infof("scale down finished, fleet size %d", c.Count())
}

func (c *controller) group() *errgroup.Group {
	g := new(errgroup.Group)
	if c.parallelism > 0 {
		g.SetLimit(c.parallelism)
	}

	return g
}
