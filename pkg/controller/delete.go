package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/zdunecki/graphfleet/pkg/cluster"
	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
	"github.com/zdunecki/graphfleet/pkg/probe"
	"github.com/zdunecki/graphfleet/pkg/store"
)

func (c *controller) DeleteWorker(ctx context.Context, id int) error {
	w, err := c.store.Workers().FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.log.Infof("worker %d has no metadata row, nothing to delete", id)
		return nil
	}
	if err != nil {
		c.log.Errorf("failed to look up worker %d: %v", id, err)
		return err
	}

	if !c.fleet.beginDelete(w) {
		c.log.Infof("worker %d is busy, skipping delete", id)
		return nil
	}

	result := c.teardown(ctx, w)

	if err := c.fleet.transition(id, metav1.WorkerStatusRemoved); err != nil {
		c.log.Error(err)
	}
	c.metrics.Delete()

	w.Status = metav1.WorkerStatusRemoved
	c.publish(ctx, metav1.FleetEventWorkerRemoved, w)

	if result != nil {
		c.log.Warnf("worker %d removed with incomplete cleanup: %v", id, result)
	} else {
		c.log.Infof("worker %d removed", id)
	}

	return result
}

// teardown asks the worker to shut down, then deletes its cluster resources and metadata rows.
// Every step runs regardless of earlier failures.
func (c *controller) teardown(ctx context.Context, w *metav1.Worker) error {
	var result error

	if w.IP != "" {
		if err := probe.Shutdown(ctx, c.shutdownDialer, w.IP, w.Port, c.shutdownTimeout); err != nil {
			c.log.Warnf("graceful shutdown of worker %d failed: %v", w.ID, err)
		}
	}

	steps := []struct {
		resource cluster.Resource
		delete   func(context.Context, int) error
	}{
		{cluster.ResourceDeployment, c.cluster.DeleteDeployment},
		{cluster.ResourceService, c.cluster.DeleteService},
		{cluster.ResourceVolume, c.cluster.DeleteVolume},
		{cluster.ResourceVolumeClaim, c.cluster.DeleteVolumeClaim},
	}

	for _, step := range steps {
		if err := step.delete(ctx, w.ID); err != nil {
			c.log.Errorf("failed to delete %s of worker %d: %v", step.resource, w.ID, err)
			result = multierror.Append(result, fmt.Errorf("%s: %w", step.resource, err))
		}
	}

	if err := c.store.Workers().DeleteByID(ctx, w.ID); err != nil {
		c.log.Errorf("failed to delete metadata of worker %d: %v", w.ID, err)
		result = multierror.Append(result, err)
	}

	if err := c.store.Partitions().DeleteByWorkerID(ctx, w.ID); err != nil {
		c.log.Errorf("failed to delete partitions of worker %d: %v", w.ID, err)
		result = multierror.Append(result, err)
	}

	return result
}
