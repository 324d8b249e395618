package controller

import (
	"context"
	"errors"
	"time"

	"github.com/zdunecki/graphfleet/pkg/cluster"
	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
	"github.com/zdunecki/graphfleet/pkg/probe"
)

const (
	failureProvisioning = "provisioning"
	failureTimeout      = "timeout"
	failureProbe        = "probe"
)

func (c *controller) SpawnWorker(ctx context.Context, id int) string {
	if !c.fleet.track(c.allocator, id) {
		c.log.Errorf("worker %d is already tracked, ids are never reused", id)
		return ""
	}

	return c.spawn(ctx, id)
}

// spawn runs one Requested id through provisioning and the readiness probe.
func (c *controller) spawn(ctx context.Context, id int) string {
	c.metrics.SpawnAttempt()

	if err := c.fleet.transition(id, metav1.WorkerStatusProvisioning); err != nil {
		c.log.Error(err)
		return ""
	}

	svc, err := c.provision(ctx, id)
	if err != nil {
		c.log.Errorf("worker %d: %v", id, err)
		c.fail(ctx, id, failureProvisioning)
		return ""
	}

	if err := c.fleet.transition(id, metav1.WorkerStatusAwaitingReady); err != nil {
		c.log.Error(err)
		return ""
	}

	w := &metav1.Worker{
		ID:          id,
		HostRef:     metav1.HostRefClusterManaged,
		IP:          svc.ClusterIP,
		Port:        c.instancePort,
		DataPort:    c.instanceDataPort,
		ServiceName: svc.Name,
		Status:      metav1.WorkerStatusAwaitingReady,
	}

	start := time.Now()

	if err := c.probe.Wait(ctx, w.IP, w.Port); err != nil {
		reason := failureProbe
		if errors.Is(err, probe.ErrTimeout) {
			reason = failureTimeout
		}
		c.log.Errorf("worker %d at %s is not ready: %v", id, w.Addr(), err)

		if err := c.fleet.transition(id, metav1.WorkerStatusDeleting); err != nil {
			c.log.Error(err)
		}

		// the caller's context may be the reason the probe ended
		if err := c.teardown(context.Background(), w); err != nil {
			c.log.Warnf("compensating delete of worker %d was incomplete: %v", id, err)
		}

		c.fail(ctx, id, reason)
		return ""
	}

	c.metrics.SpawnSuccess(time.Since(start))

	if _, err := c.store.Workers().Upsert(ctx, w); err != nil {
		// the worker stays provisioned, a later reconciliation restores the row
		c.log.Errorf("failed to insert metadata of worker %d: %v", id, err)
	}

	if err := c.fleet.activate(w); err != nil {
		c.log.Error(err)
		return ""
	}

	w.Status = metav1.WorkerStatusActive
	c.publish(ctx, metav1.FleetEventWorkerActive, w)

	c.log.Infof("worker %d is active at %s", id, w.Addr())

	return w.Addr()
}

// provision creates volume, claim, service and deployment in order under the provisioning lock.
// It returns the service descriptor, which carries the cluster ip.
func (c *controller) provision(ctx context.Context, id int) (*cluster.Descriptor, error) {
	c.provisionMu.Lock()
	defer c.provisionMu.Unlock()

	d, err := c.cluster.CreateVolume(ctx, id)
	if _, err := cluster.Populated(id, cluster.ResourceVolume, d, err); err != nil {
		return nil, err
	}

	d, err = c.cluster.CreateVolumeClaim(ctx, id)
	if _, err := cluster.Populated(id, cluster.ResourceVolumeClaim, d, err); err != nil {
		return nil, err
	}

	d, err = c.cluster.CreateService(ctx, id)
	svc, err := cluster.Populated(id, cluster.ResourceService, d, err)
	if err != nil {
		return nil, err
	}

	d, err = c.cluster.CreateDeployment(ctx, id, svc.ClusterIP, c.masterAddr)
	if _, err := cluster.Populated(id, cluster.ResourceDeployment, d, err); err != nil {
		return nil, err
	}

	return svc, nil
}

func (c *controller) fail(ctx context.Context, id int, reason string) {
	if err := c.fleet.transition(id, metav1.WorkerStatusFailed); err != nil {
		c.log.Error(err)
	}
	c.metrics.SpawnFailure(reason)

	c.publish(ctx, metav1.FleetEventWorkerFailed, &metav1.Worker{
		ID:     id,
		Status: metav1.WorkerStatusFailed,
	})
}
