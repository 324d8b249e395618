package controller

import (
	"context"
	"strconv"

	"github.com/zdunecki/graphfleet/pkg/cluster"
	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
)

func (c *controller) AttachExistingWorkers(ctx context.Context) int {
	deployments, err := c.cluster.ListDeployments(ctx, cluster.DeploymentSelector)
	if err != nil {
		c.log.Errorf("failed to list worker deployments: %v", err)
		return 0
	}

	attached := 0

	for _, d := range deployments {
		id, err := strconv.Atoi(d.Labels[cluster.LabelWorkerID])
		if err != nil {
			c.log.Warnf("deployment %s has no valid %s label, skipping", d.Name, cluster.LabelWorkerID)
			continue
		}

		switch c.fleet.claimAttach(c.allocator, id) {
		case attachActive:
			// re-insert in case an earlier metadata write failed
			if w, ok := c.fleet.get(id); ok {
				c.upsert(ctx, w)
			}
			continue
		case attachBusy:
			c.log.Debugf("worker %d is being spawned or deleted, skipping attach", id)
			continue
		}

		svc, err := c.resolveService(ctx, id)
		if err != nil {
			c.log.Errorf("worker %d: %v", id, err)
			c.fleet.release(id)
			continue
		}

		w := &metav1.Worker{
			ID:          id,
			HostRef:     metav1.HostRefClusterManaged,
			IP:          svc.ClusterIP,
			Port:        c.instancePort,
			DataPort:    c.instanceDataPort,
			ServiceName: svc.Name,
			Status:      metav1.WorkerStatusActive,
		}

		c.upsert(ctx, w)
		c.fleet.attach(w)
		attached++

		c.publish(ctx, metav1.FleetEventWorkerAttached, w)
		c.log.Infof("attached worker %d at %s", id, w.Addr())
	}

	c.metrics.Attach(attached)

	return attached
}

// resolveService finds the service of a live worker, recreating it when it is gone.
func (c *controller) resolveService(ctx context.Context, id int) (*cluster.Descriptor, error) {
	services, err := c.cluster.ListServices(ctx, cluster.ServiceSelector(id))
	if err != nil {
		return nil, err
	}

	for _, svc := range services {
		if svc.Name != "" && svc.ClusterIP != "" {
			return svc, nil
		}
	}

	c.log.Infof("worker %d has no service, recreating it", id)

	c.provisionMu.Lock()
	d, err := c.cluster.CreateService(ctx, id)
	c.provisionMu.Unlock()

	return cluster.Populated(id, cluster.ResourceService, d, err)
}

func (c *controller) upsert(ctx context.Context, w *metav1.Worker) {
	if _, err := c.store.Workers().Upsert(ctx, w); err != nil {
		c.log.Errorf("failed to insert metadata of worker %d: %v", w.ID, err)
	}
}
