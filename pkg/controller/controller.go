package controller

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/zdunecki/graphfleet/pkg/cluster"
	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
	"github.com/zdunecki/graphfleet/pkg/metrics"
	"github.com/zdunecki/graphfleet/pkg/probe"
	"github.com/zdunecki/graphfleet/pkg/pubsub"
	"github.com/zdunecki/graphfleet/pkg/store"
)

const (
	DefaultMaxWorkers       = 4
	DefaultInstancePort     = 7780
	DefaultInstanceDataPort = 7781
	DefaultShutdownTimeout  = time.Second * 5
)

type Controller interface {
	// SpawnWorker provisions, probes and registers one worker. It returns host:port, or "" on failure.
	SpawnWorker(ctx context.Context, id int) string

	// DeleteWorker tears a worker down. Ids without a metadata row are a no-op.
	DeleteWorker(ctx context.Context, id int) error

	// AttachExistingWorkers rebuilds fleet state from live cluster deployments and returns how many were attached.
	AttachExistingWorkers(ctx context.Context) int

	// ScaleUp spawns up to count workers within capacity and returns the ones that became active.
	ScaleUp(ctx context.Context, count int) map[int]string

	// ScaleDown deletes the given workers concurrently and waits for all of them.
	ScaleDown(ctx context.Context, ids []int)

	Workers() []*metav1.Worker
	List(status metav1.WorkerStatus) []*metav1.Worker
	Worker(id int) (*metav1.Worker, bool)
	Status(id int) (metav1.WorkerStatus, bool)
	Count() int
	MaxWorkers() int
	StatusCounts() map[metav1.WorkerStatus]int
}

type controller struct {
	masterAddr string

	cluster   cluster.Cluster
	store     store.Repository
	probe     probe.Probe
	allocator Allocator
	publisher pubsub.Publisher
	metrics   *metrics.Metrics

	maxWorkers       int
	instancePort     int
	instanceDataPort int
	parallelism      int

	shutdownDialer  probe.Dialer
	shutdownTimeout time.Duration

	// provisionMu serializes the four create calls of every spawn, never the probe
	provisionMu sync.Mutex

	fleet *fleet

	log *log.Entry
}

// New builds a controller and brings it to requestedWorkers: stale metadata is wiped,
// live cluster workers are attached, and the difference is scaled up.
func New(ctx context.Context, masterAddr string, requestedWorkers int, opts ...Option) (Controller, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	c := &controller{
		masterAddr:       masterAddr,
		maxWorkers:       DefaultMaxWorkers,
		instancePort:     DefaultInstancePort,
		instanceDataPort: DefaultInstanceDataPort,
		shutdownTimeout:  DefaultShutdownTimeout,
		fleet:            newFleet(),
		log: log.WithFields(map[string]interface{}{
			"service": "controller",
		}),
	}

	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}

	if c.cluster == nil {
		return nil, ErrClusterIsRequired
	}

	if c.store == nil || c.store.Workers() == nil || c.store.Partitions() == nil {
		return nil, ErrStorageIsRequired
	}

	if c.probe == nil {
		c.probe = probe.New()
	}

	if c.allocator == nil {
		c.allocator = NewAllocator(0)
	}

	// live cluster state is the truth, rows of an earlier process are not
	if err := c.store.Workers().DeleteAll(ctx); err != nil {
		c.log.Errorf("failed to wipe stale worker inventory: %v", err)
	}

	attached := c.AttachExistingWorkers(ctx)
	c.log.Infof("attached %d existing workers, requested %d, max %d", attached, requestedWorkers, c.maxWorkers)

	if requestedWorkers > attached {
		c.ScaleUp(ctx, requestedWorkers-attached)
	}

	return c, nil
}

func (c *controller) Workers() []*metav1.Worker {
	return c.fleet.list(metav1.WorkerStatusActive)
}

// List returns tracked workers with the given status, every tracked worker for "".
func (c *controller) List(status metav1.WorkerStatus) []*metav1.Worker {
	return c.fleet.list(status)
}

func (c *controller) Worker(id int) (*metav1.Worker, bool) {
	return c.fleet.get(id)
}

func (c *controller) Status(id int) (metav1.WorkerStatus, bool) {
	w, ok := c.fleet.get(id)
	if !ok {
		return "", false
	}

	return w.Status, true
}

func (c *controller) Count() int {
	return c.fleet.count()
}

func (c *controller) MaxWorkers() int {
	return c.maxWorkers
}

func (c *controller) StatusCounts() map[metav1.WorkerStatus]int {
	return c.fleet.statusCounts()
}

func (c *controller) publish(ctx context.Context, t metav1.FleetEventType, w *metav1.Worker) {
	if c.publisher == nil {
		return
	}

	event := &metav1.FleetEvent{
		Type:     t,
		WorkerID: w.ID,
		Status:   w.Status,
	}
	if w.IP != "" {
		event.Address = w.Addr()
	}

	if err := c.publisher.Publish(ctx, event); err != nil {
		c.log.Warnf("failed to publish %s event of worker %d: %v", t, w.ID, err)
	}
}
