package controller

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/zdunecki/graphfleet/pkg/cluster"
	"github.com/zdunecki/graphfleet/pkg/cluster/testkit"
	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
	"github.com/zdunecki/graphfleet/pkg/probe"
	"github.com/zdunecki/graphfleet/pkg/store"
	"github.com/zdunecki/graphfleet/pkg/store/cachestore"
	"github.com/zdunecki/graphfleet/test"
)

const (
	testNamespace = "graphfleet"
	testMaster    = "10.0.0.1"
)

type testFleet struct {
	cs      *testkit.Clientset
	cluster cluster.Cluster
	store   store.Storage
	port    int
	msgC    <-chan string
}

func newTestFleet(t *testing.T) *testFleet {
	lis, msgC := test.Listen(t)

	cs := testkit.NewClientset("127.0.0.1")

	cl, err := cluster.NewK8sCluster(cs, &cluster.Config{Namespace: testNamespace})
	if err != nil {
		t.Fatal(err)
	}

	s, err := cachestore.NewStorage()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		s.Close(context.Background())
	})

	return &testFleet{
		cs:      cs,
		cluster: cl,
		store:   s,
		port:    test.Port(t, lis),
		msgC:    msgC,
	}
}

func (f *testFleet) opts(extra ...Option) []Option {
	opts := []Option{
		WithCluster(f.cluster),
		WithStorage(f.store),
		WithInstancePorts(f.port, f.port+1),
		WithProbe(probe.New(probe.WithBackoff(time.Millisecond*10), probe.WithTimeout(time.Second))),
		WithShutdown(nil, time.Millisecond*200),
	}

	return append(opts, extra...)
}

func (f *testFleet) controller(t *testing.T, requested int, extra ...Option) Controller {
	c, err := New(context.Background(), testMaster, requested, f.opts(extra...)...)
	if err != nil {
		t.Fatal(err)
	}

	return c
}

// existing creates the service and deployment of a worker some earlier process spawned.
func (f *testFleet) existing(t *testing.T, ids ...int) {
	ctx := context.Background()

	for _, id := range ids {
		svc, err := f.cluster.CreateService(ctx, id)
		if err != nil {
			t.Fatal(err)
		}

		if _, err := f.cluster.CreateDeployment(ctx, id, svc.ClusterIP, testMaster); err != nil {
			t.Fatal(err)
		}
	}
}

type timeoutProbe struct {
	mu    sync.Mutex
	calls int
}

func (p *timeoutProbe) Wait(ctx context.Context, host string, port int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls++
	return probe.ErrTimeout
}

// readinessGate holds every Wait until open is closed.
type readinessGate struct {
	mu      sync.Mutex
	waiting int

	arrived chan struct{}
	open    chan struct{}
}

func newReadinessGate() *readinessGate {
	return &readinessGate{
		arrived: make(chan struct{}, 64),
		open:    make(chan struct{}),
	}
}

func (p *readinessGate) Wait(ctx context.Context, host string, port int) error {
	p.mu.Lock()
	p.waiting++
	p.mu.Unlock()

	p.arrived <- struct{}{}

	defer func() {
		p.mu.Lock()
		p.waiting--
		p.mu.Unlock()
	}()

	select {
	case <-p.open:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// await blocks until n spawns sit in Wait.
func (p *readinessGate) await(t *testing.T, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		select {
		case <-p.arrived:
		case <-time.After(time.Second * 5):
			t.Fatalf("only %d of %d spawns reached the readiness wait", i, n)
		}
	}
}

// overlapCluster records the highest number of creates running at once.
type overlapCluster struct {
	cluster.Cluster

	mu      sync.Mutex
	running int
	max     int
}

func (c *overlapCluster) enter() {
	c.mu.Lock()
	c.running++
	if c.running > c.max {
		c.max = c.running
	}
	c.mu.Unlock()

	// widen the window for a second create to sneak in
	time.Sleep(time.Millisecond * 2)
}

func (c *overlapCluster) leave() {
	c.mu.Lock()
	c.running--
	c.mu.Unlock()
}

func (c *overlapCluster) CreateVolume(ctx context.Context, id int) (*cluster.Descriptor, error) {
	c.enter()
	defer c.leave()

	return c.Cluster.CreateVolume(ctx, id)
}

func (c *overlapCluster) CreateVolumeClaim(ctx context.Context, id int) (*cluster.Descriptor, error) {
	c.enter()
	defer c.leave()

	return c.Cluster.CreateVolumeClaim(ctx, id)
}

func (c *overlapCluster) CreateService(ctx context.Context, id int) (*cluster.Descriptor, error) {
	c.enter()
	defer c.leave()

	return c.Cluster.CreateService(ctx, id)
}

func (c *overlapCluster) CreateDeployment(ctx context.Context, id int, clusterIP, masterAddr string) (*cluster.Descriptor, error) {
	c.enter()
	defer c.leave()

	return c.Cluster.CreateDeployment(ctx, id, clusterIP, masterAddr)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []metav1.FleetEventType
}

func (p *recordingPublisher) Publish(ctx context.Context, event *metav1.FleetEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event.Type)
	return nil
}

func ids(workers map[int]string) []int {
	var result []int
	for id := range workers {
		result = append(result, id)
	}
	sort.Ints(result)

	return result
}

func TestNewRequiresClusterAndStorage(t *testing.T) {
	f := newTestFleet(t)

	if _, err := New(context.Background(), testMaster, 0, WithStorage(f.store)); err != ErrClusterIsRequired {
		t.Errorf("expected cluster is required, got %v", err)
	}

	if _, err := New(context.Background(), testMaster, 0, WithCluster(f.cluster)); err != ErrStorageIsRequired {
		t.Errorf("expected storage is required, got %v", err)
	}
}

func TestMaxWorkerCount(t *testing.T) {
	f := newTestFleet(t)

	for _, tc := range []struct {
		raw    string
		expect int
	}{
		{"8", 8},
		{"abc", DefaultMaxWorkers},
		{"", DefaultMaxWorkers},
		{"-2", DefaultMaxWorkers},
	} {
		c := f.controller(t, 0, WithMaxWorkerCount(tc.raw))
		test.Diff(t, "max workers of "+tc.raw+" should equal", tc.expect, c.MaxWorkers())
	}
}

func TestScaleUpClampsToMaxWorkers(t *testing.T) {
	ctx := context.Background()
	f := newTestFleet(t)

	c := f.controller(t, 0, WithMaxWorkerCount("4"))

	workers := c.ScaleUp(ctx, 6)

	test.Diff(t, "spawned ids should come from one block", []int{0, 1, 2, 3}, ids(workers))
	test.Diff(t, "deployment creates should equal", 4, f.cs.CountActions("create", "deployments"))
	test.Diff(t, "fleet size should equal", 4, c.Count())

	for id, addr := range workers {
		w, ok := c.Worker(id)
		if !ok {
			t.Fatalf("worker %d should be tracked", id)
		}
		test.Diff(t, "address should equal", w.Addr(), addr)
		test.Diff(t, "status should be active", metav1.WorkerStatusActive, w.Status)
	}

	more := c.ScaleUp(ctx, 1)
	test.Diff(t, "full fleet should not spawn", 0, len(more))
	test.Diff(t, "no further deployment creates", 4, f.cs.CountActions("create", "deployments"))

	rows, err := f.store.Workers().List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	test.Diff(t, "metadata rows should equal", 4, len(rows))
	test.Diff(t, "rows should be cluster managed", metav1.HostRefClusterManaged, rows[0].HostRef)
}

func TestConcurrentScaleUpNeverExceedsMax(t *testing.T) {
	ctx := context.Background()
	f := newTestFleet(t)

	c := f.controller(t, 0, WithMaxWorkerCount("4"))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int]bool)
	)

	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for id := range c.ScaleUp(ctx, 3) {
				mu.Lock()
				if seen[id] {
					t.Errorf("id %d returned twice", id)
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	test.Diff(t, "successes should equal capacity", 4, len(seen))
	test.Diff(t, "fleet size should equal capacity", 4, c.Count())
	test.Diff(t, "deployment creates should equal capacity", 4, f.cs.CountActions("create", "deployments"))
}

func TestProvisioningIsSerializedButWaitsOverlap(t *testing.T) {
	ctx := context.Background()
	f := newTestFleet(t)
	gate := newReadinessGate()
	oc := &overlapCluster{Cluster: f.cluster}

	c := f.controller(t, 0, WithCluster(oc), WithProbe(gate))

	done := make(chan map[int]string, 1)
	go func() {
		done <- c.ScaleUp(ctx, 3)
	}()

	// all three are provisioned while none of them is ready yet
	gate.await(t, 3)

	gate.mu.Lock()
	waiting := gate.waiting
	gate.mu.Unlock()
	test.Diff(t, "spawns waiting for readiness at once should equal", 3, waiting)

	close(gate.open)

	select {
	case workers := <-done:
		test.Diff(t, "spawned ids should equal", []int{0, 1, 2}, ids(workers))
	case <-time.After(time.Second * 5):
		t.Fatal("scale up did not finish")
	}

	oc.mu.Lock()
	defer oc.mu.Unlock()
	test.Diff(t, "creates running at once should equal", 1, oc.max)
	test.Diff(t, "deployment creates should equal", 3, f.cs.CountActions("create", "deployments"))
}

func TestSpawnWorkerRacingScaleUpNeverSharesIDs(t *testing.T) {
	ctx := context.Background()
	f := newTestFleet(t)

	c := f.controller(t, 0, WithMaxWorkerCount("16"))

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		owned = make(map[int]int)
	)

	for i := 0; i < 4; i++ {
		id := i

		wg.Add(2)
		go func() {
			defer wg.Done()

			if c.SpawnWorker(ctx, id) != "" {
				mu.Lock()
				owned[id]++
				mu.Unlock()
			}
		}()
		go func() {
			defer wg.Done()

			for id := range c.ScaleUp(ctx, 1) {
				mu.Lock()
				owned[id]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	for id, n := range owned {
		if n > 1 {
			t.Errorf("id %d was spawned %d times", id, n)
		}
	}
	test.Diff(t, "deployment creates should equal spawned workers", len(owned), f.cs.CountActions("create", "deployments"))
	test.Diff(t, "fleet size should equal spawned workers", len(owned), c.Count())
}

func TestSpawnWorkerSendsHandshake(t *testing.T) {
	f := newTestFleet(t)
	c := f.controller(t, 0)

	addr := c.SpawnWorker(context.Background(), 7)
	if addr == "" {
		t.Fatal("spawn should succeed")
	}

	select {
	case msg := <-f.msgC:
		test.Diff(t, "handshake should equal", probe.CloseToken, msg)
	case <-time.After(time.Second):
		t.Fatal("worker did not receive the handshake")
	}

	if again := c.SpawnWorker(context.Background(), 7); again != "" {
		t.Error("an id must not be spawned twice")
	}

	// the allocator moved past the explicit id
	workers := c.ScaleUp(context.Background(), 1)
	test.Diff(t, "next id should follow the explicit one", []int{8}, ids(workers))
}

func TestSpawnTimeoutCompensates(t *testing.T) {
	ctx := context.Background()
	f := newTestFleet(t)
	p := &timeoutProbe{}

	c := f.controller(t, 0, WithProbe(p))

	addr := c.SpawnWorker(ctx, 0)

	test.Diff(t, "timed out spawn should return empty address", "", addr)
	test.Diff(t, "probe calls should equal", 1, p.calls)
	test.Diff(t, "compensating deployment delete should run once", 1, f.cs.CountActions("delete", "deployments"))
	test.Diff(t, "compensating service delete should run once", 1, f.cs.CountActions("delete", "services"))
	test.Diff(t, "compensating volume delete should run once", 1, f.cs.CountActions("delete", "persistentvolumes"))
	test.Diff(t, "compensating claim delete should run once", 1, f.cs.CountActions("delete", "persistentvolumeclaims"))

	status, _ := c.Status(0)
	test.Diff(t, "status should be failed", metav1.WorkerStatusFailed, status)
	test.Diff(t, "fleet should be empty", 0, c.Count())

	if _, err := f.store.Workers().FindByID(ctx, 0); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("timed out worker must not have a metadata row, got %v", err)
	}
}

func TestSpawnTimeoutWithRealProbe(t *testing.T) {
	f := newTestFleet(t)

	c := f.controller(t, 0,
		WithInstancePorts(test.ClosedPort(t), 1),
		WithProbe(probe.New(probe.WithBackoff(time.Millisecond*10), probe.WithTimeout(time.Millisecond*50))),
	)

	workers := c.ScaleUp(context.Background(), 1)

	test.Diff(t, "no worker should become active", 0, len(workers))
	test.Diff(t, "compensating delete should run once", 1, f.cs.CountActions("delete", "deployments"))
}

func TestSpawnProvisioningFailure(t *testing.T) {
	f := newTestFleet(t)
	f.cs.FailCreate("services")

	c := f.controller(t, 0)

	workers := c.ScaleUp(context.Background(), 2)

	test.Diff(t, "no worker should become active", 0, len(workers))
	test.Diff(t, "deployments should never be created", 0, f.cs.CountActions("create", "deployments"))
	test.Diff(t, "failed spawn should not compensate", 0, f.cs.CountActions("delete", "deployments"))

	for _, id := range []int{0, 1} {
		status, _ := c.Status(id)
		test.Diff(t, "status should be failed", metav1.WorkerStatusFailed, status)
	}

	// failed ids are abandoned, the next batch starts after them
	c.ScaleUp(context.Background(), 1)
	status, _ := c.Status(2)
	test.Diff(t, "next batch should use a fresh id", metav1.WorkerStatusFailed, status)
	test.Diff(t, "volume creates should equal spawn attempts", 3, f.cs.CountActions("create", "persistentvolumes"))
}

func TestScaleDown(t *testing.T) {
	ctx := context.Background()
	f := newTestFleet(t)

	c := f.controller(t, 3)
	test.Diff(t, "fleet size should equal", 3, c.Count())

	if err := f.store.Partitions().Insert(ctx, &metav1.WorkerPartition{PartitionID: 0, GraphID: 1, WorkerID: 1}); err != nil {
		t.Fatal(err)
	}

	c.ScaleDown(ctx, []int{0, 1, 2})

	test.Diff(t, "deployment deletes should equal", 3, f.cs.CountActions("delete", "deployments"))
	test.Diff(t, "fleet should be empty", 0, c.Count())
	test.Diff(t, "active workers should be empty", 0, len(c.Workers()))

	for _, id := range []int{0, 1, 2} {
		status, _ := c.Status(id)
		test.Diff(t, "status should be removed", metav1.WorkerStatusRemoved, status)
	}

	rows, err := f.store.Workers().List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	test.Diff(t, "metadata rows should be gone", 0, len(rows))

	partitions, err := f.store.Partitions().FindByWorkerID(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	test.Diff(t, "partition rows should be gone", 0, len(partitions))
}

func TestScaleDownContinuesAfterFailures(t *testing.T) {
	ctx := context.Background()
	f := newTestFleet(t)

	c := f.controller(t, 2)

	// services are already gone, the rest of the cleanup has to run anyway
	for _, id := range []int{0, 1} {
		if err := f.cluster.DeleteService(ctx, id); err != nil {
			t.Fatal(err)
		}
	}

	c.ScaleDown(ctx, []int{0, 1})

	test.Diff(t, "deployment deletes should equal", 2, f.cs.CountActions("delete", "deployments"))
	test.Diff(t, "claim deletes should equal", 2, f.cs.CountActions("delete", "persistentvolumeclaims"))
	test.Diff(t, "fleet should be empty", 0, c.Count())
}

func TestDeleteAbsentWorker(t *testing.T) {
	f := newTestFleet(t)
	c := f.controller(t, 0)

	before := len(f.cs.Actions())

	if err := c.DeleteWorker(context.Background(), 42); err != nil {
		t.Error(err)
	}

	test.Diff(t, "absent worker should make no cluster calls", before, len(f.cs.Actions()))
}

func TestAttachExistingWorkers(t *testing.T) {
	ctx := context.Background()
	f := newTestFleet(t)
	f.existing(t, 2, 5)

	c := f.controller(t, 0)

	test.Diff(t, "fleet size should equal", 2, c.Count())
	test.Diff(t, "active ids should equal", []int{2, 5}, workerIDs(c.Workers()))

	services := f.cs.CountActions("create", "services")

	attached := c.AttachExistingWorkers(ctx)
	test.Diff(t, "second attach should attach nothing", 0, attached)
	test.Diff(t, "second attach should not create services", services, f.cs.CountActions("create", "services"))

	rows, err := f.store.Workers().List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	test.Diff(t, "metadata rows should not duplicate", []int{2, 5}, workerIDs(rows))

	workers := c.ScaleUp(ctx, 1)
	test.Diff(t, "new ids should follow attached ones", []int{6}, ids(workers))
}

func TestAttachSkipsWorkerAwaitingReady(t *testing.T) {
	ctx := context.Background()
	f := newTestFleet(t)
	gate := newReadinessGate()

	c := f.controller(t, 0, WithProbe(gate))

	done := make(chan map[int]string, 1)
	go func() {
		done <- c.ScaleUp(ctx, 1)
	}()

	// the deployment of worker 0 exists, its spawn is still waiting for readiness
	gate.await(t, 1)

	test.Diff(t, "in-flight worker should not be attached", 0, c.AttachExistingWorkers(ctx))

	status, _ := c.Status(0)
	test.Diff(t, "status should stay awaiting ready", metav1.WorkerStatusAwaitingReady, status)
	test.Diff(t, "fleet size should equal", 0, c.Count())

	if _, err := f.store.Workers().FindByID(ctx, 0); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("worker awaiting readiness must not have a metadata row, got %v", err)
	}

	close(gate.open)

	select {
	case workers := <-done:
		test.Diff(t, "spawn should finish the worker", []int{0}, ids(workers))
	case <-time.After(time.Second * 5):
		t.Fatal("scale up did not finish")
	}

	status, _ = c.Status(0)
	test.Diff(t, "status should be active", metav1.WorkerStatusActive, status)
	test.Diff(t, "fleet size should equal", 1, c.Count())
}

func TestAttachRecreatesMissingService(t *testing.T) {
	ctx := context.Background()
	f := newTestFleet(t)
	f.existing(t, 1)

	if err := f.cluster.DeleteService(ctx, 1); err != nil {
		t.Fatal(err)
	}
	services := f.cs.CountActions("create", "services")

	c := f.controller(t, 0)

	test.Diff(t, "service should be recreated", services+1, f.cs.CountActions("create", "services"))
	test.Diff(t, "fleet size should equal", 1, c.Count())

	w, ok := c.Worker(1)
	if !ok {
		t.Fatal("worker should be attached")
	}
	test.Diff(t, "worker ip should come from the new service", "127.0.0.1", w.IP)
}

func TestNewScalesToRequested(t *testing.T) {
	f := newTestFleet(t)
	f.existing(t, 0)

	c := f.controller(t, 3)

	test.Diff(t, "fleet size should equal requested", 3, c.Count())
	test.Diff(t, "only the difference should be spawned", 2, f.cs.CountActions("create", "persistentvolumes"))
}

func TestNewWipesStaleInventory(t *testing.T) {
	ctx := context.Background()
	f := newTestFleet(t)

	if _, err := f.store.Workers().Upsert(ctx, &metav1.Worker{ID: 9, IP: "10.9.9.9", Port: 1, DataPort: 2}); err != nil {
		t.Fatal(err)
	}

	f.controller(t, 0)

	if _, err := f.store.Workers().FindByID(ctx, 9); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("stale row should be wiped, got %v", err)
	}
}

func TestEventsArePublished(t *testing.T) {
	ctx := context.Background()
	f := newTestFleet(t)
	f.existing(t, 0)

	pub := &recordingPublisher{}
	c := f.controller(t, 0, WithPublisher(pub))

	c.ScaleUp(ctx, 1)
	c.DeleteWorker(ctx, 0)

	test.Diff(t, "events should equal", []metav1.FleetEventType{
		metav1.FleetEventWorkerAttached,
		metav1.FleetEventWorkerActive,
		metav1.FleetEventWorkerRemoved,
	}, pub.events)
}

func TestStatusCounts(t *testing.T) {
	f := newTestFleet(t)
	f.cs.FailCreate("deployments")

	c := f.controller(t, 2)

	test.Diff(t, "status counts should equal", map[metav1.WorkerStatus]int{
		metav1.WorkerStatusFailed: 2,
	}, c.StatusCounts())
	test.Diff(t, "failed workers should be listed", []int{0, 1}, workerIDs(c.List(metav1.WorkerStatusFailed)))
}

func TestInstance(t *testing.T) {
	f := newTestFleet(t)

	first, err := Instance(context.Background(), testMaster, 0, f.opts()...)
	if err != nil {
		t.Fatal(err)
	}

	second, err := Instance(context.Background(), testMaster, 3, f.opts()...)
	if err != nil {
		t.Fatal(err)
	}

	if first != second {
		t.Error("instance should be built once")
	}
	test.Diff(t, "second call should not scale", 0, second.Count())
}

func workerIDs(workers []*metav1.Worker) []int {
	var result []int
	for _, w := range workers {
		result = append(result, w.ID)
	}

	return result
}
