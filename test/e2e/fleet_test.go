package e2e

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/zdunecki/graphfleet/api"
	v1 "github.com/zdunecki/graphfleet/api/v1"
	"github.com/zdunecki/graphfleet/api/v1/sdk"
	"github.com/zdunecki/graphfleet/pkg/cluster"
	"github.com/zdunecki/graphfleet/pkg/cluster/testkit"
	"github.com/zdunecki/graphfleet/pkg/controller"
	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
	"github.com/zdunecki/graphfleet/pkg/probe"
	"github.com/zdunecki/graphfleet/pkg/pubsub"
	storeopt "github.com/zdunecki/graphfleet/pkg/store/options"
	"github.com/zdunecki/graphfleet/test"
)

type eventLog struct {
	mu     sync.Mutex
	events []*metav1.FleetEvent
}

func (l *eventLog) add(b []byte) {
	event, err := pubsub.DecodeEvent(b)
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, event)
}

func (l *eventLog) count(t metav1.FleetEventType) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, e := range l.events {
		if e.Type == t {
			n++
		}
	}

	return n
}

func TestFleet(t *testing.T) {
	skipUnlessE2E(t)

	ctx := context.Background()

	s := storage(t,
		storeopt.Client().WithMongoDB(dbName, mongoClientOptions(t)).Workers(),
		storeopt.Client().WithETCD(etcdConfig(t), "graphfleet-fleet/").Partitions(),
	)

	ps, err := pubsub.NewKafka(kafkaBroker(t))
	if err != nil {
		t.Fatal(err)
	}
	defer ps.Close()

	events := &eventLog{}
	if err := ps.Subscribe(pubsub.DefaultTopic, events.add); err != nil {
		t.Fatal(err)
	}

	lis, _ := test.Listen(t)
	port := test.Port(t, lis)

	k8s, err := cluster.NewK8sCluster(testkit.NewClientset("127.0.0.1"), &cluster.Config{Namespace: "graphfleet"})
	if err != nil {
		t.Fatal(err)
	}

	c, err := controller.New(ctx, "10.0.0.1", 1,
		controller.WithCluster(k8s),
		controller.WithStorage(s),
		controller.WithInstancePorts(port, port+1),
		controller.WithProbe(probe.New(probe.WithBackoff(time.Millisecond*50), probe.WithTimeout(time.Second*5))),
		controller.WithShutdown(nil, time.Millisecond*200),
		controller.WithMaxWorkerCount("3"),
		controller.WithPublisher(pubsub.NewEventPublisher(ps, pubsub.DefaultTopic)),
	)
	if err != nil {
		t.Fatal(err)
	}

	apiV1, err := v1.New(v1.WithController(c))
	if err != nil {
		t.Fatal(err)
	}

	a := api.New(chi.NewRouter())
	if err := apiV1.Register(a); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	client, err := sdk.NewWithOpts(sdk.WithHTTPAddr(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	scaled, err := client.Workers().ScaleUp(5)
	if err != nil {
		t.Fatal(err)
	}
	test.Diff(t, "scale up should fill the capacity left", 2, len(scaled.Workers))

	fleet, err := client.Fleet()
	if err != nil {
		t.Fatal(err)
	}
	test.Diff(t, "fleet should equal", &metav1.Fleet{Count: 3, MaxWorkers: 3}, fleet)

	rows, err := s.Workers().List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	test.Diff(t, "every active worker should have a metadata row", 3, len(rows))

	if err := client.Workers().ScaleDown([]int{0, 1, 2}); err != nil {
		t.Fatal(err)
	}

	rows, err = s.Workers().List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	test.Diff(t, "metadata rows should be removed", 0, len(rows))

	test.Eventually(t, "kafka should deliver fleet events", time.Second*30, func() bool {
		return events.count(metav1.FleetEventWorkerActive) == 3 && events.count(metav1.FleetEventWorkerRemoved) == 3
	})
}
