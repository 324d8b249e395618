// Package storetest holds behaviour every metadata store backend has to share.
package storetest

import (
	"context"
	"errors"
	"testing"

	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
	"github.com/zdunecki/graphfleet/pkg/store"
	"github.com/zdunecki/graphfleet/test"
)

func worker(id int, ip string) *metav1.Worker {
	return &metav1.Worker{
		ID:          id,
		HostRef:     metav1.HostRefClusterManaged,
		IP:          ip,
		Port:        7780,
		DataPort:    7781,
		ServiceName: "graphfleet-worker",
		Status:      metav1.WorkerStatusActive,
	}
}

func Run(t *testing.T, s store.Repository) {
	t.Run("workers", func(t *testing.T) {
		testWorkers(t, s)
	})
	t.Run("partitions", func(t *testing.T) {
		testPartitions(t, s)
	})
}

func testWorkers(t *testing.T, s store.Repository) {
	ctx := context.Background()

	if err := s.Workers().DeleteAll(ctx); err != nil {
		t.Fatal(err)
	}

	for _, w := range []*metav1.Worker{worker(2, "10.0.0.2"), worker(1, "10.0.0.1")} {
		rowID, err := s.Workers().Upsert(ctx, w)
		if err != nil {
			t.Fatal(err)
		}
		test.Diff(t, "row id should equal worker id", w.ID, rowID)
	}

	// same id twice must not duplicate the row
	if _, err := s.Workers().Upsert(ctx, worker(2, "10.0.0.22")); err != nil {
		t.Fatal(err)
	}

	workers, err := s.Workers().List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	test.Diff(t, "workers should equal", []*metav1.Worker{worker(1, "10.0.0.1"), worker(2, "10.0.0.22")}, workers)

	found, err := s.Workers().FindByID(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	test.Diff(t, "found worker should equal", worker(2, "10.0.0.22"), found)

	if _, err := s.Workers().FindByID(ctx, 42); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing worker should return not found, got %v", err)
	}

	if err := s.Workers().DeleteByID(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Workers().FindByID(ctx, 1); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("deleted worker should return not found, got %v", err)
	}

	if err := s.Workers().DeleteAll(ctx); err != nil {
		t.Fatal(err)
	}

	workers, err = s.Workers().List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	test.Diff(t, "workers should be empty", 0, len(workers))
}

func testPartitions(t *testing.T, s store.Repository) {
	ctx := context.Background()

	partitions := []*metav1.WorkerPartition{
		{PartitionID: 0, GraphID: 1, WorkerID: 7},
		{PartitionID: 1, GraphID: 1, WorkerID: 7},
		{PartitionID: 0, GraphID: 2, WorkerID: 8},
	}

	for _, p := range partitions {
		if err := s.Partitions().Insert(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	found, err := s.Partitions().FindByWorkerID(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	test.Diff(t, "worker partitions should equal", partitions[:2], found)

	if err := s.Partitions().DeleteByWorkerID(ctx, 7); err != nil {
		t.Fatal(err)
	}

	found, err = s.Partitions().FindByWorkerID(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	test.Diff(t, "deleted worker partitions should be empty", 0, len(found))

	other, err := s.Partitions().FindByWorkerID(ctx, 8)
	if err != nil {
		t.Fatal(err)
	}
	test.Diff(t, "other worker partitions should stay", partitions[2:], other)

	if err := s.Partitions().DeleteByWorkerID(ctx, 8); err != nil {
		t.Fatal(err)
	}
}
