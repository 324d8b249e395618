package store

import (
	"testing"

	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
	"github.com/zdunecki/graphfleet/test"
)

func TestKeys(t *testing.T) {
	test.Diff(t, "worker key should equal", "worker.12", WorkerKey(12))
	test.Diff(t, "partition key should equal", "partition.7.1.3", PartitionKey(&metav1.WorkerPartition{
		PartitionID: 3,
		GraphID:     1,
		WorkerID:    7,
	}))
	test.Diff(t, "partition prefix should end with separator", "partition.7.", PartitionPrefix(7))
}

func TestSortWorkers(t *testing.T) {
	workers := []*metav1.Worker{{ID: 10}, {ID: 2}, {ID: 1}}
	SortWorkers(workers)

	test.Diff(t, "workers should be sorted by id", []*metav1.Worker{{ID: 1}, {ID: 2}, {ID: 10}}, workers)
}

func TestSortPartitions(t *testing.T) {
	partitions := []*metav1.WorkerPartition{
		{PartitionID: 1, GraphID: 2},
		{PartitionID: 2, GraphID: 1},
		{PartitionID: 0, GraphID: 1},
	}
	SortPartitions(partitions)

	test.Diff(t, "partitions should be sorted by graph then partition", []*metav1.WorkerPartition{
		{PartitionID: 0, GraphID: 1},
		{PartitionID: 2, GraphID: 1},
		{PartitionID: 1, GraphID: 2},
	}, partitions)
}
