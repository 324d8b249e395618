package store

import (
	"fmt"
	"sort"

	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
)

// Key layout shared by the key-value backends.
const (
	KeyWorker       = "worker"
	PrefixKeyWorker = KeyWorker + "."

	KeyPartition       = "partition"
	PrefixKeyPartition = KeyPartition + "."
)

func WorkerKey(id int) string {
	return fmt.Sprintf("%s%d", PrefixKeyWorker, id)
}

// PartitionPrefix ends with a separator so worker 7 never matches worker 70.
func PartitionPrefix(workerID int) string {
	return fmt.Sprintf("%s%d.", PrefixKeyPartition, workerID)
}

func PartitionKey(p *metav1.WorkerPartition) string {
	return fmt.Sprintf("%s%d.%d", PartitionPrefix(p.WorkerID), p.GraphID, p.PartitionID)
}

func SortWorkers(workers []*metav1.Worker) {
	sort.Slice(workers, func(i, j int) bool {
		return workers[i].ID < workers[j].ID
	})
}

func SortPartitions(partitions []*metav1.WorkerPartition) {
	sort.Slice(partitions, func(i, j int) bool {
		if partitions[i].GraphID != partitions[j].GraphID {
			return partitions[i].GraphID < partitions[j].GraphID
		}
		return partitions[i].PartitionID < partitions[j].PartitionID
	})
}
