package store

import (
	"context"
	"errors"

	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
)

var ErrNotFound = errors.New("not found")

// InvalidRowID is returned by inserts which did not persist a row.
const InvalidRowID = -1

// Workers is the worker inventory. The fleet controller is its only writer.
type Workers interface {
	// Upsert inserts or replaces the row keyed by worker id and returns the row id.
	Upsert(context.Context, *metav1.Worker) (int, error)

	FindByID(ctx context.Context, id int) (*metav1.Worker, error)
	List(context.Context) ([]*metav1.Worker, error)

	DeleteByID(ctx context.Context, id int) error
	DeleteAll(context.Context) error
}

type Partitions interface {
	Insert(context.Context, *metav1.WorkerPartition) error

	FindByWorkerID(ctx context.Context, workerID int) ([]*metav1.WorkerPartition, error)

	DeleteByWorkerID(ctx context.Context, workerID int) error
}

type Repository interface {
	Workers() Workers
	Partitions() Partitions
}

type Storage interface {
	Repository

	Close(context.Context) error
}
