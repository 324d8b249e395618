package cachestore

import (
	"context"

	"github.com/zdunecki/graphfleet/internal/cache"
	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
	"github.com/zdunecki/graphfleet/pkg/store"
)

type partitionRepo struct {
	cache cache.Cache
}

func NewPartitionRepository(c cache.Cache) store.Partitions {
	return &partitionRepo{
		cache: c,
	}
}

func (r *partitionRepo) Insert(ctx context.Context, p *metav1.WorkerPartition) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}

	return r.cache.Set(store.PartitionKey(p), b)
}

func (r *partitionRepo) FindByWorkerID(ctx context.Context, workerID int) ([]*metav1.WorkerPartition, error) {
	var partitions []*metav1.WorkerPartition

	err := r.cache.Scan(store.PartitionPrefix(workerID), func(key string, value []byte) error {
		var p *metav1.WorkerPartition
		if err := json.Unmarshal(value, &p); err != nil {
			return err
		}

		partitions = append(partitions, p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	store.SortPartitions(partitions)

	return partitions, nil
}

func (r *partitionRepo) DeleteByWorkerID(ctx context.Context, workerID int) error {
	found, err := keys(r.cache, store.PartitionPrefix(workerID))
	if err != nil {
		return err
	}

	for _, key := range found {
		if err := del(r.cache, key); err != nil {
			return err
		}
	}

	return nil
}
