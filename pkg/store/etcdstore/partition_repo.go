package etcdstore

import (
	"context"

	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
	"github.com/zdunecki/graphfleet/pkg/store"
	clientv3 "go.etcd.io/etcd/client/v3"
)

type partitionRepo struct {
	etcd      *clientv3.Client
	namespace string
}

func NewPartitionRepository(etcd *clientv3.Client, namespace string) store.Partitions {
	return &partitionRepo{
		etcd:      etcd,
		namespace: namespace,
	}
}

func (r *partitionRepo) Insert(ctx context.Context, p *metav1.WorkerPartition) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}

	_, err = r.etcd.Put(ctx, r.namespace+store.PartitionKey(p), string(b))
	return err
}

func (r *partitionRepo) FindByWorkerID(ctx context.Context, workerID int) ([]*metav1.WorkerPartition, error) {
	resp, err := r.etcd.Get(ctx, r.namespace+store.PartitionPrefix(workerID), clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	var partitions []*metav1.WorkerPartition

	for _, kv := range resp.Kvs {
		var p *metav1.WorkerPartition
		if err := json.Unmarshal(kv.Value, &p); err != nil {
			return nil, err
		}

		partitions = append(partitions, p)
	}

	store.SortPartitions(partitions)

	return partitions, nil
}

func (r *partitionRepo) DeleteByWorkerID(ctx context.Context, workerID int) error {
	_, err := r.etcd.Delete(ctx, r.namespace+store.PartitionPrefix(workerID), clientv3.WithPrefix())
	return err
}
