package etcdstore

import (
	"context"

	jsoniter "github.com/json-iterator/go"
	"github.com/zdunecki/graphfleet/pkg/store"
	clientv3 "go.etcd.io/etcd/client/v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type etcd struct {
	client *clientv3.Client

	workers    store.Workers
	partitions store.Partitions
}

type Storage interface {
	store.Storage
}

// NewStorage keeps fleet rows under namespace (may be empty) of the etcd keyspace.
func NewStorage(c *clientv3.Client, namespace string) Storage {
	return &etcd{
		client:     c,
		workers:    NewWorkerRepository(c, namespace),
		partitions: NewPartitionRepository(c, namespace),
	}
}

func (e *etcd) Workers() store.Workers {
	return e.workers
}

func (e *etcd) Partitions() store.Partitions {
	return e.partitions
}

func (e *etcd) Close(ctx context.Context) error {
	return e.client.Close()
}
