package etcdstore

import (
	"context"

	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
	"github.com/zdunecki/graphfleet/pkg/store"
	clientv3 "go.etcd.io/etcd/client/v3"
)

type workerRepo struct {
	etcd      *clientv3.Client
	namespace string
}

func NewWorkerRepository(etcd *clientv3.Client, namespace string) store.Workers {
	return &workerRepo{
		etcd:      etcd,
		namespace: namespace,
	}
}

func (r *workerRepo) Upsert(ctx context.Context, w *metav1.Worker) (int, error) {
	b, err := json.Marshal(w)
	if err != nil {
		return store.InvalidRowID, err
	}

	if _, err := r.etcd.Put(ctx, r.key(store.WorkerKey(w.ID)), string(b)); err != nil {
		return store.InvalidRowID, err
	}

	return w.ID, nil
}

func (r *workerRepo) FindByID(ctx context.Context, id int) (*metav1.Worker, error) {
	resp, err := r.etcd.Get(ctx, r.key(store.WorkerKey(id)))
	if err != nil {
		return nil, err
	}

	if len(resp.Kvs) == 0 {
		return nil, store.ErrNotFound
	}

	return decodeWorker(resp.Kvs[0].Value)
}

func (r *workerRepo) List(ctx context.Context) ([]*metav1.Worker, error) {
	resp, err := r.etcd.Get(ctx, r.key(store.PrefixKeyWorker), clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	var workers []*metav1.Worker

	for _, kv := range resp.Kvs {
		w, err := decodeWorker(kv.Value)
		if err != nil {
			return nil, err
		}

		workers = append(workers, w)
	}

	// keys sort lexically, worker.10 before worker.2
	store.SortWorkers(workers)

	return workers, nil
}

func (r *workerRepo) DeleteByID(ctx context.Context, id int) error {
	_, err := r.etcd.Delete(ctx, r.key(store.WorkerKey(id)))
	return err
}

func (r *workerRepo) DeleteAll(ctx context.Context) error {
	_, err := r.etcd.Delete(ctx, r.key(store.PrefixKeyWorker), clientv3.WithPrefix())
	return err
}

func (r *workerRepo) key(k string) string {
	return r.namespace + k
}

func decodeWorker(b []byte) (*metav1.Worker, error) {
	var w *metav1.Worker

	if err := json.Unmarshal(b, &w); err != nil {
		return nil, err
	}
	w.Status = metav1.WorkerStatusActive

	return w, nil
}
