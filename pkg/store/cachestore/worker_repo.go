package cachestore

import (
	"context"

	"github.com/zdunecki/graphfleet/internal/cache"
	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
	"github.com/zdunecki/graphfleet/pkg/store"
)

type workerRepo struct {
	cache cache.Cache
}

func NewWorkerRepository(c cache.Cache) store.Workers {
	return &workerRepo{
		cache: c,
	}
}

func (r *workerRepo) Upsert(ctx context.Context, w *metav1.Worker) (int, error) {
	b, err := json.Marshal(w)
	if err != nil {
		return store.InvalidRowID, err
	}

	if err := r.cache.Set(store.WorkerKey(w.ID), b); err != nil {
		return store.InvalidRowID, err
	}

	return w.ID, nil
}

func (r *workerRepo) FindByID(ctx context.Context, id int) (*metav1.Worker, error) {
	b, err := r.cache.Get(store.WorkerKey(id))
	if err == cache.ErrEntryNotFound {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return decodeWorker(b)
}

func (r *workerRepo) List(ctx context.Context) ([]*metav1.Worker, error) {
	var workers []*metav1.Worker

	err := r.cache.Scan(store.PrefixKeyWorker, func(key string, value []byte) error {
		w, err := decodeWorker(value)
		if err != nil {
			return err
		}

		workers = append(workers, w)
		return nil
	})
	if err != nil {
		return nil, err
	}

	store.SortWorkers(workers)

	return workers, nil
}

func (r *workerRepo) DeleteByID(ctx context.Context, id int) error {
	return del(r.cache, store.WorkerKey(id))
}

func (r *workerRepo) DeleteAll(ctx context.Context) error {
	found, err := keys(r.cache, store.PrefixKeyWorker)
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

func decodeWorker(b []byte) (*metav1.Worker, error) {
	var w *metav1.Worker

	if err := json.Unmarshal(b, &w); err != nil {
		return nil, err
	}
	w.Status = metav1.WorkerStatusActive

	return w, nil
}
