package options

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/zdunecki/graphfleet/pkg/store"
	"github.com/zdunecki/graphfleet/pkg/store/cachestore"
	"github.com/zdunecki/graphfleet/pkg/store/etcdstore"
	"github.com/zdunecki/graphfleet/pkg/store/mgostore"
	"github.com/zdunecki/graphfleet/pkg/store/sqlitestore"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type repositoryOpt struct {
	workers    store.Workers
	partitions store.Partitions

	storages []store.Storage
}

// RepositoryOption is one backend plus the repositories picked from it.
type RepositoryOption struct {
	storage store.Storage

	err        error
	repository *repositoryOpt
	picked     bool
}

type clientOpt struct {
}

func Client() *clientOpt {
	return new(clientOpt)
}

// WithStorage merges backends, later options win per repository. Close closes every backend.
func WithStorage(opts ...*RepositoryOption) (store.Storage, error) {
	s := &repositoryOpt{}

	for _, o := range opts {
		if o.err != nil {
			s.Close(context.Background())
			return nil, o.err
		}

		if o.repository.workers != nil {
			s.workers = o.repository.workers
		}
		if o.repository.partitions != nil {
			s.partitions = o.repository.partitions
		}

		s.storages = append(s.storages, o.storage)
	}

	return s, nil
}

func (o *clientOpt) WithMongoDB(dbName string, cfg *options.ClientOptions) *RepositoryOption {
	s, err := mgostore.NewStore(dbName, cfg)
	if err != nil {
		return &RepositoryOption{
			err: err,
		}
	}

	return newRepositoryOption(s)
}

func (o *clientOpt) WithETCD(cfg clientv3.Config, namespace string) *RepositoryOption {
	etcd, err := clientv3.New(cfg)
	if err != nil {
		return &RepositoryOption{
			err: err,
		}
	}

	return newRepositoryOption(etcdstore.NewStorage(etcd, namespace))
}

func (o *clientOpt) WithSQLite(path string) *RepositoryOption {
	s, err := sqlitestore.Open(context.Background(), path)
	if err != nil {
		return &RepositoryOption{
			err: err,
		}
	}

	return newRepositoryOption(s)
}

func (o *clientOpt) WithCache() *RepositoryOption {
	s, err := cachestore.NewStorage()
	if err != nil {
		return &RepositoryOption{
			err: err,
		}
	}

	return newRepositoryOption(s)
}

func newRepositoryOption(s store.Storage) *RepositoryOption {
	return &RepositoryOption{
		storage: s,
		repository: &repositoryOpt{
			workers:    s.Workers(),
			partitions: s.Partitions(),
		},
	}
}

func (s *repositoryOpt) Workers() store.Workers {
	return s.workers
}

func (s *repositoryOpt) Partitions() store.Partitions {
	return s.partitions
}

func (s *repositoryOpt) Close(ctx context.Context) error {
	var result error

	for _, storage := range s.storages {
		if err := storage.Close(ctx); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result
}

// Workers picks the worker repository. Once anything is picked, unpicked repositories are left to other options.
func (o *RepositoryOption) Workers() *RepositoryOption {
	if o.err != nil {
		return o
	}

	o.pick().workers = o.storage.Workers()
	return o
}

func (o *RepositoryOption) Partitions() *RepositoryOption {
	if o.err != nil {
		return o
	}

	o.pick().partitions = o.storage.Partitions()
	return o
}

func (o *RepositoryOption) Err() error {
	return o.err
}

func (o *RepositoryOption) pick() *repositoryOpt {
	if !o.picked {
		o.repository = &repositoryOpt{}
		o.picked = true
	}

	return o.repository
}
