package mgostore

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/zdunecki/graphfleet/pkg/store"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Storage interface {
	store.Storage
}

type mgo struct {
	client *client

	workers    store.Workers
	partitions store.Partitions
}

// NewStore connects to mongo and uses dbName, DefaultDatabaseName when empty.
func NewStore(dbName string, opts ...*options.ClientOptions) (Storage, error) {
	c, err := NewClient(opts...)
	if err != nil {
		return nil, err
	}

	if dbName != "" {
		c.SetDatabaseName(dbName)
	}

	m := newStore(c.DB())
	m.client = c

	return m, nil
}

func newStore(db *mongo.Database) *mgo {
	logger := log.WithFields(map[string]interface{}{
		"service": "store",
		"driver":  "mongo",
	})

	return &mgo{
		workers:    NewWorkerRepository(db.Collection(DefaultCollectionWorkerName), logger),
		partitions: NewPartitionRepository(db.Collection(DefaultCollectionPartitionName)),
	}
}

func (m *mgo) Workers() store.Workers {
	return m.workers
}

func (m *mgo) Partitions() store.Partitions {
	return m.partitions
}

func (m *mgo) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}

	return m.client.Disconnect(ctx)
}
