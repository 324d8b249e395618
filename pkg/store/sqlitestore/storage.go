package sqlitestore

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
	"github.com/zdunecki/graphfleet/pkg/store"
)

const DefaultPath = "graphfleet_metadb.db"

const schema = `
CREATE TABLE IF NOT EXISTS host (
	idhost INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	ip TEXT NOT NULL,
	is_public TEXT NOT NULL DEFAULT 'false'
);
CREATE TABLE IF NOT EXISTS worker (
	idworker INTEGER PRIMARY KEY,
	host_idhost INTEGER NOT NULL,
	name TEXT NOT NULL,
	ip TEXT NOT NULL,
	user TEXT NOT NULL DEFAULT '',
	is_public TEXT NOT NULL DEFAULT 'false',
	server_port INTEGER NOT NULL,
	server_data_port INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS worker_has_partition (
	partition_idpartition INTEGER NOT NULL,
	partition_graph_idgraph INTEGER NOT NULL,
	worker_idworker INTEGER NOT NULL,
	PRIMARY KEY (partition_idpartition, partition_graph_idgraph, worker_idworker)
);
CREATE INDEX IF NOT EXISTS idx_worker_has_partition_worker ON worker_has_partition(worker_idworker);
`

type Storage interface {
	store.Storage

	DB() *sql.DB
}

type sqlite struct {
	db *sql.DB

	workers    store.Workers
	partitions store.Partitions
}

// Open opens (and creates if needed) the metadata database at path.
func Open(ctx context.Context, path string) (Storage, error) {
	if path == "" {
		path = DefaultPath
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL;`); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout=5000;`); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, err
	}

	logger := log.WithFields(map[string]interface{}{
		"service": "store",
		"driver":  "sqlite",
	})
	logger.Infof("database opened successfully: %s", path)

	return &sqlite{
		db:         db,
		workers:    NewWorkerRepository(db, logger),
		partitions: NewPartitionRepository(db),
	}, nil
}

func (s *sqlite) Workers() store.Workers {
	return s.workers
}

func (s *sqlite) Partitions() store.Partitions {
	return s.partitions
}

func (s *sqlite) DB() *sql.DB {
	return s.db
}

func (s *sqlite) Close(ctx context.Context) error {
	return s.db.Close()
}
