package mgostore

const (
	DefaultMongoAddr    = "mongodb://localhost:27017"
	DefaultDatabaseName = "graphfleet"

	DefaultCollectionWorkerName    = "worker"
	DefaultCollectionPartitionName = "worker_has_partition"
)
