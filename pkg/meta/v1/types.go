package v1

import (
	"net"
	"strconv"
	"time"
)

type WorkerStatus string

const (
	WorkerStatusRequested WorkerStatus = "Requested"

	WorkerStatusProvisioning WorkerStatus = "Provisioning"

	WorkerStatusAwaitingReady WorkerStatus = "AwaitingReady"

	WorkerStatusActive WorkerStatus = "Active"

	WorkerStatusDeleting WorkerStatus = "Deleting"

	WorkerStatusFailed WorkerStatus = "Failed"

	WorkerStatusRemoved WorkerStatus = "Removed"
)

type WorkerStatusList []WorkerStatus

var WorkerStatusListAll WorkerStatusList = []WorkerStatus{
	WorkerStatusRequested,
	WorkerStatusProvisioning,
	WorkerStatusAwaitingReady,
	WorkerStatusActive,
	WorkerStatusDeleting,
	WorkerStatusFailed,
	WorkerStatusRemoved,
}

// HostRefClusterManaged marks a worker row that has no physical host row behind it.
const HostRefClusterManaged = -1

type Worker struct {
	ID int `json:"id" bson:"_id"`

	// HostRef points to a physical host row, HostRefClusterManaged for cluster workers.
	HostRef int `json:"host_ref" bson:"host_ref"`

	// IP is a stable cluster ip of the worker service.
	IP string `json:"ip" bson:"ip"`

	Port int `json:"port" bson:"port"`

	DataPort int `json:"data_port" bson:"data_port"`

	ServiceName string `json:"service_name" bson:"service_name"`

	Status WorkerStatus `json:"status" bson:"status"`
}

func (w *Worker) Addr() string {
	return net.JoinHostPort(w.IP, strconv.Itoa(w.Port))
}

func (w *Worker) DataAddr() string {
	return net.JoinHostPort(w.IP, strconv.Itoa(w.DataPort))
}

type WorkerPartition struct {
	PartitionID int `json:"partition_id" bson:"partition_id"`
	GraphID     int `json:"graph_id" bson:"graph_id"`
	WorkerID    int `json:"worker_id" bson:"worker_id"`
}

// IDReservation is a half-open range of worker ids [Start, Start+Count).
type IDReservation struct {
	Start int `json:"start"`
	Count int `json:"count"`
}

func (r IDReservation) End() int {
	return r.Start + r.Count
}

func (r IDReservation) Contains(id int) bool {
	return id >= r.Start && id < r.End()
}

func (r IDReservation) IDs() []int {
	ids := make([]int, 0, r.Count)
	for id := r.Start; id < r.End(); id++ {
		ids = append(ids, id)
	}

	return ids
}

type FleetEventType string

const (
	FleetEventWorkerActive FleetEventType = "worker.active"

	FleetEventWorkerFailed FleetEventType = "worker.failed"

	FleetEventWorkerRemoved FleetEventType = "worker.removed"

	FleetEventWorkerAttached FleetEventType = "worker.attached"
)

type FleetEvent struct {
	Type     FleetEventType `json:"type"`
	WorkerID int            `json:"worker_id"`
	Address  string         `json:"address,omitempty"`
	Status   WorkerStatus   `json:"status"`
	At       time.Time      `json:"at"`
}

type Fleet struct {
	Count      int `json:"count"`
	MaxWorkers int `json:"max_workers"`
}
