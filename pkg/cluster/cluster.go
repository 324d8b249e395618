package cluster

import (
	"context"
	"fmt"
)

type Resource string

const (
	ResourceVolume      Resource = "persistentvolume"
	ResourceVolumeClaim Resource = "persistentvolumeclaim"
	ResourceService     Resource = "service"
	ResourceDeployment  Resource = "deployment"
)

const (
	AppLabel = "graphfleet-worker"

	LabelApp        = "app"
	LabelDeployment = "deployment"
	LabelService    = "service"
	LabelWorkerID   = "workerId"
)

// DeploymentSelector matches every worker deployment managed by the controller.
var DeploymentSelector = fmt.Sprintf("%s=%s", LabelDeployment, AppLabel)

func ServiceSelector(workerID int) string {
	return fmt.Sprintf("%s=%s,%s=%d", LabelService, AppLabel, LabelWorkerID, workerID)
}

// Descriptor is what the cluster returns for a created or listed object.
// A descriptor without a Name is never a successful create.
type Descriptor struct {
	Name      string
	Labels    map[string]string
	ClusterIP string
}

type Cluster interface {
	CreateVolume(ctx context.Context, workerID int) (*Descriptor, error)
	CreateVolumeClaim(ctx context.Context, workerID int) (*Descriptor, error)
	CreateService(ctx context.Context, workerID int) (*Descriptor, error)
	CreateDeployment(ctx context.Context, workerID int, clusterIP, masterAddr string) (*Descriptor, error)

	DeleteDeployment(ctx context.Context, workerID int) error
	DeleteService(ctx context.Context, workerID int) error
	DeleteVolume(ctx context.Context, workerID int) error
	DeleteVolumeClaim(ctx context.Context, workerID int) error

	ListDeployments(ctx context.Context, selector string) ([]*Descriptor, error)
	ListServices(ctx context.Context, selector string) ([]*Descriptor, error)
}

func WorkerName(workerID int) string {
	return fmt.Sprintf("%s-%d", AppLabel, workerID)
}

func VolumeName(workerID int) string {
	return WorkerName(workerID) + "-pv"
}

func VolumeClaimName(workerID int) string {
	return WorkerName(workerID) + "-pvc"
}
