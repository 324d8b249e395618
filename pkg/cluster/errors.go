package cluster

import (
	"errors"
	"fmt"
)

var (
	ErrProvisioning    = errors.New("provisioning failed")
	ErrEmptyDescriptor = errors.New("empty resource descriptor")
	ErrNoClusterIP     = errors.New("service has no cluster ip")
	ErrClientRequired  = errors.New("kubernetes client is required")
)

type ProvisioningError struct {
	WorkerID int
	Resource Resource
	Err      error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("worker %d: %s creation failed: %v", e.WorkerID, e.Resource, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

func (e *ProvisioningError) Is(target error) bool {
	return target == ErrProvisioning
}

// Populated turns a create result into a populated descriptor or a *ProvisioningError.
// A nil error alone is not success: the descriptor has to carry a name.
func Populated(workerID int, resource Resource, d *Descriptor, err error) (*Descriptor, error) {
	if err != nil {
		return nil, &ProvisioningError{WorkerID: workerID, Resource: resource, Err: err}
	}

	if d == nil || d.Name == "" {
		return nil, &ProvisioningError{WorkerID: workerID, Resource: resource, Err: ErrEmptyDescriptor}
	}

	if resource == ResourceService && d.ClusterIP == "" {
		return nil, &ProvisioningError{WorkerID: workerID, Resource: resource, Err: ErrNoClusterIP}
	}

	return d, nil
}
