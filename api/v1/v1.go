package v1

import (
	"github.com/zdunecki/graphfleet/api/v1/objects"
	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
)

type Workers interface {
	// All lists tracked workers, an empty status means every status.
	All(status metav1.WorkerStatus) ([]*metav1.Worker, error)
	Get(id int) (*metav1.Worker, error)
	ScaleUp(count int) (*objects.ResponseScaleUp, error)
	ScaleDown(ids []int) error
	Delete(id int) error

	// Pick hands out the next active worker round robin and counts it as in use.
	Pick() (*metav1.Worker, error)
	Acquire(id int) (*objects.ResponseUses, error)
	Release(id int) (*objects.ResponseUses, error)
}

type V1 interface {
	Workers() Workers
	Fleet() (*metav1.Fleet, error)
}
