package controller

import (
	"errors"
	"fmt"

	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
)

var (
	ErrClusterIsRequired = errors.New("cluster is required")
	ErrStorageIsRequired = errors.New("storage is required")
	ErrWorkerNotTracked  = errors.New("worker is not tracked")
	ErrInvalidPort       = errors.New("invalid instance port")
)

type TransitionError struct {
	WorkerID int
	From     metav1.WorkerStatus
	To       metav1.WorkerStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("worker %d: %s -> %s: %v", e.WorkerID, e.From, e.To, metav1.ErrInvalidTransition)
}

func (e *TransitionError) Unwrap() error {
	return metav1.ErrInvalidTransition
}
