package v1

import "errors"

var (
	ErrInvalidStatus     = errors.New("invalid worker status")
	ErrInvalidTransition = errors.New("invalid worker status transition")
)

// transitions is the per-id lifecycle. Failed and Removed have no way out.
var transitions = map[WorkerStatus][]WorkerStatus{
	WorkerStatusRequested:     {WorkerStatusProvisioning, WorkerStatusFailed},
	WorkerStatusProvisioning:  {WorkerStatusAwaitingReady, WorkerStatusFailed},
	WorkerStatusAwaitingReady: {WorkerStatusActive, WorkerStatusDeleting, WorkerStatusFailed},
	WorkerStatusActive:        {WorkerStatusDeleting},
	WorkerStatusDeleting:      {WorkerStatusRemoved, WorkerStatusFailed},
}

func (l WorkerStatusList) isValid(s WorkerStatus) bool {
	for _, status := range l {
		if s == status {
			return true
		}
	}

	return false
}

func (s WorkerStatus) Validate() error {
	if !WorkerStatusListAll.isValid(s) {
		return ErrInvalidStatus
	}

	return nil
}

func (s WorkerStatus) Terminal() bool {
	return s == WorkerStatusFailed || s == WorkerStatusRemoved
}

// InFlight reports whether a spawn attempt still holds the id.
func (s WorkerStatus) InFlight() bool {
	return s == WorkerStatusRequested || s == WorkerStatusProvisioning || s == WorkerStatusAwaitingReady
}

func CanTransition(from, to WorkerStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}

	return false
}

func (w *Worker) Validate() error {
	if w.ID < 0 {
		return errors.New("worker id must not be negative")
	}

	if w.IP == "" {
		return errors.New("worker ip is required")
	}

	if w.Port <= 0 || w.DataPort <= 0 {
		return errors.New("worker ports are required")
	}

	return nil
}
