package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/zdunecki/graphfleet/api"
	"github.com/zdunecki/graphfleet/api/v1/objects"
	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
	"github.com/zdunecki/graphfleet/pkg/scale"
)

func (r *router) workersGetAll(c api.Context) {
	var req objects.RequestListWorkers

	if err := c.BindQuery(&req); err != nil {
		r.log.Error(err)
		r.validationError(c, err)
		return
	}

	if req.Status != "" {
		if err := req.Status.Validate(); err != nil {
			r.validationError(c, err)
			return
		}
	}

	workers := r.controller.List(req.Status)
	if workers == nil {
		workers = []*metav1.Worker{}
	}

	c.JSON(workers)
}

func (r *router) workersGetByID(c api.Context) {
	id, err := c.ParamInt("id")
	if err != nil {
		r.validationError(c, err)
		return
	}

	w, ok := r.controller.Worker(id)
	if !ok {
		c.StatusJSON(http.StatusNotFound, &objects.APIError{
			Type: objects.ErrorTypeNotFound,
		})
		return
	}

	c.JSON(w)
}

func (r *router) workersScaleUp(c api.Context) {
	var req objects.RequestScaleUp

	if err := c.Bind(&req); err != nil {
		r.bindError(c, err)
		return
	}

	if req.Count <= 0 {
		r.validationError(c, errors.New("count must be positive"))
		return
	}

	workers := r.controller.ScaleUp(c.RequestContext(), req.Count)

	c.JSON(&objects.ResponseScaleUp{
		Workers: workers,
	})
}

func (r *router) workersScaleDown(c api.Context) {
	var req objects.RequestScaleDown

	if err := c.Bind(&req); err != nil {
		r.bindError(c, err)
		return
	}

	r.controller.ScaleDown(c.RequestContext(), req.IDs)

	c.NoContent()
}

func (r *router) workersDelete(c api.Context) {
	id, err := c.ParamInt("id")
	if err != nil {
		r.validationError(c, err)
		return
	}

	if err := r.controller.DeleteWorker(c.RequestContext(), id); err != nil {
		r.log.Error(err)
		c.StatusJSON(http.StatusInternalServerError, &objects.APIError{
			Type:    objects.ErrorTypeInternal,
			Message: err.Error(),
		})
		return
	}

	c.NoContent()
}

func (r *router) workersPick(c api.Context) {
	w, err := r.scaler.Pick()
	if errors.Is(err, scale.ErrNoWorkers) {
		c.StatusJSON(http.StatusNotFound, &objects.APIError{
			Type:    objects.ErrorTypeNotFound,
			Message: err.Error(),
		})
		return
	}
	if err != nil {
		r.log.Error(err)
		c.InternalError()
		return
	}

	c.JSON(w)
}

func (r *router) workersAcquire(c api.Context) {
	id, err := c.ParamInt("id")
	if err != nil {
		r.validationError(c, err)
		return
	}

	if w, ok := r.controller.Worker(id); !ok || w.Status != metav1.WorkerStatusActive {
		c.StatusJSON(http.StatusNotFound, &objects.APIError{
			Type:    objects.ErrorTypeNotFound,
			Message: fmt.Sprintf("worker %d is not active", id),
		})
		return
	}

	r.scaler.Acquire(id)

	c.JSON(&objects.ResponseUses{
		ID:   id,
		Uses: r.scaler.Uses(id),
	})
}

func (r *router) workersRelease(c api.Context) {
	id, err := c.ParamInt("id")
	if err != nil {
		r.validationError(c, err)
		return
	}

	if r.scaler.Uses(id) == 0 {
		r.validationError(c, fmt.Errorf("worker %d is not in use", id))
		return
	}

	r.scaler.Release(id)

	c.JSON(&objects.ResponseUses{
		ID:   id,
		Uses: r.scaler.Uses(id),
	})
}

func (r *router) fleetGet(c api.Context) {
	c.JSON(&metav1.Fleet{
		Count:      r.controller.Count(),
		MaxWorkers: r.controller.MaxWorkers(),
	})
}

func (r *router) bindError(c api.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		r.log.Warnf("request body over %s rejected", objects.DefaultMaxPOSTContentLength)
		c.RequestEntityTooLarge()
		return
	}

	r.log.Error(err)
	r.validationError(c, err)
}

func (r *router) validationError(c api.Context, err error) {
	c.StatusJSON(http.StatusBadRequest, &objects.APIError{
		Type:    objects.ErrorTypeValidation,
		Message: err.Error(),
	})
}
