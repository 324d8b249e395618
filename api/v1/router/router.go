package router

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/zdunecki/graphfleet/api"
	"github.com/zdunecki/graphfleet/api/v1/objects"
	"github.com/zdunecki/graphfleet/pkg/controller"
	"github.com/zdunecki/graphfleet/pkg/scale"
)

type router struct {
	controller controller.Controller
	scaler     scale.Scaler

	log *log.Entry
}

// New mounts the v1 routes. Use tracking routes are mounted only with a scaler, /metrics only with a gatherer.
func New(apiv1 api.API, c controller.Controller, s scale.Scaler, gatherer prometheus.Gatherer, log *log.Entry) error {
	r := &router{
		controller: c,
		scaler:     s,
		log:        log,
	}

	v1Path := "/v1"
	workersPath := v1Path + "/workers"
	fleetPath := v1Path + "/fleet"

	// workers
	apiv1.Get(workersPath, r.workersGetAll)
	apiv1.Get(workersPath+"/{id}", r.workersGetByID)
	apiv1.Post(workersPath+"/scale-up", r.workersScaleUp, api.WithMaxBytes(objects.DefaultMaxPOSTContentLength))
	apiv1.Post(workersPath+"/scale-down", r.workersScaleDown, api.WithMaxBytes(objects.DefaultMaxPOSTContentLength))
	apiv1.Delete(workersPath+"/{id}", r.workersDelete)

	if s != nil {
		apiv1.Post(workersPath+"/pick", r.workersPick)
		apiv1.Post(workersPath+"/{id}/acquire", r.workersAcquire)
		apiv1.Post(workersPath+"/{id}/release", r.workersRelease)
	}

	// fleet
	apiv1.Get(fleetPath, r.fleetGet)

	if gatherer != nil {
		apiv1.Raw("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return nil
}
