package v1

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/zdunecki/graphfleet/api"
	"github.com/zdunecki/graphfleet/api/v1/objects"
	"github.com/zdunecki/graphfleet/api/v1/router"
	"github.com/zdunecki/graphfleet/pkg/controller"
	"github.com/zdunecki/graphfleet/pkg/scale"
)

type v1 struct {
	controller controller.Controller
	scaler     scale.Scaler

	gatherer prometheus.Gatherer

	log *log.Entry
}

func New(opts ...Option) (*v1, error) {
	v := &v1{
		log: log.WithFields(map[string]interface{}{
			"service": "api",
		}),
	}

	for _, o := range opts {
		if err := o(v); err != nil {
			return nil, err
		}
	}

	return v, nil
}

// Register mounts every v1 route on a.
func (apiv1 *v1) Register(a api.API) error {
	if apiv1.controller == nil {
		return objects.ErrNoController
	}

	return router.New(a, apiv1.controller, apiv1.scaler, apiv1.gatherer, apiv1.log)
}

func (apiv1 *v1) Serve(addr string, a api.API) error {
	if err := apiv1.Register(a); err != nil {
		return err
	}

	apiv1.log.Info("listening on: ", addr)

	return http.ListenAndServe(addr, a.Handler())
}

func (apiv1 *v1) Controller() controller.Controller {
	return apiv1.controller
}
