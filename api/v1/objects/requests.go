package objects

import (
	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
	"github.com/zdunecki/graphfleet/pkg/util"
)

const (
	DefaultMaxPOSTContentLength = util.KB * 4
)

type RequestListWorkers struct {
	Status metav1.WorkerStatus `schema:"status"`
}

type RequestScaleUp struct {
	Count int `json:"count"`
}

type RequestScaleDown struct {
	IDs []int `json:"ids"`
}
