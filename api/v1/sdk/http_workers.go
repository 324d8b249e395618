package sdk

import (
	"net/url"
	"strconv"

	"github.com/zdunecki/graphfleet/api/v1/objects"
	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
)

type httpWorkers struct {
	rest rest
}

func (c *httpWorkers) All(status metav1.WorkerStatus) ([]*metav1.Worker, error) {
	resource := ""
	if status != "" {
		resource = "?" + url.Values{"status": []string{string(status)}}.Encode()
	}

	resp := make([]*metav1.Worker, 0)

	if err := c.rest.get(resource, &resp); err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *httpWorkers) Get(id int) (*metav1.Worker, error) {
	resp := &metav1.Worker{}

	if err := c.rest.get("/"+strconv.Itoa(id), resp); err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *httpWorkers) ScaleUp(count int) (*objects.ResponseScaleUp, error) {
	resp := &objects.ResponseScaleUp{}

	if err := c.rest.post("/scale-up", &objects.RequestScaleUp{Count: count}, resp); err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *httpWorkers) ScaleDown(ids []int) error {
	return c.rest.post("/scale-down", &objects.RequestScaleDown{IDs: ids}, nil)
}

func (c *httpWorkers) Delete(id int) error {
	return c.rest.delete("/"+strconv.Itoa(id), nil, nil)
}

func (c *httpWorkers) Pick() (*metav1.Worker, error) {
	resp := &metav1.Worker{}

	// not retried, every successful pick counts a use
	if err := c.rest.post("/pick", nil, resp); err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *httpWorkers) Acquire(id int) (*objects.ResponseUses, error) {
	resp := &objects.ResponseUses{}

	if err := c.rest.post("/"+strconv.Itoa(id)+"/acquire", nil, resp); err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *httpWorkers) Release(id int) (*objects.ResponseUses, error) {
	resp := &objects.ResponseUses{}

	if err := c.rest.post("/"+strconv.Itoa(id)+"/release", nil, resp); err != nil {
		return nil, err
	}

	return resp, nil
}
