package sdk

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v3"
	jsoniter "github.com/json-iterator/go"
	v1 "github.com/zdunecki/graphfleet/api/v1"
	"github.com/zdunecki/graphfleet/api/v1/objects"
	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
)

type rest interface {
	get(resource string, outPtr interface{}) error

	post(resource string, body interface{}, outPtr interface{}) error

	delete(resource string, body interface{}, outPtr interface{}) error
}

type httpClient struct {
	apiURL string
	http   *http.Client

	retryElapsed time.Duration

	workers v1.Workers
}

func newHTTPClient(apiURL string, http *http.Client, retryElapsed time.Duration) v1.V1 {
	c := &httpClient{
		apiURL:       apiURL,
		http:         http,
		retryElapsed: retryElapsed,
	}

	c.workers = &httpWorkers{
		rest: &httpClient{
			apiURL:       apiURL + "/workers",
			http:         http,
			retryElapsed: retryElapsed,
		},
	}

	return c
}

func (c *httpClient) Workers() v1.Workers {
	return c.workers
}

func (c *httpClient) Fleet() (*metav1.Fleet, error) {
	fleet := &metav1.Fleet{}

	if err := c.get("/fleet", fleet); err != nil {
		return nil, err
	}

	return fleet, nil
}

func (c *httpClient) get(resource string, outPtr interface{}) error {
	if c.retryElapsed <= 0 {
		return c.request(http.MethodGet, resource, nil, outPtr)
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = time.Second * 2
	bo.MaxElapsedTime = c.retryElapsed

	return backoff.Retry(func() error {
		err := c.request(http.MethodGet, resource, nil, outPtr)

		var apiErr *objects.APIError
		if errors.As(err, &apiErr) {
			return backoff.Permanent(err)
		}

		return err
	}, bo)
}

func (c *httpClient) post(resource string, body interface{}, outPtr interface{}) error {
	return c.request(http.MethodPost, resource, body, outPtr)
}

func (c *httpClient) delete(resource string, body interface{}, outPtr interface{}) error {
	return c.request(http.MethodDelete, resource, body, outPtr)
}

func (c *httpClient) request(method, resource string, body interface{}, outPtr interface{}) error {
	var bodyReader io.Reader

	if body != nil {
		b, err := jsoniter.Marshal(body)
		if err != nil {
			return err
		}

		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.apiURL+resource, bodyReader)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		if outPtr != nil && resp.StatusCode != http.StatusNoContent {
			return jsoniter.NewDecoder(resp.Body).Decode(outPtr)
		}

		return nil
	}

	if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < 600 {
		apiErr := &objects.APIError{}

		if err := jsoniter.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			// some statuses, like 413, come without a body
			return &objects.APIError{
				Type:    objects.ErrorTypeInternal,
				Message: resp.Status,
			}
		}

		return apiErr
	}

	return nil
}
