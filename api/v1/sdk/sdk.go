package sdk

import (
	"errors"
	"net/http"

	v1 "github.com/zdunecki/graphfleet/api/v1"
	"github.com/zdunecki/graphfleet/pkg/util"
)

var ErrNoAddr = errors.New("api url is not defined")

func NewWithOpts(opts ...Option) (v1.V1, error) {
	opt := &options{
		timeout: DefaultTimeout,
	}

	for _, o := range opts {
		o(opt)
	}

	if opt.addr == "" {
		return nil, ErrNoAddr
	}

	return newHTTPClient(util.BaseAddr(opt.addr)+"/v1", &http.Client{
		Timeout: opt.timeout,
	}, opt.retryElapsed), nil
}
