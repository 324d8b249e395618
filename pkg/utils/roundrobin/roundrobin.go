package roundrobin

import (
	"errors"
	"sync"
)

var ErrEmpty = errors.New("round robin has no items")

type RoundRobin struct {
	mu       sync.Mutex
	next     int
	itemsLen int
	items    []interface{}
}

func New(items []interface{}) *RoundRobin {
	return &RoundRobin{
		items:    items,
		itemsLen: len(items),
	}
}

func (rr *RoundRobin) Next() (interface{}, error) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	if rr.itemsLen == 0 {
		return nil, ErrEmpty
	}

	r := rr.items[rr.next]
	rr.next = (rr.next + 1) % rr.itemsLen

	return r, nil
}

func (rr *RoundRobin) Len() int {
	return rr.itemsLen
}
