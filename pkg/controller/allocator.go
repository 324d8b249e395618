package controller

import (
	"sync"

	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
)

// Allocator hands out worker ids. Ids are never reused, a failed spawn wastes its id.
type Allocator interface {
	// Reserve advances the counter by n and returns the reserved range.
	Reserve(n int) metav1.IDReservation

	// FastForward makes sure the next reservation starts after id.
	FastForward(id int)

	Next() int
}

type allocator struct {
	mu   sync.Mutex
	next int
}

func NewAllocator(start int) Allocator {
	return &allocator{next: start}
}

func (a *allocator) Reserve(n int) metav1.IDReservation {
	if n < 0 {
		n = 0
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	r := metav1.IDReservation{
		Start: a.next,
		Count: n,
	}
	a.next += n

	return r
}

func (a *allocator) FastForward(id int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if id >= a.next {
		a.next = id + 1
	}
}

func (a *allocator) Next() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.next
}
