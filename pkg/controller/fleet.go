package controller

import (
	"sort"
	"sync"

	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
)

// fleet is the in-memory worker list and the active-id set, both behind one lock.
type fleet struct {
	mu sync.RWMutex

	workers map[int]*metav1.Worker
	active  map[int]struct{}

	// ids claimed by a running attach, not yet in workers
	attaching map[int]struct{}
}

func newFleet() *fleet {
	return &fleet{
		workers:   make(map[int]*metav1.Worker),
		active:    make(map[int]struct{}),
		attaching: make(map[int]struct{}),
	}
}

type attachClaim int

const (
	attachClaimed attachClaim = iota
	attachActive
	attachBusy
)

// reserve clamps n to the free capacity, reserves the ids and registers them as Requested.
// In-flight spawns count against capacity so concurrent batches can not overshoot max.
func (f *fleet) reserve(alloc Allocator, n, max int) metav1.IDReservation {
	f.mu.Lock()
	defer f.mu.Unlock()

	used := len(f.active)
	for _, w := range f.workers {
		if w.Status.InFlight() {
			used++
		}
	}

	if free := max - used; n > free {
		n = free
	}
	if n <= 0 {
		return metav1.IDReservation{Start: alloc.Next()}
	}

	r := alloc.Reserve(n)
	for _, id := range r.IDs() {
		f.workers[id] = &metav1.Worker{
			ID:      id,
			HostRef: metav1.HostRefClusterManaged,
			Status:  metav1.WorkerStatusRequested,
		}
	}

	return r
}

// track registers an id outside of a reserved batch and moves the allocator past it.
// It fails for ids the fleet has seen already.
func (f *fleet) track(alloc Allocator, id int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	// under the fleet lock so a concurrent reserve can not hand out the same id
	alloc.FastForward(id)

	if _, ok := f.workers[id]; ok {
		return false
	}
	if _, ok := f.attaching[id]; ok {
		return false
	}

	f.workers[id] = &metav1.Worker{
		ID:      id,
		HostRef: metav1.HostRefClusterManaged,
		Status:  metav1.WorkerStatusRequested,
	}

	return true
}

func (f *fleet) transition(id int, to metav1.WorkerStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.transitionLocked(id, to)
}

func (f *fleet) transitionLocked(id int, to metav1.WorkerStatus) error {
	w, ok := f.workers[id]
	if !ok {
		return ErrWorkerNotTracked
	}

	if !metav1.CanTransition(w.Status, to) {
		return &TransitionError{WorkerID: id, From: w.Status, To: to}
	}
	w.Status = to

	if to != metav1.WorkerStatusActive {
		delete(f.active, id)
	}

	return nil
}

func (f *fleet) activate(w *metav1.Worker) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.transitionLocked(w.ID, metav1.WorkerStatusActive); err != nil {
		return err
	}

	active := *w
	active.Status = metav1.WorkerStatusActive

	f.workers[w.ID] = &active
	f.active[w.ID] = struct{}{}

	return nil
}

// claimAttach decides what an attach may do with an id found live in the cluster.
// Only untracked or finished ids are claimed, ids owned by a spawn or a delete are busy.
// A claimed id must be passed to attach or release.
func (f *fleet) claimAttach(alloc Allocator, id int) attachClaim {
	f.mu.Lock()
	defer f.mu.Unlock()

	alloc.FastForward(id)

	if _, ok := f.attaching[id]; ok {
		return attachBusy
	}
	if _, ok := f.active[id]; ok {
		return attachActive
	}
	if w, ok := f.workers[id]; ok && !w.Status.Terminal() {
		return attachBusy
	}

	f.attaching[id] = struct{}{}

	return attachClaimed
}

// attach registers a claimed worker as Active.
func (f *fleet) attach(w *metav1.Worker) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.attaching, w.ID)

	attached := *w
	attached.Status = metav1.WorkerStatusActive

	f.workers[w.ID] = &attached
	f.active[w.ID] = struct{}{}
}

func (f *fleet) release(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.attaching, id)
}

// beginDelete moves an id to Deleting. Ids unknown in memory (a row left by an earlier process) are tracked on the way.
// It returns false when a delete of the id is already running.
func (f *fleet) beginDelete(w *metav1.Worker) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.attaching[w.ID]; ok {
		return false
	}

	current, ok := f.workers[w.ID]
	if !ok || current.Status.Terminal() {
		deleting := *w
		deleting.Status = metav1.WorkerStatusDeleting

		f.workers[w.ID] = &deleting
		delete(f.active, w.ID)

		return true
	}

	if current.Status == metav1.WorkerStatusDeleting {
		return false
	}

	// in-flight spawns own their id until they finish
	if current.Status != metav1.WorkerStatusActive {
		return false
	}

	return f.transitionLocked(w.ID, metav1.WorkerStatusDeleting) == nil
}

func (f *fleet) get(id int) (*metav1.Worker, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	w, ok := f.workers[id]
	if !ok {
		return nil, false
	}

	cp := *w
	return &cp, true
}

func (f *fleet) list(status metav1.WorkerStatus) []*metav1.Worker {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var workers []*metav1.Worker

	for _, w := range f.workers {
		if status != "" && w.Status != status {
			continue
		}

		cp := *w
		workers = append(workers, &cp)
	}

	sort.Slice(workers, func(i, j int) bool {
		return workers[i].ID < workers[j].ID
	})

	return workers
}

func (f *fleet) count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return len(f.active)
}

func (f *fleet) statusCounts() map[metav1.WorkerStatus]int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	counts := make(map[metav1.WorkerStatus]int, len(metav1.WorkerStatusListAll))
	for _, w := range f.workers {
		counts[w.Status]++
	}

	return counts
}
