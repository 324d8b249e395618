package controller

import (
	"errors"
	"sync"
	"testing"

	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
	"github.com/zdunecki/graphfleet/test"
)

func TestFleetReserveCountsInFlight(t *testing.T) {
	f := newFleet()
	a := NewAllocator(0)

	first := f.reserve(a, 3, 4)
	test.Diff(t, "first reservation should equal", metav1.IDReservation{Start: 0, Count: 3}, first)

	// nothing is active yet, in-flight ids still hold capacity
	second := f.reserve(a, 3, 4)
	test.Diff(t, "second reservation should be clamped", metav1.IDReservation{Start: 3, Count: 1}, second)

	third := f.reserve(a, 1, 4)
	test.Diff(t, "full fleet should reserve nothing", 0, third.Count)
}

func TestFleetTransitions(t *testing.T) {
	f := newFleet()
	a := NewAllocator(0)

	if !f.track(a, 1) {
		t.Fatal("new id should be tracked")
	}
	if f.track(a, 1) {
		t.Error("tracked id should not be tracked again")
	}

	err := f.transition(1, metav1.WorkerStatusActive)
	if !errors.Is(err, metav1.ErrInvalidTransition) {
		t.Errorf("requested worker should not become active directly, got %v", err)
	}

	for _, status := range []metav1.WorkerStatus{metav1.WorkerStatusProvisioning, metav1.WorkerStatusAwaitingReady} {
		if err := f.transition(1, status); err != nil {
			t.Fatal(err)
		}
	}

	if err := f.activate(&metav1.Worker{ID: 1, IP: "10.0.0.1", Port: 1, DataPort: 2}); err != nil {
		t.Fatal(err)
	}
	test.Diff(t, "count should equal", 1, f.count())

	if !f.beginDelete(&metav1.Worker{ID: 1}) {
		t.Fatal("active worker should be deletable")
	}
	if f.beginDelete(&metav1.Worker{ID: 1}) {
		t.Error("a running delete should not start again")
	}
	test.Diff(t, "deleting worker should leave the active set", 0, f.count())

	if err := f.transition(1, metav1.WorkerStatusRemoved); err != nil {
		t.Fatal(err)
	}

	if err := f.transition(2, metav1.WorkerStatusRemoved); !errors.Is(err, ErrWorkerNotTracked) {
		t.Errorf("untracked id should fail, got %v", err)
	}
}

func TestFleetAttach(t *testing.T) {
	f := newFleet()
	a := NewAllocator(0)

	w := &metav1.Worker{ID: 4, IP: "10.0.0.4"}

	test.Diff(t, "untracked id should be claimed", attachClaimed, f.claimAttach(a, 4))
	test.Diff(t, "claimed id should be busy", attachBusy, f.claimAttach(a, 4))
	test.Diff(t, "claimed id should not be tracked by a spawn", false, f.track(a, 4))
	test.Diff(t, "claimed id should not be deleted", false, f.beginDelete(w))

	f.attach(w)

	test.Diff(t, "attached id should be active", attachActive, f.claimAttach(a, 4))
	test.Diff(t, "count should equal", 1, f.count())
	test.Diff(t, "active list should equal", 1, len(f.list(metav1.WorkerStatusActive)))
	test.Diff(t, "allocator should move past the attached id", 5, a.Next())
}

func TestFleetAttachSkipsOwnedIDs(t *testing.T) {
	f := newFleet()
	a := NewAllocator(0)

	r := f.reserve(a, 3, 4)
	test.Diff(t, "reservation should equal", metav1.IDReservation{Start: 0, Count: 3}, r)

	if err := f.transition(1, metav1.WorkerStatusProvisioning); err != nil {
		t.Fatal(err)
	}
	for _, status := range []metav1.WorkerStatus{metav1.WorkerStatusProvisioning, metav1.WorkerStatusAwaitingReady} {
		if err := f.transition(2, status); err != nil {
			t.Fatal(err)
		}
	}

	for _, id := range r.IDs() {
		test.Diff(t, "in-flight id should be busy", attachBusy, f.claimAttach(a, id))
	}

	f.attach(&metav1.Worker{ID: 3})
	if !f.beginDelete(&metav1.Worker{ID: 3}) {
		t.Fatal("active worker should be deletable")
	}
	test.Diff(t, "deleting id should be busy", attachBusy, f.claimAttach(a, 3))

	if err := f.transition(3, metav1.WorkerStatusRemoved); err != nil {
		t.Fatal(err)
	}
	test.Diff(t, "removed id should be claimed", attachClaimed, f.claimAttach(a, 3))

	f.release(3)
	test.Diff(t, "released id should be claimable again", attachClaimed, f.claimAttach(a, 3))

	status, _ := f.get(2)
	test.Diff(t, "in-flight status should be untouched", metav1.WorkerStatusAwaitingReady, status.Status)
}

func TestFleetTrackAndReserveNeverShareIDs(t *testing.T) {
	f := newFleet()
	a := NewAllocator(0)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		tracked []int
		batches []metav1.IDReservation
	)

	for i := 0; i < 8; i++ {
		id := i * 2

		wg.Add(2)
		go func() {
			defer wg.Done()

			if f.track(a, id) {
				mu.Lock()
				tracked = append(tracked, id)
				mu.Unlock()
			}
		}()
		go func() {
			defer wg.Done()

			r := f.reserve(a, 1, 64)
			mu.Lock()
			batches = append(batches, r)
			mu.Unlock()
		}()
	}
	wg.Wait()

	owners := make(map[int]int)
	for _, id := range tracked {
		owners[id]++
	}
	for _, r := range batches {
		for _, id := range r.IDs() {
			owners[id]++
		}
	}

	for id, n := range owners {
		if n > 1 {
			t.Errorf("id %d was handed out %d times", id, n)
		}
	}
	test.Diff(t, "every id should be tracked once", len(owners), len(f.list("")))
}
