// Package scale removes workers that stayed unused for too long.
package scale

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
	"github.com/zdunecki/graphfleet/pkg/utils/roundrobin"
)

const DefaultInterval = time.Minute

var (
	ErrNoWorkers     = errors.New("no active workers")
	ErrIdleTTLNotSet = errors.New("idle ttl is not set")
)

// Fleet is the part of the controller the scaler drives.
type Fleet interface {
	Workers() []*metav1.Worker
	ScaleDown(ctx context.Context, ids []int)
}

type Scaler interface {
	Acquire(id int)
	Release(id int)
	Uses(id int) int

	// Pick acquires the next active worker round robin.
	Pick() (*metav1.Worker, error)

	// Sweep removes idle workers once and returns their ids.
	Sweep(ctx context.Context) []int

	Run(ctx context.Context) error
	Stop()
}

type scaler struct {
	fleet Fleet

	idleTTL    time.Duration
	interval   time.Duration
	minWorkers int
	now        func() time.Time

	mu        sync.Mutex
	uses      map[int]int
	idleSince map[int]time.Time

	rr    *roundrobin.RoundRobin
	rrIDs []int

	stopC    chan struct{}
	stopOnce sync.Once

	log *log.Entry
}

func New(fleet Fleet, opts ...Option) Scaler {
	s := &scaler{
		fleet:     fleet,
		interval:  DefaultInterval,
		now:       time.Now,
		uses:      make(map[int]int),
		idleSince: make(map[int]time.Time),
		stopC:     make(chan struct{}),
		log: log.WithFields(map[string]interface{}{
			"service": "scaler",
		}),
	}

	for _, o := range opts {
		o(s)
	}

	return s
}

func (s *scaler) Acquire(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.uses[id]++
	delete(s.idleSince, id)
}

func (s *scaler) Release(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.uses[id] <= 1 {
		delete(s.uses, id)
		s.idleSince[id] = s.now()
		return
	}

	s.uses[id]--
}

func (s *scaler) Uses(id int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.uses[id]
}

func (s *scaler) Pick() (*metav1.Worker, error) {
	workers := s.fleet.Workers()
	if len(workers) == 0 {
		return nil, ErrNoWorkers
	}

	s.mu.Lock()
	if !sameIDs(s.rrIDs, workers) {
		items := make([]interface{}, len(workers))
		s.rrIDs = make([]int, len(workers))
		for i, w := range workers {
			items[i] = w
			s.rrIDs[i] = w.ID
		}
		s.rr = roundrobin.New(items)
	}
	rr := s.rr
	s.mu.Unlock()

	item, err := rr.Next()
	if err != nil {
		return nil, err
	}

	w := item.(*metav1.Worker)
	s.Acquire(w.ID)

	return w, nil
}

func (s *scaler) Sweep(ctx context.Context) []int {
	if s.idleTTL <= 0 {
		return nil
	}

	workers := s.fleet.Workers()
	now := s.now()

	var idle []int

	s.mu.Lock()
	live := make(map[int]bool, len(workers))
	for _, w := range workers {
		live[w.ID] = true

		if s.uses[w.ID] > 0 {
			continue
		}

		since, ok := s.idleSince[w.ID]
		if !ok {
			s.idleSince[w.ID] = now
			continue
		}

		if now.Sub(since) >= s.idleTTL {
			idle = append(idle, w.ID)
		}
	}

	// forget workers removed by someone else
	for id := range s.idleSince {
		if !live[id] {
			delete(s.idleSince, id)
		}
	}
	s.mu.Unlock()

	// newest workers go first
	sort.Sort(sort.Reverse(sort.IntSlice(idle)))

	if removable := len(workers) - s.minWorkers; len(idle) > removable {
		if removable < 0 {
			removable = 0
		}
		idle = idle[:removable]
	}

	if len(idle) == 0 {
		return nil
	}

	s.log.Infof("removing idle workers %v", idle)
	s.fleet.ScaleDown(ctx, idle)

	s.mu.Lock()
	for _, id := range idle {
		delete(s.idleSince, id)
		delete(s.uses, id)
	}
	s.mu.Unlock()

	return idle
}

func (s *scaler) Run(ctx context.Context) error {
	if s.idleTTL <= 0 {
		return ErrIdleTTLNotSet
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Infof("idle scale down every %s, idle ttl %s, min workers %d", s.interval, s.idleTTL, s.minWorkers)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopC:
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

func (s *scaler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopC)
	})
}

func sameIDs(ids []int, workers []*metav1.Worker) bool {
	if len(ids) != len(workers) {
		return false
	}

	for i, w := range workers {
		if ids[i] != w.ID {
			return false
		}
	}

	return true
}
