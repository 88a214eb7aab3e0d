/* YaNCS - Yet another NDN Congestion Simulator
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core

import (
	"container/heap"
	"fmt"
	"math/rand"
	"time"
)

// epoch is the virtual time origin. All simulations start here.
var epoch = time.Unix(0, 0).UTC()

// Scheduler is the discrete-event core: a monotonic virtual clock plus a
// queue of one-shot events. It is strictly single-threaded; events run in
// non-decreasing time order and may schedule further events while running.
// Events armed for the same instant fire in arming order.
type Scheduler struct {
	now    time.Time
	queue  eventQueue
	rng    *rand.Rand
	seq    uint64
	nEvent uint64
}

// NewScheduler creates a scheduler at the virtual epoch. The seed makes
// every random draw inside the simulation reproducible.
func NewScheduler(seed int64) *Scheduler {
	return &Scheduler{
		now: epoch,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Now returns the current virtual time.
func (s *Scheduler) Now() time.Time {
	return s.now
}

// Rand returns the simulation's random source.
func (s *Scheduler) Rand() *rand.Rand {
	return s.rng
}

// Schedule queues f to run after d. It returns a cancellation function
// that removes the event from the queue, failing if the event has
// already fired or been canceled.
func (s *Scheduler) Schedule(d time.Duration, f func()) func() error {
	if d < 0 {
		d = 0
	}
	ev := &event{t: s.now.Add(d), seq: s.seq, f: f}
	s.seq++
	heap.Push(&s.queue, ev)
	return func() error {
		if !s.queue.remove(ev) {
			return fmt.Errorf("event has already fired or been canceled")
		}
		return nil
	}
}

// RunUntil executes events in time order until the queue is exhausted or
// the next event lies beyond t. The clock stops at the last executed
// event.
func (s *Scheduler) RunUntil(t time.Time) {
	for s.queue.Len() > 0 {
		ev := s.queue.peek()
		if ev.t.After(t) {
			break
		}
		heap.Pop(&s.queue)
		s.now = ev.t
		ev.f()
		s.nEvent++
	}
}

// RunFor executes events for a virtual duration from the current time.
// The clock ends exactly at now + d.
func (s *Scheduler) RunFor(d time.Duration) {
	target := s.now.Add(d)
	s.RunUntil(target)
	if target.After(s.now) {
		s.now = target
	}
}

// Run executes events until the queue is exhausted.
func (s *Scheduler) Run() {
	s.RunUntil(time.Unix(0, 1<<62).UTC())
}

// Elapsed returns the virtual time since the epoch.
func (s *Scheduler) Elapsed() time.Duration {
	return s.now.Sub(epoch)
}

// EventCount returns the number of events executed so far.
func (s *Scheduler) EventCount() uint64 {
	return s.nEvent
}

// Pending returns the number of events still queued.
func (s *Scheduler) Pending() int {
	return s.queue.Len()
}
