// Package reactive provides the small observable/computed substrate the grid
// pipeline is built on: mutable cells, derived cells that can defer their
// recomputation to the next scheduler tick, and the scheduler itself.
//
// Cells are not safe for concurrent use. All reads and writes happen on the
// scheduler's loop, either inside a task or inside Scheduler.Run. The only
// goroutine-safe entry point is Scheduler.Schedule.
package reactive

import (
	"context"
	"slices"
	"sync"
)

// Scheduler is a FIFO task queue. One Flush drains the queue, including tasks
// queued while draining, and counts as one tick.
//
// Deferred cells wait in a second queue. A tick runs plain tasks first, then
// recomputes dirty cells lowest level first, so a cell only ever evaluates
// against upstream cells that have already settled.
type Scheduler struct {
	mu    sync.Mutex // guards queue and cells
	queue []func()
	cells []pending
	wake  chan struct{}

	loop sync.Mutex // held while tasks run
}

// pending is a deferred cell awaiting its recompute.
type pending interface {
	level() int
	recompute()
}

func NewScheduler() *Scheduler {
	return &Scheduler{wake: make(chan struct{}, 1)}
}

// Schedule enqueues fn for the next tick. It may be called from any goroutine.
func (s *Scheduler) Schedule(fn func()) {
	s.mu.Lock()
	s.queue = append(s.queue, fn)
	s.mu.Unlock()
	s.signal()
}

func (s *Scheduler) enqueue(c pending) {
	s.mu.Lock()
	s.cells = append(s.cells, c)
	s.mu.Unlock()
	s.signal()
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Pending reports the number of queued tasks and dirty cells.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue) + len(s.cells)
}

// Run executes each fn on the loop, draining the queue after every one of them.
// Tasks must not call Run or Flush themselves.
func (s *Scheduler) Run(fns ...func()) int {
	s.loop.Lock()
	defer s.loop.Unlock()

	n := 0
	for _, fn := range fns {
		if fn != nil {
			fn()
		}
		n += s.drain()
	}
	if len(fns) == 0 {
		n += s.drain()
	}
	return n
}

// Flush runs every pending task and returns how many ran.
func (s *Scheduler) Flush() int {
	return s.Run()
}

// Loop flushes the queue whenever a task is scheduled, until ctx is done.
func (s *Scheduler) Loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
			s.Flush()
		}
	}
}

func (s *Scheduler) drain() int {
	n := 0
	for {
		if task := s.nextTask(); task != nil {
			task()
			n++
			continue
		}
		c := s.nextCell()
		if c == nil {
			return n
		}
		c.recompute()
		n++
	}
}

func (s *Scheduler) nextTask() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil
	}
	task := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]
	return task
}

// nextCell pops the dirty cell with the lowest level, oldest first on ties.
func (s *Scheduler) nextCell() pending {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.cells) == 0 {
		return nil
	}
	low := 0
	for i, c := range s.cells {
		if c.level() < s.cells[low].level() {
			low = i
		}
	}
	c := s.cells[low]
	s.cells = slices.Delete(s.cells, low, low+1)
	return c
}
