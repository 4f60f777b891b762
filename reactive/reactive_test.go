package reactive

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservableNotifies(t *testing.T) {
	o := NewObservable(1)
	calls := 0
	sub := o.Subscribe(func() { calls++ })

	o.Set(2)
	o.Set(2)
	assert.Equal(t, 2, calls, "plain observables notify on every set")
	assert.Equal(t, 2, o.Get())

	sub.Dispose()
	o.Set(3)
	assert.Equal(t, 2, calls, "disposed subscription must not fire")
}

func TestCellSkipsEqualWrites(t *testing.T) {
	c := NewCell("a")
	calls := 0
	c.Subscribe(func() { calls++ })

	c.Set("a")
	c.Set("b")
	c.Update(func(s string) string { return s + "c" })

	assert.Equal(t, 2, calls)
	assert.Equal(t, "bc", c.Get())
}

func TestPushKeepsPreviousSlice(t *testing.T) {
	o := NewObservable([]int{1, 2})
	before := o.Get()
	Push(o, 3)

	assert.Equal(t, []int{1, 2}, before)
	assert.Equal(t, []int{1, 2, 3}, o.Get())
}

func TestComputedIsLazy(t *testing.T) {
	s := NewScheduler()
	src := NewObservable(2)
	c := NewComputed(s, func(tr Tracker) int { return Read(tr, src) * 10 })

	assert.Equal(t, 0, c.Evaluations())
	assert.Equal(t, 20, c.Get())
	assert.Equal(t, 1, c.Evaluations())

	src.Set(3)
	assert.Equal(t, 30, c.Get(), "immediate computed recomputes synchronously")
	assert.Equal(t, 2, c.Evaluations())
}

func TestDeferredCoalescesWithinTick(t *testing.T) {
	s := NewScheduler()
	a := NewObservable(1)
	b := NewObservable(1)
	c := NewComputed(s, func(tr Tracker) int { return Read(tr, a) + Read(tr, b) }, Deferred())
	require.Equal(t, 2, c.Get())

	for i := 0; i < 10; i++ {
		a.Set(i)
		b.Set(i)
	}
	assert.Equal(t, 2, c.Get(), "value is stale until the tick runs")
	assert.True(t, c.Dirty())
	assert.Equal(t, 1, s.Pending(), "one recompute scheduled for twenty writes")

	s.Flush()
	assert.Equal(t, 18, c.Get())
	assert.Equal(t, 2, c.Evaluations())
}

func TestDeferredChainSettlesInOneFlush(t *testing.T) {
	s := NewScheduler()
	src := NewObservable(1)
	first := NewComputed(s, func(tr Tracker) int { return Read(tr, src) + 1 }, Deferred())
	second := NewComputed(s, func(tr Tracker) int { return Read(tr, first) * 2 }, Deferred())
	require.Equal(t, 4, second.Get())

	src.Set(5)
	src.Set(6)
	s.Flush()

	assert.Equal(t, 14, second.Get())
	assert.Equal(t, 2, first.Evaluations())
	assert.Equal(t, 2, second.Evaluations())
}

func TestDeferredRecomputesUpstreamFirst(t *testing.T) {
	s := NewScheduler()
	src := NewObservable(1)
	factor := NewObservable(2)
	first := NewComputed(s, func(tr Tracker) int { return Read(tr, src) + 1 }, Deferred())
	var seen []int
	second := NewComputed(s, func(tr Tracker) int {
		v := Read(tr, first) * Read(tr, factor)
		seen = append(seen, v)
		return v
	}, Deferred())
	require.Equal(t, 4, second.Get())

	// second's own dependency changes before the upstream one
	s.Run(func() {
		factor.Set(3)
		src.Set(5)
	})

	assert.Equal(t, 18, second.Get())
	assert.Equal(t, 2, first.Evaluations())
	assert.Equal(t, 2, second.Evaluations())
	assert.Equal(t, []int{4, 18}, seen, "never evaluated against a stale upstream")
	assert.Equal(t, 0, s.Pending())
}

func TestPlainTasksRunBeforeDirtyCells(t *testing.T) {
	s := NewScheduler()
	a := NewObservable(1)
	c := NewComputed(s, func(tr Tracker) int { return Read(tr, a) }, Deferred())
	require.Equal(t, 1, c.Get())

	a.Set(2)
	s.Schedule(func() { a.Set(3) })
	assert.Equal(t, 2, s.Pending())

	s.Flush()
	assert.Equal(t, 3, c.Get())
	assert.Equal(t, 2, c.Evaluations())
}

func TestSelfWriteDoesNotRetrigger(t *testing.T) {
	s := NewScheduler()
	page := NewCell(5)
	seen := 0
	page.Subscribe(func() { seen++ })

	c := NewComputed(s, func(tr Tracker) int {
		if Read(tr, page) > 3 {
			page.Set(0)
		}
		return page.Get()
	}, Deferred())

	assert.Equal(t, 0, c.Get())
	assert.Equal(t, 1, seen, "external observers see the correction")
	assert.Equal(t, 0, s.Pending())
}

func TestDynamicDependenciesArePruned(t *testing.T) {
	s := NewScheduler()
	useA := NewCell(true)
	a := NewObservable("a")
	b := NewObservable("b")
	c := NewComputed(s, func(tr Tracker) string {
		if Read(tr, useA) {
			return Read(tr, a)
		}
		return Read(tr, b)
	})
	require.Equal(t, "a", c.Get())

	useA.Set(false)
	require.Equal(t, "b", c.Get())
	evals := c.Evaluations()

	a.Set("ignored")
	assert.Equal(t, evals, c.Evaluations(), "a is no longer a dependency")

	b.Set("bb")
	assert.Equal(t, "bb", c.Get())
}

func TestScheduleFromGoroutines(t *testing.T) {
	s := NewScheduler()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Loop(ctx)

	var mu sync.Mutex
	total := 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Schedule(func() {
				mu.Lock()
				total++
				mu.Unlock()
			})
		}()
	}
	wg.Wait()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return total == 20
	}, time.Second, 5*time.Millisecond)
}

func TestRunDrainsBetweenSteps(t *testing.T) {
	s := NewScheduler()
	src := NewObservable(1)
	c := NewComputed(s, func(tr Tracker) int { return Read(tr, src) }, Deferred())
	c.Get()

	var got int
	s.Run(func() { src.Set(9) }, func() { got = c.Get() })
	assert.Equal(t, 9, got)
}
