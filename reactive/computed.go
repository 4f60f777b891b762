package reactive

type computedConfig struct {
	deferred bool
}

type ComputedOption func(*computedConfig)

// Deferred makes a computed cell coalesce every dependency change within one
// tick into a single recompute, run by the scheduler after the cells it reads.
func Deferred() ComputedOption {
	return func(c *computedConfig) { c.deferred = true }
}

// dependencies is the Tracker handed to an evaluation. Sources not read again
// by the latest evaluation are unsubscribed.
type dependencies struct {
	subs     map[Source]Subscription
	seen     map[Source]bool
	onChange func()
}

func (d *dependencies) Track(src Source) {
	if d.seen != nil {
		d.seen[src] = true
	}
	if _, ok := d.subs[src]; ok {
		return
	}
	d.subs[src] = src.Subscribe(d.onChange)
}

func (d *dependencies) begin() {
	d.seen = make(map[Source]bool, len(d.subs))
}

func (d *dependencies) end() {
	for src, sub := range d.subs {
		if !d.seen[src] {
			sub.Dispose()
			delete(d.subs, src)
		}
	}
	d.seen = nil
}

// level is the highest level among the tracked sources. Plain observables
// sit at level 0.
func (d *dependencies) level() int {
	depth := 0
	for src := range d.subs {
		if l, ok := src.(interface{ level() int }); ok {
			depth = max(depth, l.level())
		}
	}
	return depth
}

func (d *dependencies) disposeAll() {
	for src, sub := range d.subs {
		sub.Dispose()
		delete(d.subs, src)
	}
}

// Computed is a cell derived from the cells its evaluation reads. It is lazy:
// the first evaluation happens on the first Get.
type Computed[T any] struct {
	sched *Scheduler
	eval  func(Tracker) T
	cfg   computedConfig
	deps  dependencies

	value       T
	evaluated   bool
	evaluating  bool
	dirty       bool
	scheduled   bool
	evaluations int
	depth       int // one above the deepest dependency

	notifier
}

func NewComputed[T any](s *Scheduler, eval func(Tracker) T, opts ...ComputedOption) *Computed[T] {
	c := &Computed[T]{sched: s, eval: eval}
	for _, opt := range opts {
		opt(&c.cfg)
	}
	c.deps = dependencies{
		subs:     make(map[Source]Subscription),
		onChange: c.invalidate,
	}
	return c
}

// Get returns the latest computed value. A deferred cell with pending changes
// keeps returning the previous value until its scheduled recompute runs.
func (c *Computed[T]) Get() T {
	if !c.evaluated && !c.evaluating {
		c.evaluate()
	}
	return c.value
}

func (c *Computed[T]) Any() any {
	return c.Get()
}

func (c *Computed[T]) Subscribe(fn func()) Subscription {
	return c.subscribe(fn)
}

// Evaluations reports how many times the cell has been recomputed.
func (c *Computed[T]) Evaluations() int {
	return c.evaluations
}

// Dirty reports whether a deferred recompute is pending.
func (c *Computed[T]) Dirty() bool {
	return c.dirty
}

// Dispose detaches the cell from all of its dependencies.
func (c *Computed[T]) Dispose() {
	c.deps.disposeAll()
	c.dirty = false
}

func (c *Computed[T]) invalidate() {
	// writes made by our own evaluation never re-trigger it
	if c.evaluating {
		return
	}
	if !c.cfg.deferred {
		c.evaluate()
		return
	}
	c.dirty = true
	if c.scheduled {
		return
	}
	c.scheduled = true
	c.sched.enqueue(c)
}

func (c *Computed[T]) level() int {
	return c.depth
}

func (c *Computed[T]) recompute() {
	c.scheduled = false
	if c.dirty {
		c.evaluate()
	}
}

func (c *Computed[T]) evaluate() {
	c.evaluating = true
	c.deps.begin()
	v := c.eval(&c.deps)
	c.deps.end()
	c.depth = c.deps.level() + 1
	c.evaluating = false

	c.value = v
	c.evaluated = true
	c.dirty = false
	c.evaluations++
	c.notify()
}
