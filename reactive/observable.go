package reactive

import "slices"

// Source is anything a computed cell can depend on.
type Source interface {
	Subscribe(fn func()) Subscription
}

// Readable is a Source carrying a current value.
type Readable[T any] interface {
	Source
	Get() T
}

// Unwrapper is implemented by cells so untyped holders (grid records) can
// read a cell's current value without knowing its type.
type Unwrapper interface {
	Any() any
}

// Tracker records the dependencies read by a computed cell's evaluation.
type Tracker interface {
	Track(src Source)
}

// Read tracks r on t and returns its current value. A nil tracker reads
// without tracking.
func Read[T any](t Tracker, r Readable[T]) T {
	if t != nil {
		t.Track(r)
	}
	return r.Get()
}

type subscriber struct {
	fn       func()
	disposed bool
}

type notifier struct {
	subs []*subscriber
}

func (n *notifier) subscribe(fn func()) Subscription {
	sub := &subscriber{fn: fn}
	n.subs = append(n.subs, sub)
	return Subscription{owner: n, sub: sub}
}

func (n *notifier) notify() {
	for _, sub := range slices.Clone(n.subs) {
		if !sub.disposed {
			sub.fn()
		}
	}
}

func (n *notifier) remove(sub *subscriber) {
	n.subs = slices.DeleteFunc(n.subs, func(s *subscriber) bool { return s == sub })
}

// Subscription detaches a change callback when disposed.
type Subscription struct {
	owner *notifier
	sub   *subscriber
}

func (s Subscription) Dispose() {
	if s.sub == nil || s.sub.disposed {
		return
	}
	s.sub.disposed = true
	s.owner.remove(s.sub)
}

// Observable is a mutable cell whose writes notify subscribers.
type Observable[T any] struct {
	value T
	equal func(a, b T) bool
	notifier
}

// NewObservable returns a cell that notifies on every Set.
func NewObservable[T any](initial T) *Observable[T] {
	return &Observable[T]{value: initial}
}

// NewCell returns a cell that skips notification when the new value equals
// the current one.
func NewCell[T comparable](initial T) *Observable[T] {
	return &Observable[T]{
		value: initial,
		equal: func(a, b T) bool { return a == b },
	}
}

func (o *Observable[T]) Get() T {
	return o.value
}

func (o *Observable[T]) Any() any {
	return o.value
}

func (o *Observable[T]) Set(v T) {
	if o.equal != nil && o.equal(o.value, v) {
		return
	}
	o.value = v
	o.notify()
}

func (o *Observable[T]) Update(fn func(T) T) {
	o.Set(fn(o.value))
}

func (o *Observable[T]) Subscribe(fn func()) Subscription {
	return o.subscribe(fn)
}

// Push appends items to an observable sequence. The previous slice is left
// untouched so holders of the old value never see it grow.
func Push[T any](o *Observable[[]T], items ...T) {
	next := make([]T, 0, len(o.value)+len(items))
	next = append(next, o.value...)
	next = append(next, items...)
	o.Set(next)
}
