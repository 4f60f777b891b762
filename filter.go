package reactgrid

import (
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/gnemet/reactgrid/reactive"
)

// Predicate decides whether a record passes a filter given the filter's
// current value.
type Predicate func(r Record, value any) bool

// FilterEntry configures one named filter.
type FilterEntry struct {
	Initial   any
	Predicate Predicate
}

// FilterSpec maps filter names to their configuration.
type FilterSpec map[string]FilterEntry

// FilterStage keeps the records that pass every configured filter. An entry
// whose value is empty is not applied.
type FilterStage struct {
	source     reactive.Readable[[]Record]
	names      []string
	values     map[string]*reactive.Observable[any]
	predicates map[string]Predicate
	initial    map[string]any
	records    *reactive.Computed[[]Record]
}

func NewFilterStage(s *reactive.Scheduler, source reactive.Readable[[]Record], spec FilterSpec) *FilterStage {
	names := lo.Keys(spec)
	slices.Sort(names)

	f := &FilterStage{
		source:     source,
		names:      names,
		values:     make(map[string]*reactive.Observable[any], len(spec)),
		predicates: make(map[string]Predicate, len(spec)),
		initial:    make(map[string]any, len(spec)),
	}
	for _, name := range names {
		entry := spec[name]
		f.initial[name] = entry.Initial
		f.values[name] = reactive.NewObservable(entry.Initial)
		f.predicates[name] = entry.Predicate
	}

	f.records = reactive.NewComputed(s, f.apply, reactive.Deferred())
	return f
}

func (f *FilterStage) apply(t reactive.Tracker) []Record {
	records := reactive.Read(t, f.source)
	for _, name := range f.names {
		value := reactive.Read(t, f.values[name])
		predicate := f.predicates[name]
		if predicate == nil || isEmptyFilterValue(value) {
			continue
		}
		records = lo.Filter(records, func(r Record, _ int) bool {
			return predicate(r, value)
		})
	}
	return records
}

// Records is the filtered sequence.
func (f *FilterStage) Records() *reactive.Computed[[]Record] {
	return f.records
}

// Names returns the filter names in evaluation order.
func (f *FilterStage) Names() []string {
	return slices.Clone(f.names)
}

// Value returns the cell holding the current value of filter name.
func (f *FilterStage) Value(name string) (*reactive.Observable[any], bool) {
	v, ok := f.values[name]
	return v, ok
}

// Set changes the value of filter name.
func (f *FilterStage) Set(name string, value any) error {
	v, ok := f.values[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFilter, name)
	}
	v.Set(value)
	return nil
}

// Reset restores every filter to its initial value.
func (f *FilterStage) Reset() {
	for _, name := range f.names {
		f.values[name].Set(f.initial[name])
	}
}
