package reactgrid

import (
	"slices"
	"strings"

	"github.com/gnemet/reactgrid/reactive"
)

const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

const (
	sortClassAsc  = "glyphicon-sort-by-attributes"
	sortClassDesc = "glyphicon-sort-by-attributes-alt"
)

// SortConfig is the initial sort of a grid. Direction defaults to ascending.
type SortConfig struct {
	Column    string `json:"column" yaml:"column"`
	Direction string `json:"direction,omitempty" yaml:"direction"`
}

// Indicator is the presentation state of the sort: which header shows the
// sort icon and which icon class it uses.
type Indicator struct {
	Selector string `json:"selector,omitempty"`
	Column   string `json:"column"`
	Class    string `json:"class"`
}

// SortStage orders records by one column. It sorts its own copy of the
// upstream sequence, which is never reordered.
type SortStage struct {
	source    reactive.Readable[[]Record]
	column    *reactive.Observable[string]
	ascending *reactive.Observable[bool]
	selector  string
	indicator *reactive.Observable[Indicator]
	hooks     []func(Indicator)
	records   *reactive.Computed[[]Record]
}

// NewSortStage builds a sort stage. selector identifies the grid whose header
// icons the indicator targets.
func NewSortStage(s *reactive.Scheduler, source reactive.Readable[[]Record], cfg SortConfig, selector string) *SortStage {
	st := &SortStage{
		source:    source,
		column:    reactive.NewCell(cfg.Column),
		ascending: reactive.NewCell(!strings.EqualFold(cfg.Direction, SortDesc)),
		selector:  selector,
		indicator: reactive.NewCell(Indicator{}),
	}
	st.records = reactive.NewComputed(s, st.apply, reactive.Deferred())
	st.Refresh()
	return st
}

func (st *SortStage) apply(t reactive.Tracker) []Record {
	records := reactive.Read(t, st.source)
	column := reactive.Read(t, st.column)
	ascending := reactive.Read(t, st.ascending)
	if column == "" {
		return records
	}

	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b Record) int {
		return compareRecords(a, b, column, ascending)
	})
	return sorted
}

// compareRecords puts blank values last in both directions.
func compareRecords(a, b Record, column string, ascending bool) int {
	x, y := a.Get(column), b.Get(column)
	xBlank, yBlank := isBlank(x), isBlank(y)
	switch {
	case xBlank && yBlank:
		return 0
	case xBlank:
		return 1
	case yBlank:
		return -1
	}

	c := compareValues(x, y)
	if !ascending {
		c = -c
	}
	return c
}

// By requests a sort on column: the current column flips direction, any
// other column becomes the sort column in ascending order.
func (st *SortStage) By(column string) {
	if st.column.Get() == column {
		st.ascending.Update(func(asc bool) bool { return !asc })
	} else {
		st.column.Set(column)
		st.ascending.Set(true)
	}
	st.Refresh()
}

// Refresh recomputes the sort indicator and hands it to the refresh hooks.
func (st *SortStage) Refresh() {
	class := sortClassAsc
	if !st.ascending.Get() {
		class = sortClassDesc
	}
	ind := Indicator{Selector: st.selector, Column: st.column.Get(), Class: class}
	st.indicator.Set(ind)
	for _, hook := range st.hooks {
		hook(ind)
	}
}

// OnRefresh registers fn to run after every Refresh.
func (st *SortStage) OnRefresh(fn func(Indicator)) {
	st.hooks = append(st.hooks, fn)
}

func (st *SortStage) Records() *reactive.Computed[[]Record] {
	return st.records
}

func (st *SortStage) Column() *reactive.Observable[string] {
	return st.column
}

func (st *SortStage) Ascending() *reactive.Observable[bool] {
	return st.ascending
}

func (st *SortStage) Indicator() *reactive.Observable[Indicator] {
	return st.indicator
}

// Direction returns SortAsc or SortDesc.
func (st *SortStage) Direction() string {
	if st.ascending.Get() {
		return SortAsc
	}
	return SortDesc
}
