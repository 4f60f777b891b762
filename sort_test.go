package reactgrid

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/gnemet/reactgrid/reactive"
)

func column(records []Record, field string) []any {
	out := make([]any, len(records))
	for i, r := range records {
		out[i] = r.Get(field)
	}
	return out
}

func TestSortStageToggle(t *testing.T) {
	s := reactive.NewScheduler()
	src := reactive.NewObservable([]Record{{"a": 1}, {"a": 3}, {"a": 2}})
	st := NewSortStage(s, src, SortConfig{Column: "a"}, "#grid")

	if diff := cmp.Diff([]any{1, 2, 3}, column(st.Records().Get(), "a")); diff != "" {
		t.Errorf("ascending mismatch (-want +got):\n%s", diff)
	}

	st.By("a")
	s.Flush()
	if diff := cmp.Diff([]any{3, 2, 1}, column(st.Records().Get(), "a")); diff != "" {
		t.Errorf("toggled mismatch (-want +got):\n%s", diff)
	}
	if st.Direction() != SortDesc {
		t.Errorf("Expected desc after toggle, got %s", st.Direction())
	}

	st.By("b")
	if st.Column().Get() != "b" || !st.Ascending().Get() {
		t.Errorf("Expected new column to sort ascending")
	}
}

func TestSortStageBlanksLast(t *testing.T) {
	s := reactive.NewScheduler()
	src := reactive.NewObservable([]Record{{"a": 1}, {"a": nil}, {"a": 2}, {"a": ""}, {}})
	st := NewSortStage(s, src, SortConfig{Column: "a"}, "")

	got := column(st.Records().Get(), "a")
	if diff := cmp.Diff([]any{1, 2, nil, "", nil}, got); diff != "" {
		t.Errorf("ascending mismatch (-want +got):\n%s", diff)
	}

	st.By("a")
	s.Flush()
	got = column(st.Records().Get(), "a")
	if diff := cmp.Diff([]any{2, 1, nil, "", nil}, got); diff != "" {
		t.Errorf("descending mismatch (-want +got):\n%s", diff)
	}
}

func TestSortStageDescendingReversesAscending(t *testing.T) {
	s := reactive.NewScheduler()
	src := reactive.NewObservable([]Record{
		{"a": "pear"}, {"a": "apple"}, {"a": nil}, {"a": "fig"}, {"a": "kiwi"},
	})
	asc := NewSortStage(s, src, SortConfig{Column: "a"}, "")
	desc := NewSortStage(s, asc.Records(), SortConfig{Column: "a", Direction: "DESC"}, "")

	up := column(asc.Records().Get(), "a")
	down := column(desc.Records().Get(), "a")

	nonBlankUp := up[:4]
	nonBlankDown := down[:4]
	for i := range nonBlankUp {
		if nonBlankUp[i] != nonBlankDown[len(nonBlankDown)-1-i] {
			t.Fatalf("Expected exact reversal, got %v and %v", up, down)
		}
	}
	if up[4] != nil || down[4] != nil {
		t.Errorf("Expected nil last in both directions, got %v and %v", up, down)
	}
}

func TestSortStageOwnsItsCopy(t *testing.T) {
	s := reactive.NewScheduler()
	input := []Record{{"a": 3}, {"a": 1}}
	src := reactive.NewObservable(input)
	st := NewSortStage(s, src, SortConfig{Column: "a"}, "")
	st.Records().Get()

	if input[0]["a"] != 3 {
		t.Errorf("Expected upstream order untouched, got %v", column(input, "a"))
	}
}

func TestSortStageWithoutColumnPassesThrough(t *testing.T) {
	s := reactive.NewScheduler()
	input := []Record{{"a": 3}, {"a": 1}}
	src := reactive.NewObservable(input)
	st := NewSortStage(s, src, SortConfig{}, "")

	got := st.Records().Get()
	if &got[0] != &input[0] {
		t.Errorf("Expected the source slice itself when no column is set")
	}
}

func TestSortStageMixedValues(t *testing.T) {
	s := reactive.NewScheduler()
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cell := reactive.NewCell(1.5)
	src := reactive.NewObservable([]Record{
		{"n": int64(10), "t": day.Add(time.Hour)},
		{"n": cell, "t": day},
		{"n": uint8(2), "t": day.Add(-time.Hour)},
	})

	byN := NewSortStage(s, src, SortConfig{Column: "n"}, "")
	if diff := cmp.Diff([]any{1.5, uint8(2), int64(10)}, column(byN.Records().Get(), "n")); diff != "" {
		t.Errorf("numeric mismatch (-want +got):\n%s", diff)
	}

	byT := NewSortStage(s, src, SortConfig{Column: "t"}, "")
	first := byT.Records().Get()[0]
	if !first.Get("t").(time.Time).Equal(day.Add(-time.Hour)) {
		t.Errorf("Expected earliest time first, got %v", first.Get("t"))
	}
}

func TestSortStageRefreshIndicator(t *testing.T) {
	s := reactive.NewScheduler()
	src := reactive.NewObservable([]Record{{"a": 1}})
	st := NewSortStage(s, src, SortConfig{Column: "a"}, "#g1")

	var seen []Indicator
	st.OnRefresh(func(ind Indicator) { seen = append(seen, ind) })

	st.By("a")
	want := Indicator{Selector: "#g1", Column: "a", Class: sortClassDesc}
	if diff := cmp.Diff(want, st.Indicator().Get()); diff != "" {
		t.Errorf("indicator mismatch (-want +got):\n%s", diff)
	}
	if len(seen) != 1 {
		t.Errorf("Expected one refresh hook call, got %d", len(seen))
	}
}
