package reactgrid

import (
	"fmt"

	"github.com/gnemet/reactgrid/reactive"
)

// DefaultPageSize is used when a pager config leaves the page size unset.
const DefaultPageSize = 5

// PagerConfig enables paging. A grid without one shows every record.
type PagerConfig struct {
	PageSize int  `json:"page_size,omitempty" yaml:"page_size"`
	Disabled bool `json:"disabled,omitempty" yaml:"disabled"`
}

// PageStage slices its source into pages. The current page is corrected back
// to the first page whenever it points past the last record.
type PageStage struct {
	source      reactive.Readable[[]Record]
	pageSize    *reactive.Observable[int]
	currentPage *reactive.Observable[int]
	disabled    bool
	total       *reactive.Computed[int]
	records     *reactive.Computed[[]Record]
}

// NewPageStage builds a page stage; a nil cfg disables paging.
func NewPageStage(s *reactive.Scheduler, source reactive.Readable[[]Record], cfg *PagerConfig) *PageStage {
	if cfg == nil {
		cfg = &PagerConfig{Disabled: true}
	}
	size := cfg.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}

	p := &PageStage{
		source:      source,
		pageSize:    reactive.NewCell(size),
		currentPage: reactive.NewCell(0),
		disabled:    cfg.Disabled,
	}
	p.total = reactive.NewComputed(s, func(t reactive.Tracker) int {
		return len(reactive.Read(t, p.source))
	})
	p.records = reactive.NewComputed(s, p.apply, reactive.Deferred())
	return p
}

func (p *PageStage) apply(t reactive.Tracker) []Record {
	records := reactive.Read(t, p.source)
	if p.disabled {
		return records
	}

	size := reactive.Read(t, p.pageSize)
	if size <= 0 {
		size = DefaultPageSize
	}
	current := reactive.Read(t, p.currentPage)
	if current < 0 || current*size >= len(records) {
		p.currentPage.Set(0)
		current = 0
	}

	first := current * size
	last := min(first+size, len(records))
	return records[first:last:last]
}

func (p *PageStage) Records() *reactive.Computed[[]Record] {
	return p.records
}

func (p *PageStage) PageSize() *reactive.Observable[int] {
	return p.pageSize
}

func (p *PageStage) CurrentPage() *reactive.Observable[int] {
	return p.currentPage
}

// TotalRecords counts the records entering the stage.
func (p *PageStage) TotalRecords() *reactive.Computed[int] {
	return p.total
}

func (p *PageStage) Disabled() bool {
	return p.disabled
}

// LastPage is the zero-based index of the last page.
func (p *PageStage) LastPage() int {
	total := p.total.Get()
	if p.disabled || total == 0 {
		return 0
	}
	size := p.pageSize.Get()
	if size <= 0 {
		size = DefaultPageSize
	}
	return (total - 1) / size
}

// PagerView holds the page arithmetic behind pager controls.
type PagerView struct {
	pager *PageStage
}

func NewPagerView(p *PageStage) *PagerView {
	return &PagerView{pager: p}
}

func (v *PagerView) LastPage() int {
	return v.pager.LastPage()
}

func (v *PagerView) HasPrevious() bool {
	return v.pager.currentPage.Get() > 0
}

func (v *PagerView) HasNext() bool {
	return v.pager.currentPage.Get() < v.LastPage()
}

func (v *PagerView) GotoPage(page int) {
	v.pager.currentPage.Set(page)
}

func (v *PagerView) GotoNext() {
	if v.HasNext() {
		v.pager.currentPage.Update(func(p int) int { return p + 1 })
	}
}

func (v *PagerView) GotoPrevious() {
	if v.HasPrevious() {
		v.pager.currentPage.Update(func(p int) int { return p - 1 })
	}
}

func (v *PagerView) GotoFirst() {
	v.pager.currentPage.Set(0)
}

func (v *PagerView) GotoLast() {
	v.pager.currentPage.Set(v.LastPage())
}

// LabelTotalRecords reads "N records. " or "No records.".
func (v *PagerView) LabelTotalRecords() string {
	if total := v.pager.total.Get(); total > 0 {
		return fmt.Sprintf("%d records. ", total)
	}
	return "No records."
}

// LabelTotalPages reads " current/last " with one-based page numbers.
func (v *PagerView) LabelTotalPages() string {
	return fmt.Sprintf(" %d/%d ", v.pager.currentPage.Get()+1, v.LastPage()+1)
}
