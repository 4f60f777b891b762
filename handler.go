package reactgrid

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gnemet/reactgrid/reactive"
)

// RequestParams captures the grid mutations carried by a request. Negative
// Page and PageSize mean "unchanged".
type RequestParams struct {
	Sort     string
	Page     int
	PageSize int
	Filters  map[string]string
	Reset    bool
	Reload   bool
}

// Labels are the pager texts shown next to the pager controls.
type Labels struct {
	Records string `json:"records"`
	Pages   string `json:"pages"`
}

// TableResult is the JSON view of a grid after a request's mutations settled.
type TableResult struct {
	GridID       string           `json:"grid_id"`
	Columns      []string         `json:"columns"`
	Header       []HeaderCell     `json:"header"`
	Rows         []map[string]any `json:"rows"`
	Fields       map[string]bool  `json:"fields"`
	Page         int              `json:"page"`
	PageSize     int              `json:"page_size"`
	LastPage     int              `json:"last_page"`
	TotalRecords int              `json:"total_records"`
	Sort         *Indicator       `json:"sort,omitempty"`
	Filters      map[string]any   `json:"filters,omitempty"`
	Labels       Labels           `json:"labels"`
}

// Handler serves one grid over HTTP. Every request runs on the scheduler's
// loop so it sees a settled pipeline.
type Handler struct {
	Sched  *reactive.Scheduler
	Grid   *Grid
	Logger *slog.Logger
}

func NewHandler(s *reactive.Scheduler, g *Grid) *Handler {
	return &Handler{Sched: s, Grid: g, Logger: slog.Default()}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	params := h.ParseParams(r)

	var (
		result *TableResult
		err    error
	)
	h.Sched.Run(
		func() { err = h.Apply(params) },
		func() { result = h.Snapshot() },
	)
	if err != nil {
		h.Logger.Warn("grid request rejected", "grid", h.Grid.GridID(), "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.Logger.Error("Failed to encode grid", "grid", h.Grid.GridID(), "error", err)
	}
}

var reservedParams = map[string]bool{
	"sort": true, "page": true, "page_size": true, "reset": true, "reload": true, "_": true,
}

// ParseParams reads sort, page, page_size, reset and reload from the query
// string. Every other key is taken as a filter value.
func (h *Handler) ParseParams(r *http.Request) RequestParams {
	q := r.URL.Query()
	p := RequestParams{
		Sort:     q.Get("sort"),
		Page:     -1,
		PageSize: -1,
		Filters:  make(map[string]string),
		Reset:    q.Get("reset") == "1",
		Reload:   q.Get("reload") == "1",
	}
	if v := q.Get("page"); v != "" {
		fmt.Sscanf(v, "%d", &p.Page)
	}
	if v := q.Get("page_size"); v != "" {
		fmt.Sscanf(v, "%d", &p.PageSize)
	}

	for key, values := range q {
		if reservedParams[key] || len(values) == 0 {
			continue
		}
		p.Filters[key] = values[0]
	}
	return p
}

// Apply performs the request's mutations. It must run on the scheduler loop.
func (h *Handler) Apply(p RequestParams) error {
	g := h.Grid
	if p.Reload {
		if err := g.Reload(); err != nil {
			return err
		}
	}

	if f, ok := g.AsFilterable(); ok {
		if p.Reset {
			f.Reset()
		}
		for name, value := range p.Filters {
			// keys naming no filter are ignored
			_ = f.Set(name, value)
		}
	}

	if p.Sort != "" {
		if s, ok := g.AsSortable(); ok && g.IsField(p.Sort) {
			s.By(p.Sort)
		} else {
			h.Logger.Debug("ignoring sort on unsortable column", "grid", g.GridID(), "column", p.Sort)
		}
	}

	pager, _ := g.AsPageable()
	if p.PageSize > 0 {
		pager.PageSize().Set(p.PageSize)
	}
	if p.Page >= 0 {
		pager.CurrentPage().Set(p.Page)
	}
	return nil
}

// Snapshot renders the grid's current state. It must run on the scheduler loop.
func (h *Handler) Snapshot() *TableResult {
	g := h.Grid
	rows := g.Rows().Get()
	pager, _ := g.AsPageable()
	view := g.Pager()

	result := &TableResult{
		GridID:       g.GridID(),
		Columns:      g.Columns().Get(),
		Header:       g.HeaderCells(),
		Rows:         make([]map[string]any, len(rows)),
		Fields:       g.Fields(),
		Page:         pager.CurrentPage().Get(),
		PageSize:     pager.PageSize().Get(),
		LastPage:     view.LastPage(),
		TotalRecords: pager.TotalRecords().Get(),
		Labels: Labels{
			Records: view.LabelTotalRecords(),
			Pages:   view.LabelTotalPages(),
		},
	}
	for i, row := range rows {
		result.Rows[i] = row.Snapshot()
	}
	if s, ok := g.AsSortable(); ok {
		ind := s.Indicator().Get()
		result.Sort = &ind
	}
	if f, ok := g.AsFilterable(); ok {
		result.Filters = make(map[string]any)
		for _, name := range f.Names() {
			v, _ := f.Value(name)
			result.Filters[name] = v.Get()
		}
	}
	return result
}
