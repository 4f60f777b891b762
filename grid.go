package reactgrid

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/gnemet/reactgrid/reactive"
)

const gridIDLength = 7

// Loader fetches records and hands them to done, possibly from another
// goroutine. A loader that fails simply never calls done.
type Loader func(done func([]Record))

// VirtualFunc computes a display-only column value for a row.
type VirtualFunc func(row Record) any

// StaticValue is a virtual column holding the same value on every row.
func StaticValue(v any) VirtualFunc {
	return func(Record) any { return v }
}

// DisplayColumn configures one displayed column. A column with an HTML
// generator becomes a virtual column.
type DisplayColumn struct {
	Name string
	CSS  string
	TH   string
	TD   string
	HTML VirtualFunc
}

// Config is everything a grid is built from. Records is a []Record, a
// []map[string]any or a Loader.
type Config struct {
	Records any
	Filter  FilterSpec
	Sort    *SortConfig
	Pager   *PagerConfig
	Display []DisplayColumn
	Header  map[string]string
	GridID  string
}

// Filterable is implemented by grids that carry a filter stage.
type Filterable interface {
	AsFilterable() (*FilterStage, bool)
}

// Sortable is implemented by grids that carry a sort stage.
type Sortable interface {
	AsSortable() (*SortStage, bool)
}

// Grid wires its stages lazily into filter, sort, page and virtual-column
// projection, in that order.
type Grid struct {
	sched  *reactive.Scheduler
	config Config
	logger *slog.Logger

	records *reactive.Observable[[]Record]
	columns *reactive.Observable[[]string]
	fields  map[string]bool
	display map[string]int

	virtual      map[string]VirtualFunc
	virtualOrder []string

	filter *FilterStage
	sort   *SortStage
	pager  *PageStage
	wired  bool

	rows  *reactive.Computed[[]Record]
	loads int
}

type Option func(*Grid)

// WithLogger sets the logger used for load and paging events.
func WithLogger(l *slog.Logger) Option {
	return func(g *Grid) { g.logger = l }
}

// NewGridID returns a random identifier suitable for a DOM id.
func NewGridID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:gridIDLength]
}

// New builds a grid and performs its first reload.
func New(s *reactive.Scheduler, cfg Config, opts ...Option) (*Grid, error) {
	if cfg.Records == nil {
		return nil, ErrNoRecords
	}
	if cfg.GridID == "" {
		cfg.GridID = NewGridID()
	}

	g := &Grid{
		sched:   s,
		config:  cfg,
		logger:  slog.Default(),
		records: reactive.NewObservable[[]Record](nil),
		columns: reactive.NewObservable[[]string](nil),
		fields:  make(map[string]bool),
		display: make(map[string]int, len(cfg.Display)),
		virtual: make(map[string]VirtualFunc),
	}
	for _, opt := range opts {
		opt(g)
	}
	for i, d := range cfg.Display {
		g.display[d.Name] = i
	}

	g.records.Subscribe(g.deriveColumns)
	g.rows = reactive.NewComputed(s, g.project)

	if err := g.Reload(); err != nil {
		return nil, err
	}
	return g, nil
}

// wire builds the stages once. Filter and sort exist only when configured;
// the page stage always exists and is disabled without a pager config.
func (g *Grid) wire() {
	if g.wired {
		return
	}
	g.wired = true

	var upstream reactive.Readable[[]Record] = g.records
	if g.config.Filter != nil {
		g.filter = NewFilterStage(g.sched, upstream, g.config.Filter)
		upstream = g.filter.Records()
	}
	if g.config.Sort != nil {
		g.sort = NewSortStage(g.sched, upstream, *g.config.Sort, "#"+g.config.GridID)
		upstream = g.sort.Records()
	}
	g.pager = NewPageStage(g.sched, upstream, g.config.Pager)
}

func (g *Grid) project(t reactive.Tracker) []Record {
	g.wire()
	rows := reactive.Read(t, g.pager.Records())
	if len(g.virtualOrder) == 0 {
		return rows
	}

	out := make([]Record, len(rows))
	for i, row := range rows {
		out[i] = g.withVirtual(row)
	}
	return out
}

// withVirtual returns a shallow copy of row carrying every virtual column.
func (g *Grid) withVirtual(row Record) Record {
	merged := maps.Clone(row)
	if merged == nil {
		merged = make(Record, len(g.virtualOrder))
	}
	for _, name := range g.virtualOrder {
		merged[name] = g.virtual[name](merged)
	}
	return merged
}

func (g *Grid) addVirtual(name string, fn VirtualFunc) {
	if _, ok := g.virtual[name]; !ok {
		g.virtualOrder = append(g.virtualOrder, name)
	}
	g.virtual[name] = fn
}

// deriveColumns runs on every records change. Field names accumulate and
// are never removed.
func (g *Grid) deriveColumns() {
	names := g.recordFields()
	for _, name := range names {
		g.fields[name] = true
	}

	if g.config.Display != nil {
		cols := make([]string, 0, len(g.config.Display))
		for _, d := range g.config.Display {
			cols = append(cols, d.Name)
			if d.HTML != nil {
				g.addVirtual(d.Name, d.HTML)
			}
		}
		g.columns.Set(cols)
		return
	}
	g.columns.Set(names)
}

// recordFields lists the first record's field names in sorted order.
func (g *Grid) recordFields() []string {
	records := g.records.Get()
	if len(records) == 0 {
		return []string{}
	}
	names := lo.Keys(records[0])
	slices.Sort(names)
	return names
}

// Reload replaces the records from the configured source. A loader's result
// arrives on the scheduler; the last callback to run wins.
func (g *Grid) Reload() error {
	switch src := g.config.Records.(type) {
	case []Record:
		g.setRecords(src)
	case []map[string]interface{}:
		g.setRecords(Records(src))
	case Loader:
		g.load(src)
	case func(func([]Record)):
		g.load(src)
	default:
		return fmt.Errorf("%w: %T", ErrInvalidRecords, src)
	}
	return nil
}

func (g *Grid) load(loader Loader) {
	g.loads++
	seq := g.loads
	loader(func(records []Record) {
		g.sched.Schedule(func() {
			g.logger.Debug("grid records loaded",
				"grid", g.config.GridID, "load", seq, "records", len(records))
			g.setRecords(records)
		})
	})
}

func (g *Grid) setRecords(records []Record) {
	g.records.Set(records)
	if g.sort != nil {
		g.sort.Refresh()
	}
}

// Rows is the filtered, sorted, paged and projected sequence.
func (g *Grid) Rows() *reactive.Computed[[]Record] {
	return g.rows
}

// Records is the raw record sequence, replaced wholesale on reload.
func (g *Grid) Records() *reactive.Observable[[]Record] {
	return g.records
}

// Columns is the ordered list of column names to display.
func (g *Grid) Columns() *reactive.Observable[[]string] {
	return g.columns
}

// Fields returns the set of real record fields seen so far.
func (g *Grid) Fields() map[string]bool {
	return maps.Clone(g.fields)
}

// IsField reports whether column is a real, sortable record field.
func (g *Grid) IsField(column string) bool {
	return g.fields[column]
}

func (g *Grid) GridID() string {
	return g.config.GridID
}

func (g *Grid) AsFilterable() (*FilterStage, bool) {
	g.wire()
	return g.filter, g.filter != nil
}

func (g *Grid) AsSortable() (*SortStage, bool) {
	g.wire()
	return g.sort, g.sort != nil
}

// AsPageable returns the page stage, which every grid has.
func (g *Grid) AsPageable() (*PageStage, bool) {
	g.wire()
	return g.pager, true
}

// Pager returns the page arithmetic view over the grid's page stage.
func (g *Grid) Pager() *PagerView {
	g.wire()
	return NewPagerView(g.pager)
}
