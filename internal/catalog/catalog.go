// Package catalog holds the grids a server exposes, built from their
// definitions and sharing one scheduler.
package catalog

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/gnemet/reactgrid"
	"github.com/gnemet/reactgrid/reactive"
)

// SourceFunc returns the records source for a definition: a record slice or
// a reactgrid.Loader.
type SourceFunc func(def *reactgrid.Definition) (any, error)

// Entry is one registered grid.
type Entry struct {
	ID      string
	Title   string
	Grid    *reactgrid.Grid
	Handler *reactgrid.Handler
}

// Summary is the listing form of an entry.
type Summary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Catalog is filled at startup and read-only once serving starts.
type Catalog struct {
	sched   *reactive.Scheduler
	logger  *slog.Logger
	entries map[string]*Entry
}

func New(s *reactive.Scheduler, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{sched: s, logger: logger, entries: make(map[string]*Entry)}
}

// Add builds the grid for def over records and registers it under def.ID.
func (c *Catalog) Add(def *reactgrid.Definition, records any) error {
	if _, dup := c.entries[def.ID]; dup {
		return fmt.Errorf("%w: duplicate grid id %q", reactgrid.ErrInvalidDefinition, def.ID)
	}

	cfg, err := def.Config(records)
	if err != nil {
		return fmt.Errorf("grid %s: %w", def.ID, err)
	}

	var g *reactgrid.Grid
	c.sched.Run(func() {
		g, err = reactgrid.New(c.sched, cfg, reactgrid.WithLogger(c.logger))
	})
	if err != nil {
		return fmt.Errorf("grid %s: %w", def.ID, err)
	}

	h := reactgrid.NewHandler(c.sched, g)
	h.Logger = c.logger

	title := def.Title
	if title == "" {
		title = def.ID
	}
	c.entries[def.ID] = &Entry{ID: def.ID, Title: title, Grid: g, Handler: h}
	c.logger.Info("Registered grid", "grid", def.ID, "title", title)
	return nil
}

// Load registers every definition, asking source for its records.
func (c *Catalog) Load(defs map[string]*reactgrid.Definition, source SourceFunc) error {
	ids := lo.Keys(defs)
	slices.Sort(ids)
	for _, id := range ids {
		def := defs[id]
		records, err := source(def)
		if err != nil {
			return fmt.Errorf("grid %s: %w", id, err)
		}
		if err := c.Add(def, records); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) Lookup(id string) (*Entry, error) {
	e, ok := c.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", reactgrid.ErrUnknownGrid, id)
	}
	return e, nil
}

// List returns the registered grids ordered by id.
func (c *Catalog) List() []Summary {
	out := lo.MapToSlice(c.entries, func(id string, e *Entry) Summary {
		return Summary{ID: id, Title: e.Title}
	})
	slices.SortFunc(out, func(a, b Summary) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}
