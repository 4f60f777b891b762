package reactgrid

import (
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Filter operators understood by grid definitions.
const (
	OpContains = "contains"
	OpEquals   = "equals"
	OpPrefix   = "prefix"
	OpGTE      = "gte"
	OpLTE      = "lte"
)

//go:embed grid.schema.json
var definitionSchema string

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

// Definition is the declarative form of a grid, read from YAML or JSON.
type Definition struct {
	ID      string               `json:"id" yaml:"id"`
	Title   string               `json:"title,omitempty" yaml:"title"`
	Source  SourceDef            `json:"source" yaml:"source"`
	Filters map[string]FilterDef `json:"filters,omitempty" yaml:"filters"`
	Sort    *SortConfig          `json:"sort,omitempty" yaml:"sort"`
	Pager   *PagerConfig         `json:"pager,omitempty" yaml:"pager"`
	Display []DisplayDef         `json:"display,omitempty" yaml:"display"`
	Header  map[string]string    `json:"header,omitempty" yaml:"header"`
}

// SourceDef names where records come from: a raw query or a table.
type SourceDef struct {
	Query string `json:"query,omitempty" yaml:"query"`
	Table string `json:"table,omitempty" yaml:"table"`
	Order string `json:"order,omitempty" yaml:"order"`
}

type FilterDef struct {
	Column  string `json:"column,omitempty" yaml:"column"`
	Op      string `json:"op,omitempty" yaml:"op"`
	Initial any    `json:"initial,omitempty" yaml:"initial"`
}

// DisplayDef is a displayed column. HTML is an html/template body executed
// against each row; it makes the column virtual.
type DisplayDef struct {
	Name string `json:"name" yaml:"name"`
	CSS  string `json:"css,omitempty" yaml:"css"`
	TH   string `json:"th,omitempty" yaml:"th"`
	TD   string `json:"td,omitempty" yaml:"td"`
	HTML string `json:"html,omitempty" yaml:"html"`
}

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(definitionSchema))
	})
	return schema, schemaErr
}

// ValidateDefinition checks a YAML or JSON document against the grid
// definition schema.
func ValidateDefinition(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}

	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("failed to compile definition schema: %w", err)
	}
	result, err := s.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	if !result.Valid() {
		msgs := lo.Map(result.Errors(), func(e gojsonschema.ResultError, _ int) string {
			return e.String()
		})
		return fmt.Errorf("%w: %s", ErrInvalidDefinition, strings.Join(msgs, "; "))
	}
	return nil
}

// ParseDefinition validates and decodes a grid definition.
func ParseDefinition(data []byte) (*Definition, error) {
	if err := ValidateDefinition(data); err != nil {
		return nil, err
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	return &def, nil
}

// LoadDefinition reads a definition file. The id defaults to the file name.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	def, err := ParseDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if def.ID == "" {
		def.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return def, nil
}

// LoadDefinitions reads every .yaml, .yml and .json file in dir, keyed by id.
func LoadDefinitions(dir string) (map[string]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	defs := make(map[string]*Definition)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
		default:
			continue
		}
		def, err := LoadDefinition(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if _, dup := defs[def.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate grid id %q", ErrInvalidDefinition, def.ID)
		}
		defs[def.ID] = def
	}
	return defs, nil
}

// Config builds a grid configuration over records.
func (d *Definition) Config(records any) (Config, error) {
	cfg := Config{
		Records: records,
		Sort:    d.Sort,
		Pager:   d.Pager,
		Header:  d.Header,
	}
	if d.ID != "" {
		cfg.GridID = d.ID
	}

	if d.Filters != nil {
		cfg.Filter = make(FilterSpec, len(d.Filters))
		for name, fd := range d.Filters {
			column := fd.Column
			if column == "" {
				column = name
			}
			predicate, err := PredicateFor(column, fd.Op)
			if err != nil {
				return Config{}, fmt.Errorf("filter %s: %w", name, err)
			}
			cfg.Filter[name] = FilterEntry{Initial: fd.Initial, Predicate: predicate}
		}
	}

	if d.Display != nil {
		cfg.Display = make([]DisplayColumn, 0, len(d.Display))
		for _, dd := range d.Display {
			col := DisplayColumn{Name: dd.Name, CSS: dd.CSS, TH: dd.TH, TD: dd.TD}
			if dd.HTML != "" {
				fn, err := templateColumn(dd.Name, dd.HTML)
				if err != nil {
					return Config{}, err
				}
				col.HTML = fn
			}
			cfg.Display = append(cfg.Display, col)
		}
	}
	return cfg, nil
}

// templateColumn compiles body into a virtual column rendering each row.
func templateColumn(name, body string) (VirtualFunc, error) {
	tmpl, err := template.New(name).Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: display %s: %v", ErrInvalidDefinition, name, err)
	}
	return func(row Record) any {
		var b strings.Builder
		if err := tmpl.Execute(&b, row.Snapshot()); err != nil {
			return ""
		}
		return template.HTML(b.String())
	}, nil
}

// PredicateFor returns the predicate for a filter operator on column.
// Records whose column is blank never match.
func PredicateFor(column, op string) (Predicate, error) {
	switch strings.ToLower(op) {
	case "", OpContains:
		return func(r Record, v any) bool {
			x := r.Get(column)
			if isBlank(x) {
				return false
			}
			return strings.Contains(strings.ToLower(fmt.Sprint(x)), strings.ToLower(fmt.Sprint(v)))
		}, nil
	case OpPrefix:
		return func(r Record, v any) bool {
			x := r.Get(column)
			if isBlank(x) {
				return false
			}
			return strings.HasPrefix(strings.ToLower(fmt.Sprint(x)), strings.ToLower(fmt.Sprint(v)))
		}, nil
	case OpEquals:
		return comparing(column, func(c int) bool { return c == 0 }), nil
	case OpGTE:
		return comparing(column, func(c int) bool { return c >= 0 }), nil
	case OpLTE:
		return comparing(column, func(c int) bool { return c <= 0 }), nil
	default:
		return nil, fmt.Errorf("%w: unknown filter op %q", ErrInvalidDefinition, op)
	}
}

func comparing(column string, accept func(int) bool) Predicate {
	return func(r Record, v any) bool {
		x := r.Get(column)
		if isBlank(x) {
			return false
		}
		return accept(compareValues(x, coerce(v, x)))
	}
}

// coerce converts a string filter value to the type of like, which is how
// values arriving from query strings meet typed record fields.
func coerce(v, like any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	s = strings.TrimSpace(s)
	if _, numeric := toFloat(like); numeric {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	if _, isBool := like.(bool); isBool {
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	return v
}
