package reactgrid

import (
	"html/template"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnemet/reactgrid/reactive"
)

const peopleYAML = `
id: people
title: People
source:
  table: people
  order: id
filters:
  name:
    op: contains
  min_age:
    column: age
    op: gte
sort:
  column: age
  direction: desc
pager:
  page_size: 2
display:
  - name: name
    css: text-left
  - name: age
    td: num
  - name: link
    html: '<a href="/people/{{.id}}">{{.name}}</a>'
header:
  name: Name
`

func TestParseDefinition(t *testing.T) {
	def, err := ParseDefinition([]byte(peopleYAML))
	require.NoError(t, err)

	assert.Equal(t, "people", def.ID)
	assert.Equal(t, "people", def.Source.Table)
	assert.Equal(t, "age", def.Filters["min_age"].Column)
	assert.Equal(t, &SortConfig{Column: "age", Direction: "desc"}, def.Sort)
	assert.Equal(t, 2, def.Pager.PageSize)
	require.Len(t, def.Display, 3)
	assert.Equal(t, "Name", def.Header["name"])
}

func TestValidateDefinitionRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing source", "id: x\n"},
		{"query and table", "source: {query: 'select 1', table: t}\n"},
		{"unknown op", "source: {table: t}\nfilters: {a: {op: like}}\n"},
		{"zero page size", "source: {table: t}\npager: {page_size: 0}\n"},
		{"unknown key", "source: {table: t}\ncolour: red\n"},
		{"bad direction", "source: {table: t}\nsort: {column: a, direction: up}\n"},
		{"not yaml", "source: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDefinition([]byte(tt.doc))
			assert.ErrorIs(t, err, ErrInvalidDefinition)
		})
	}
}

func TestDefinitionConfig(t *testing.T) {
	def, err := ParseDefinition([]byte(peopleYAML))
	require.NoError(t, err)

	records := []Record{
		{"id": 1, "name": "Bob & Co", "age": 40},
		{"id": 2, "name": "alice", "age": 17},
		{"id": 3, "name": "bobby", "age": 21},
		{"id": 4, "name": nil, "age": 50},
	}
	cfg, err := def.Config(records)
	require.NoError(t, err)
	assert.Equal(t, "people", cfg.GridID)

	s := reactive.NewScheduler()
	g, err := New(s, cfg)
	require.NoError(t, err)

	f, ok := g.AsFilterable()
	require.True(t, ok)
	assert.Equal(t, []string{"min_age", "name"}, f.Names())

	require.NoError(t, f.Set("name", "BOB"))
	require.NoError(t, f.Set("min_age", "21"))
	s.Flush()

	rows := g.Rows().Get()
	require.Len(t, rows, 2)
	assert.Equal(t, 40, rows[0]["age"])
	assert.Equal(t, template.HTML(`<a href="/people/1">Bob &amp; Co</a>`), rows[0]["link"])
	assert.Equal(t, 21, rows[1]["age"])

	assert.Equal(t, "text-left", g.StyleTH("name"))
	assert.Equal(t, "num", g.StyleTD("age"))
}

func TestDefinitionConfigBadTemplate(t *testing.T) {
	def := &Definition{Display: []DisplayDef{{Name: "x", HTML: "{{.id"}}}
	_, err := def.Config([]Record{})
	assert.ErrorIs(t, err, ErrInvalidDefinition)
}

func TestPredicateFor(t *testing.T) {
	r := Record{"name": "Margaret", "age": 30, "active": true, "note": ""}

	tests := []struct {
		column string
		op     string
		value  any
		want   bool
	}{
		{"name", OpContains, "gar", true},
		{"name", "", "GAR", true},
		{"name", OpPrefix, "marg", true},
		{"name", OpPrefix, "gar", false},
		{"name", OpEquals, "Margaret", true},
		{"age", OpEquals, "30", true},
		{"age", OpGTE, 30, true},
		{"age", OpGTE, "31", false},
		{"age", OpLTE, 30.5, true},
		{"active", OpEquals, "true", true},
		{"active", OpEquals, false, false},
		{"note", OpContains, "x", false},
		{"missing", OpLTE, 1, false},
	}
	for _, tt := range tests {
		p, err := PredicateFor(tt.column, tt.op)
		require.NoError(t, err)
		if got := p(r, tt.value); got != tt.want {
			t.Errorf("%s %s %v: expected %v, got %v", tt.column, tt.op, tt.value, tt.want, got)
		}
	}

	_, err := PredicateFor("name", "regex")
	assert.ErrorIs(t, err, ErrInvalidDefinition)
}

func TestLoadDefinitions(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("people.yaml", peopleYAML)
	write("orders.yml", "source:\n  query: SELECT * FROM orders\n")
	write("notes.txt", "ignored")

	defs, err := LoadDefinitions(dir)
	require.NoError(t, err)
	assert.Len(t, defs, 2)
	assert.Equal(t, "SELECT * FROM orders", defs["orders"].Source.Query)

	write("dup.json", `{"id": "people", "source": {"table": "people"}}`)
	_, err = LoadDefinitions(dir)
	assert.ErrorIs(t, err, ErrInvalidDefinition)
}
