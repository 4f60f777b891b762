package reactgrid

import (
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	_ Filterable = (*Grid)(nil)
	_ Sortable   = (*Grid)(nil)
)

var (
	labelPolicyOnce sync.Once
	labelPolicy     *bluemonday.Policy
)

// labelSanitizer lets configured header labels keep inline markup while
// dropping scripts and handlers.
func labelSanitizer() *bluemonday.Policy {
	labelPolicyOnce.Do(func() {
		labelPolicy = bluemonday.UGCPolicy()
	})
	return labelPolicy
}

// HeaderCell is what a table header cell needs to render one column.
type HeaderCell struct {
	Column   string `json:"column"`
	Class    string `json:"class"`
	HTML     string `json:"html"`
	Sortable bool   `json:"sortable"`
}

// HeaderLabel returns the configured header for column, or the column name.
func (g *Grid) HeaderLabel(column string) string {
	if label, ok := g.config.Header[column]; ok {
		return label
	}
	return column
}

// HTMLTH renders the header cell content. Sortable grids get an icon
// placeholder the sort indicator targets.
func (g *Grid) HTMLTH(column string) string {
	name := labelSanitizer().Sanitize(g.HeaderLabel(column))
	if _, ok := g.AsSortable(); !ok {
		return name
	}
	return fmt.Sprintf(`%s <i sort-by="%s"></i>`, name, html.EscapeString(column))
}

func (g *Grid) StyleTH(column string) string {
	return g.style(column, "th")
}

func (g *Grid) StyleTD(column string) string {
	return g.style(column, "td")
}

// style joins the column's shared css class with the element's own class.
func (g *Grid) style(column, element string) string {
	i, ok := g.display[column]
	if !ok {
		return ""
	}
	d := g.config.Display[i]

	var own string
	switch element {
	case "th":
		own = d.TH
	case "td":
		own = d.TD
	}
	return strings.TrimSpace(d.CSS + " " + own)
}

// HeaderCell describes the header of column. Only real record fields are
// sortable, and only on grids with a sort stage.
func (g *Grid) HeaderCell(column string) HeaderCell {
	cell := HeaderCell{
		Column: column,
		Class:  g.StyleTH(column),
		HTML:   g.HTMLTH(column),
	}
	if _, ok := g.AsSortable(); ok && g.IsField(column) {
		cell.Sortable = true
		cell.Class = strings.TrimSpace(cell.Class + " pointer")
	}
	return cell
}

// HeaderCells describes every displayed column.
func (g *Grid) HeaderCells() []HeaderCell {
	cols := g.columns.Get()
	cells := make([]HeaderCell, 0, len(cols))
	for _, col := range cols {
		cells = append(cells, g.HeaderCell(col))
	}
	return cells
}
