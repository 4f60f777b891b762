// Package gormsource loads grid records from a table through GORM.
package gormsource

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/gnemet/reactgrid"
)

// Source reads a whole table, optionally ordered.
type Source struct {
	db    *gorm.DB
	table string
	order string
}

func New(db *gorm.DB, table string) *Source {
	return &Source{db: db, table: table}
}

// WithOrder sets the ORDER BY clause used when reading.
func (s *Source) WithOrder(order string) *Source {
	s.order = order
	return s
}

func (s *Source) Fetch(ctx context.Context) ([]reactgrid.Record, error) {
	q := s.db.WithContext(ctx).Table(s.table)
	if s.order != "" {
		q = q.Order(s.order)
	}

	var rows []map[string]interface{}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", s.table, err)
	}

	return lo.Map(rows, func(row map[string]interface{}, _ int) reactgrid.Record {
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		return reactgrid.Record(row)
	}), nil
}

// Loader returns a grid loader running Fetch in the background.
func (s *Source) Loader(ctx context.Context) reactgrid.Loader {
	return reactgrid.AsyncLoader(ctx, "gorm:"+s.table, s.Fetch)
}
