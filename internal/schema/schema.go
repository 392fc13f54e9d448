// Package schema provides the live introspected view of a study's physical
// database schema, and a short-TTL cache over it.
//
// A PhysicalSchema is an immutable snapshot: the cache swaps whole snapshots
// on refresh and never mutates one in place, so concurrent extraction
// requests always observe a consistent view.
package schema

import (
	"strings"

	"github.com/AndriiKulakovskyi/thesaurus/pkg/adapter"
)

// Column is one physical column with its declared database type.
type Column struct {
	Name string
	Type string
}

// Table is one physical table and its columns, in ordinal order.
type Table struct {
	Name    string
	Columns []Column
}

// ColumnNames returns the physical column names in ordinal order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by its exact physical name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// PhysicalSchema is the introspected view of one database schema.
type PhysicalSchema struct {
	Name   string
	tables map[string]Table
	order  []string
}

// FromMetadata builds a PhysicalSchema snapshot from adapter introspection.
func FromMetadata(name string, metas []adapter.TableMetadata) *PhysicalSchema {
	s := &PhysicalSchema{
		Name:   name,
		tables: make(map[string]Table, len(metas)),
	}
	for _, m := range metas {
		t := Table{Name: m.Name, Columns: make([]Column, 0, len(m.Columns))}
		for _, c := range m.Columns {
			t.Columns = append(t.Columns, Column{Name: c.Name, Type: c.Type})
		}
		s.tables[m.Name] = t
		s.order = append(s.order, m.Name)
	}
	return s
}

// Table looks up a physical table by name, exact match first, then
// case-insensitive.
func (s *PhysicalSchema) Table(name string) (Table, bool) {
	if t, ok := s.tables[name]; ok {
		return t, true
	}
	for _, n := range s.order {
		if strings.EqualFold(n, name) {
			return s.tables[n], true
		}
	}
	return Table{}, false
}

// TableNames returns the physical table names in introspection order.
func (s *PhysicalSchema) TableNames() []string {
	return append([]string(nil), s.order...)
}

// Len returns the number of tables in the schema.
func (s *PhysicalSchema) Len() int {
	return len(s.order)
}
