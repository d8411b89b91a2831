package models

import (
	"sort"
)

// Field is a single named value inside a record. Records keep the
// server-supplied field order, so fields live in a slice rather than a map.
type Field struct {
	Name  string
	Value interface{}
}

// Record is one row returned by the protocol layer.
type Record []Field

// Get returns the value of the named field.
func (r Record) Get(name string) (interface{}, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// String returns the named field rendered as a string, or "" when the field
// is missing or not a string.
func (r Record) String(name string) string {
	v, ok := r.Get(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// With returns a copy of the record with the named field set, appending it
// when absent.
func (r Record) With(name string, value interface{}) Record {
	out := make(Record, len(r))
	copy(out, r)
	for i, f := range out {
		if f.Name == name {
			out[i].Value = value
			return out
		}
	}
	return append(out, Field{Name: name, Value: value})
}

// Drop returns a copy of the record without the named fields.
func (r Record) Drop(names ...string) Record {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	out := make(Record, 0, len(r))
	for _, f := range r {
		if _, ok := drop[f.Name]; ok {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Table is the uniform tabular container handed back by the quote facades.
// Row order is insertion order (= server order) unless explicitly re-sorted.
// Symbol and Market are provenance tags attached by the facade layer; they
// are metadata, not columns.
type Table struct {
	Symbol string
	Market int

	rows []Record
}

// TableOption tags a table with out-of-band provenance metadata.
type TableOption func(*Table)

func WithSymbol(symbol string) TableOption {
	return func(t *Table) { t.Symbol = symbol }
}

func WithMarket(market int) TableOption {
	return func(t *Table) { t.Market = market }
}

// NewTable converts raw protocol records into a table. A nil or empty input
// yields an empty table, never an error.
func NewTable(rows []Record, opts ...TableOption) *Table {
	t := &Table{rows: rows}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Empty reports whether the table has no rows. A nil table is empty.
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// Rows returns the underlying rows in order.
func (t *Table) Rows() []Record {
	if t == nil {
		return nil
	}
	return t.rows
}

// Row returns the i-th row.
func (t *Table) Row(i int) Record {
	return t.rows[i]
}

// Columns returns the column names in the order of the first row.
func (t *Table) Columns() []string {
	if t.Empty() {
		return nil
	}
	cols := make([]string, 0, len(t.rows[0]))
	for _, f := range t.rows[0] {
		cols = append(cols, f.Name)
	}
	return cols
}

// Column returns the named column rendered as strings, one entry per row.
func (t *Table) Column(name string) []string {
	if t.Empty() {
		return nil
	}
	out := make([]string, 0, len(t.rows))
	for _, r := range t.rows {
		out = append(out, r.String(name))
	}
	return out
}

// Append adds rows to the table, preserving order.
func (t *Table) Append(rows ...Record) {
	t.rows = append(t.rows, rows...)
}

// Map replaces every row with fn(row). Used by the facade layer for derived
// columns.
func (t *Table) Map(fn func(Record) Record) *Table {
	for i, r := range t.rows {
		t.rows[i] = fn(r)
	}
	return t
}

// Filter returns a table holding only the rows for which keep returns true,
// carrying over the provenance tags.
func (t *Table) Filter(keep func(Record) bool) *Table {
	out := &Table{Symbol: t.Symbol, Market: t.Market}
	for _, r := range t.rows {
		if keep(r) {
			out.rows = append(out.rows, r)
		}
	}
	return out
}

// SortByString sorts rows ascending by the string rendering of the named
// column. The sort is stable so equal keys keep server order.
func (t *Table) SortByString(name string) *Table {
	sort.SliceStable(t.rows, func(i, j int) bool {
		return t.rows[i].String(name) < t.rows[j].String(name)
	})
	return t
}

// Concat concatenates tables in argument order into a new table. Provenance
// tags are taken from the first non-nil table.
func Concat(tables ...*Table) *Table {
	out := &Table{}
	tagged := false
	for _, t := range tables {
		if t == nil {
			continue
		}
		if !tagged {
			out.Symbol = t.Symbol
			out.Market = t.Market
			tagged = true
		}
		out.rows = append(out.rows, t.rows...)
	}
	return out
}
