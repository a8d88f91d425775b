// Package query implements the graph-pattern query executor: triple
// patterns, FILTER, OPTIONAL, UNION, MINUS, VALUES, and aggregation,
// compiled against a *rete.Network and presented as a columnar result.
package query

import (
	"github.com/nimbit-software/rete-reasoner/rete"
	"github.com/nimbit-software/rete-reasoner/symbol"
)

// ResultSet is the columnar table every query produces: one column per
// projected variable or alias, rows in enumeration order. An empty result
// still carries its full schema with zero-length columns, and a missing
// OPTIONAL value is a null cell in its column, never an absent column.
type ResultSet struct {
	Columns   []string
	rows      [][]rete.Value
	Truncated bool // set when a positive timeout had expired once the pattern was evaluated
}

// NewResultSet builds a result with the given column schema and rows. Every
// row must have exactly len(columns) cells.
func NewResultSet(columns []string, rows [][]rete.Value) *ResultSet {
	return &ResultSet{Columns: columns, rows: rows}
}

// NumRows returns the number of result rows.
func (r *ResultSet) NumRows() int { return len(r.rows) }

// ColumnNames returns the result schema, in projection order.
func (r *ResultSet) ColumnNames() []string { return r.Columns }

func (r *ResultSet) colIndex(name string) (int, bool) {
	for i, c := range r.Columns {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

// Column returns every value in the named column, in row order. Returns nil
// if the column doesn't exist.
func (r *ResultSet) Column(name string) []rete.Value {
	idx, ok := r.colIndex(name)
	if !ok {
		return nil
	}
	out := make([]rete.Value, len(r.rows))
	for i, row := range r.rows {
		out[i] = row[idx]
	}
	return out
}

// Row returns the i-th row's cells, in schema order. Negative i indexes from
// the end, Python-slice style.
func (r *ResultSet) Row(i int) []rete.Value {
	if i < 0 {
		i += len(r.rows)
	}
	if i < 0 || i >= len(r.rows) {
		return nil
	}
	return r.rows[i]
}

// Slice returns a new ResultSet over rows [start,end), sharing the schema.
func (r *ResultSet) Slice(start, end int) *ResultSet {
	if start < 0 {
		start += len(r.rows)
	}
	if end < 0 {
		end += len(r.rows)
	}
	if start < 0 {
		start = 0
	}
	if end > len(r.rows) {
		end = len(r.rows)
	}
	if start > end {
		start = end
	}
	out := make([][]rete.Value, end-start)
	copy(out, r.rows[start:end])
	return &ResultSet{Columns: r.Columns, rows: out}
}

// ToPylist renders the result as a list of name->value maps, resolving
// symbol-valued cells through tbl, for callers that want a JSON-friendly
// row shape instead of positional columns.
func (r *ResultSet) ToPylist(tbl *symbol.Table) []map[string]interface{} {
	out := make([]map[string]interface{}, len(r.rows))
	for i, row := range r.rows {
		m := make(map[string]interface{}, len(r.Columns))
		for j, c := range r.Columns {
			m[c] = renderValue(row[j], tbl)
		}
		out[i] = m
	}
	return out
}

// renderValue converts a Value to a plain Go value suitable for JSON
// encoding, resolving symbol ids to their interned names. Null becomes nil.
func renderValue(v rete.Value, tbl *symbol.Table) interface{} {
	switch v.Kind() {
	case rete.KindNull:
		return nil
	case rete.KindSymbol:
		id, _ := v.SymbolID()
		return tbl.MustName(id)
	case rete.KindInt:
		i, _ := v.Int64()
		return i
	case rete.KindFloat:
		f, _ := v.Float64()
		return f
	case rete.KindBool:
		b, _ := v.Bool()
		return b
	case rete.KindString:
		s, _ := v.String()
		return s
	}
	return nil
}

// Each iterates every row, calling fn with its cells in schema order.
func (r *ResultSet) Each(fn func(row []rete.Value)) {
	for _, row := range r.rows {
		fn(row)
	}
}
