package query

import (
	"sort"
	"strings"

	"github.com/nimbit-software/rete-reasoner/rete"
	"github.com/nimbit-software/rete-reasoner/symbol"
)

// projectAggregated handles SELECT lists containing aggregates and/or a
// GROUP BY clause: partitions rows by the group-by key, computes each
// projected aggregate per group, applies HAVING, then ORDER BY/LIMIT over
// the resulting group rows.
//
// HAVING is evaluated against a row that carries both the group's grouped
// variable bindings and every projected alias's already-computed value
// (aliases aren't bindings anywhere else, since they're only ever written
// into the output row), so "HAVING (?method_count >= 3)" resolves the
// alias the same way a bare grouped variable would. An inline aggregate
// reference like "HAVING (COUNT(?x) >= 2)" that never got an alias is
// handled separately, by evalCall recomputing it over the group's raw rows.
func (ex *Executor) projectAggregated(q *Query, c *compiler, rows []rete.Bindings, varOrder []string) (*ResultSet, error) {
	groups := groupRows(rows, q.GroupBy, c)

	cols := projectionColumns(q, varOrder)
	out := make([][]rete.Value, 0, len(groups))
	ctx := &evalCtx{tbl: ex.net.Symbols, vars: c.vt.ids}

	for _, g := range groups {
		row := make([]rete.Value, len(cols))
		havingRow := rete.Bindings{}
		if len(g.rows) > 0 {
			havingRow = g.rows[0].Clone()
		}
		for i, p := range q.Projected {
			var val rete.Value
			if p.Agg == AggNone {
				sym := c.vt.id(p.Var)
				if v, ok := havingRow[sym]; ok {
					val = v
				} else {
					val = rete.Null
				}
			} else {
				val = computeAggregate(p, g.rows, c)
			}
			row[i] = val
			if p.Alias != "" {
				havingRow[c.vt.id(p.Alias)] = val
			}
		}
		if q.Having != nil {
			ctx.row = havingRow
			ctx.groupRows = g.rows
			if !boolOf(q.Having.eval(ctx)) {
				continue
			}
		}
		out = append(out, row)
	}

	out = applyOrderBy(out, cols, q.OrderBy)
	if q.Limit >= 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return NewResultSet(cols, out), nil
}

type rowGroup struct {
	key  string
	rows []rete.Bindings
}

func groupRows(rows []rete.Bindings, groupBy []string, c *compiler) []rowGroup {
	if len(groupBy) == 0 {
		return []rowGroup{{rows: rows}}
	}
	index := map[string]int{}
	var groups []rowGroup
	for _, r := range rows {
		var b strings.Builder
		for _, name := range groupBy {
			sym := c.vt.id(name)
			if v, ok := r[sym]; ok {
				b.WriteString(v.Render(c.net.Symbols))
			}
			b.WriteByte('\x1f')
		}
		key := b.String()
		if i, ok := index[key]; ok {
			groups[i].rows = append(groups[i].rows, r)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, rowGroup{key: key, rows: []rete.Bindings{r}})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].key < groups[j].key })
	return groups
}

func computeAggregate(p ProjItem, rows []rete.Bindings, c *compiler) rete.Value {
	if p.Agg == AggCount && p.AggVar == "*" {
		return rete.Int(int64(len(rows)))
	}
	sym := c.vt.id(p.AggVar)
	vals := make([]rete.Value, 0, len(rows))
	seen := map[string]bool{}
	for _, r := range rows {
		v, ok := r[sym]
		if !ok {
			continue
		}
		if p.Distinct {
			k := v.Render(c.net.Symbols)
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		vals = append(vals, v)
	}

	sep := p.Separator
	if sep == "" {
		sep = " "
	}
	return aggregateOverRows(p.Agg, vals, c.net.Symbols, sep)
}

// aggregateOverRows reduces an already-extracted column of values to a
// single aggregate result. Shared by computeAggregate, which extracts vals
// from a projection's AggVar (with DISTINCT support), and the HAVING
// evaluator's inline aggregates, which extract vals straight from a group's
// raw rows.
func aggregateOverRows(agg AggKind, vals []rete.Value, tbl *symbol.Table, sep string) rete.Value {
	switch agg {
	case AggCount:
		return rete.Int(int64(len(vals)))
	case AggSum:
		var sum float64
		for _, v := range vals {
			f, _ := v.Float64()
			sum += f
		}
		return rete.Float(sum)
	case AggAvg:
		if len(vals) == 0 {
			return rete.Null
		}
		var sum float64
		for _, v := range vals {
			f, _ := v.Float64()
			sum += f
		}
		return rete.Float(sum / float64(len(vals)))
	case AggMin:
		if len(vals) == 0 {
			return rete.Null
		}
		min := vals[0]
		for _, v := range vals[1:] {
			if v.Less(min) {
				min = v
			}
		}
		return min
	case AggMax:
		if len(vals) == 0 {
			return rete.Null
		}
		max := vals[0]
		for _, v := range vals[1:] {
			if max.Less(v) {
				max = v
			}
		}
		return max
	case AggGroupConcat:
		parts := make([]string, len(vals))
		for i, v := range vals {
			parts[i] = v.Render(tbl)
		}
		return rete.Str(strings.Join(parts, sep))
	}
	return rete.Null
}

// aggKindOf maps an identifier used as a function call (e.g. inside HAVING)
// to the aggregate it names, so "COUNT(?x) >= 2" can be recomputed over a
// group's rows without ever having been part of the SELECT list.
func aggKindOf(fn string) (AggKind, bool) {
	switch strings.ToUpper(fn) {
	case "COUNT":
		return AggCount, true
	case "SUM":
		return AggSum, true
	case "AVG":
		return AggAvg, true
	case "MIN":
		return AggMin, true
	case "MAX":
		return AggMax, true
	case "GROUP_CONCAT":
		return AggGroupConcat, true
	}
	return AggNone, false
}
