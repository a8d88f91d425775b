package query

import (
	"context"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nimbit-software/rete-reasoner/rete"
)

// Executor runs compiled queries against a network, owning the dedup group
// that collapses duplicate concurrent compilations of the same query text.
type Executor struct {
	net *rete.Network
	sf  singleflight.Group
}

// NewExecutor builds an executor bound to net.
func NewExecutor(net *rete.Network) *Executor { return &Executor{net: net} }

// Run parses, compiles, and executes text against the bound network.
// timeoutMS of zero runs against the live network with no deadline; a
// positive value sets a wall-clock deadline that is checked once, after the
// WHERE pattern has been fully evaluated. If it has passed by then, the
// evaluated rows are projected without grouping or aggregation and returned
// with Truncated set; evaluation itself is not interrupted.
func (ex *Executor) Run(text string, timeoutMS int) (*ResultSet, error) {
	q, err := Parse(text)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	var cancel context.CancelFunc
	if timeoutMS > 0 {
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeoutMS)*time.Millisecond)
		defer cancel()
	}

	v, err, _ := ex.sf.Do(text, func() (interface{}, error) {
		return ex.execute(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ResultSet), nil
}

func (ex *Executor) execute(ctx context.Context, q *Query) (*ResultSet, error) {
	if q.Describe {
		return ex.describe(ctx, q)
	}

	c := newCompiler(ex.net)
	rows, varOrder := c.eval(q.Where)

	select {
	case <-ctx.Done():
		return ex.project(q, rows, varOrder, true)
	default:
	}

	if len(q.GroupBy) > 0 || hasAggregates(q.Projected) {
		return ex.projectAggregated(q, c, rows, varOrder)
	}
	return ex.project(q, rows, varOrder, false)
}

// eval walks a graph pattern, evaluating its required triples as one
// compiled RETE query production and then folding in OPTIONAL/MINUS/UNION/
// VALUES blocks in the order they appear, as row-set algebra over the
// resulting bindings.
func (c *compiler) eval(gp *GraphPattern) ([]rete.Bindings, []string) {
	if gp == nil {
		return []rete.Bindings{{}}, nil
	}
	var triples []*Triple
	var filters []Expr
	type special struct {
		optional *GraphPattern
		minus    *GraphPattern
		union    []*GraphPattern
		values   *ValuesClause
	}
	var specials []special
	for _, b := range gp.Blocks {
		switch {
		case b.Triple != nil:
			triples = append(triples, b.Triple)
		case b.Filter != nil:
			filters = append(filters, *b.Filter)
		case b.Optional != nil:
			specials = append(specials, special{optional: b.Optional})
		case b.Minus != nil:
			specials = append(specials, special{minus: b.Minus})
		case len(b.Union) > 0:
			specials = append(specials, special{union: b.Union})
		case b.Values != nil:
			specials = append(specials, special{values: b.Values})
		}
	}

	rows := c.runBlock(triples, filters)
	varOrder := varsInTriples(triples)

	for _, s := range specials {
		switch {
		case s.optional != nil:
			rows, varOrder = c.applyOptional(rows, varOrder, s.optional)
		case s.minus != nil:
			rows = c.applyMinus(rows, s.minus)
		case len(s.union) > 0:
			rows, varOrder = c.applyUnion(rows, varOrder, s.union)
		case s.values != nil:
			rows = c.applyValues(rows, s.values)
		}
	}
	return rows, varOrder
}

func bindingsCompatible(a, b rete.Bindings) bool {
	for k, v := range a {
		if ov, ok := b[k]; ok && !v.Equal(ov) {
			return false
		}
	}
	return true
}

// applyOptional left-outer-joins inner's rows onto outer: every outer row
// not matched by any inner row survives unchanged (its optional-only
// variables simply absent, rendered null at projection), and every match
// produces one merged row.
func (c *compiler) applyOptional(outer []rete.Bindings, outerVars []string, opt *GraphPattern) ([]rete.Bindings, []string) {
	inner, innerVars := c.eval(opt)
	merged := mergeVarOrder(outerVars, innerVars)

	var out []rete.Bindings
	for _, r := range outer {
		matched := false
		for _, ir := range inner {
			if bindingsCompatible(r, ir) {
				out = append(out, r.Extend(ir))
				matched = true
			}
		}
		if !matched {
			out = append(out, r)
		}
	}
	return out, merged
}

// applyMinus drops every outer row for which some inner row agrees on every
// variable the two patterns share; if the patterns share no variable, MINUS
// has no effect.
func (c *compiler) applyMinus(outer []rete.Bindings, minus *GraphPattern) []rete.Bindings {
	inner, _ := c.eval(minus)
	var out []rete.Bindings
	for _, r := range outer {
		excluded := false
		for _, ir := range inner {
			if sharesVariable(r, ir) && bindingsCompatible(r, ir) {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, r)
		}
	}
	return out
}

func sharesVariable(a, b rete.Bindings) bool {
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}

// applyUnion evaluates every branch independently, concatenates their rows
// and merges their variables into the schema, and — if there is a
// non-trivial prior pattern to join against — pairs each prior row with
// every union row compatible with it on shared variables (a nested-loop
// join).
func (c *compiler) applyUnion(outer []rete.Bindings, outerVars []string, branches []*GraphPattern) ([]rete.Bindings, []string) {
	var unionRows []rete.Bindings
	merged := outerVars
	for _, br := range branches {
		rows, vars := c.eval(br)
		merged = mergeVarOrder(merged, vars)
		unionRows = append(unionRows, rows...)
	}
	if len(outer) == 1 && len(outer[0]) == 0 {
		return unionRows, merged
	}
	var out []rete.Bindings
	for _, r := range outer {
		for _, ur := range unionRows {
			if bindingsCompatible(r, ur) {
				out = append(out, r.Extend(ur))
			}
		}
	}
	return out, merged
}

func (c *compiler) applyValues(rows []rete.Bindings, vc *ValuesClause) []rete.Bindings {
	sym := c.vt.id(vc.Var)
	vals := make([]rete.Value, len(vc.Terms))
	for i, t := range vc.Terms {
		vals[i] = termToValue(t, c.net.Symbols)
	}
	var out []rete.Bindings
	for _, r := range rows {
		if existing, ok := r[sym]; ok {
			for _, val := range vals {
				if existing.Equal(val) {
					out = append(out, r)
					break
				}
			}
			continue
		}
		for _, val := range vals {
			nr := r.Clone()
			nr[sym] = val
			out = append(out, nr)
		}
	}
	return out
}

func mergeVarOrder(a, b []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(a)+len(b))
	for _, v := range a {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range b {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// project builds the final ResultSet for a non-aggregated query: resolves
// the projection list (SELECT * or explicit variables) against varOrder and
// each row's bindings, applying DISTINCT/ORDER BY/LIMIT.
func (ex *Executor) project(q *Query, rows []rete.Bindings, varOrder []string, truncated bool) (*ResultSet, error) {
	c := newCompiler(ex.net)
	cols := projectionColumns(q, varOrder)

	out := make([][]rete.Value, 0, len(rows))
	for _, r := range rows {
		row := make([]rete.Value, len(cols))
		for i, name := range cols {
			sym := c.vt.id(name)
			if v, ok := r[sym]; ok {
				row[i] = v
			} else {
				row[i] = rete.Null
			}
		}
		out = append(out, row)
	}

	out = applyOrderBy(out, cols, q.OrderBy)
	if q.Distinct {
		out = distinctRows(out)
	}
	if q.Limit >= 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}

	rs := NewResultSet(cols, out)
	rs.Truncated = truncated
	return rs, nil
}

func projectionColumns(q *Query, varOrder []string) []string {
	if q.Star {
		return varOrder
	}
	cols := make([]string, len(q.Projected))
	for i, p := range q.Projected {
		if p.Alias != "" {
			cols[i] = p.Alias
		} else {
			cols[i] = p.Var
		}
	}
	return cols
}

func hasAggregates(items []ProjItem) bool {
	for _, p := range items {
		if p.Agg != AggNone {
			return true
		}
	}
	return false
}

func distinctRows(rows [][]rete.Value) [][]rete.Value {
	seen := map[string]bool{}
	out := make([][]rete.Value, 0, len(rows))
	for _, r := range rows {
		key := rowKey(r)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

func rowKey(row []rete.Value) string {
	var b strings.Builder
	for _, v := range row {
		b.WriteString(v.Render(nil))
		b.WriteByte('\x1f')
	}
	return b.String()
}

func applyOrderBy(rows [][]rete.Value, cols []string, order []OrderTerm) [][]rete.Value {
	if len(order) == 0 {
		return rows
	}
	idx := map[string]int{}
	for i, c := range cols {
		idx[c] = i
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range order {
			ci, ok := idx[o.Var]
			if !ok {
				continue
			}
			a, b := rows[i][ci], rows[j][ci]
			if a.Equal(b) {
				continue
			}
			less := a.Less(b)
			if o.Desc {
				return !less
			}
			return less
		}
		return false
	})
	return rows
}
