package query

import (
	"context"

	"github.com/nimbit-software/rete-reasoner/rete"
	"github.com/nimbit-software/rete-reasoner/symbol"
)

// Pre-canonicalised query templates: common patterns built directly as AST
// rather than round-tripped through the text parser, so callers needing one
// of these shapes skip lexing/parsing entirely.

func constTerm(name string) Term { return Term{Const: name} }
func varTerm(name string) Term   { return Term{Var: name} }

func selectQuery(vars []string, triples ...*Triple) *Query {
	blocks := make([]Block, len(triples))
	for i, t := range triples {
		tc := t
		blocks[i] = Block{Triple: tc}
	}
	items := make([]ProjItem, len(vars))
	for i, v := range vars {
		items[i] = ProjItem{Var: v}
	}
	return &Query{
		Projected: items,
		Where:     &GraphPattern{Blocks: blocks},
		Limit:     -1,
	}
}

// runTemplate executes a pre-built AST directly, skipping the parser and the
// text-keyed singleflight dedup Run uses (each template call already names
// its own shape, so there is no duplicate-text-compilation to collapse).
func (ex *Executor) runTemplate(q *Query) (*ResultSet, error) {
	return ex.execute(context.Background(), q)
}

// InstancesOf returns every individual asserted or inferred to be a member
// of class c: SELECT ?x WHERE { ?x a c }.
func (ex *Executor) InstancesOf(c string) (*ResultSet, error) {
	q := selectQuery([]string{"x"}, &Triple{Subject: varTerm("x"), Predicate: constTerm(rdfType), Object: constTerm(c)})
	return ex.runTemplate(q)
}

// PropertyValue returns every value bound to property p for subject s:
// SELECT ?o WHERE { s p ?o }.
func (ex *Executor) PropertyValue(s, p string) (*ResultSet, error) {
	q := selectQuery([]string{"o"}, &Triple{Subject: constTerm(s), Predicate: constTerm(p), Object: varTerm("o")})
	return ex.runTemplate(q)
}

// Related returns every individual reachable from s via property p:
// SELECT ?o WHERE { s p ?o }, the same shape as PropertyValue but intended
// for object-property relations rather than literal-valued data properties.
func (ex *Executor) Related(s, p string) (*ResultSet, error) {
	q := selectQuery([]string{"o"}, &Triple{Subject: constTerm(s), Predicate: constTerm(p), Object: varTerm("o")})
	return ex.runTemplate(q)
}

// InstancesWithProperty returns every instance of class c together with its
// value(s) for property p: SELECT ?x ?o WHERE { ?x a c . ?x p ?o }.
func (ex *Executor) InstancesWithProperty(c, p string) (*ResultSet, error) {
	q := selectQuery([]string{"x", "o"},
		&Triple{Subject: varTerm("x"), Predicate: constTerm(rdfType), Object: constTerm(c)},
		&Triple{Subject: varTerm("x"), Predicate: constTerm(p), Object: varTerm("o")},
	)
	return ex.runTemplate(q)
}

// AllAssertionsOf returns every subject/object pair asserted or inferred for
// property p: SELECT ?s ?o WHERE { ?s p ?o }.
func (ex *Executor) AllAssertionsOf(p string) (*ResultSet, error) {
	q := selectQuery([]string{"s", "o"}, &Triple{Subject: varTerm("s"), Predicate: constTerm(p), Object: varTerm("o")})
	return ex.runTemplate(q)
}

// QueryByRecordPattern is a fast path: a partial, constant-only fact
// template matched directly against the fact store's attribute-value
// indexes, bypassing RETE compilation entirely. attrs maps attribute names
// to constant values every matching fact must carry.
func (ex *Executor) QueryByRecordPattern(typeName string, attrs map[string]rete.Value) *ResultSet {
	tbl := ex.net.Symbols
	constants := make(map[symbol.ID]rete.Value, len(attrs)+1)
	constants[ex.net.TypeKey()] = rete.Sym(tbl.Intern(typeName))
	for k, v := range attrs {
		constants[tbl.Intern(k)] = v
	}
	facts := ex.net.Facts().LookupByPattern(constants)

	cols := make([]string, 0, len(attrs))
	for k := range attrs {
		cols = append(cols, k)
	}
	rows := make([][]rete.Value, len(facts))
	for i, f := range facts {
		row := make([]rete.Value, len(cols))
		for j, c := range cols {
			if v, ok := f.Get(tbl.Intern(c)); ok {
				row[j] = v
			} else {
				row[j] = rete.Null
			}
		}
		rows[i] = row
	}
	return NewResultSet(cols, rows)
}
