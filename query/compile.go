package query

import (
	"strconv"

	"github.com/nimbit-software/rete-reasoner/rete"
	"github.com/nimbit-software/rete-reasoner/symbol"
)

// Well-known generic attribute-key names the query layer compiles triple
// patterns against. These match the naming convention the owlrl package's
// PropertyAssertion/ClassMember records use, but query has no import
// dependency on owlrl — it only needs the same strings to interoperate.
const (
	attrSubject    = "subject"
	attrObject     = "object"
	attrProperty   = "property"
	attrClass      = "class"
	attrIndividual = "individual"
	typeClassMember       = "ClassMember"
	typePropertyAssertion = "PropertyAssertion"
	rdfType               = "a"
)

// varTable interns query variable names to stable symbol ids scoped to one
// compiled query, so shared variable names across blocks compile to the
// same join variable.
type varTable struct {
	tbl  *symbol.Table
	ids  map[string]symbol.ID
}

func newVarTable(tbl *symbol.Table) *varTable {
	return &varTable{tbl: tbl, ids: make(map[string]symbol.ID)}
}

func (vt *varTable) id(name string) symbol.ID {
	if id, ok := vt.ids[name]; ok {
		return id
	}
	id := vt.tbl.Intern("?q_" + name)
	vt.ids[name] = id
	return id
}

func termToValue(t Term, tbl *symbol.Table) rete.Value {
	switch {
	case t.IsString:
		return rete.Str(t.Str)
	case t.HasNum:
		return rete.Float(t.Num)
	default:
		return rete.Sym(tbl.Intern(t.Const))
	}
}

// compiler turns parsed patterns into rete condition chains, resolving
// shared variables across conditions via a single varTable per query.
type compiler struct {
	net                                                                     *rete.Network
	vt                                                                      *varTable
	subjectAttr, objectAttr, propertyAttr, classAttr, individualAttr symbol.ID
	tClassMember, tPropertyAssertion                                       symbol.ID
}

func newCompiler(net *rete.Network) *compiler {
	tbl := net.Symbols
	return &compiler{
		net:            net,
		vt:             newVarTable(tbl),
		subjectAttr:    tbl.Intern(attrSubject),
		objectAttr:     tbl.Intern(attrObject),
		propertyAttr:   tbl.Intern(attrProperty),
		classAttr:      tbl.Intern(attrClass),
		individualAttr: tbl.Intern(attrIndividual),
		tClassMember:   tbl.Intern(typeClassMember),
		tPropertyAssertion: tbl.Intern(typePropertyAssertion),
	}
}

// tripleCondition compiles one triple pattern to a single Condition.
func (c *compiler) tripleCondition(tr *Triple) *rete.Condition {
	if tr.Predicate.Const == rdfType {
		cond := rete.NewCondition(c.tClassMember)
		c.bindTerm(cond, c.individualAttr, tr.Subject)
		c.bindTerm(cond, c.classAttr, tr.Object)
		return cond
	}
	cond := rete.NewCondition(c.tPropertyAssertion)
	c.bindTerm(cond, c.subjectAttr, tr.Subject)
	c.bindTerm(cond, c.objectAttr, tr.Object)
	c.bindTerm(cond, c.propertyAttr, tr.Predicate)
	return cond
}

func (c *compiler) bindTerm(cond *rete.Condition, attr symbol.ID, t Term) {
	if t.isVar() {
		cond.Bind(attr, c.vt.id(t.Var))
		return
	}
	cond.Const(attr, termToValue(t, c.net.Symbols))
}

// compilePattern builds the condition/test chain for a flat list of triples,
// threading join tests for every variable already seen in an earlier
// condition (the same left-deep-chain construction static.go's rules use).
func (c *compiler) compilePattern(triples []*Triple) ([]*rete.Condition, [][]rete.JoinTest) {
	conds := make([]*rete.Condition, len(triples))
	tests := make([][]rete.JoinTest, len(triples))
	seen := map[symbol.ID]bool{}
	for i, tr := range triples {
		cond := c.tripleCondition(tr)
		conds[i] = cond
		var jt []rete.JoinTest
		for _, v := range cond.Variables {
			if seen[v] {
				jt = append(jt, rete.JoinTest{Kind: rete.JoinEqual, Left: v, Right: v})
			}
			seen[v] = true
		}
		if i > 0 {
			tests[i] = jt
		}
	}
	return conds, tests
}

// runBlock executes one flat triple list (plus its FILTERs) against the
// network, returning every resulting binding row.
func (c *compiler) runBlock(triples []*Triple, filters []Expr) []rete.Bindings {
	if len(triples) == 0 {
		return []rete.Bindings{{}}
	}
	conds, tests := c.compilePattern(triples)
	ctx := &evalCtx{tbl: c.net.Symbols, vars: c.vt.ids}
	var relFilters []rete.Filter
	for _, fx := range filters {
		fx := fx
		relFilters = append(relFilters, func(b rete.Bindings) bool {
			ctx.row = b
			return boolOf(fx.eval(ctx))
		})
	}
	prod := c.net.CompileQuery(canonicalKey(triples, filters), conds, tests, relFilters)
	return prod.Results()
}

// canonicalKey folds both the triple shape and the filter expressions into
// the production cache key, so two patterns that share triples but differ
// in their FILTER guards never collide in Network.CompileQuery's cache.
func canonicalKey(triples []*Triple, filters []Expr) string {
	h := ""
	for _, t := range triples {
		h += t.Subject.key() + "|" + t.Predicate.key() + "|" + t.Object.key() + ";"
	}
	h += "#filters:"
	for _, fx := range filters {
		h += fx.key() + ";"
	}
	return h
}

func (t Term) key() string {
	switch {
	case t.isVar():
		return "?" + t.Var
	case t.IsString:
		return "\"" + t.Str + "\""
	case t.HasNum:
		return "#" + strconv.FormatFloat(t.Num, 'g', -1, 64)
	default:
		return t.Const
	}
}

// varsInTriples returns every distinct variable name appearing in triples,
// in first-occurrence order.
func varsInTriples(triples []*Triple) []string {
	var out []string
	seen := map[string]bool{}
	add := func(t Term) {
		if t.isVar() && !seen[t.Var] {
			seen[t.Var] = true
			out = append(out, t.Var)
		}
	}
	for _, tr := range triples {
		add(tr.Subject)
		add(tr.Predicate)
		add(tr.Object)
	}
	return out
}
