package query

import (
	"context"
	"sort"

	"github.com/nimbit-software/rete-reasoner/rete"
)

// describeColumns is the fixed schema every DESCRIBE query projects,
// regardless of which resources it names.
var describeColumns = []string{"subject", "predicate", "object", "object_type"}

// describe resolves q's resource terms — constants directly, variables by
// evaluating q.Where — and returns every triple in which any resolved
// resource appears as subject or object: PropertyAssertion facts match on
// either side, ClassMember facts match on either the individual or the
// class. A resource that matches nothing yields an empty result carrying
// the same four-column schema.
func (ex *Executor) describe(ctx context.Context, q *Query) (*ResultSet, error) {
	c := newCompiler(ex.net)
	resources := map[rete.Value]bool{}

	var varNames []string
	for _, t := range q.DescribeTerms {
		if t.isVar() {
			varNames = append(varNames, t.Var)
			continue
		}
		resources[rete.Sym(ex.net.Symbols.Intern(t.Const))] = true
	}

	if q.Where != nil && len(varNames) > 0 {
		rows, _ := c.eval(q.Where)
		for _, name := range varNames {
			sym := c.vt.id(name)
			for _, r := range rows {
				if v, ok := r[sym]; ok {
					resources[v] = true
				}
			}
		}
	}

	truncated := false
	select {
	case <-ctx.Done():
		truncated = true
	default:
	}

	var out [][]rete.Value
	if !truncated {
		out = ex.describeTriples(resources)
	}
	rs := NewResultSet(describeColumns, out)
	rs.Truncated = truncated
	return rs, nil
}

// describeTriples scans the live fact store directly, the same
// bypass-RETE-compilation approach QueryByRecordPattern uses, since DESCRIBE
// has no join structure to share across calls.
func (ex *Executor) describeTriples(resources map[rete.Value]bool) [][]rete.Value {
	if len(resources) == 0 {
		return nil
	}
	tbl := ex.net.Symbols
	typeKey := ex.net.TypeKey()
	clsMemberType := tbl.Intern(typeClassMember)
	propAssertType := tbl.Intern(typePropertyAssertion)
	individualAttr := tbl.Intern(attrIndividual)
	classAttr := tbl.Intern(attrClass)
	subjectAttr := tbl.Intern(attrSubject)
	objectAttr := tbl.Intern(attrObject)
	propertyAttr := tbl.Intern(attrProperty)
	rdfTypeVal := rete.Sym(tbl.Intern(rdfType))

	var out [][]rete.Value
	for _, f := range ex.net.Facts().All() {
		tv, ok := f.Get(typeKey)
		if !ok {
			continue
		}
		sym, ok := tv.SymbolID()
		if !ok {
			continue
		}
		switch sym {
		case clsMemberType:
			ind, _ := f.Get(individualAttr)
			cls, _ := f.Get(classAttr)
			if resources[ind] || resources[cls] {
				out = append(out, []rete.Value{ind, rdfTypeVal, cls, objectTypeOf(cls)})
			}
		case propAssertType:
			subj, _ := f.Get(subjectAttr)
			obj, _ := f.Get(objectAttr)
			prop, _ := f.Get(propertyAttr)
			if resources[subj] || resources[obj] {
				out = append(out, []rete.Value{subj, prop, obj, objectTypeOf(obj)})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return rowKey(out[i]) < rowKey(out[j]) })
	return out
}

// objectTypeOf classifies a triple's object position for DESCRIBE's
// object_type column.
func objectTypeOf(v rete.Value) rete.Value {
	switch v.Kind() {
	case rete.KindSymbol:
		return rete.Str("entity")
	case rete.KindInt, rete.KindFloat:
		return rete.Str("number")
	case rete.KindBool:
		return rete.Str("boolean")
	case rete.KindString:
		return rete.Str("string")
	default:
		return rete.Null
	}
}
