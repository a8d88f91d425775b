package owlrl

import (
	"github.com/google/uuid"

	"github.com/nimbit-software/rete-reasoner/rete"
	"github.com/nimbit-software/rete-reasoner/symbol"
)

// registerDynamic wires the catalogue templates whose join-chain shape
// depends on the axiom's own content — a property chain's length, a
// hasKey's property list, a cardinality restriction's multiplicity, an
// intersection's operand count. Each one watches for its trigger fact via
// Network.OnFactType and compiles a bespoke, uniquely-named rule per
// instance the moment that instance's defining fact arrives.
func registerDynamic(net *rete.Network, v *vocab) {
	tbl := net.Symbols

	// cls-uni: unionOf membership decomposes into one single-condition
	// production per operand — no join chain at all, since each operand
	// independently implies membership in the union class.
	net.OnFactType(typeUnionOf, func(f *rete.Fact) {
		c, ok := f.Get(v.aClass)
		if !ok {
			return
		}
		ops := f.StringData[v.aOperands]
		for _, opName := range ops {
			op := tbl.Intern(opName)
			vX := tbl.Intern("?x_" + uuid.NewString())
			name := "cls-uni/" + uuid.NewString()
			net.AddRule(name,
				[]*rete.Condition{v.cond(v.tClassMember).Const(v.aClass, rete.Sym(op)).Bind(v.aIndividual, vX)},
				nil,
				nil,
				func(b rete.Bindings) []*rete.Fact {
					return []*rete.Fact{v.fact(v.tClassMember, map[symbol.ID]rete.Value{v.aClass: c, v.aIndividual: b[vX]})}
				})
		}
	})

	// cls-int1: N-ary intersection membership requires a join across every
	// operand's ClassMember condition on the same individual — built with
	// as many conditions as the intersection has operands.
	net.OnFactType(typeIntersectionOf, func(f *rete.Fact) {
		c, ok := f.Get(v.aClass)
		if !ok {
			return
		}
		ops := f.StringData[v.aOperands]
		if len(ops) == 0 {
			return
		}
		vX := tbl.Intern("?x_" + uuid.NewString())
		conds := make([]*rete.Condition, len(ops))
		tests := make([][]rete.JoinTest, len(ops))
		for i, opName := range ops {
			op := tbl.Intern(opName)
			conds[i] = v.cond(v.tClassMember).Const(v.aClass, rete.Sym(op)).Bind(v.aIndividual, vX)
			if i > 0 {
				tests[i] = eq(vX)
			}
		}
		name := "cls-int1/" + uuid.NewString()
		net.AddRule(name, conds, tests, nil, func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tClassMember, map[symbol.ID]rete.Value{v.aClass: c, v.aIndividual: b[vX]})}
		})

		// cls-int2: the converse direction — membership in the intersection
		// class implies membership in every operand. One single-condition
		// production per operand, each triggered directly off the
		// intersection's own ClassMember fact, no join needed.
		vX2 := tbl.Intern("?x2_" + uuid.NewString())
		for _, opName := range ops {
			op := tbl.Intern(opName)
			name := "cls-int2/" + uuid.NewString()
			net.AddRule(name,
				[]*rete.Condition{v.cond(v.tClassMember).Const(v.aClass, c).Bind(v.aIndividual, vX2)},
				nil,
				nil,
				func(b rete.Bindings) []*rete.Fact {
					return []*rete.Fact{v.fact(v.tClassMember, map[symbol.ID]rete.Value{v.aClass: rete.Sym(op), v.aIndividual: b[vX2]})}
				})
		}
	})

	// prp-spo2: a property chain p1 o p2 o ... o pn -> p composes as many
	// PropertyAssertion conditions as the chain has links, joined
	// subject-to-object along the chain and binding the chain's overall
	// subject and object to the consequent's p.
	net.OnFactType(typePropertyChain, func(f *rete.Fact) {
		p, ok := f.Get(v.aProperty)
		if !ok {
			return
		}
		chain := f.StringData[v.aChain]
		if len(chain) == 0 {
			return
		}
		anchors := make([]symbol.ID, len(chain)+1)
		for i := range anchors {
			anchors[i] = tbl.Intern("?c_" + uuid.NewString())
		}
		conds := make([]*rete.Condition, len(chain))
		tests := make([][]rete.JoinTest, len(chain))
		for i, propName := range chain {
			pi := tbl.Intern(propName)
			conds[i] = v.cond(v.tPropertyAssertion).Const(v.aProperty, rete.Sym(pi)).
				Bind(v.aSubject, anchors[i]).Bind(v.aObject, anchors[i+1])
			if i > 0 {
				tests[i] = eq(anchors[i])
			}
		}
		vStart, vEnd := anchors[0], anchors[len(anchors)-1]
		name := "prp-spo2/" + uuid.NewString()
		net.AddRule(name, conds, tests, nil, func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tPropertyAssertion, map[symbol.ID]rete.Value{v.aProperty: p, v.aSubject: b[vStart], v.aObject: b[vEnd]})}
		})
	})

	// prp-key: hasKey asserts sameAs between two individuals of the keyed
	// class that agree on every key property's value — one condition per
	// key property, doubled (one per candidate individual) plus the two
	// ClassMember conditions, joined on matching values but requiring the
	// individuals differ.
	net.OnFactType(typeHasKey, func(f *rete.Fact) {
		c, ok := f.Get(v.aClass)
		if !ok {
			return
		}
		props := f.StringData[v.aKeyProps]
		if len(props) == 0 {
			return
		}
		vX, vY := tbl.Intern("?x_"+uuid.NewString()), tbl.Intern("?y_"+uuid.NewString())
		conds := []*rete.Condition{
			v.cond(v.tClassMember).Const(v.aClass, c).Bind(v.aIndividual, vX),
			v.cond(v.tClassMember).Const(v.aClass, c).Bind(v.aIndividual, vY),
		}
		tests := [][]rete.JoinTest{nil, nil}
		for _, propName := range props {
			pi := tbl.Intern(propName)
			vValX := tbl.Intern("?vx_" + uuid.NewString())
			vValY := tbl.Intern("?vy_" + uuid.NewString())
			conds = append(conds,
				v.cond(v.tPropertyAssertion).Const(v.aProperty, rete.Sym(pi)).Bind(v.aSubject, vX).Bind(v.aObject, vValX),
				v.cond(v.tPropertyAssertion).Const(v.aProperty, rete.Sym(pi)).Bind(v.aSubject, vY).Bind(v.aObject, vValY),
			)
			tests = append(tests,
				eq(vX),
				append(eq(vY), rete.JoinTest{Kind: rete.JoinEqual, Left: vValX, Right: vValY}),
			)
		}
		name := "prp-key/" + uuid.NewString()
		net.AddRule(name, conds, tests,
			[]rete.Filter{func(b rete.Bindings) bool { return !b[vX].Equal(b[vY]) }},
			func(b rete.Bindings) []*rete.Fact {
				return []*rete.Fact{v.fact(v.tSameAs, map[symbol.ID]rete.Value{v.aA: b[vX], v.aB: b[vY]})}
			})
	})

	// cls-maxc1: maxCardinality(1) restriction violated by two distinct
	// fillers becomes sameAs instead of an outright violation (OWL RL
	// treats 1 specially, folding the two individuals together); any
	// higher bound that's exceeded is reported as a violation.
	net.OnFactType(typeMaxCardinality, func(f *rete.Fact) {
		c, ok := f.Get(v.aClass)
		if !ok {
			return
		}
		p, ok := f.Get(v.aProperty)
		if !ok {
			return
		}
		n, ok := f.Get(v.aCardinality)
		if !ok {
			return
		}
		bound, _ := n.Int64()
		vX, vY, vY2 := tbl.Intern("?x_"+uuid.NewString()), tbl.Intern("?y_"+uuid.NewString()), tbl.Intern("?y2_"+uuid.NewString())
		conds := []*rete.Condition{
			v.cond(v.tClassMember).Const(v.aClass, c).Bind(v.aIndividual, vX),
			v.cond(v.tPropertyAssertion).Const(v.aProperty, p).Bind(v.aSubject, vX).Bind(v.aObject, vY),
			v.cond(v.tPropertyAssertion).Const(v.aProperty, p).Bind(v.aSubject, vX).Bind(v.aObject, vY2),
		}
		tests := [][]rete.JoinTest{nil, eq(vX), append(eq(vX), rete.JoinTest{Kind: rete.JoinNotEqual, Left: vY, Right: vY2})}
		name := "cls-maxc1/" + uuid.NewString()
		if bound <= 1 {
			net.AddRule(name, conds, tests, nil, func(b rete.Bindings) []*rete.Fact {
				return []*rete.Fact{v.fact(v.tSameAs, map[symbol.ID]rete.Value{v.aA: b[vY], v.aB: b[vY2]})}
			})
		} else {
			net.AddRule(name, conds, tests, nil, func(b rete.Bindings) []*rete.Fact {
				return []*rete.Fact{v.violation("cls-maxc1", "max-cardinality-exceeded", b[vX], p)}
			})
		}
	})

	// cls-maxqc1/2: qualified maxCardinality additionally requires both
	// fillers to be members of the restriction's filler class.
	net.OnFactType(typeMaxQualifiedCardinality, func(f *rete.Fact) {
		c, ok := f.Get(v.aClass)
		if !ok {
			return
		}
		p, ok := f.Get(v.aProperty)
		if !ok {
			return
		}
		fillerClass, ok := f.Get(v.aFiller)
		if !ok {
			return
		}
		n, ok := f.Get(v.aCardinality)
		if !ok {
			return
		}
		bound, _ := n.Int64()
		vX, vY, vY2 := tbl.Intern("?x_"+uuid.NewString()), tbl.Intern("?y_"+uuid.NewString()), tbl.Intern("?y2_"+uuid.NewString())
		conds := []*rete.Condition{
			v.cond(v.tClassMember).Const(v.aClass, c).Bind(v.aIndividual, vX),
			v.cond(v.tPropertyAssertion).Const(v.aProperty, p).Bind(v.aSubject, vX).Bind(v.aObject, vY),
			v.cond(v.tClassMember).Const(v.aClass, fillerClass).Bind(v.aIndividual, vY),
			v.cond(v.tPropertyAssertion).Const(v.aProperty, p).Bind(v.aSubject, vX).Bind(v.aObject, vY2),
			v.cond(v.tClassMember).Const(v.aClass, fillerClass).Bind(v.aIndividual, vY2),
		}
		tests := [][]rete.JoinTest{
			nil,
			eq(vX),
			eq(vY),
			append(eq(vX), rete.JoinTest{Kind: rete.JoinNotEqual, Left: vY, Right: vY2}),
			eq(vY2),
		}
		name := "cls-maxqc/" + uuid.NewString()
		if bound <= 1 {
			net.AddRule(name, conds, tests, nil, func(b rete.Bindings) []*rete.Fact {
				return []*rete.Fact{v.fact(v.tSameAs, map[symbol.ID]rete.Value{v.aA: b[vY], v.aB: b[vY2]})}
			})
		} else {
			net.AddRule(name, conds, tests, nil, func(b rete.Bindings) []*rete.Fact {
				return []*rete.Fact{v.violation("cls-maxqc", "max-qualified-cardinality-exceeded", b[vX], p)}
			})
		}
	})

	// eq-diff2/3, prp-adp: AllDifferent and AllDisjointProperties decompose
	// eagerly into pairwise DifferentFrom / DisjointProperty facts the
	// moment two members of the same declared group are both known; the
	// actual contradiction is then caught by the static eq-diff1 / prp-pdw
	// rules, so no join chain of varying arity is needed here at all.
	registerGroupPairwise(net, v, typeAllDifferentMember, "eq-diff2-3", func(a, b rete.Value) *rete.Fact {
		return v.fact(v.tDifferentFrom, map[symbol.ID]rete.Value{v.aA: a, v.aB: b})
	})
	registerGroupPairwise(net, v, typeAllDisjointProperties, "prp-adp", func(a, b rete.Value) *rete.Fact {
		return v.fact(v.tDisjointProperty, map[symbol.ID]rete.Value{v.aA: a, v.aB: b})
	})
}

// registerGroupPairwise installs the one static join (same group id, two
// distinct members) that decomposes an AllDisjoint-style group declaration
// into every pairwise fact the downstream static rules expect.
func registerGroupPairwise(net *rete.Network, v *vocab, memberType string, name string, build func(a, b rete.Value) *rete.Fact) {
	tbl := net.Symbols
	typ := tbl.Intern(memberType)
	vG, vA, vB := tbl.Intern("?g"), tbl.Intern("?ma"), tbl.Intern("?mb")
	cond := func() *rete.Condition { return rete.NewCondition(typ) }
	conds := []*rete.Condition{
		cond().Bind(v.aGroupID, vG).Bind(v.aMember, vA),
		cond().Bind(v.aGroupID, vG).Bind(v.aMember, vB),
	}
	tests := [][]rete.JoinTest{nil, append(eq(vG), rete.JoinTest{Kind: rete.JoinNotEqual, Left: vA, Right: vB})}
	net.AddRule(name, conds, tests, nil, func(b rete.Bindings) []*rete.Fact {
		return []*rete.Fact{build(b[vA], b[vB])}
	})
}
