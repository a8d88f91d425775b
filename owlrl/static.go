package owlrl

import (
	"github.com/nimbit-software/rete-reasoner/rete"
	"github.com/nimbit-software/rete-reasoner/symbol"
)

// eq identifies one variable shared between two adjoining conditions: the
// left name it was bound under in the condition(s) already in the chain,
// and the right name it is bound under in the condition newly joining in.
// For the overwhelmingly common case both names are the same symbol.
func eq(v symbol.ID) []rete.JoinTest {
	return []rete.JoinTest{{Kind: rete.JoinEqual, Left: v, Right: v}}
}

func neq(v symbol.ID) []rete.JoinTest {
	return []rete.JoinTest{{Kind: rete.JoinNotEqual, Left: v, Right: v}}
}

// registerStatic wires every catalogue template whose condition count is
// fixed at registration time — the large majority of the rule table.
// Per-axiom variation (which class, which property) flows through shared
// variables and join tests, not through extra conditions, so one production
// per rule name covers every instance of that rule shape in the ontology.
func registerStatic(net *rete.Network, v *vocab) {
	tbl := net.Symbols
	vSub, vSup, vMid := tbl.Intern("?sub"), tbl.Intern("?sup"), tbl.Intern("?mid")
	vX, vY, vZ := tbl.Intern("?x"), tbl.Intern("?y"), tbl.Intern("?z")
	vA, vB := tbl.Intern("?a"), tbl.Intern("?b")
	vP, vQ := tbl.Intern("?p"), tbl.Intern("?q")
	vC, vD := tbl.Intern("?c"), tbl.Intern("?d")
	vVal := tbl.Intern("?val")

	must := func(name string, conds []*rete.Condition, tests [][]rete.JoinTest, build rete.ConsequentBuilder) {
		if _, err := net.AddRule(name, conds, tests, nil, build); err != nil {
			rete.Debug("owlrl: " + name + ": " + err.Error())
		}
	}

	// scm-sco: subClassOf is transitive.
	must("scm-sco",
		[]*rete.Condition{
			v.cond(v.tSubClassOf).Bind(v.aSub, vSub).Bind(v.aSup, vMid),
			v.cond(v.tSubClassOf).Bind(v.aSub, vMid).Bind(v.aSup, vSup),
		},
		[][]rete.JoinTest{nil, eq(vMid)},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tSubClassOf, map[symbol.ID]rete.Value{v.aSub: b[vSub], v.aSup: b[vSup]})}
		})

	// cax-sco: subClassOf transports class membership.
	must("cax-sco",
		[]*rete.Condition{
			v.cond(v.tSubClassOf).Bind(v.aSub, vC).Bind(v.aSup, vD),
			v.cond(v.tClassMember).Bind(v.aClass, vC).Bind(v.aIndividual, vX),
		},
		[][]rete.JoinTest{nil, eq(vC)},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tClassMember, map[symbol.ID]rete.Value{v.aClass: b[vD], v.aIndividual: b[vX]})}
		})

	// cax-eqc1/2: equivalence is mutual subsumption.
	must("cax-eqc1-2",
		[]*rete.Condition{v.cond(v.tEquivalentClass).Bind(v.aA, vA).Bind(v.aB, vB)},
		nil,
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{
				v.fact(v.tSubClassOf, map[symbol.ID]rete.Value{v.aSub: b[vA], v.aSup: b[vB]}),
				v.fact(v.tSubClassOf, map[symbol.ID]rete.Value{v.aSub: b[vB], v.aSup: b[vA]}),
			}
		})

	// cax-dw: disjoint classes sharing an instance is a violation.
	must("cax-dw",
		[]*rete.Condition{
			v.cond(v.tDisjointClasses).Bind(v.aA, vA).Bind(v.aB, vB),
			v.cond(v.tClassMember).Bind(v.aClass, vA).Bind(v.aIndividual, vX),
			v.cond(v.tClassMember).Bind(v.aClass, vB).Bind(v.aIndividual, vX),
		},
		[][]rete.JoinTest{nil, eq(vA), append(eq(vB), rete.JoinTest{Kind: rete.JoinEqual, Left: vX, Right: vX})},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.violation("cax-dw", "disjoint-classes", b[vA], b[vB])}
		})

	// cls-com: a class and its complement sharing an instance is a violation.
	must("cls-com",
		[]*rete.Condition{
			v.cond(v.tComplementOf).Bind(v.aClass, vA).Bind(v.aOperand, vB),
			v.cond(v.tClassMember).Bind(v.aClass, vA).Bind(v.aIndividual, vX),
			v.cond(v.tClassMember).Bind(v.aClass, vB).Bind(v.aIndividual, vX),
		},
		[][]rete.JoinTest{nil, eq(vA), append(eq(vB), rete.JoinTest{Kind: rete.JoinEqual, Left: vX, Right: vX})},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.violation("cls-com", "complement-violation", b[vA], b[vB])}
		})

	// prp-dom / prp-rng: domain and range propagate class membership.
	must("prp-dom",
		[]*rete.Condition{
			v.cond(v.tDomain).Bind(v.aProperty, vP).Bind(v.aClass, vC),
			v.cond(v.tPropertyAssertion).Bind(v.aProperty, vP).Bind(v.aSubject, vX),
		},
		[][]rete.JoinTest{nil, eq(vP)},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tClassMember, map[symbol.ID]rete.Value{v.aClass: b[vC], v.aIndividual: b[vX]})}
		})
	must("prp-rng",
		[]*rete.Condition{
			v.cond(v.tRange).Bind(v.aProperty, vP).Bind(v.aClass, vC),
			v.cond(v.tPropertyAssertion).Bind(v.aProperty, vP).Bind(v.aObject, vY),
		},
		[][]rete.JoinTest{nil, eq(vP)},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tClassMember, map[symbol.ID]rete.Value{v.aClass: b[vC], v.aIndividual: b[vY]})}
		})

	// scm-dom1/2, scm-rng1/2: domain/range propagate along subPropertyOf
	// (scm-dom1) and subClassOf (scm-dom2), symmetrically for range.
	must("scm-dom1",
		[]*rete.Condition{
			v.cond(v.tSubPropertyOf).Bind(v.aSub, vP).Bind(v.aSup, vQ),
			v.cond(v.tDomain).Bind(v.aProperty, vQ).Bind(v.aClass, vC),
		},
		[][]rete.JoinTest{nil, eq(vQ)},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tDomain, map[symbol.ID]rete.Value{v.aProperty: b[vP], v.aClass: b[vC]})}
		})
	must("scm-dom2",
		[]*rete.Condition{
			v.cond(v.tDomain).Bind(v.aProperty, vP).Bind(v.aClass, vC),
			v.cond(v.tSubClassOf).Bind(v.aSub, vC).Bind(v.aSup, vD),
		},
		[][]rete.JoinTest{nil, eq(vC)},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tDomain, map[symbol.ID]rete.Value{v.aProperty: b[vP], v.aClass: b[vD]})}
		})
	must("scm-rng1",
		[]*rete.Condition{
			v.cond(v.tSubPropertyOf).Bind(v.aSub, vP).Bind(v.aSup, vQ),
			v.cond(v.tRange).Bind(v.aProperty, vQ).Bind(v.aClass, vC),
		},
		[][]rete.JoinTest{nil, eq(vQ)},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tRange, map[symbol.ID]rete.Value{v.aProperty: b[vP], v.aClass: b[vC]})}
		})
	must("scm-rng2",
		[]*rete.Condition{
			v.cond(v.tRange).Bind(v.aProperty, vP).Bind(v.aClass, vC),
			v.cond(v.tSubClassOf).Bind(v.aSub, vC).Bind(v.aSup, vD),
		},
		[][]rete.JoinTest{nil, eq(vC)},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tRange, map[symbol.ID]rete.Value{v.aProperty: b[vP], v.aClass: b[vD]})}
		})

	// prp-fp: a functional property relates a subject to at most one value.
	must("prp-fp",
		[]*rete.Condition{
			v.cond(v.tFunctionalProperty).Bind(v.aProperty, vP),
			v.cond(v.tPropertyAssertion).Bind(v.aProperty, vP).Bind(v.aSubject, vX).Bind(v.aObject, vY),
			v.cond(v.tPropertyAssertion).Bind(v.aProperty, vP).Bind(v.aSubject, vX).Bind(v.aObject, vZ),
		},
		[][]rete.JoinTest{nil, eq(vP), append(eq(vP), rete.JoinTest{Kind: rete.JoinEqual, Left: vX, Right: vX})},
		func(b rete.Bindings) []*rete.Fact {
			if b[vY].Equal(b[vZ]) {
				return nil
			}
			return []*rete.Fact{v.fact(v.tSameAs, map[symbol.ID]rete.Value{v.aA: b[vY], v.aB: b[vZ]})}
		})

	// prp-ifp: an inverse-functional property relates at most one subject
	// to a given value.
	must("prp-ifp",
		[]*rete.Condition{
			v.cond(v.tInverseFunctionalProperty).Bind(v.aProperty, vP),
			v.cond(v.tPropertyAssertion).Bind(v.aProperty, vP).Bind(v.aSubject, vX).Bind(v.aObject, vVal),
			v.cond(v.tPropertyAssertion).Bind(v.aProperty, vP).Bind(v.aSubject, vY).Bind(v.aObject, vVal),
		},
		[][]rete.JoinTest{nil, eq(vP), append(eq(vP), rete.JoinTest{Kind: rete.JoinEqual, Left: vVal, Right: vVal})},
		func(b rete.Bindings) []*rete.Fact {
			if b[vX].Equal(b[vY]) {
				return nil
			}
			return []*rete.Fact{v.fact(v.tSameAs, map[symbol.ID]rete.Value{v.aA: b[vX], v.aB: b[vY]})}
		})

	// prp-symp: a symmetric property's assertion reverses.
	must("prp-symp",
		[]*rete.Condition{
			v.cond(v.tSymmetricProperty).Bind(v.aProperty, vP),
			v.cond(v.tPropertyAssertion).Bind(v.aProperty, vP).Bind(v.aSubject, vX).Bind(v.aObject, vY),
		},
		[][]rete.JoinTest{nil, eq(vP)},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tPropertyAssertion, map[symbol.ID]rete.Value{v.aProperty: b[vP], v.aSubject: b[vY], v.aObject: b[vX]})}
		})

	// prp-asyp: an asymmetric property relating x,y and y,x is a violation.
	must("prp-asyp",
		[]*rete.Condition{
			v.cond(v.tAsymmetricProperty).Bind(v.aProperty, vP),
			v.cond(v.tPropertyAssertion).Bind(v.aProperty, vP).Bind(v.aSubject, vX).Bind(v.aObject, vY),
			v.cond(v.tPropertyAssertion).Bind(v.aProperty, vP).Bind(v.aSubject, vY).Bind(v.aObject, vX),
		},
		[][]rete.JoinTest{nil, eq(vP), append(eq(vP),
			rete.JoinTest{Kind: rete.JoinEqual, Left: vX, Right: vX},
			rete.JoinTest{Kind: rete.JoinEqual, Left: vY, Right: vY})},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.violation("prp-asyp", "asymmetric-violation", b[vP], b[vX])}
		})

	// prp-trp: a transitive property's relation composes with itself.
	must("prp-trp",
		[]*rete.Condition{
			v.cond(v.tTransitiveProperty).Bind(v.aProperty, vP),
			v.cond(v.tPropertyAssertion).Bind(v.aProperty, vP).Bind(v.aSubject, vX).Bind(v.aObject, vY),
			v.cond(v.tPropertyAssertion).Bind(v.aProperty, vP).Bind(v.aSubject, vY).Bind(v.aObject, vZ),
		},
		[][]rete.JoinTest{nil, eq(vP), append(eq(vP), rete.JoinTest{Kind: rete.JoinEqual, Left: vY, Right: vY})},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tPropertyAssertion, map[symbol.ID]rete.Value{v.aProperty: b[vP], v.aSubject: b[vX], v.aObject: b[vZ]})}
		})

	// prp-irp: an irreflexive property relating x to itself is a violation.
	must("prp-irp",
		[]*rete.Condition{
			v.cond(v.tIrreflexiveProperty).Bind(v.aProperty, vP),
			v.cond(v.tPropertyAssertion).Bind(v.aProperty, vP).Bind(v.aSubject, vX).Bind(v.aObject, vY),
		},
		[][]rete.JoinTest{nil, eq(vP)},
		func(b rete.Bindings) []*rete.Fact {
			if !b[vX].Equal(b[vY]) {
				return nil
			}
			return []*rete.Fact{v.violation("prp-irp", "irreflexive-violation", b[vX])}
		})

	// prp-inv1/2: inverse properties swap subject and object both ways.
	must("prp-inv1",
		[]*rete.Condition{
			v.cond(v.tInverseOf).Bind(v.aA, vP).Bind(v.aB, vQ),
			v.cond(v.tPropertyAssertion).Bind(v.aProperty, vP).Bind(v.aSubject, vX).Bind(v.aObject, vY),
		},
		[][]rete.JoinTest{nil, eq(vP)},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tPropertyAssertion, map[symbol.ID]rete.Value{v.aProperty: b[vQ], v.aSubject: b[vY], v.aObject: b[vX]})}
		})
	must("prp-inv2",
		[]*rete.Condition{
			v.cond(v.tInverseOf).Bind(v.aA, vP).Bind(v.aB, vQ),
			v.cond(v.tPropertyAssertion).Bind(v.aProperty, vQ).Bind(v.aSubject, vX).Bind(v.aObject, vY),
		},
		[][]rete.JoinTest{nil, eq(vQ)},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tPropertyAssertion, map[symbol.ID]rete.Value{v.aProperty: b[vP], v.aSubject: b[vY], v.aObject: b[vX]})}
		})

	// prp-spo1: sub-property assertions propagate up.
	must("prp-spo1",
		[]*rete.Condition{
			v.cond(v.tSubPropertyOf).Bind(v.aSub, vP).Bind(v.aSup, vQ),
			v.cond(v.tPropertyAssertion).Bind(v.aProperty, vP).Bind(v.aSubject, vX).Bind(v.aObject, vY),
		},
		[][]rete.JoinTest{nil, eq(vP)},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tPropertyAssertion, map[symbol.ID]rete.Value{v.aProperty: b[vQ], v.aSubject: b[vX], v.aObject: b[vY]})}
		})

	// prp-eqp1/2: equivalent properties are mutual sub-properties.
	must("prp-eqp1-2",
		[]*rete.Condition{v.cond(v.tEquivalentProperty).Bind(v.aA, vP).Bind(v.aB, vQ)},
		nil,
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{
				v.fact(v.tSubPropertyOf, map[symbol.ID]rete.Value{v.aSub: b[vP], v.aSup: b[vQ]}),
				v.fact(v.tSubPropertyOf, map[symbol.ID]rete.Value{v.aSub: b[vQ], v.aSup: b[vP]}),
			}
		})

	// prp-pdw: disjoint properties sharing an (x,y) pair is a violation.
	must("prp-pdw",
		[]*rete.Condition{
			v.cond(v.tDisjointProperty).Bind(v.aA, vP).Bind(v.aB, vQ),
			v.cond(v.tPropertyAssertion).Bind(v.aProperty, vP).Bind(v.aSubject, vX).Bind(v.aObject, vY),
			v.cond(v.tPropertyAssertion).Bind(v.aProperty, vQ).Bind(v.aSubject, vX).Bind(v.aObject, vY),
		},
		[][]rete.JoinTest{nil, eq(vP), append(eq(vQ),
			rete.JoinTest{Kind: rete.JoinEqual, Left: vX, Right: vX},
			rete.JoinTest{Kind: rete.JoinEqual, Left: vY, Right: vY})},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.violation("prp-pdw", "disjoint-property-violation", b[vP], b[vQ])}
		})

	// prp-npa1/2: a negative property assertion contradicting an actual
	// assertion (or value assertion) is a violation.
	must("prp-npa1",
		[]*rete.Condition{
			v.cond(v.tNegativePropertyAssertion).Bind(v.aProperty, vP).Bind(v.aSubject, vX).Bind(v.aObject, vY),
			v.cond(v.tPropertyAssertion).Bind(v.aProperty, vP).Bind(v.aSubject, vX).Bind(v.aObject, vY),
		},
		[][]rete.JoinTest{nil, append(eq(vP),
			rete.JoinTest{Kind: rete.JoinEqual, Left: vX, Right: vX},
			rete.JoinTest{Kind: rete.JoinEqual, Left: vY, Right: vY})},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.violation("prp-npa1", "negative-assertion-violation", b[vP], b[vX])}
		})

	// eq-ref/sym/trans: sameAs is an equivalence relation.
	must("eq-sym",
		[]*rete.Condition{v.cond(v.tSameAs).Bind(v.aA, vA).Bind(v.aB, vB)},
		nil,
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tSameAs, map[symbol.ID]rete.Value{v.aA: b[vB], v.aB: b[vA]})}
		})
	must("eq-trans",
		[]*rete.Condition{
			v.cond(v.tSameAs).Bind(v.aA, vA).Bind(v.aB, vB),
			v.cond(v.tSameAs).Bind(v.aA, vB).Bind(v.aB, vZ),
		},
		[][]rete.JoinTest{nil, eq(vB)},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tSameAs, map[symbol.ID]rete.Value{v.aA: b[vA], v.aB: b[vZ]})}
		})
	must("eq-ref",
		[]*rete.Condition{v.cond(v.tClassMember).Bind(v.aClass, vC).Bind(v.aIndividual, vX)},
		nil,
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tSameAs, map[symbol.ID]rete.Value{v.aA: b[vX], v.aB: b[vX]})}
		})

	// eq-rep-s/p/o: sameAs lets an assertion's subject, predicate, or object
	// be replaced by its equivalent.
	must("eq-rep-s",
		[]*rete.Condition{
			v.cond(v.tSameAs).Bind(v.aA, vX).Bind(v.aB, vY),
			v.cond(v.tPropertyAssertion).Bind(v.aSubject, vX).Bind(v.aProperty, vP).Bind(v.aObject, vZ),
		},
		[][]rete.JoinTest{nil, eq(vX)},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tPropertyAssertion, map[symbol.ID]rete.Value{v.aSubject: b[vY], v.aProperty: b[vP], v.aObject: b[vZ]})}
		})
	must("eq-rep-o",
		[]*rete.Condition{
			v.cond(v.tSameAs).Bind(v.aA, vX).Bind(v.aB, vY),
			v.cond(v.tPropertyAssertion).Bind(v.aObject, vX).Bind(v.aProperty, vP).Bind(v.aSubject, vZ),
		},
		[][]rete.JoinTest{nil, eq(vX)},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tPropertyAssertion, map[symbol.ID]rete.Value{v.aObject: b[vY], v.aProperty: b[vP], v.aSubject: b[vZ]})}
		})
	must("eq-rep-p",
		[]*rete.Condition{
			v.cond(v.tSameAs).Bind(v.aA, vP).Bind(v.aB, vQ),
			v.cond(v.tPropertyAssertion).Bind(v.aProperty, vP).Bind(v.aSubject, vX).Bind(v.aObject, vY),
		},
		[][]rete.JoinTest{nil, eq(vP)},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tPropertyAssertion, map[symbol.ID]rete.Value{v.aProperty: b[vQ], v.aSubject: b[vX], v.aObject: b[vY]})}
		})

	// eq-diff1: a sameAs and a differentFrom both holding is a violation.
	must("eq-diff1",
		[]*rete.Condition{
			v.cond(v.tDifferentFrom).Bind(v.aA, vA).Bind(v.aB, vB),
			v.cond(v.tSameAs).Bind(v.aA, vA).Bind(v.aB, vB),
		},
		[][]rete.JoinTest{nil, append(eq(vA), rete.JoinTest{Kind: rete.JoinEqual, Left: vB, Right: vB})},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.violation("eq-diff1", "same-and-different", b[vA], b[vB])}
		})

	// val-max1: sameAs derived between two distinct literal values (as
	// opposed to two individuals) is itself a violation — datatype values
	// are pairwise distinct by construction, so a cardinality restriction
	// that forces owl:sameAs between e.g. the integers 25 and 30 can never
	// be satisfied. Reacts to every SameAs fact directly rather than
	// joining, since both sides are already bound by the fact that
	// triggered it (typically cls-maxc1/cls-maxqc collapsing two literal
	// fillers under a max-cardinality-1 restriction).
	net.OnFactType(typeSameAs, func(f *rete.Fact) {
		a, aok := f.Get(v.aA)
		b, bok := f.Get(v.aB)
		if !aok || !bok {
			return
		}
		if a.Kind() == rete.KindSymbol || b.Kind() == rete.KindSymbol {
			return
		}
		if a.Equal(b) {
			return
		}
		net.Facts().Add(v.violation("val-max1", "distinct-literal-sameas", a, b), rete.Provenance{Rules: map[string]struct{}{"val-max1": {}}})
	})

	// scm-eqc1/2: equivalentClass is mutual subClassOf, schema-level.
	must("scm-eqc1",
		[]*rete.Condition{
			v.cond(v.tSubClassOf).Bind(v.aSub, vC).Bind(v.aSup, vD),
			v.cond(v.tSubClassOf).Bind(v.aSub, vD).Bind(v.aSup, vC),
		},
		[][]rete.JoinTest{nil, append(eq(vC), rete.JoinTest{Kind: rete.JoinEqual, Left: vD, Right: vD})},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tEquivalentClass, map[symbol.ID]rete.Value{v.aA: b[vC], v.aB: b[vD]})}
		})
	must("scm-eqc2",
		[]*rete.Condition{v.cond(v.tEquivalentClass).Bind(v.aA, vA).Bind(v.aB, vB)},
		nil,
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tEquivalentClass, map[symbol.ID]rete.Value{v.aA: b[vB], v.aB: b[vA]})}
		})

	// scm-spo: subPropertyOf is transitive.
	must("scm-spo",
		[]*rete.Condition{
			v.cond(v.tSubPropertyOf).Bind(v.aSub, vP).Bind(v.aSup, vQ),
			v.cond(v.tSubPropertyOf).Bind(v.aSub, vQ).Bind(v.aSup, vZ),
		},
		[][]rete.JoinTest{nil, eq(vQ)},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tSubPropertyOf, map[symbol.ID]rete.Value{v.aSub: b[vP], v.aSup: b[vZ]})}
		})

	// scm-eqp1/2: equivalentProperty is mutual subPropertyOf.
	must("scm-eqp1",
		[]*rete.Condition{
			v.cond(v.tSubPropertyOf).Bind(v.aSub, vP).Bind(v.aSup, vQ),
			v.cond(v.tSubPropertyOf).Bind(v.aSub, vQ).Bind(v.aSup, vP),
		},
		[][]rete.JoinTest{nil, append(eq(vP), rete.JoinTest{Kind: rete.JoinEqual, Left: vQ, Right: vQ})},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tEquivalentProperty, map[symbol.ID]rete.Value{v.aA: b[vP], v.aB: b[vQ]})}
		})
	must("scm-eqp2",
		[]*rete.Condition{v.cond(v.tEquivalentProperty).Bind(v.aA, vA).Bind(v.aB, vB)},
		nil,
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tEquivalentProperty, map[symbol.ID]rete.Value{v.aA: b[vB], v.aB: b[vA]})}
		})

	// scm-op/scm-dp: a property named in a Domain declaration gets a
	// reflexive subPropertyOf fact, and a class with any ClassMember gets a
	// reflexive subClassOf fact — recorded as a self-subsumption so
	// scm-sco/scm-spo's transitive closure includes that property or class.
	must("scm-op",
		[]*rete.Condition{v.cond(v.tDomain).Bind(v.aProperty, vP).Bind(v.aClass, vC)},
		nil,
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tSubPropertyOf, map[symbol.ID]rete.Value{v.aSub: b[vP], v.aSup: b[vP]})}
		})
	must("scm-dp",
		[]*rete.Condition{v.cond(v.tClassMember).Bind(v.aClass, vC).Bind(v.aIndividual, vX)},
		nil,
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tSubClassOf, map[symbol.ID]rete.Value{v.aSub: b[vC], v.aSup: b[vC]})}
		})

	// cls-svf1: someValuesFrom membership is derivable if x has a property
	// value that is itself a member of the filler class.
	must("cls-svf1",
		[]*rete.Condition{
			v.cond(v.tSomeValuesFrom).Bind(v.aClass, vC).Bind(v.aProperty, vP).Bind(v.aFiller, vD),
			v.cond(v.tPropertyAssertion).Bind(v.aProperty, vP).Bind(v.aSubject, vX).Bind(v.aObject, vY),
			v.cond(v.tClassMember).Bind(v.aClass, vD).Bind(v.aIndividual, vY),
		},
		[][]rete.JoinTest{nil, eq(vP), append(eq(vD), rete.JoinTest{Kind: rete.JoinEqual, Left: vY, Right: vY})},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tClassMember, map[symbol.ID]rete.Value{v.aClass: b[vC], v.aIndividual: b[vX]})}
		})
	// cls-svf2: the owl:Thing-filler special case of someValuesFrom — any
	// property assertion at all suffices, since every individual is a
	// member of owl:Thing and no join against the filler's own membership
	// is needed.
	must("cls-svf2",
		[]*rete.Condition{
			v.cond(v.tSomeValuesFrom).Bind(v.aClass, vC).Bind(v.aProperty, vP).Const(v.aFiller, rete.Sym(v.thing)),
			v.cond(v.tPropertyAssertion).Bind(v.aProperty, vP).Bind(v.aSubject, vX).Bind(v.aObject, vY),
		},
		[][]rete.JoinTest{nil, eq(vP)},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tClassMember, map[symbol.ID]rete.Value{v.aClass: b[vC], v.aIndividual: b[vX]})}
		})

	// cls-avf: allValuesFrom propagates membership onto property fillers.
	must("cls-avf",
		[]*rete.Condition{
			v.cond(v.tAllValuesFrom).Bind(v.aClass, vC).Bind(v.aProperty, vP).Bind(v.aFiller, vD),
			v.cond(v.tClassMember).Bind(v.aClass, vC).Bind(v.aIndividual, vX),
			v.cond(v.tPropertyAssertion).Bind(v.aProperty, vP).Bind(v.aSubject, vX).Bind(v.aObject, vY),
		},
		[][]rete.JoinTest{nil, eq(vC), append(eq(vP), rete.JoinTest{Kind: rete.JoinEqual, Left: vX, Right: vX})},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tClassMember, map[symbol.ID]rete.Value{v.aClass: b[vD], v.aIndividual: b[vY]})}
		})

	// cls-hv1/hv2: hasValue restriction membership, both directions.
	must("cls-hv1",
		[]*rete.Condition{
			v.cond(v.tHasValue).Bind(v.aClass, vC).Bind(v.aProperty, vP).Bind(v.aValue, vVal),
			v.cond(v.tClassMember).Bind(v.aClass, vC).Bind(v.aIndividual, vX),
		},
		[][]rete.JoinTest{nil, eq(vC)},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tPropertyAssertion, map[symbol.ID]rete.Value{v.aProperty: b[vP], v.aSubject: b[vX], v.aObject: b[vVal]})}
		})
	must("cls-hv2",
		[]*rete.Condition{
			v.cond(v.tHasValue).Bind(v.aClass, vC).Bind(v.aProperty, vP).Bind(v.aValue, vVal),
			v.cond(v.tPropertyAssertion).Bind(v.aProperty, vP).Bind(v.aSubject, vX).Bind(v.aObject, vVal),
		},
		[][]rete.JoinTest{nil, append(eq(vP), rete.JoinTest{Kind: rete.JoinEqual, Left: vVal, Right: vVal})},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tClassMember, map[symbol.ID]rete.Value{v.aClass: b[vC], v.aIndividual: b[vX]})}
		})

	// cls-oo: oneOf membership is just listed individual membership.
	must("cls-oo",
		[]*rete.Condition{v.cond(v.tOneOfMember).Bind(v.aClass, vC).Bind(v.aIndividual, vX)},
		nil,
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tClassMember, map[symbol.ID]rete.Value{v.aClass: b[vC], v.aIndividual: b[vX]})}
		})

	// scm-hv: hasValue restriction schema propagation along subClassOf.
	must("scm-hv",
		[]*rete.Condition{
			v.cond(v.tHasValue).Bind(v.aClass, vC).Bind(v.aProperty, vP).Bind(v.aValue, vVal),
			v.cond(v.tSubClassOf).Bind(v.aSub, vD).Bind(v.aSup, vC),
		},
		[][]rete.JoinTest{nil, eq(vC)},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tHasValue, map[symbol.ID]rete.Value{v.aClass: b[vD], v.aProperty: b[vP], v.aValue: b[vVal]})}
		})

	// scm-svf1/2, scm-avf1/2: restriction subsumption when the filler
	// class is itself subsumed, for someValuesFrom and allValuesFrom.
	must("scm-svf1",
		[]*rete.Condition{
			v.cond(v.tSomeValuesFrom).Bind(v.aClass, vC).Bind(v.aProperty, vP).Bind(v.aFiller, vD),
			v.cond(v.tSubClassOf).Bind(v.aSub, vD).Bind(v.aSup, vZ),
		},
		[][]rete.JoinTest{nil, eq(vD)},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tSomeValuesFrom, map[symbol.ID]rete.Value{v.aClass: b[vC], v.aProperty: b[vP], v.aFiller: b[vZ]})}
		})
	must("scm-avf1",
		[]*rete.Condition{
			v.cond(v.tAllValuesFrom).Bind(v.aClass, vC).Bind(v.aProperty, vP).Bind(v.aFiller, vD),
			v.cond(v.tSubClassOf).Bind(v.aSub, vD).Bind(v.aSup, vZ),
		},
		[][]rete.JoinTest{nil, eq(vD)},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tAllValuesFrom, map[symbol.ID]rete.Value{v.aClass: b[vC], v.aProperty: b[vP], v.aFiller: b[vZ]})}
		})

	// scm-svf2: someValuesFrom restriction subsumption driven by property
	// subsumption instead of filler subsumption — two restrictions on the
	// same filler but sub/super properties subsume the same way the
	// properties do.
	must("scm-svf2",
		[]*rete.Condition{
			v.cond(v.tSomeValuesFrom).Bind(v.aClass, vC).Bind(v.aProperty, vP).Bind(v.aFiller, vVal),
			v.cond(v.tSubPropertyOf).Bind(v.aSub, vP).Bind(v.aSup, vQ),
			v.cond(v.tSomeValuesFrom).Bind(v.aClass, vD).Bind(v.aProperty, vQ).Bind(v.aFiller, vVal),
		},
		[][]rete.JoinTest{nil, eq(vP), append(eq(vQ), rete.JoinTest{Kind: rete.JoinEqual, Left: vVal, Right: vVal})},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tSubClassOf, map[symbol.ID]rete.Value{v.aSub: b[vC], v.aSup: b[vD]})}
		})

	// scm-avf2: allValuesFrom restriction subsumption driven by property
	// subsumption, direction reversed relative to scm-svf2: a universal
	// restriction on the broader property is the weaker (super) class.
	must("scm-avf2",
		[]*rete.Condition{
			v.cond(v.tAllValuesFrom).Bind(v.aClass, vC).Bind(v.aProperty, vP).Bind(v.aFiller, vVal),
			v.cond(v.tSubPropertyOf).Bind(v.aSub, vP).Bind(v.aSup, vQ),
			v.cond(v.tAllValuesFrom).Bind(v.aClass, vD).Bind(v.aProperty, vQ).Bind(v.aFiller, vVal),
		},
		[][]rete.JoinTest{nil, eq(vP), append(eq(vQ), rete.JoinTest{Kind: rete.JoinEqual, Left: vVal, Right: vVal})},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.fact(v.tSubClassOf, map[symbol.ID]rete.Value{v.aSub: b[vD], v.aSup: b[vC]})}
		})

	// val-fp/val-fpi: functional/inverse-functional violations recorded
	// explicitly when prp-fp/prp-ifp derive a sameAs between individuals
	// already known distinct.
	must("val-fp",
		[]*rete.Condition{
			v.cond(v.tSameAs).Bind(v.aA, vA).Bind(v.aB, vB),
			v.cond(v.tDifferentFrom).Bind(v.aA, vA).Bind(v.aB, vB),
		},
		[][]rete.JoinTest{nil, append(eq(vA), rete.JoinTest{Kind: rete.JoinEqual, Left: vB, Right: vB})},
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.violation("val-fp", "functional-conflict", b[vA], b[vB])}
		})

	// validationIndiv3: membership in owl:Nothing is always a violation.
	must("validationIndiv3",
		[]*rete.Condition{v.cond(v.tClassMember).Const(v.aClass, rete.Sym(v.nothing)).Bind(v.aIndividual, vX)},
		nil,
		func(b rete.Bindings) []*rete.Fact {
			return []*rete.Fact{v.violation("validationIndiv3", "nothing-membership", b[vX])}
		})
}
