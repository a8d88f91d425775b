package owlrl

import (
	"testing"

	"github.com/nimbit-software/rete-reasoner/rete"
	"github.com/nimbit-software/rete-reasoner/symbol"
)

func newTestNetwork(t *testing.T) (*rete.Network, *vocab) {
	t.Helper()
	tbl := symbol.New()
	net := rete.NewNetwork(tbl, nil)
	v := Register(net)
	return net, v
}

func hasSubClassOf(net *rete.Network, v *vocab, sub, sup symbol.ID) bool {
	for _, f := range net.Facts().All() {
		tv, ok := f.Get(v.typeKey)
		if !ok {
			continue
		}
		sym, _ := tv.SymbolID()
		if sym != v.tSubClassOf {
			continue
		}
		s, _ := f.Get(v.aSub)
		p, _ := f.Get(v.aSup)
		ss, _ := s.SymbolID()
		ps, _ := p.SymbolID()
		if ss == sub && ps == sup {
			return true
		}
	}
	return false
}

func hasViolation(net *rete.Network, v *vocab, rule string) bool {
	for _, f := range net.Facts().All() {
		tv, ok := f.Get(v.typeKey)
		if !ok {
			continue
		}
		sym, _ := tv.SymbolID()
		if sym != v.tViolation {
			continue
		}
		r, _ := f.Get(v.aRule)
		if s, ok := r.String(); ok && s == rule {
			return true
		}
	}
	return false
}

// TestSubClassTransitivity exercises scm-sco: A sub B, B sub C => A sub C.
func TestSubClassTransitivity(t *testing.T) {
	net, v := newTestNetwork(t)
	tbl := net.Symbols
	a, b, c := tbl.Intern("A"), tbl.Intern("B"), tbl.Intern("C")

	net.Facts().Add(v.fact(v.tSubClassOf, map[symbol.ID]rete.Value{v.aSub: rete.Sym(a), v.aSup: rete.Sym(b)}), rete.Provenance{Asserted: true})
	net.Facts().Add(v.fact(v.tSubClassOf, map[symbol.ID]rete.Value{v.aSub: rete.Sym(b), v.aSup: rete.Sym(c)}), rete.Provenance{Asserted: true})

	if !hasSubClassOf(net, v, a, c) {
		t.Fatalf("expected A subClassOf C to be derived transitively")
	}
}

// TestDisjointClassesViolation exercises cax-dw: an individual in two
// disjoint classes produces a violation fact, not a panic or silent drop.
func TestDisjointClassesViolation(t *testing.T) {
	net, v := newTestNetwork(t)
	tbl := net.Symbols
	x, c1, c2 := tbl.Intern("x"), tbl.Intern("C1"), tbl.Intern("C2")

	net.Facts().Add(v.fact(v.tDisjointClasses, map[symbol.ID]rete.Value{v.aA: rete.Sym(c1), v.aB: rete.Sym(c2)}), rete.Provenance{Asserted: true})
	net.Facts().Add(v.fact(v.tClassMember, map[symbol.ID]rete.Value{v.aIndividual: rete.Sym(x), v.aClass: rete.Sym(c1)}), rete.Provenance{Asserted: true})
	net.Facts().Add(v.fact(v.tClassMember, map[symbol.ID]rete.Value{v.aIndividual: rete.Sym(x), v.aClass: rete.Sym(c2)}), rete.Provenance{Asserted: true})

	if !hasViolation(net, v, "cax-dw") {
		t.Fatalf("expected a cax-dw violation fact for membership in disjoint classes")
	}
}

// TestTransitivePropertyPropagates exercises prp-trp.
func TestTransitivePropertyPropagates(t *testing.T) {
	net, v := newTestNetwork(t)
	tbl := net.Symbols
	p := tbl.Intern("ancestorOf")
	a, b, c := tbl.Intern("a"), tbl.Intern("b"), tbl.Intern("c")

	net.Facts().Add(v.fact(v.tTransitiveProperty, map[symbol.ID]rete.Value{v.aProperty: rete.Sym(p)}), rete.Provenance{Asserted: true})
	net.Facts().Add(v.fact(v.tPropertyAssertion, map[symbol.ID]rete.Value{v.aSubject: rete.Sym(a), v.aProperty: rete.Sym(p), v.aObject: rete.Sym(b)}), rete.Provenance{Asserted: true})
	net.Facts().Add(v.fact(v.tPropertyAssertion, map[symbol.ID]rete.Value{v.aSubject: rete.Sym(b), v.aProperty: rete.Sym(p), v.aObject: rete.Sym(c)}), rete.Provenance{Asserted: true})

	found := false
	for _, f := range net.Facts().All() {
		tv, ok := f.Get(v.typeKey)
		if !ok {
			continue
		}
		sym, _ := tv.SymbolID()
		if sym != v.tPropertyAssertion {
			continue
		}
		s, _ := f.Get(v.aSubject)
		o, _ := f.Get(v.aObject)
		ss, _ := s.SymbolID()
		os, _ := o.SymbolID()
		if ss == a && os == c {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a->c to be derived via transitivity of ancestorOf")
	}
}

// TestUnionDecomposition exercises cls-uni: membership in any operand class
// implies membership in the union class, with no join required.
func TestUnionDecomposition(t *testing.T) {
	net, v := newTestNetwork(t)
	tbl := net.Symbols
	u, op1, op2, x := tbl.Intern("U"), tbl.Intern("Op1"), tbl.Intern("Op2"), tbl.Intern("x")

	uf := v.fact(v.tUnionOf, map[symbol.ID]rete.Value{v.aClass: rete.Sym(u)})
	uf.WithStringList(v.aOperands, []string{"Op1", "Op2"})
	net.Facts().Add(uf, rete.Provenance{Asserted: true})

	net.Facts().Add(v.fact(v.tClassMember, map[symbol.ID]rete.Value{v.aIndividual: rete.Sym(x), v.aClass: rete.Sym(op1)}), rete.Provenance{Asserted: true})

	found := false
	for _, f := range net.Facts().All() {
		tv, ok := f.Get(v.typeKey)
		if !ok {
			continue
		}
		sym, _ := tv.SymbolID()
		if sym != v.tClassMember {
			continue
		}
		ind, _ := f.Get(v.aIndividual)
		cls, _ := f.Get(v.aClass)
		is, _ := ind.SymbolID()
		cs, _ := cls.SymbolID()
		if is == x && cs == u {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected x to be derived a member of union class U")
	}
	_ = op2
}

// TestAllDifferentPairwiseViolation exercises eq-diff2/eq-diff1: an
// AllDifferent group whose members are asserted sameAs should surface a
// val-fp-style contradiction via the pairwise DifferentFrom facts.
func TestAllDifferentPairwiseViolation(t *testing.T) {
	net, v := newTestNetwork(t)
	tbl := net.Symbols
	x, y := tbl.Intern("x"), tbl.Intern("y")
	group := tbl.Intern("g1")

	net.Facts().Add(v.fact(v.tAllDifferentMember, map[symbol.ID]rete.Value{v.aGroupID: rete.Sym(group), v.aMember: rete.Sym(x)}), rete.Provenance{Asserted: true})
	net.Facts().Add(v.fact(v.tAllDifferentMember, map[symbol.ID]rete.Value{v.aGroupID: rete.Sym(group), v.aMember: rete.Sym(y)}), rete.Provenance{Asserted: true})

	foundDiff := false
	for _, f := range net.Facts().All() {
		tv, ok := f.Get(v.typeKey)
		if !ok {
			continue
		}
		sym, _ := tv.SymbolID()
		if sym == v.tDifferentFrom {
			foundDiff = true
		}
	}
	if !foundDiff {
		t.Fatalf("expected a pairwise DifferentFrom fact from the AllDifferent group")
	}

	net.Facts().Add(v.fact(v.tSameAs, map[symbol.ID]rete.Value{v.aA: rete.Sym(x), v.aB: rete.Sym(y)}), rete.Provenance{Asserted: true})
	if !hasViolation(net, v, "eq-diff1") {
		t.Fatalf("expected eq-diff1 to flag x sameAs y contradicting their AllDifferent membership")
	}
}

// hasPropertyAssertion reports whether a PropertyAssertion(p, subj, obj)
// fact is live in the store.
func hasPropertyAssertion(net *rete.Network, v *vocab, subj, p, obj symbol.ID) bool {
	for _, f := range net.Facts().All() {
		tv, ok := f.Get(v.typeKey)
		if !ok {
			continue
		}
		sym, _ := tv.SymbolID()
		if sym != v.tPropertyAssertion {
			continue
		}
		s, _ := f.Get(v.aSubject)
		pr, _ := f.Get(v.aProperty)
		o, _ := f.Get(v.aObject)
		ss, _ := s.SymbolID()
		ps, _ := pr.SymbolID()
		os, _ := o.SymbolID()
		if ss == subj && ps == p && os == obj {
			return true
		}
	}
	return false
}

// TestSymmetricByInverseEquivalence exercises prp-inv1/prp-inv2: a property
// declared its own inverse (knows ≡ knows⁻) reverses its own assertions.
func TestSymmetricByInverseEquivalence(t *testing.T) {
	net, v := newTestNetwork(t)
	tbl := net.Symbols
	knows := tbl.Intern("knows")
	john, mary := tbl.Intern("John"), tbl.Intern("Mary")

	net.Facts().Add(v.fact(v.tInverseOf, map[symbol.ID]rete.Value{v.aA: rete.Sym(knows), v.aB: rete.Sym(knows)}), rete.Provenance{Asserted: true})
	net.Facts().Add(v.fact(v.tPropertyAssertion, map[symbol.ID]rete.Value{v.aSubject: rete.Sym(john), v.aProperty: rete.Sym(knows), v.aObject: rete.Sym(mary)}), rete.Provenance{Asserted: true})

	if !hasPropertyAssertion(net, v, mary, knows, john) {
		t.Fatalf("expected knows(Mary, John) to be derived from knows being its own inverse")
	}
}

// TestPropertyChainDerivesHasUncle exercises prp-spo2: a two-link property
// chain composes hasParent then hasBrother into hasUncle.
func TestPropertyChainDerivesHasUncle(t *testing.T) {
	net, v := newTestNetwork(t)
	tbl := net.Symbols
	hasParent, hasBrother, hasUncle := tbl.Intern("hasParent"), tbl.Intern("hasBrother"), tbl.Intern("hasUncle")
	bob, john, mike := tbl.Intern("Bob"), tbl.Intern("John"), tbl.Intern("Mike")

	chainFact := v.fact(v.tPropertyChain, map[symbol.ID]rete.Value{v.aProperty: rete.Sym(hasUncle)})
	chainFact.WithStringList(v.aChain, []string{"hasParent", "hasBrother"})
	net.Facts().Add(chainFact, rete.Provenance{Asserted: true})

	net.Facts().Add(v.fact(v.tPropertyAssertion, map[symbol.ID]rete.Value{v.aSubject: rete.Sym(bob), v.aProperty: rete.Sym(hasParent), v.aObject: rete.Sym(john)}), rete.Provenance{Asserted: true})
	net.Facts().Add(v.fact(v.tPropertyAssertion, map[symbol.ID]rete.Value{v.aSubject: rete.Sym(john), v.aProperty: rete.Sym(hasBrother), v.aObject: rete.Sym(mike)}), rete.Provenance{Asserted: true})

	if !hasPropertyAssertion(net, v, bob, hasUncle, mike) {
		t.Fatalf("expected hasUncle(Bob, Mike) to be derived via the hasParent/hasBrother chain")
	}
}

// TestHasKeyUniqueness exercises prp-key: two individuals of the same
// keyed class agreeing on every key property's value are forced sameAs.
func TestHasKeyUniqueness(t *testing.T) {
	net, v := newTestNetwork(t)
	tbl := net.Symbols
	person := tbl.Intern("Person")
	ssn := tbl.Intern("ssn")
	alice, bob := tbl.Intern("Alice"), tbl.Intern("Bob")

	keyFact := v.fact(v.tHasKey, map[symbol.ID]rete.Value{v.aClass: rete.Sym(person)})
	keyFact.WithStringList(v.aKeyProps, []string{"ssn"})
	net.Facts().Add(keyFact, rete.Provenance{Asserted: true})

	net.Facts().Add(v.fact(v.tClassMember, map[symbol.ID]rete.Value{v.aIndividual: rete.Sym(alice), v.aClass: rete.Sym(person)}), rete.Provenance{Asserted: true})
	net.Facts().Add(v.fact(v.tClassMember, map[symbol.ID]rete.Value{v.aIndividual: rete.Sym(bob), v.aClass: rete.Sym(person)}), rete.Provenance{Asserted: true})
	net.Facts().Add(v.fact(v.tPropertyAssertion, map[symbol.ID]rete.Value{v.aSubject: rete.Sym(alice), v.aProperty: rete.Sym(ssn), v.aObject: rete.Str("X")}), rete.Provenance{Asserted: true})
	net.Facts().Add(v.fact(v.tPropertyAssertion, map[symbol.ID]rete.Value{v.aSubject: rete.Sym(bob), v.aProperty: rete.Sym(ssn), v.aObject: rete.Str("X")}), rete.Provenance{Asserted: true})

	found := false
	for _, f := range net.Facts().All() {
		tv, ok := f.Get(v.typeKey)
		if !ok {
			continue
		}
		sym, _ := tv.SymbolID()
		if sym != v.tSameAs {
			continue
		}
		a, _ := f.Get(v.aA)
		b, _ := f.Get(v.aB)
		as, _ := a.SymbolID()
		bs, _ := b.SymbolID()
		if (as == alice && bs == bob) || (as == bob && bs == alice) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected sameAs(Alice, Bob) to be derived from matching ssn under hasKey")
	}
}

// TestIntersectionMembershipImpliesOperands exercises cls-int2, the
// converse of cls-uni/cls-int1: membership in the intersection class
// implies membership in every operand.
func TestIntersectionMembershipImpliesOperands(t *testing.T) {
	net, v := newTestNetwork(t)
	tbl := net.Symbols
	i, op1, op2, x := tbl.Intern("I"), tbl.Intern("Op1"), tbl.Intern("Op2"), tbl.Intern("x")

	intf := v.fact(v.tIntersectionOf, map[symbol.ID]rete.Value{v.aClass: rete.Sym(i)})
	intf.WithStringList(v.aOperands, []string{"Op1", "Op2"})
	net.Facts().Add(intf, rete.Provenance{Asserted: true})

	net.Facts().Add(v.fact(v.tClassMember, map[symbol.ID]rete.Value{v.aIndividual: rete.Sym(x), v.aClass: rete.Sym(i)}), rete.Provenance{Asserted: true})

	hasMember := func(cls symbol.ID) bool {
		for _, f := range net.Facts().All() {
			tv, ok := f.Get(v.typeKey)
			if !ok {
				continue
			}
			sym, _ := tv.SymbolID()
			if sym != v.tClassMember {
				continue
			}
			ind, _ := f.Get(v.aIndividual)
			c, _ := f.Get(v.aClass)
			is, _ := ind.SymbolID()
			cs, _ := c.SymbolID()
			if is == x && cs == cls {
				return true
			}
		}
		return false
	}
	if !hasMember(op1) {
		t.Fatalf("expected x to be derived a member of operand Op1")
	}
	if !hasMember(op2) {
		t.Fatalf("expected x to be derived a member of operand Op2")
	}
}

// TestRestrictionSubsumptionByProperty exercises scm-svf2/scm-avf2:
// restriction subsumption driven by property subsumption rather than
// filler subsumption, with scm-avf2's direction reversed relative to
// scm-svf2.
func TestRestrictionSubsumptionByProperty(t *testing.T) {
	net, v := newTestNetwork(t)
	tbl := net.Symbols
	p, q, filler := tbl.Intern("hasChild"), tbl.Intern("hasDescendant"), tbl.Intern("Person")
	svfC, svfD := tbl.Intern("SomeChild"), tbl.Intern("SomeDescendant")
	avfC, avfD := tbl.Intern("AllChild"), tbl.Intern("AllDescendant")

	net.Facts().Add(v.fact(v.tSubPropertyOf, map[symbol.ID]rete.Value{v.aSub: rete.Sym(p), v.aSup: rete.Sym(q)}), rete.Provenance{Asserted: true})

	net.Facts().Add(v.fact(v.tSomeValuesFrom, map[symbol.ID]rete.Value{v.aClass: rete.Sym(svfC), v.aProperty: rete.Sym(p), v.aFiller: rete.Sym(filler)}), rete.Provenance{Asserted: true})
	net.Facts().Add(v.fact(v.tSomeValuesFrom, map[symbol.ID]rete.Value{v.aClass: rete.Sym(svfD), v.aProperty: rete.Sym(q), v.aFiller: rete.Sym(filler)}), rete.Provenance{Asserted: true})

	if !hasSubClassOf(net, v, svfC, svfD) {
		t.Fatalf("expected someValuesFrom(hasChild) to be a subclass of someValuesFrom(hasDescendant)")
	}

	net.Facts().Add(v.fact(v.tAllValuesFrom, map[symbol.ID]rete.Value{v.aClass: rete.Sym(avfC), v.aProperty: rete.Sym(p), v.aFiller: rete.Sym(filler)}), rete.Provenance{Asserted: true})
	net.Facts().Add(v.fact(v.tAllValuesFrom, map[symbol.ID]rete.Value{v.aClass: rete.Sym(avfD), v.aProperty: rete.Sym(q), v.aFiller: rete.Sym(filler)}), rete.Provenance{Asserted: true})

	if !hasSubClassOf(net, v, avfD, avfC) {
		t.Fatalf("expected allValuesFrom(hasDescendant) to be a subclass of allValuesFrom(hasChild), reversed from scm-svf2")
	}
}

// TestDistinctLiteralSameAsIsInconsistent exercises val-max1: a sameAs
// derived between two distinct literal values, as opposed to two
// individuals, is itself a violation.
func TestDistinctLiteralSameAsIsInconsistent(t *testing.T) {
	net, v := newTestNetwork(t)

	net.Facts().Add(v.fact(v.tSameAs, map[symbol.ID]rete.Value{v.aA: rete.Int(25), v.aB: rete.Int(30)}), rete.Provenance{Asserted: true})

	if !hasViolation(net, v, "val-max1") {
		t.Fatalf("expected val-max1 to flag sameAs between two distinct literal values")
	}
}

// TestSameLiteralSameAsIsNotAViolation checks val-max1 doesn't fire when
// the two literal sides already agree.
func TestSameLiteralSameAsIsNotAViolation(t *testing.T) {
	net, v := newTestNetwork(t)

	net.Facts().Add(v.fact(v.tSameAs, map[symbol.ID]rete.Value{v.aA: rete.Int(25), v.aB: rete.Int(25)}), rete.Provenance{Asserted: true})

	if hasViolation(net, v, "val-max1") {
		t.Fatalf("expected no val-max1 violation when literal values already agree")
	}
}
