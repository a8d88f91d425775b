package owlrl

import (
	"github.com/nimbit-software/rete-reasoner/rete"
	"github.com/nimbit-software/rete-reasoner/symbol"
)

// assertFoundational installs the two facts that are unconditionally
// present regardless of what ontology is loaded: owl:Thing and
// owl:Nothing are declared concepts, every concept is subsumed by Thing,
// Nothing is subsumed by every concept, and both are reflexively
// self-subsumed and self-equivalent (scm-cls, the "reflexivity + Thing/
// Nothing bounds" schema rule).
func assertFoundational(net *rete.Network, v *vocab) {
	add := func(f *rete.Fact) { net.Facts().Add(f, rete.Provenance{Asserted: true}) }

	add(v.fact(v.tClass, map[symbol.ID]rete.Value{v.aClass: rete.Sym(v.thing)}))
	add(v.fact(v.tClass, map[symbol.ID]rete.Value{v.aClass: rete.Sym(v.nothing)}))
	add(v.fact(v.tSubClassOf, map[symbol.ID]rete.Value{v.aSub: rete.Sym(v.thing), v.aSup: rete.Sym(v.thing)}))
	add(v.fact(v.tSubClassOf, map[symbol.ID]rete.Value{v.aSub: rete.Sym(v.nothing), v.aSup: rete.Sym(v.nothing)}))
	add(v.fact(v.tEquivalentClass, map[symbol.ID]rete.Value{v.aA: rete.Sym(v.thing), v.aB: rete.Sym(v.thing)}))
	add(v.fact(v.tEquivalentClass, map[symbol.ID]rete.Value{v.aA: rete.Sym(v.nothing), v.aB: rete.Sym(v.nothing)}))

	// scm-cls: every declared concept is bounded by Thing/Nothing. Reacts to
	// each newly declared Class fact rather than requiring a join, since
	// Thing/Nothing are fixed constants known at registration time.
	net.OnFactType(typeClass, func(f *rete.Fact) {
		c, ok := f.Get(v.aClass)
		if !ok {
			return
		}
		csym, ok := c.SymbolID()
		if !ok || csym == v.thing || csym == v.nothing {
			return
		}
		add(v.fact(v.tSubClassOf, map[symbol.ID]rete.Value{v.aSub: c, v.aSup: rete.Sym(v.thing)}))
		add(v.fact(v.tSubClassOf, map[symbol.ID]rete.Value{v.aSub: rete.Sym(v.nothing), v.aSup: c}))
	})
}
