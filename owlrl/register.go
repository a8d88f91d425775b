package owlrl

import "github.com/nimbit-software/rete-reasoner/rete"

// Register installs the full OWL 2 RL plus SWRL catalogue into net: the
// foundational Thing/Nothing facts, every fixed-arity rule template, and
// every dynamic-arity template that compiles its productions per-instance
// as matching axioms arrive. Call once per network, before any ontology
// facts are asserted, so scm-cls and the dynamic OnFactType hooks are
// already wired when those facts show up.
func Register(net *rete.Network) *vocab {
	v := newVocab(net.Symbols, net.TypeKey())
	assertFoundational(net, v)
	registerStatic(net, v)
	registerDynamic(net, v)
	return v
}
