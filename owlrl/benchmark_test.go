package owlrl

import (
	"fmt"
	"testing"

	faker "github.com/go-faker/faker/v4"

	"github.com/nimbit-software/rete-reasoner/rete"
	"github.com/nimbit-software/rete-reasoner/symbol"
)

// buildChainOntology interns n distinct classes chained by SubClassOf
// (C0 ⊑ C1 ⊑ ... ⊑ Cn-1) plus n faker-named individuals, all members of C0, the
// same shape as the transitive-subsumption scenario but scaled up, to
// exercise the catalogue's cax-sco join chain under load. Individual names
// come from faker.LastName for readable, varied fixture data per iteration.
func buildChainOntology(b *testing.B, net *rete.Network, v *vocab, n int) []symbol.ID {
	tbl := net.Symbols
	classes := make([]symbol.ID, n)
	for i := 0; i < n; i++ {
		classes[i] = tbl.Intern(fmt.Sprintf("Class%d", i))
		net.Facts().Add(v.fact(v.tClass, map[symbol.ID]rete.Value{v.aClass: rete.Sym(classes[i])}), rete.Provenance{Asserted: true})
		if i > 0 {
			net.Facts().Add(v.fact(v.tSubClassOf, map[symbol.ID]rete.Value{v.aSub: rete.Sym(classes[i-1]), v.aSup: rete.Sym(classes[i])}), rete.Provenance{Asserted: true})
		}
	}
	individuals := make([]symbol.ID, n)
	for i := 0; i < n; i++ {
		name := faker.LastName()
		individuals[i] = tbl.Intern(fmt.Sprintf("%s-%d", name, i))
		net.Facts().Add(v.fact(v.tClassMember, map[symbol.ID]rete.Value{v.aIndividual: rete.Sym(individuals[i]), v.aClass: rete.Sym(classes[0])}), rete.Provenance{Asserted: true})
	}
	return classes
}

// BenchmarkTransitiveChainPropagation measures how the cax-sco join chain's
// incremental propagation scales as the subclass chain and the number of
// individuals in its bottom class grow.
func BenchmarkTransitiveChainPropagation(b *testing.B) {
	for _, n := range []int{10, 50, 200} {
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				tbl := symbol.New()
				net := rete.NewNetwork(tbl, nil)
				v := Register(net)
				buildChainOntology(b, net, v, n)
			}
		})
	}
}
