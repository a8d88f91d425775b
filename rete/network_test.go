package rete

import (
	"testing"

	"github.com/nimbit-software/rete-reasoner/symbol"
)

func newTestNetwork(t *testing.T) (*Network, *symbol.Table) {
	t.Helper()
	tbl := symbol.New()
	return NewNetwork(tbl, nil), tbl
}

func TestFactFingerprintStableAcrossMapOrder(t *testing.T) {
	tbl := symbol.New()
	a := tbl.Intern("a")
	b := tbl.Intern("b")
	f1 := NewFact(map[symbol.ID]Value{a: Int(1), b: Int(2)})
	f2 := NewFact(map[symbol.ID]Value{b: Int(2), a: Int(1)})
	if f1.ID() != f2.ID() {
		t.Fatalf("expected identical fingerprints for the same attrs in different map order")
	}
}

func TestFactStoreAddIsIdempotentAndMergesProvenance(t *testing.T) {
	net, tbl := newTestNetwork(t)
	typ := tbl.Intern("Widget")
	name := tbl.Intern("name")

	attrs := map[symbol.ID]Value{net.TypeKey(): Sym(typ), name: Str("foo")}
	f1, created1, err := net.AddFact(cloneAttrs(attrs), true)
	if err != nil || !created1 {
		t.Fatalf("expected first add to create, got created=%v err=%v", created1, err)
	}
	f2, created2, err := net.AddFact(cloneAttrs(attrs), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created2 {
		t.Fatalf("expected second identical add to merge rather than create")
	}
	if f1.ID() != f2.ID() {
		t.Fatalf("expected the same fingerprint back")
	}
	if !f2.Provenance().Asserted {
		t.Fatalf("expected asserted provenance to stick after a second, unasserted add merges in")
	}
}

func cloneAttrs(m map[symbol.ID]Value) map[symbol.ID]Value {
	out := make(map[symbol.ID]Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// TestTransitiveRuleRetractionCascades builds a two-hop transitive-closure
// rule (A->B, B->C derives A->C) and checks that retracting the bridging
// fact retracts the derived consequence too.
func TestTransitiveRuleRetractionCascades(t *testing.T) {
	net, tbl := newTestNetwork(t)
	linkType := tbl.Intern("Link")
	from := tbl.Intern("from")
	to := tbl.Intern("to")
	vx, vy, vz := tbl.Intern("?x"), tbl.Intern("?y"), tbl.Intern("?z")

	c1 := NewCondition(linkType).Bind(from, vx).Bind(to, vy)
	c2 := NewCondition(linkType).Bind(from, vy).Bind(to, vz)
	tests := [][]JoinTest{nil, {{Kind: JoinEqual, Left: vy, Right: vy}}}

	_, err := net.AddRule("transit", []*Condition{c1, c2}, tests, nil, func(b Bindings) []*Fact {
		return []*Fact{NewFact(map[symbol.ID]Value{net.TypeKey(): Sym(linkType), from: b[vx], to: b[vz]})}
	})
	if err != nil {
		t.Fatalf("AddRule: %v", err)
	}

	a, bN, c := tbl.Intern("a"), tbl.Intern("b"), tbl.Intern("c")
	net.AddFact(map[symbol.ID]Value{net.TypeKey(): Sym(linkType), from: Sym(a), to: Sym(bN)}, true)
	bridge, _, _ := net.AddFact(map[symbol.ID]Value{net.TypeKey(): Sym(linkType), from: Sym(bN), to: Sym(c)}, true)

	found := false
	for _, f := range net.Facts().All() {
		fv, _ := f.Get(from)
		tv, _ := f.Get(to)
		if sv, ok := fv.SymbolID(); ok && sv == a {
			if tv2, ok := tv.SymbolID(); ok && tv2 == c {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("expected derived a->c fact after two-hop join")
	}

	net.RemoveFact(bridge.ID())
	for _, f := range net.Facts().All() {
		fv, _ := f.Get(from)
		tv, _ := f.Get(to)
		if sv, ok := fv.SymbolID(); ok && sv == a {
			if tv2, ok := tv.SymbolID(); ok && tv2 == c {
				t.Fatalf("expected derived a->c fact to be retracted once its bridging fact is removed")
			}
		}
	}
}

// TestDivergenceBudgetStopsRunawayRecursion checks that a self-referential
// rule (deliberately always deriving a fresh-looking consequence) trips the
// divergence guard instead of looping forever.
func TestDivergenceBudgetStopsRunawayRecursion(t *testing.T) {
	tbl := symbol.New()
	net := NewNetwork(tbl, &NetworkOptions{DivergenceBudget: 5, QueryCacheSize: 16})
	typ := tbl.Intern("Counter")
	n := tbl.Intern("n")
	vx := tbl.Intern("?x")

	cond := NewCondition(typ).Bind(n, vx)
	counter := 0
	_, err := net.AddRule("runaway", []*Condition{cond}, [][]JoinTest{nil}, nil, func(b Bindings) []*Fact {
		counter++
		return []*Fact{NewFact(map[symbol.ID]Value{net.TypeKey(): Sym(typ), n: Int(int64(counter))})}
	})
	if err != nil {
		t.Fatalf("AddRule: %v", err)
	}
	net.AddFact(map[symbol.ID]Value{net.TypeKey(): Sym(typ), n: Int(0)}, true)

	if net.Metrics().DivergenceTrips == 0 {
		t.Fatalf("expected the divergence guard to trip on a self-feeding rule")
	}
	if counter > 5+1 {
		t.Fatalf("expected firing to stop near the configured budget, fired %d times", counter)
	}
}
