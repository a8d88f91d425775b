package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nimbit-software/rete-reasoner/query"
	"github.com/nimbit-software/rete-reasoner/rete"
	"github.com/nimbit-software/rete-reasoner/symbol"
)

func tempPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "snap.json")
}

// registerSubClassClosure wires the one rule both round-trip tests exercise:
// a two-hop subClassOf transitive-closure production, mirroring the shape
// rete/network_test.go's TestTransitiveRuleRetractionCascades already
// exercises for the bare engine. Registering it is exactly the "register"
// callback Load takes — in a real caller this would be owlrl.Register.
func registerSubClassClosure(net *rete.Network) {
	tbl := net.Symbols
	typ := tbl.Intern("SubClassOf")
	sub := tbl.Intern("sub")
	sup := tbl.Intern("sup")
	vx, vy, vz := tbl.Intern("?x"), tbl.Intern("?y"), tbl.Intern("?z")

	c1 := rete.NewCondition(typ).Bind(sub, vx).Bind(sup, vy)
	c2 := rete.NewCondition(typ).Bind(sub, vy).Bind(sup, vz)
	tests := [][]rete.JoinTest{nil, {{Kind: rete.JoinEqual, Left: vy, Right: vy}}}

	net.AddRule("subclass-transitivity", []*rete.Condition{c1, c2}, tests, nil, func(b rete.Bindings) []*rete.Fact {
		return []*rete.Fact{rete.NewFact(map[symbol.ID]rete.Value{net.TypeKey(): rete.Sym(typ), sub: b[vx], sup: b[vz]})}
	})
}

func hasSubClassEdge(net *rete.Network, sub, sup string) bool {
	tbl := net.Symbols
	typ, ok := tbl.Lookup("SubClassOf")
	if !ok {
		return false
	}
	subKey, _ := tbl.Lookup("sub")
	supKey, _ := tbl.Lookup("sup")
	subID, _ := tbl.Lookup(sub)
	supID, _ := tbl.Lookup(sup)

	for _, f := range net.Facts().All() {
		tv, ok := f.Get(net.TypeKey())
		if !ok {
			continue
		}
		sym, _ := tv.SymbolID()
		if sym != typ {
			continue
		}
		s, _ := f.Get(subKey)
		p, _ := f.Get(supKey)
		ss, _ := s.SymbolID()
		ps, _ := p.SymbolID()
		if ss == subID && ps == supID {
			return true
		}
	}
	return false
}

// TestSaveLoadRoundTripPreservesDerivation builds A sub B, B sub C, lets the
// transitive-closure rule derive A sub C, saves, loads into a fresh network,
// and checks the derived edge survives.
func TestSaveLoadRoundTripPreservesDerivation(t *testing.T) {
	tbl := symbol.New()
	net := rete.NewNetwork(tbl, nil)
	registerSubClassClosure(net)

	typ := tbl.Intern("SubClassOf")
	sub := tbl.Intern("sub")
	sup := tbl.Intern("sup")
	a, b, c := tbl.Intern("A"), tbl.Intern("B"), tbl.Intern("C")
	net.AddFact(map[symbol.ID]rete.Value{net.TypeKey(): rete.Sym(typ), sub: rete.Sym(a), sup: rete.Sym(b)}, true)
	net.AddFact(map[symbol.ID]rete.Value{net.TypeKey(): rete.Sym(typ), sub: rete.Sym(b), sup: rete.Sym(c)}, true)

	if !hasSubClassEdge(net, "A", "C") {
		t.Fatalf("setup: expected A sub C to be derived before save")
	}

	path := tempPath(t)
	if err := Save(net, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	net2, err := Load(path, nil, registerSubClassClosure)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if net2.Facts().Len() != net.Facts().Len() {
		t.Fatalf("expected the same number of live facts after reload, got %d want %d", net2.Facts().Len(), net.Facts().Len())
	}
	if !hasSubClassEdge(net2, "A", "C") {
		t.Fatalf("expected A sub C to survive save/load")
	}
}

// TestSaveLoadIsIdempotent checks save->load->save produces the same
// logical fact count.
func TestSaveLoadIsIdempotent(t *testing.T) {
	tbl := symbol.New()
	net := rete.NewNetwork(tbl, nil)
	registerSubClassClosure(net)

	typ := tbl.Intern("SubClassOf")
	sub := tbl.Intern("sub")
	sup := tbl.Intern("sup")
	a, b := tbl.Intern("A"), tbl.Intern("B")
	net.AddFact(map[symbol.ID]rete.Value{net.TypeKey(): rete.Sym(typ), sub: rete.Sym(a), sup: rete.Sym(b)}, true)

	path1 := tempPath(t)
	if err := Save(net, path1); err != nil {
		t.Fatalf("Save 1: %v", err)
	}

	net2, err := Load(path1, nil, registerSubClassClosure)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	path2 := filepath.Join(filepath.Dir(path1), "snap2.json")
	if err := Save(net2, path2); err != nil {
		t.Fatalf("Save 2: %v", err)
	}

	if net.Facts().Len() != net2.Facts().Len() {
		t.Fatalf("fact counts diverged across reload: %d vs %d", net.Facts().Len(), net2.Facts().Len())
	}

	data, err := os.ReadFile(path2)
	if err != nil {
		t.Fatalf("reading second snapshot: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected a non-empty second snapshot")
	}
}

// TestOptionalColumnsSurviveReload covers three Class facts, one carrying
// an inheritsFrom edge, queried with OPTIONAL both before and after a
// save/load round trip; the ?p column must still appear with the same
// null pattern post-reload.
func TestOptionalColumnsSurviveReload(t *testing.T) {
	tbl := symbol.New()
	net := rete.NewNetwork(tbl, nil)

	assertClass := func(n *rete.Network, name string, parent string) {
		n.AddFact(map[symbol.ID]rete.Value{
			n.TypeKey():              rete.Sym(tbl.Intern("ClassMember")),
			tbl.Intern("individual"): rete.Sym(tbl.Intern(name)),
			tbl.Intern("class"):      rete.Sym(tbl.Intern("Class")),
		}, true)
		if parent != "" {
			n.AddFact(map[symbol.ID]rete.Value{
				n.TypeKey():            rete.Sym(tbl.Intern("PropertyAssertion")),
				tbl.Intern("subject"):  rete.Sym(tbl.Intern(name)),
				tbl.Intern("property"): rete.Sym(tbl.Intern("inheritsFrom")),
				tbl.Intern("object"):   rete.Sym(tbl.Intern(parent)),
			}, true)
		}
	}

	assertClass(net, "Cat", "Mammal")
	assertClass(net, "Mammal", "")
	assertClass(net, "Fish", "")

	runQuery := func(n *rete.Network) *query.ResultSet {
		ex := query.NewExecutor(n)
		rs, err := ex.Run(`SELECT ?c ?p WHERE { ?c a Class OPTIONAL { ?c inheritsFrom ?p } }`, 0)
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		return rs
	}

	before := runQuery(net)
	checkOptionalShape(t, before)

	path := tempPath(t)
	if err := Save(net, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	net2, err := Load(path, nil, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	after := runQuery(net2)
	checkOptionalShape(t, after)
}

func checkOptionalShape(t *testing.T, rs *query.ResultSet) {
	t.Helper()
	if rs.NumRows() != 3 {
		t.Fatalf("expected 3 rows, got %d", rs.NumRows())
	}
	pCol := rs.Column("p")
	if pCol == nil {
		t.Fatalf("expected a ?p column regardless of match count")
	}
	nullCount := 0
	for _, v := range pCol {
		if v.IsNull() {
			nullCount++
		}
	}
	if nullCount != 2 {
		t.Fatalf("expected 2 null ?p values, got %d", nullCount)
	}
}
