package query

import (
	"testing"

	"github.com/nimbit-software/rete-reasoner/rete"
	"github.com/nimbit-software/rete-reasoner/symbol"
)

// testFixture builds a small network carrying ClassMember/PropertyAssertion
// facts by the same attribute convention compile.go assumes, without any
// dependency on the owlrl package.
type testFixture struct {
	net  *rete.Network
	tbl  *symbol.Table
	attr map[string]symbol.ID
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()
	tbl := symbol.New()
	net := rete.NewNetwork(tbl, nil)
	f := &testFixture{net: net, tbl: tbl, attr: map[string]symbol.ID{}}
	for _, name := range []string{attrSubject, attrObject, attrProperty, attrClass, attrIndividual} {
		f.attr[name] = tbl.Intern(name)
	}
	return f
}

func (f *testFixture) classMember(individual, class string) {
	f.assertType(typeClassMember, map[symbol.ID]rete.Value{
		f.attr[attrIndividual]: rete.Sym(f.tbl.Intern(individual)),
		f.attr[attrClass]:      rete.Sym(f.tbl.Intern(class)),
	})
}

func (f *testFixture) assertType(typ string, attrs map[symbol.ID]rete.Value) *rete.Fact {
	m := make(map[symbol.ID]rete.Value, len(attrs)+1)
	m[f.net.TypeKey()] = rete.Sym(f.tbl.Intern(typ))
	for k, v := range attrs {
		m[k] = v
	}
	stored, _, err := f.net.AddFact(m, true)
	if err != nil {
		panic(err)
	}
	return stored
}

func (f *testFixture) propertyAssertion(subject, property string, object rete.Value) {
	f.assertType(typePropertyAssertion, map[symbol.ID]rete.Value{
		f.attr[attrSubject]:  rete.Sym(f.tbl.Intern(subject)),
		f.attr[attrProperty]: rete.Sym(f.tbl.Intern(property)),
		f.attr[attrObject]:   object,
	})
}

func TestParseSimpleSelect(t *testing.T) {
	q, err := Parse(`SELECT ?x WHERE { ?x a Person }`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if q.Star || len(q.Projected) != 1 || q.Projected[0].Var != "x" {
		t.Fatalf("unexpected projection: %+v", q.Projected)
	}
	if len(q.Where.Blocks) != 1 || q.Where.Blocks[0].Triple == nil {
		t.Fatalf("expected one triple block, got %+v", q.Where.Blocks)
	}
	tr := q.Where.Blocks[0].Triple
	if tr.Subject.Var != "x" || tr.Predicate.Const != "a" || tr.Object.Const != "Person" {
		t.Fatalf("unexpected triple: %+v", tr)
	}
}

func TestExecuteInstancesOf(t *testing.T) {
	fx := newFixture(t)
	fx.classMember("alice", "Person")
	fx.classMember("bob", "Person")
	fx.classMember("acme", "Company")

	ex := NewExecutor(fx.net)
	rs, err := ex.Run(`SELECT ?x WHERE { ?x a Person }`, 0)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if rs.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", rs.NumRows())
	}
}

func TestExecuteFilter(t *testing.T) {
	fx := newFixture(t)
	fx.propertyAssertion("alice", "age", rete.Float(30))
	fx.propertyAssertion("bob", "age", rete.Float(12))

	ex := NewExecutor(fx.net)
	rs, err := ex.Run(`SELECT ?s WHERE { ?s age ?v FILTER(?v > 18) }`, 0)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if rs.NumRows() != 1 {
		t.Fatalf("expected 1 row, got %d", rs.NumRows())
	}
	got, _ := rs.Row(0)[0].SymbolID()
	if fx.tbl.MustName(got) != "alice" {
		t.Fatalf("expected alice, got %s", fx.tbl.MustName(got))
	}
}

func TestExecuteOptional(t *testing.T) {
	fx := newFixture(t)
	fx.classMember("alice", "Person")
	fx.classMember("bob", "Person")
	fx.propertyAssertion("alice", "nickname", rete.Str("ali"))

	ex := NewExecutor(fx.net)
	rs, err := ex.Run(`SELECT ?x ?n WHERE { ?x a Person OPTIONAL { ?x nickname ?n } }`, 0)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if rs.NumRows() != 2 {
		t.Fatalf("expected 2 rows (every Person survives), got %d", rs.NumRows())
	}
	nCol := rs.Column("n")
	nullCount := 0
	for _, v := range nCol {
		if v.IsNull() {
			nullCount++
		}
	}
	if nullCount != 1 {
		t.Fatalf("expected exactly one null nickname, got %d", nullCount)
	}
}

func TestExecuteUnion(t *testing.T) {
	fx := newFixture(t)
	fx.classMember("alice", "Person")
	fx.classMember("acme", "Company")

	ex := NewExecutor(fx.net)
	rs, err := ex.Run(`SELECT ?x WHERE { { ?x a Person } UNION { ?x a Company } }`, 0)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if rs.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", rs.NumRows())
	}
}

func TestExecuteMinus(t *testing.T) {
	fx := newFixture(t)
	fx.classMember("alice", "Person")
	fx.classMember("bob", "Person")
	fx.classMember("bob", "Suspended")

	ex := NewExecutor(fx.net)
	rs, err := ex.Run(`SELECT ?x WHERE { ?x a Person MINUS { ?x a Suspended } }`, 0)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if rs.NumRows() != 1 {
		t.Fatalf("expected 1 row, got %d", rs.NumRows())
	}
	got, _ := rs.Row(0)[0].SymbolID()
	if fx.tbl.MustName(got) != "alice" {
		t.Fatalf("expected alice, got %s", fx.tbl.MustName(got))
	}
}

func TestExecuteValues(t *testing.T) {
	fx := newFixture(t)
	fx.classMember("alice", "Person")
	fx.classMember("bob", "Person")
	fx.classMember("carol", "Person")

	ex := NewExecutor(fx.net)
	rs, err := ex.Run(`SELECT ?x WHERE { ?x a Person VALUES ?x { alice carol } }`, 0)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if rs.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", rs.NumRows())
	}
}

func TestExecuteAggregate(t *testing.T) {
	fx := newFixture(t)
	fx.propertyAssertion("alice", "dept", rete.Sym(fx.tbl.Intern("eng")))
	fx.propertyAssertion("bob", "dept", rete.Sym(fx.tbl.Intern("eng")))
	fx.propertyAssertion("carol", "dept", rete.Sym(fx.tbl.Intern("sales")))

	ex := NewExecutor(fx.net)
	rs, err := ex.Run(`SELECT ?d COUNT(?s) AS ?n WHERE { ?s dept ?d } GROUP BY ?d`, 0)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if rs.NumRows() != 2 {
		t.Fatalf("expected 2 groups, got %d", rs.NumRows())
	}
	nCol := rs.Column("n")
	total := int64(0)
	for _, v := range nCol {
		n, _ := v.Int64()
		total += n
	}
	if total != 3 {
		t.Fatalf("expected counts to sum to 3, got %d", total)
	}
}

func TestExecuteHavingAlias(t *testing.T) {
	fx := newFixture(t)
	fx.propertyAssertion("m1", "declaredIn", rete.Sym(fx.tbl.Intern("Widget")))
	fx.propertyAssertion("m2", "declaredIn", rete.Sym(fx.tbl.Intern("Widget")))
	fx.propertyAssertion("m3", "declaredIn", rete.Sym(fx.tbl.Intern("Widget")))
	fx.propertyAssertion("m4", "declaredIn", rete.Sym(fx.tbl.Intern("Gadget")))

	ex := NewExecutor(fx.net)
	rs, err := ex.Run(`SELECT ?class COUNT(?m) AS ?method_count WHERE { ?m declaredIn ?class } GROUP BY ?class HAVING (?method_count >= 3)`, 0)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if rs.NumRows() != 1 {
		t.Fatalf("expected 1 group to survive HAVING, got %d", rs.NumRows())
	}
	got, _ := rs.Row(0)[0].SymbolID()
	if fx.tbl.MustName(got) != "Widget" {
		t.Fatalf("expected Widget, got %s", fx.tbl.MustName(got))
	}
}

func TestExecuteHavingInlineAggregate(t *testing.T) {
	fx := newFixture(t)
	fx.propertyAssertion("m1", "declaredIn", rete.Sym(fx.tbl.Intern("Widget")))
	fx.propertyAssertion("m2", "declaredIn", rete.Sym(fx.tbl.Intern("Widget")))
	fx.propertyAssertion("m3", "declaredIn", rete.Sym(fx.tbl.Intern("Widget")))
	fx.propertyAssertion("m4", "declaredIn", rete.Sym(fx.tbl.Intern("Gadget")))

	ex := NewExecutor(fx.net)
	rs, err := ex.Run(`SELECT ?class COUNT(?m) AS ?method_count WHERE { ?m declaredIn ?class } GROUP BY ?class HAVING (COUNT(?m) >= 3)`, 0)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if rs.NumRows() != 1 {
		t.Fatalf("expected 1 group to survive HAVING, got %d", rs.NumRows())
	}
	got, _ := rs.Row(0)[0].SymbolID()
	if fx.tbl.MustName(got) != "Widget" {
		t.Fatalf("expected Widget, got %s", fx.tbl.MustName(got))
	}
}

func TestExecuteDescribeConstants(t *testing.T) {
	fx := newFixture(t)
	fx.classMember("alice", "Person")
	fx.propertyAssertion("alice", "knows", rete.Sym(fx.tbl.Intern("bob")))
	fx.propertyAssertion("bob", "age", rete.Float(30))

	ex := NewExecutor(fx.net)
	rs, err := ex.Run(`DESCRIBE bob`, 0)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if rs.NumRows() != 2 {
		t.Fatalf("expected 2 rows (bob as object and as subject), got %d", rs.NumRows())
	}
	if got := rs.ColumnNames(); len(got) != 4 || got[0] != "subject" || got[3] != "object_type" {
		t.Fatalf("unexpected columns: %+v", got)
	}
}

func TestExecuteDescribeWhere(t *testing.T) {
	fx := newFixture(t)
	fx.classMember("alice", "Person")
	fx.classMember("bob", "Person")
	fx.propertyAssertion("alice", "age", rete.Float(30))

	ex := NewExecutor(fx.net)
	rs, err := ex.Run(`DESCRIBE ?x WHERE { ?x a Person FILTER(?x = alice) }`, 0)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if rs.NumRows() == 0 {
		t.Fatalf("expected at least one described triple for alice")
	}
}

func TestExecuteDescribeEmpty(t *testing.T) {
	fx := newFixture(t)
	fx.classMember("alice", "Person")

	ex := NewExecutor(fx.net)
	rs, err := ex.Run(`DESCRIBE nobody`, 0)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if rs.NumRows() != 0 {
		t.Fatalf("expected 0 rows for a nonexistent resource, got %d", rs.NumRows())
	}
	if len(rs.ColumnNames()) != 4 {
		t.Fatalf("expected the schema to survive an empty result")
	}
}

func TestTemplates(t *testing.T) {
	fx := newFixture(t)
	fx.classMember("alice", "Person")
	fx.propertyAssertion("alice", "knows", rete.Sym(fx.tbl.Intern("bob")))

	ex := NewExecutor(fx.net)
	rs, err := ex.InstancesOf("Person")
	if err != nil {
		t.Fatalf("InstancesOf error: %v", err)
	}
	if rs.NumRows() != 1 {
		t.Fatalf("expected 1 row, got %d", rs.NumRows())
	}

	rel, err := ex.Related("alice", "knows")
	if err != nil {
		t.Fatalf("Related error: %v", err)
	}
	if rel.NumRows() != 1 {
		t.Fatalf("expected 1 row, got %d", rel.NumRows())
	}
}

func TestQueryByRecordPattern(t *testing.T) {
	fx := newFixture(t)
	fx.propertyAssertion("alice", "age", rete.Float(30))
	fx.propertyAssertion("bob", "age", rete.Float(12))

	ex := NewExecutor(fx.net)
	rs := ex.QueryByRecordPattern(typePropertyAssertion, map[string]rete.Value{
		attrProperty: rete.Sym(fx.tbl.Intern("age")),
	})
	if rs.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", rs.NumRows())
	}
}

func TestParseSyntaxError(t *testing.T) {
	_, err := Parse(`SELECT ?x FROM nowhere`)
	if err == nil {
		t.Fatalf("expected a syntax error")
	}
	if _, ok := err.(*rete.QuerySyntaxError); !ok {
		t.Fatalf("expected *rete.QuerySyntaxError, got %T", err)
	}
}
