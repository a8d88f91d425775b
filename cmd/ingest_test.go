package main

import (
	"testing"

	"github.com/nimbit-software/rete-reasoner/owlrl"
	"github.com/nimbit-software/rete-reasoner/rete"
	"github.com/nimbit-software/rete-reasoner/symbol"
)

func TestIngestBatchDerivesAcrossRecords(t *testing.T) {
	net := rete.NewNetwork(symbol.New(), nil)
	owlrl.Register(net)

	data := []byte(`[
		{"type":"Class","class":"Mammal"},
		{"type":"Class","class":"Cat"},
		{"type":"SubClassOf","sub":"Cat","sup":"Mammal"},
		{"type":"ClassMember","individual":"Felix","class":"Cat"}
	]`)

	var seen []string
	errs, inserted := ingestBatch(net, data, func(processed, total int, message string) {
		seen = append(seen, message)
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected ingest errors: %v", errs)
	}
	if inserted != 4 {
		t.Fatalf("expected 4 records inserted, got %d", inserted)
	}
	if len(seen) != 4 {
		t.Fatalf("expected one progress callback per record, got %d", len(seen))
	}

	tbl := net.Symbols
	mammal, _ := tbl.Lookup("Mammal")
	felix, _ := tbl.Lookup("Felix")
	found := false
	for _, f := range net.Facts().All() {
		tv, ok := f.Get(net.TypeKey())
		if !ok {
			continue
		}
		if sym, ok := tv.SymbolID(); !ok || tbl.MustName(sym) != "ClassMember" {
			continue
		}
		cls, _ := f.Get(tbl.Intern("class"))
		ind, _ := f.Get(tbl.Intern("individual"))
		cs, _ := cls.SymbolID()
		is, _ := ind.SymbolID()
		if cs == mammal && is == felix {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected Felix to be inferred a Mammal via SubClassOf transitivity")
	}
}

func TestHasInconsistencyDetectsViolation(t *testing.T) {
	net := rete.NewNetwork(symbol.New(), nil)
	owlrl.Register(net)

	data := []byte(`[
		{"type":"DisjointClasses","a":"Cat","b":"Dog"},
		{"type":"ClassMember","class":"Cat","individual":"felix"},
		{"type":"ClassMember","class":"Dog","individual":"felix"}
	]`)
	if errs, _ := ingestBatch(net, data, nil); len(errs) != 0 {
		t.Fatalf("unexpected ingest errors: %v", errs)
	}

	if !hasInconsistency(net) {
		t.Fatalf("expected hasInconsistency to detect the cax-dw violation fact")
	}
}

func TestHasInconsistencyFalseOnConsistentData(t *testing.T) {
	net := rete.NewNetwork(symbol.New(), nil)
	owlrl.Register(net)

	data := []byte(`[{"type":"ClassMember","class":"Cat","individual":"felix"}]`)
	if errs, _ := ingestBatch(net, data, nil); len(errs) != 0 {
		t.Fatalf("unexpected ingest errors: %v", errs)
	}

	if hasInconsistency(net) {
		t.Fatalf("expected no inconsistency for consistent data")
	}
}

func TestDecodeRecordRejectsNonObject(t *testing.T) {
	tbl := symbol.New()
	errs, inserted := ingestBatch(rete.NewNetwork(tbl, nil), []byte(`["not-an-object"]`), nil)
	if inserted != 0 {
		t.Fatalf("expected nothing inserted for a malformed record, got %d", inserted)
	}
	if len(errs) != 1 {
		t.Fatalf("expected one ingest error, got %d", len(errs))
	}
}
