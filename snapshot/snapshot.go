// Package snapshot persists and restores a network's full state: the
// interned symbol table and every live fact (asserted or derived), with
// enough provenance and structured-data detail that a reload reproduces the
// same logical fact set and the same query results.
//
// Loading deliberately does not re-run the propagation engine against the
// restored facts. Facts are written back into the fact store exactly as they
// were (same sequence number, same provenance), and rule registration runs
// only after that restore completes — which, thanks to the network's own
// node-sharing design (an alpha or beta node created after matching facts
// already exist replays them immediately, see rete/alpha.go), rebuilds every
// index and join path without re-deriving anything: a restored derived fact
// already carries the provenance its rule would have produced, so replay
// only merges into an identical row rather than creating a new one.
package snapshot

import (
	"encoding/json"
	"sort"

	"github.com/nimbit-software/rete-reasoner/rete"
	"github.com/nimbit-software/rete-reasoner/symbol"
)

// formatVersion guards against loading a file written by an incompatible
// layout. Bump it if the document schema below changes shape.
const formatVersion = 1

// document is the on-disk shape of a snapshot.
type document struct {
	Version  int          `json:"version"`
	Symbols  []string     `json:"symbols"`
	NextSeq  uint64       `json:"next_seq"`
	Facts    []factRecord `json:"facts"`
}

type factRecord struct {
	Seq      uint64            `json:"seq"`
	Asserted bool              `json:"asserted"`
	Rules    []string          `json:"rules,omitempty"`
	Attrs    []attrRecord      `json:"attrs"`
	Strings  []stringListRecord `json:"strings,omitempty"`
	Floats   []floatListRecord  `json:"floats,omitempty"`
}

// attrRecord carries one (attribute symbol, value) pair. Attribute keys are
// symbol ids, which a bare JSON object would risk sjson/gjson-style path
// ambiguity over (a pure-numeric key reads like an array index to some JSON
// path tooling); encoding them as an array of records sidesteps that
// entirely and keeps the format tool-agnostic on read.
type attrRecord struct {
	Key  uint32      `json:"key"`
	Kind string      `json:"kind"`
	Sym  uint32      `json:"sym,omitempty"`
	Int  int64       `json:"int,omitempty"`
	Flt  float64     `json:"flt,omitempty"`
	Bln  bool        `json:"bln,omitempty"`
	Str  string      `json:"str,omitempty"`
}

type stringListRecord struct {
	Key uint32   `json:"key"`
	Val []string `json:"val"`
}

type floatListRecord struct {
	Key uint32    `json:"key"`
	Val []float64 `json:"val"`
}

// encodeValue renders a rete.Value as an attrRecord for attribute key.
func encodeValue(key symbol.ID, v rete.Value) attrRecord {
	rec := attrRecord{Key: uint32(key)}
	switch v.Kind() {
	case rete.KindSymbol:
		rec.Kind = "sym"
		id, _ := v.SymbolID()
		rec.Sym = uint32(id)
	case rete.KindInt:
		rec.Kind = "int"
		rec.Int, _ = v.Int64()
	case rete.KindFloat:
		rec.Kind = "flt"
		rec.Flt, _ = v.Float64()
	case rete.KindBool:
		rec.Kind = "bln"
		rec.Bln, _ = v.Bool()
	case rete.KindString:
		rec.Kind = "str"
		rec.Str, _ = v.String()
	default:
		rec.Kind = "null"
	}
	return rec
}

// decodeValue reverses encodeValue.
func decodeValue(rec attrRecord) rete.Value {
	switch rec.Kind {
	case "sym":
		return rete.Sym(symbol.ID(rec.Sym))
	case "int":
		return rete.Int(rec.Int)
	case "flt":
		return rete.Float(rec.Flt)
	case "bln":
		return rete.Bool(rec.Bln)
	case "str":
		return rete.Str(rec.Str)
	default:
		return rete.Null
	}
}

// buildDocument walks net's symbol table and live fact set into the on-disk
// shape. Facts are emitted in sequence-number order so a text diff between
// two snapshots of a slowly-changing network stays small.
func buildDocument(net *rete.Network) document {
	doc := document{
		Version: formatVersion,
		Symbols: net.Symbols.Snapshot(),
		NextSeq: net.Facts().NextSeq(),
	}

	facts := net.Facts().All()
	sort.Slice(facts, func(i, j int) bool { return facts[i].Seq() < facts[j].Seq() })

	doc.Facts = make([]factRecord, 0, len(facts))
	for _, f := range facts {
		prov := f.Provenance()
		rec := factRecord{
			Seq:      f.Seq(),
			Asserted: prov.Asserted,
			Rules:    prov.RuleNames(),
		}

		keys := make([]symbol.ID, 0, len(f.Attrs))
		for k := range f.Attrs {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		rec.Attrs = make([]attrRecord, 0, len(keys))
		for _, k := range keys {
			rec.Attrs = append(rec.Attrs, encodeValue(k, f.Attrs[k]))
		}

		if len(f.StringData) > 0 {
			skeys := make([]symbol.ID, 0, len(f.StringData))
			for k := range f.StringData {
				skeys = append(skeys, k)
			}
			sort.Slice(skeys, func(i, j int) bool { return skeys[i] < skeys[j] })
			for _, k := range skeys {
				rec.Strings = append(rec.Strings, stringListRecord{Key: uint32(k), Val: f.StringData[k]})
			}
		}
		if len(f.FloatData) > 0 {
			fkeys := make([]symbol.ID, 0, len(f.FloatData))
			for k := range f.FloatData {
				fkeys = append(fkeys, k)
			}
			sort.Slice(fkeys, func(i, j int) bool { return fkeys[i] < fkeys[j] })
			for _, k := range fkeys {
				rec.Floats = append(rec.Floats, floatListRecord{Key: uint32(k), Val: f.FloatData[k]})
			}
		}

		doc.Facts = append(doc.Facts, rec)
	}
	return doc
}

// marshal renders doc as indented JSON, human-readable on disk so a
// snapshot can be diffed or inspected directly.
func marshal(doc document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

func unmarshal(data []byte) (document, error) {
	var doc document
	err := json.Unmarshal(data, &doc)
	return doc, err
}

// applyFacts restores every fact record directly into net's fact store,
// bypassing the network's normal AddFact routing so no production re-fires
// during restore (see the package doc comment). Rule registration, done by
// the caller after Load returns, is what reconstructs live index/join state.
func applyFacts(net *rete.Network, doc document) {
	store := net.Facts()
	for _, rec := range doc.Facts {
		attrs := make(map[symbol.ID]rete.Value, len(rec.Attrs))
		for _, a := range rec.Attrs {
			attrs[symbol.ID(a.Key)] = decodeValue(a)
		}
		f := rete.NewFact(attrs)
		for _, s := range rec.Strings {
			f.WithStringList(symbol.ID(s.Key), s.Val)
		}
		for _, fl := range rec.Floats {
			f.WithFloatList(symbol.ID(fl.Key), fl.Val)
		}

		prov := rete.Provenance{Asserted: rec.Asserted}
		if len(rec.Rules) > 0 {
			prov.Rules = make(map[string]struct{}, len(rec.Rules))
			for _, r := range rec.Rules {
				prov.Rules[r] = struct{}{}
			}
		}
		store.RestoreFact(f, rec.Seq, prov)
	}
	store.RestoreSeq(doc.NextSeq)
}
