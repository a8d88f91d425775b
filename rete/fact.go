package rete

import (
	"sort"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/nimbit-software/rete-reasoner/symbol"
)

// Fingerprint is the stable content hash that serves as a fact's identity.
// Two facts with the same Fingerprint are the same fact.
type Fingerprint uint64

// Provenance records who is responsible for a fact: the external caller
// ("asserted") or one or more firing rules ("inferred"). Asserted dominates
// inferred on merge: once a fact is asserted, retracting the last rule that
// also derived it never removes it.
type Provenance struct {
	Asserted bool
	Rules    map[string]struct{} // set of inferred-by rule names
}

func (p *Provenance) merge(o Provenance) {
	if o.Asserted {
		p.Asserted = true
	}
	for r := range o.Rules {
		if p.Rules == nil {
			p.Rules = make(map[string]struct{})
		}
		p.Rules[r] = struct{}{}
	}
}

// RuleNames returns the sorted set of rules that derived this fact, if any.
func (p Provenance) RuleNames() []string {
	out := make([]string, 0, len(p.Rules))
	for r := range p.Rules {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Fact is an ordered mapping from attribute symbol to Value, plus identity
// and bookkeeping fields.
type Fact struct {
	Attrs map[symbol.ID]Value

	// StringData and FloatData hold homogeneous list-valued payload fields
	// used by rule bodies (SWRL atom lists, property chains) that don't fit
	// the scalar Attrs map.
	StringData map[symbol.ID][]string
	FloatData  map[symbol.ID][]float64

	id          Fingerprint
	seq         uint64 // 0 until inserted
	provenance  Provenance
	tombstoned  bool
}

// NewFact builds a fact from an attribute map. typeSym must be present under
// the well-known "type" key (interned by the caller); NewFact itself does
// not check this — callers normally go through FactStore.Add, which
// performs that validation.
func NewFact(attrs map[symbol.ID]Value) *Fact {
	f := &Fact{Attrs: attrs}
	return f
}

// WithStringList attaches a string-list structured field (e.g. a SWRL atom
// list) under key and returns the fact for chaining.
func (f *Fact) WithStringList(key symbol.ID, vals []string) *Fact {
	if f.StringData == nil {
		f.StringData = make(map[symbol.ID][]string)
	}
	f.StringData[key] = vals
	return f
}

// WithFloatList attaches a float-list structured field under key.
func (f *Fact) WithFloatList(key symbol.ID, vals []float64) *Fact {
	if f.FloatData == nil {
		f.FloatData = make(map[symbol.ID][]float64)
	}
	f.FloatData[key] = vals
	return f
}

// ID returns the fact's content fingerprint, computing it on first access.
func (f *Fact) ID() Fingerprint {
	if f.id == 0 {
		f.id = f.computeFingerprint()
	}
	return f.id
}

// Seq returns the fact's monotonic insertion sequence number; it is zero
// until the fact has been inserted into a FactStore.
func (f *Fact) Seq() uint64 { return f.seq }

// Provenance returns the fact's current provenance tag.
func (f *Fact) Provenance() Provenance { return f.provenance }

// Tombstoned reports whether the fact has been removed from its store.
func (f *Fact) Tombstoned() bool { return f.tombstoned }

// Get returns the value bound to attribute key, or (Null, false).
func (f *Fact) Get(key symbol.ID) (Value, bool) {
	v, ok := f.Attrs[key]
	return v, ok
}

// computeFingerprint hashes the sorted (key,value) pairs of Attrs plus any
// structured-data fields, giving a fact's identity that is independent of Go
// map iteration order.
func (f *Fact) computeFingerprint() Fingerprint {
	keys := make([]symbol.ID, 0, len(f.Attrs))
	for k := range f.Attrs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	type pair struct {
		K symbol.ID
		V interface{}
	}
	pairs := make([]pair, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, pair{K: k, V: f.Attrs[k].fingerprintKey()})
	}

	payload := struct {
		Pairs  []pair
		Str    map[symbol.ID][]string
		Float  map[symbol.ID][]float64
	}{Pairs: pairs, Str: f.StringData, Float: f.FloatData}

	h, err := hashstructure.Hash(payload, hashstructure.FormatV2, nil)
	if err != nil {
		// hashstructure only fails on unhashable/cyclic inputs, which Fact's
		// closed value set cannot produce; treat as an internal invariant.
		panic("rete: fact fingerprint: " + err.Error())
	}
	return Fingerprint(h)
}
