package rete

import "github.com/nimbit-software/rete-reasoner/symbol"

// Bindings is a binding environment: variable symbol -> Value.
type Bindings map[symbol.ID]Value

// Clone returns an independent copy of b.
func (b Bindings) Clone() Bindings {
	out := make(Bindings, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Extend returns a new Bindings containing b's entries plus extra's,
// extra's entries winning on conflict. Used when a join node merges a left
// token's bindings with a right fact's freshly-extracted bindings.
func (b Bindings) Extend(extra Bindings) Bindings {
	out := make(Bindings, len(b)+len(extra))
	for k, v := range b {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// compatible reports whether b and other agree on every variable they have
// in common — the core join condition for an equi-join across conditions
// that share a variable.
func (b Bindings) compatible(other Bindings) bool {
	if len(b) > len(other) {
		b, other = other, b
	}
	for k, v := range b {
		if ov, ok := other[k]; ok && !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Token is a join-node memory element: an ordered tuple of the facts matched
// by each condition so far, plus the merged binding environment they
// produce. Tokens live as long as their constituent facts live; FactStore
// removal invalidates descendant tokens via retraction.
type Token struct {
	Facts    []*Fact
	Bindings Bindings
}

func rootToken() *Token {
	return &Token{Bindings: Bindings{}}
}

// extend returns a new token formed by appending fact (matched by the next
// condition) and merging its extracted bindings into t's environment.
func (t *Token) extend(fact *Fact, extracted Bindings) *Token {
	facts := make([]*Fact, len(t.Facts)+1)
	copy(facts, t.Facts)
	facts[len(t.Facts)] = fact
	return &Token{Facts: facts, Bindings: t.Bindings.Extend(extracted)}
}

// supports reports whether fact is one of the facts this token is built
// from.
func (t *Token) supports(fact *Fact) bool {
	for _, f := range t.Facts {
		if f == fact {
			return true
		}
	}
	return false
}
