package rete

import (
	"sort"
	"strconv"
	"strings"

	"github.com/nimbit-software/rete-reasoner/symbol"
)

// Condition is one production condition: a typed template naming a fact
// type, a set of constant-valued attribute filters, and a set of
// variable-binding attributes.
type Condition struct {
	Type      symbol.ID
	Constants map[symbol.ID]Value    // attribute -> required constant value
	Variables map[symbol.ID]symbol.ID // attribute -> variable symbol to bind
}

// NewCondition builds a condition matching facts of the given type.
func NewCondition(typ symbol.ID) *Condition {
	return &Condition{Type: typ, Constants: map[symbol.ID]Value{}, Variables: map[symbol.ID]symbol.ID{}}
}

// Const adds a constant-value filter on attr.
func (c *Condition) Const(attr symbol.ID, val Value) *Condition {
	c.Constants[attr] = val
	return c
}

// Bind adds a variable binding: attr's value becomes bound to variable.
func (c *Condition) Bind(attr, variable symbol.ID) *Condition {
	c.Variables[attr] = variable
	return c
}

// signature returns the canonicalised alpha-node signature: (type, sorted
// constant (key,value) pairs, sorted variable (key, varname) pairs). Two
// conditions with identical signatures share one alpha memory — this string
// is also the key of the network's radix tree used for that node-sharing
// lookup.
func (c *Condition) signature(tbl *symbol.Table) string {
	var b strings.Builder
	b.WriteString("t:")
	b.WriteString(strconv.FormatUint(uint64(c.Type), 10))

	constKeys := make([]symbol.ID, 0, len(c.Constants))
	for k := range c.Constants {
		constKeys = append(constKeys, k)
	}
	sort.Slice(constKeys, func(i, j int) bool { return constKeys[i] < constKeys[j] })
	for _, k := range constKeys {
		b.WriteString("|c:")
		b.WriteString(strconv.FormatUint(uint64(k), 10))
		b.WriteString("=")
		b.WriteString(c.Constants[k].Render(tbl))
	}

	varKeys := make([]symbol.ID, 0, len(c.Variables))
	for k := range c.Variables {
		varKeys = append(varKeys, k)
	}
	sort.Slice(varKeys, func(i, j int) bool { return varKeys[i] < varKeys[j] })
	for _, k := range varKeys {
		b.WriteString("|v:")
		b.WriteString(strconv.FormatUint(uint64(k), 10))
		b.WriteString("=")
		b.WriteString(strconv.FormatUint(uint64(c.Variables[k]), 10))
	}
	return b.String()
}

// matches reports whether fact satisfies every constant constraint of c.
func (c *Condition) matches(typeKey symbol.ID, f *Fact) bool {
	if ft, ok := f.Get(typeKey); !ok || !ft.Equal(Value{kind: KindSymbol, sym: c.Type}) {
		return false
	}
	for attr, want := range c.Constants {
		got, ok := f.Get(attr)
		if !ok || !got.Equal(want) {
			return false
		}
	}
	return true
}

// extractBindings pulls the variable-bound attribute values out of fact.
func (c *Condition) extractBindings(f *Fact) Bindings {
	if len(c.Variables) == 0 {
		return Bindings{}
	}
	out := make(Bindings, len(c.Variables))
	for attr, variable := range c.Variables {
		if v, ok := f.Get(attr); ok {
			out[variable] = v
		}
	}
	return out
}

// JoinTestKind distinguishes equality from inequality join tests.
type JoinTestKind uint8

const (
	JoinEqual JoinTestKind = iota
	JoinNotEqual
)

// JoinTest is a native inter-condition test between a variable already bound
// by the left token and a variable freshly bound by the right condition.
// Inequality tests are native so failing tokens — including the common
// self-pair case A vs A — never enter beta memory.
type JoinTest struct {
	Kind JoinTestKind
	Left  symbol.ID
	Right symbol.ID
}

func (jt JoinTest) eval(left, right Bindings) bool {
	lv, lok := left[jt.Left]
	rv, rok := right[jt.Right]
	if !lok || !rok {
		// Unbound variables can't be compared; the test is vacuously
		// satisfied so unrelated conditions don't spuriously fail.
		return true
	}
	switch jt.Kind {
	case JoinEqual:
		return lv.Equal(rv)
	case JoinNotEqual:
		return !lv.Equal(rv)
	}
	return false
}

// Filter is a built-in predicate evaluated over a token's full binding
// environment once a candidate token is otherwise complete. Only a token
// passing every filter is emitted.
type Filter func(b Bindings) bool
