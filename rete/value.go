package rete

import (
	"fmt"
	"strconv"

	"github.com/nimbit-software/rete-reasoner/symbol"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindSymbol
	KindInt
	KindFloat
	KindBool
	KindString
)

// Value is a tagged union: a symbol id, a 64-bit signed integer, a double, a
// boolean, a string literal, or null. Numeric and string literals never
// equal symbol ids, even if their printed forms coincide — equality always
// checks Kind first.
type Value struct {
	kind Kind
	sym  symbol.ID
	i    int64
	f    float64
	b    bool
	s    string
}

// Null is the singular null value.
var Null = Value{kind: KindNull}

func Sym(id symbol.ID) Value   { return Value{kind: KindSymbol, sym: id} }
func Int(i int64) Value        { return Value{kind: KindInt, i: i} }
func Float(f float64) Value    { return Value{kind: KindFloat, f: f} }
func Bool(b bool) Value        { return Value{kind: KindBool, b: b} }
func Str(s string) Value       { return Value{kind: KindString, s: s} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) SymbolID() (symbol.ID, bool) {
	if v.kind != KindSymbol {
		return symbol.None, false
	}
	return v.sym, true
}

func (v Value) Int64() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

func (v Value) Float64() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) String() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// Equal implements value-semantics equality: same kind and same payload. A
// symbol id is never equal to a numeric or string value even when their
// textual forms coincide.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindSymbol:
		return v.sym == o.sym
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.s == o.s
	}
	return false
}

// Less gives a total, deterministic order over values of the same kind, used
// by ORDER BY and by the fingerprint's canonical (key,value) sort. Values of
// different kinds order by Kind.
func (v Value) Less(o Value) bool {
	if v.kind != o.kind {
		return v.kind < o.kind
	}
	switch v.kind {
	case KindSymbol:
		return v.sym < o.sym
	case KindInt:
		return v.i < o.i
	case KindFloat:
		return v.f < o.f
	case KindBool:
		return !v.b && o.b
	case KindString:
		return v.s < o.s
	}
	return false
}

// Render produces a human/debug string for a value, resolving symbol ids
// through tbl when non-nil.
func (v Value) Render(tbl *symbol.Table) string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindSymbol:
		if tbl != nil {
			if name, ok := tbl.Name(v.sym); ok {
				return name
			}
		}
		return fmt.Sprintf("#%d", v.sym)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindString:
		return strconv.Quote(v.s)
	}
	return "?"
}

// fingerprintKey returns a representation stable enough to hash, used by
// Fact.fingerprint via hashstructure.
func (v Value) fingerprintKey() interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindSymbol:
		return "sym:" + strconv.FormatUint(uint64(v.sym), 10)
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindString:
		return "str:" + v.s
	}
	return nil
}
