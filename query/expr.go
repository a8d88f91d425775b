package query

import (
	"regexp"
	"strings"

	"github.com/nimbit-software/rete-reasoner/rete"
	"github.com/nimbit-software/rete-reasoner/symbol"
)

// ExprKind distinguishes filter-expression node shapes.
type ExprKind uint8

const (
	ExprVar ExprKind = iota
	ExprConst
	ExprAnd
	ExprOr
	ExprNot
	ExprEq
	ExprNeq
	ExprLt
	ExprLe
	ExprGt
	ExprGe
	ExprCall // built-in function call: STR, CONTAINS, STRSTARTS, STRENDS, REGEX
	ExprAdd
	ExprSub
	ExprMul
	ExprDiv
)

// Expr is a FILTER expression node: comparisons, boolean logic, and
// built-ins. A nil Expr is always satisfied.
type Expr struct {
	Kind     ExprKind
	Var      string
	Const    Term
	Children []*Expr
	Fn       string // set when Kind == ExprCall
}

// evalCtx carries what an expression needs to resolve a variable or render a
// symbol, scoped to one row. groupRows is set only when evaluating a HAVING
// clause: it holds the current group's raw rows, so a call like COUNT(?x)
// that was never part of the SELECT list can still be recomputed on the fly.
type evalCtx struct {
	tbl       *symbol.Table
	vars      map[string]symbol.ID
	row       rete.Bindings
	groupRows []rete.Bindings
}

// eval evaluates e against a row's bindings. Per spec, a FILTER referencing
// a variable outside its scope (e.g. inside MINUS) evaluates to false rather
// than erroring, modeled here as an unbound variable yielding rete.Null and
// every comparison against Null failing.
func (e *Expr) eval(ctx *evalCtx) rete.Value {
	if e == nil {
		return rete.Bool(true)
	}
	switch e.Kind {
	case ExprVar:
		sym, ok := ctx.vars[e.Var]
		if !ok {
			return rete.Null
		}
		if v, ok := ctx.row[sym]; ok {
			return v
		}
		return rete.Null
	case ExprConst:
		return termToValue(e.Const, ctx.tbl)
	case ExprAnd:
		l, r := boolOf(e.Children[0].eval(ctx)), boolOf(e.Children[1].eval(ctx))
		return rete.Bool(l && r)
	case ExprOr:
		l, r := boolOf(e.Children[0].eval(ctx)), boolOf(e.Children[1].eval(ctx))
		return rete.Bool(l || r)
	case ExprNot:
		return rete.Bool(!boolOf(e.Children[0].eval(ctx)))
	case ExprEq, ExprNeq:
		l, r := e.Children[0].eval(ctx), e.Children[1].eval(ctx)
		if l.Kind() == rete.KindNull || r.Kind() == rete.KindNull {
			return rete.Bool(false)
		}
		return rete.Bool(l.Equal(r) == (e.Kind == ExprEq))
	case ExprLt, ExprLe, ExprGt, ExprGe:
		return e.evalCompare(ctx)
	case ExprAdd, ExprSub, ExprMul, ExprDiv:
		return e.evalArith(ctx)
	case ExprCall:
		return e.evalCall(ctx)
	}
	return rete.Bool(false)
}

func (e *Expr) evalCompare(ctx *evalCtx) rete.Value {
	l, r := e.Children[0].eval(ctx), e.Children[1].eval(ctx)
	if l.Kind() == rete.KindNull || r.Kind() == rete.KindNull {
		return rete.Bool(false)
	}
	if lf, ok := l.Float64(); ok {
		if rf, ok := r.Float64(); ok {
			l, r = rete.Float(lf), rete.Float(rf)
		}
	}
	switch e.Kind {
	case ExprLt:
		return rete.Bool(l.Less(r))
	case ExprLe:
		return rete.Bool(l.Less(r) || l.Equal(r))
	case ExprGt:
		return rete.Bool(r.Less(l))
	case ExprGe:
		return rete.Bool(r.Less(l) || l.Equal(r))
	}
	return rete.Bool(false)
}

func (e *Expr) evalArith(ctx *evalCtx) rete.Value {
	l, lok := e.Children[0].eval(ctx).Float64()
	r, rok := e.Children[1].eval(ctx).Float64()
	if !lok || !rok {
		return rete.Null
	}
	switch e.Kind {
	case ExprAdd:
		return rete.Float(l + r)
	case ExprSub:
		return rete.Float(l - r)
	case ExprMul:
		return rete.Float(l * r)
	case ExprDiv:
		if r == 0 {
			return rete.Null
		}
		return rete.Float(l / r)
	}
	return rete.Null
}

func (e *Expr) evalCall(ctx *evalCtx) rete.Value {
	if kind, ok := aggKindOf(e.Fn); ok && ctx.groupRows != nil {
		return e.evalInlineAggregate(kind, ctx)
	}
	args := make([]rete.Value, len(e.Children))
	for i, c := range e.Children {
		args[i] = c.eval(ctx)
	}
	switch strings.ToUpper(e.Fn) {
	case "STR":
		if len(args) != 1 {
			return rete.Null
		}
		return rete.Str(args[0].Render(ctx.tbl))
	case "CONTAINS":
		return rete.Bool(len(args) == 2 && strings.Contains(strOf(args[0], ctx.tbl), strOf(args[1], ctx.tbl)))
	case "STRSTARTS":
		return rete.Bool(len(args) == 2 && strings.HasPrefix(strOf(args[0], ctx.tbl), strOf(args[1], ctx.tbl)))
	case "STRENDS":
		return rete.Bool(len(args) == 2 && strings.HasSuffix(strOf(args[0], ctx.tbl), strOf(args[1], ctx.tbl)))
	case "REGEX":
		if len(args) != 2 {
			return rete.Bool(false)
		}
		re, err := regexp.Compile(strOf(args[1], ctx.tbl))
		if err != nil {
			return rete.Bool(false)
		}
		return rete.Bool(re.MatchString(strOf(args[0], ctx.tbl)))
	}
	return rete.Null
}

// evalInlineAggregate computes an aggregate function called directly inside
// a HAVING clause (e.g. "COUNT(?method) >= 4") over the group's raw rows,
// reading its argument variable out of the parsed call rather than a
// SELECT-list ProjItem — it never gets an alias since it's not projected.
func (e *Expr) evalInlineAggregate(kind AggKind, ctx *evalCtx) rete.Value {
	if kind == AggCount && (len(e.Children) == 0 || e.Children[0].Kind != ExprVar) {
		return rete.Int(int64(len(ctx.groupRows)))
	}
	sym, ok := ctx.vars[e.Children[0].Var]
	if !ok {
		return rete.Null
	}
	vals := make([]rete.Value, 0, len(ctx.groupRows))
	for _, r := range ctx.groupRows {
		if v, ok := r[sym]; ok {
			vals = append(vals, v)
		}
	}
	return aggregateOverRows(kind, vals, ctx.tbl, " ")
}

// key renders a stable textual form of e for use in a query production cache
// key, so distinct FILTER expressions never share a compiled production.
func (e *Expr) key() string {
	if e == nil {
		return "_"
	}
	s := ""
	switch e.Kind {
	case ExprVar:
		s = "v:" + e.Var
	case ExprConst:
		s = "c:" + e.Const.key()
	case ExprCall:
		s = "f:" + e.Fn
	default:
		s = "k:" + string(rune('0'+e.Kind))
	}
	for _, c := range e.Children {
		s += "(" + c.key() + ")"
	}
	return s
}

func boolOf(v rete.Value) bool {
	b, ok := v.Bool()
	return ok && b
}

func strOf(v rete.Value, tbl *symbol.Table) string {
	if s, ok := v.String(); ok {
		return s
	}
	return v.Render(tbl)
}
