package query

import (
	"strings"

	"github.com/nimbit-software/rete-reasoner/rete"
)

// parser is a small recursive-descent parser for the graph-pattern query
// language. It is deliberately forgiving rather than a strict grammar
// checker: the core triple-pattern/FILTER/OPTIONAL/UNION/MINUS/VALUES
// shapes are all recognised, but surrounding keywords (SELECT, WHERE,
// GROUP BY, ...) are matched case-insensitively and a missing WHERE keyword
// before the opening brace is tolerated.
type parser struct {
	toks []token
	pos  int
}

// Parse compiles query text into a *Query AST, returning a
// *rete.QuerySyntaxError on malformed input, surfaced synchronously to the
// query caller with no side effect.
func Parse(text string) (*Query, error) {
	lx := newLexer(text)
	var toks []token
	for {
		t := lx.next()
		toks = append(toks, t)
		if t.kind == tokEOF {
			break
		}
	}
	p := &parser{toks: toks}
	q, err := p.parseQuery()
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) isKeyword(kw string) bool {
	t := p.cur()
	return t.kind == tokIdent && strings.EqualFold(t.text, kw)
}

func (p *parser) eatKeyword(kw string) bool {
	if p.isKeyword(kw) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expectPunct(s string) error {
	if p.cur().kind == tokPunct && p.cur().text == s {
		p.advance()
		return nil
	}
	return &rete.QuerySyntaxError{Message: "expected " + s, Pos: p.cur().pos}
}

func (p *parser) parseQuery() (*Query, error) {
	if p.isKeyword("DESCRIBE") {
		return p.parseDescribe()
	}
	q := &Query{Limit: -1}
	if !p.eatKeyword("SELECT") {
		return nil, &rete.QuerySyntaxError{Message: "expected SELECT or DESCRIBE", Pos: p.cur().pos}
	}
	if p.eatKeyword("DISTINCT") {
		q.Distinct = true
	}
	if p.cur().kind == tokPunct && p.cur().text == "*" {
		p.advance()
		q.Star = true
	} else {
		for {
			item, err := p.parseProjItem()
			if err != nil {
				return nil, err
			}
			q.Projected = append(q.Projected, item)
			if p.cur().kind == tokPunct && p.cur().text == "," {
				p.advance()
				continue
			}
			// Projection items may also simply be juxtaposed with no comma
			// (e.g. "SELECT ?d COUNT(?s) AS ?n"); keep going as long as the
			// next token starts another item rather than WHERE.
			if p.cur().kind == tokVar {
				continue
			}
			if p.cur().kind == tokIdent && !p.isKeyword("WHERE") {
				if _, ok := aggKindOf(p.cur().text); ok {
					continue
				}
			}
			break
		}
	}

	p.eatKeyword("WHERE")
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	gp, err := p.parseGraphPattern()
	if err != nil {
		return nil, err
	}
	q.Where = gp

	if p.eatKeyword("GROUP") {
		p.eatKeyword("BY")
		for {
			if p.cur().kind != tokVar {
				break
			}
			q.GroupBy = append(q.GroupBy, p.advance().text)
			if p.cur().kind == tokPunct && p.cur().text == "," {
				p.advance()
				continue
			}
			break
		}
	}
	if p.eatKeyword("HAVING") {
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		q.Having = e
	}
	if p.eatKeyword("ORDER") {
		p.eatKeyword("BY")
		for {
			desc := false
			if p.eatKeyword("DESC") {
				desc = true
			} else {
				p.eatKeyword("ASC")
			}
			if p.cur().kind != tokVar {
				break
			}
			q.OrderBy = append(q.OrderBy, OrderTerm{Var: p.advance().text, Desc: desc})
			if p.cur().kind == tokPunct && p.cur().text == "," {
				p.advance()
				continue
			}
			break
		}
	}
	if p.eatKeyword("LIMIT") {
		if p.cur().kind != tokNumber {
			return nil, &rete.QuerySyntaxError{Message: "expected number after LIMIT", Pos: p.cur().pos}
		}
		n, _ := parseNumber(p.advance().text)
		q.Limit = int(n)
	}
	return q, nil
}

// parseDescribe handles "DESCRIBE id+" and "DESCRIBE id+ WHERE { ... }":
// one or more resource terms (bare constants or variables), juxtaposed with
// no separator, optionally followed by a graph pattern that binds the
// variable terms.
func (p *parser) parseDescribe() (*Query, error) {
	p.advance() // DESCRIBE
	q := &Query{Describe: true, Limit: -1}
	for {
		t := p.cur()
		if t.kind == tokVar {
			q.DescribeTerms = append(q.DescribeTerms, Term{Var: t.text})
			p.advance()
			continue
		}
		if t.kind == tokIdent && !strings.EqualFold(t.text, "WHERE") {
			q.DescribeTerms = append(q.DescribeTerms, Term{Const: t.text})
			p.advance()
			continue
		}
		break
	}
	if len(q.DescribeTerms) == 0 {
		return nil, &rete.QuerySyntaxError{Message: "expected a resource after DESCRIBE", Pos: p.cur().pos}
	}
	if p.eatKeyword("WHERE") {
		if err := p.expectPunct("{"); err != nil {
			return nil, err
		}
		gp, err := p.parseGraphPattern()
		if err != nil {
			return nil, err
		}
		q.Where = gp
	}
	return q, nil
}

func (p *parser) parseProjItem() (ProjItem, error) {
	if p.cur().kind == tokVar {
		v := p.advance().text
		item := ProjItem{Var: v}
		if p.eatKeyword("AS") && p.cur().kind == tokVar {
			item.Alias = p.advance().text
		}
		return item, nil
	}
	if p.cur().kind == tokIdent {
		kind, ok := aggKindOf(p.cur().text)
		if !ok {
			return ProjItem{}, &rete.QuerySyntaxError{Message: "unknown projection " + p.cur().text, Pos: p.cur().pos}
		}
		p.advance()
		if err := p.expectPunct("("); err != nil {
			return ProjItem{}, err
		}
		item := ProjItem{Agg: kind}
		if p.eatKeyword("DISTINCT") {
			item.Distinct = true
		}
		if p.cur().kind == tokPunct && p.cur().text == "*" {
			p.advance()
			item.AggVar = "*"
		} else if p.cur().kind == tokVar {
			item.AggVar = p.advance().text
		}
		if p.eatKeyword("SEPARATOR") {
			if p.cur().kind == tokString {
				item.Separator = p.advance().text
			}
		}
		if err := p.expectPunct(")"); err != nil {
			return ProjItem{}, err
		}
		if p.eatKeyword("AS") && p.cur().kind == tokVar {
			item.Alias = p.advance().text
		}
		if item.Alias == "" {
			item.Alias = strings.ToLower(aggName(kind)) + "_" + item.AggVar
		}
		return item, nil
	}
	return ProjItem{}, &rete.QuerySyntaxError{Message: "expected projection item", Pos: p.cur().pos}
}

func aggName(k AggKind) string {
	switch k {
	case AggCount:
		return "count"
	case AggSum:
		return "sum"
	case AggAvg:
		return "avg"
	case AggMin:
		return "min"
	case AggMax:
		return "max"
	case AggGroupConcat:
		return "group_concat"
	}
	return "agg"
}

func (p *parser) parseGraphPattern() (*GraphPattern, error) {
	gp := &GraphPattern{}
	for {
		if p.cur().kind == tokPunct && p.cur().text == "}" {
			p.advance()
			return gp, nil
		}
		if p.cur().kind == tokEOF {
			return nil, &rete.QuerySyntaxError{Message: "unclosed graph pattern", Pos: p.cur().pos}
		}
		b, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		gp.Blocks = append(gp.Blocks, b)
	}
}

func (p *parser) parseBlock() (Block, error) {
	switch {
	case p.eatKeyword("FILTER"):
		if err := p.expectPunct("("); err != nil {
			return Block{}, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return Block{}, err
		}
		if err := p.expectPunct(")"); err != nil {
			return Block{}, err
		}
		return Block{Filter: e}, nil

	case p.eatKeyword("OPTIONAL"):
		if err := p.expectPunct("{"); err != nil {
			return Block{}, err
		}
		gp, err := p.parseGraphPattern()
		if err != nil {
			return Block{}, err
		}
		return Block{Optional: gp}, nil

	case p.eatKeyword("MINUS"):
		if err := p.expectPunct("{"); err != nil {
			return Block{}, err
		}
		gp, err := p.parseGraphPattern()
		if err != nil {
			return Block{}, err
		}
		return Block{Minus: gp}, nil

	case p.eatKeyword("VALUES"):
		if p.cur().kind != tokVar {
			return Block{}, &rete.QuerySyntaxError{Message: "expected variable after VALUES", Pos: p.cur().pos}
		}
		v := p.advance().text
		if err := p.expectPunct("{"); err != nil {
			return Block{}, err
		}
		vc := &ValuesClause{Var: v}
		for !(p.cur().kind == tokPunct && p.cur().text == "}") {
			vc.Terms = append(vc.Terms, p.parseTerm())
		}
		p.advance()
		return Block{Values: vc}, nil

	case p.cur().kind == tokPunct && p.cur().text == "{":
		p.advance()
		first, err := p.parseGraphPattern()
		if err != nil {
			return Block{}, err
		}
		if p.eatKeyword("UNION") {
			branches := []*GraphPattern{first}
			for {
				if err := p.expectPunct("{"); err != nil {
					return Block{}, err
				}
				gp, err := p.parseGraphPattern()
				if err != nil {
					return Block{}, err
				}
				branches = append(branches, gp)
				if p.eatKeyword("UNION") {
					continue
				}
				break
			}
			return Block{Union: branches}, nil
		}
		// A bare nested group with no UNION: flatten it as a single synthetic
		// block carrying its own sub-pattern via a trivial one-branch union,
		// so it still composes through the same evaluator path.
		return Block{Union: []*GraphPattern{first}}, nil

	default:
		tr, err := p.parseTriple()
		if err != nil {
			return Block{}, err
		}
		if p.cur().kind == tokPunct && p.cur().text == "." {
			p.advance()
		}
		return Block{Triple: tr}, nil
	}
}

func (p *parser) parseTriple() (*Triple, error) {
	s := p.parseTerm()
	pred := p.parseTerm()
	o := p.parseTerm()
	return &Triple{Subject: s, Predicate: pred, Object: o}, nil
}

// parseExpr parses a FILTER expression with precedence OR > AND > NOT >
// comparison > additive > multiplicative > primary.
func (p *parser) parseExpr() (*Expr, error) { return p.parseOr() }

func (p *parser) parseOr() (*Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokPunct && p.cur().text == "||" {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Expr{Kind: ExprOr, Children: []*Expr{left, right}}
	}
	return left, nil
}

func (p *parser) parseAnd() (*Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokPunct && p.cur().text == "&&" {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &Expr{Kind: ExprAnd, Children: []*Expr{left, right}}
	}
	return left, nil
}

func (p *parser) parseNot() (*Expr, error) {
	if p.cur().kind == tokPunct && p.cur().text == "!" {
		p.advance()
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprNot, Children: []*Expr{inner}}, nil
	}
	return p.parseCompare()
}

func (p *parser) parseCompare() (*Expr, error) {
	left, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	if p.cur().kind != tokPunct {
		return left, nil
	}
	var kind ExprKind
	switch p.cur().text {
	case "=":
		kind = ExprEq
	case "!=":
		kind = ExprNeq
	case "<":
		kind = ExprLt
	case "<=":
		kind = ExprLe
	case ">":
		kind = ExprGt
	case ">=":
		kind = ExprGe
	default:
		return left, nil
	}
	p.advance()
	right, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	return &Expr{Kind: kind, Children: []*Expr{left, right}}, nil
}

func (p *parser) parseAdd() (*Expr, error) {
	left, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokPunct && (p.cur().text == "+" || p.cur().text == "-") {
		kind := ExprAdd
		if p.cur().text == "-" {
			kind = ExprSub
		}
		p.advance()
		right, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		left = &Expr{Kind: kind, Children: []*Expr{left, right}}
	}
	return left, nil
}

func (p *parser) parseMul() (*Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokPunct && (p.cur().text == "*" || p.cur().text == "/") {
		kind := ExprMul
		if p.cur().text == "/" {
			kind = ExprDiv
		}
		p.advance()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = &Expr{Kind: kind, Children: []*Expr{left, right}}
	}
	return left, nil
}

func (p *parser) parsePrimary() (*Expr, error) {
	t := p.cur()
	switch {
	case t.kind == tokPunct && t.text == "(":
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return e, nil

	case t.kind == tokVar:
		p.advance()
		return &Expr{Kind: ExprVar, Var: t.text}, nil

	case t.kind == tokString:
		p.advance()
		return &Expr{Kind: ExprConst, Const: Term{IsString: true, Str: t.text}}, nil

	case t.kind == tokNumber:
		p.advance()
		n, _ := parseNumber(t.text)
		return &Expr{Kind: ExprConst, Const: Term{HasNum: true, Num: n}}, nil

	case t.kind == tokIdent:
		p.advance()
		if p.cur().kind == tokPunct && p.cur().text == "(" {
			p.advance()
			var args []*Expr
			for !(p.cur().kind == tokPunct && p.cur().text == ")") {
				a, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if p.cur().kind == tokPunct && p.cur().text == "," {
					p.advance()
					continue
				}
				break
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return &Expr{Kind: ExprCall, Fn: t.text, Children: args}, nil
		}
		return &Expr{Kind: ExprConst, Const: Term{Const: t.text}}, nil

	default:
		return nil, &rete.QuerySyntaxError{Message: "unexpected token in expression", Pos: t.pos}
	}
}

func (p *parser) parseTerm() Term {
	t := p.cur()
	switch t.kind {
	case tokVar:
		p.advance()
		return Term{Var: t.text}
	case tokString:
		p.advance()
		return Term{IsString: true, Str: t.text}
	case tokNumber:
		p.advance()
		n, _ := parseNumber(t.text)
		return Term{HasNum: true, Num: n}
	default:
		p.advance()
		return Term{Const: t.text}
	}
}
