package query

// Term is one position in a triple pattern: a variable (name starts with
// "?"), or a constant (an IRI-like name, a quoted string, or a number).
type Term struct {
	Var      string // non-empty for a variable term
	Const    string // non-empty for a bare constant (interned as a symbol)
	IsString bool   // constant is a quoted string literal, not a symbol
	Str      string
	HasNum   bool
	Num      float64
}

func (t Term) isVar() bool { return t.Var != "" }

// Triple is one graph-pattern triple: subject predicate object. A predicate
// of "a" is rdf:type sugar for class membership.
type Triple struct {
	Subject, Predicate, Object Term
}

// Block is one element of a graph pattern's body.
type Block struct {
	Triple   *Triple
	Filter   *Expr
	Optional *GraphPattern
	Minus    *GraphPattern
	Union    []*GraphPattern // two or more alternative branches
	Values   *ValuesClause
}

// ValuesClause restricts a variable to an explicit finite set of terms.
type ValuesClause struct {
	Var   string
	Terms []Term
}

// GraphPattern is an ordered sequence of blocks, the body of a WHERE clause,
// an OPTIONAL, a MINUS, or one branch of a UNION.
type GraphPattern struct {
	Blocks []Block
}

// AggKind names a projection aggregate function.
type AggKind uint8

const (
	AggNone AggKind = iota
	AggCount
	AggSum
	AggAvg
	AggMin
	AggMax
	AggGroupConcat
)

// ProjItem is one projected column: either a bare variable or an aggregate
// expression, optionally aliased.
type ProjItem struct {
	Var       string // bare variable projection
	Agg       AggKind
	AggVar    string // "*" for COUNT(*)
	Distinct  bool
	Separator string
	Alias     string
}

// Query is a fully parsed graph-pattern query.
type Query struct {
	Distinct  bool
	Star      bool // SELECT * : project every variable mentioned
	Projected []ProjItem
	Where     *GraphPattern
	GroupBy   []string
	Having    *Expr
	OrderBy   []OrderTerm
	Limit     int // -1 means unset

	// Describe, when set, makes this a DESCRIBE query: DescribeTerms names
	// the resources (constants, variables, or both) whose surrounding
	// triples should be extracted instead of running a projection. Where is
	// nil unless the query used the "DESCRIBE ?x WHERE { ... }" form.
	Describe      bool
	DescribeTerms []Term
}

// OrderTerm is one ORDER BY key.
type OrderTerm struct {
	Var  string
	Desc bool
}
