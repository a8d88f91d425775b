package rete

import (
	"fmt"
	"sync"

	"github.com/asaskevich/EventBus"
	iradix "github.com/hashicorp/go-immutable-radix/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/nimbit-software/rete-reasoner/symbol"
)

// Metrics are the cheap counters the network maintains as it runs, surfaced
// for diagnostics.
type Metrics struct {
	CartesianJoins   int
	JoinActivations  int
	FactsAdded       uint64
	FactsRemoved     uint64
	ProductionsFired uint64
	DivergenceTrips  uint64
}

// NetworkOptions configures a Network, using the same options-struct-plus-
// Default-constructor convention as the rest of this codebase's tunable
// components.
type NetworkOptions struct {
	// DivergenceBudget bounds how many times a single rule production may
	// fire within one externally-triggered propagation cascade before the
	// network gives up on it and records a divergence fact instead of
	// looping forever.
	DivergenceBudget int
	// QueryCacheSize bounds how many compiled anonymous query productions
	// the network keeps warm.
	QueryCacheSize int
}

// DefaultNetworkOptions returns the network's default tuning.
func DefaultNetworkOptions() *NetworkOptions {
	return &NetworkOptions{
		DivergenceBudget: 10000,
		QueryCacheSize:   256,
	}
}

// Network is the whole RETE substrate: symbol table, fact store, alpha
// routing, join-chain construction with node sharing, the production
// registry, and the propagation engine that drives incremental add/remove
// through all of it.
type Network struct {
	Symbols *symbol.Table
	facts   *FactStore
	typeKey symbol.ID
	options *NetworkOptions
	bus     EventBus.Bus

	alphaMu    sync.Mutex
	alphaTree  *iradix.Tree[*AlphaMemory] // signature -> memory, for exact node-sharing lookup
	alphaByTyp map[symbol.ID][]*AlphaMemory

	joinMu    sync.Mutex
	joinCache map[string]*joinNode // composite key -> shared join node

	prodMu sync.RWMutex
	rules  map[string]*ProductionNode
	cache  *lru.Cache[string, *ProductionNode]

	depthMu sync.Mutex
	depth   int

	fireMu        sync.Mutex
	fireCounts    map[string]int
	divergedRules map[string]bool

	metrics Metrics
}

// NewNetwork builds an empty network bound to tbl. opts may be nil to take
// DefaultNetworkOptions.
func NewNetwork(tbl *symbol.Table, opts *NetworkOptions) *Network {
	if opts == nil {
		opts = DefaultNetworkOptions()
	}
	cache, err := lru.New[string, *ProductionNode](opts.QueryCacheSize)
	if err != nil {
		// Only returned for a non-positive size, which DefaultNetworkOptions
		// never produces; a caller-supplied zero is a configuration bug.
		panic("rete: invalid QueryCacheSize: " + err.Error())
	}

	n := &Network{
		Symbols:       tbl,
		facts:         NewFactStore(tbl),
		options:       opts,
		bus:           EventBus.New(),
		alphaTree:     iradix.New[*AlphaMemory](),
		alphaByTyp:    make(map[symbol.ID][]*AlphaMemory),
		joinCache:     make(map[string]*joinNode),
		rules:         make(map[string]*ProductionNode),
		cache:         cache,
		fireCounts:    make(map[string]int),
		divergedRules: make(map[string]bool),
	}
	n.typeKey = n.facts.TypeKey()
	n.facts.OnAdd(n.routeAdd)
	n.facts.OnRemove(n.routeRemove)
	return n
}

// TypeKey returns the interned "type" attribute symbol every fact carries.
func (n *Network) TypeKey() symbol.ID { return n.typeKey }

// Facts returns the network's fact store, for direct pattern queries and
// snapshot save/load.
func (n *Network) Facts() *FactStore { return n.facts }

// OnActivate subscribes to every production's fire/retract events network-wide.
func (n *Network) OnActivate(fn func(production, event string, b Bindings)) {
	_ = n.bus.Subscribe("activate", fn)
}

// AddFact is the network's external fact-assertion entry point. Reentrant
// assertions made by firing rule productions go through the store directly
// and are not tracked here — this boundary is what the divergence guard
// measures against.
func (n *Network) AddFact(attrs map[symbol.ID]Value, asserted bool) (*Fact, bool, error) {
	return n.AddStructuredFact(attrs, nil, nil, asserted)
}

// AddStructuredFact is AddFact plus the structured list payload fields, for
// ingestion paths that need to attach a SWRL atom list, property chain, or
// hasKey property list at assertion time rather than building the *Fact by
// hand.
func (n *Network) AddStructuredFact(attrs map[symbol.ID]Value, strData map[symbol.ID][]string, floatData map[symbol.ID][]float64, asserted bool) (*Fact, bool, error) {
	n.enterExternalCall()
	defer n.exitExternalCall()

	f := NewFact(attrs)
	for k, v := range strData {
		f.WithStringList(k, v)
	}
	for k, v := range floatData {
		f.WithFloatList(k, v)
	}
	stored, created, err := n.facts.Add(f, Provenance{Asserted: asserted})
	if created {
		n.metrics.FactsAdded++
	}
	return stored, created, err
}

// RemoveFact retracts a fact by fingerprint.
func (n *Network) RemoveFact(id Fingerprint) {
	n.facts.Remove(id)
	n.metrics.FactsRemoved++
}

func (n *Network) enterExternalCall() {
	n.depthMu.Lock()
	if n.depth == 0 {
		n.fireMu.Lock()
		n.fireCounts = make(map[string]int)
		n.fireMu.Unlock()
	}
	n.depth++
	n.depthMu.Unlock()
}

func (n *Network) exitExternalCall() {
	n.depthMu.Lock()
	n.depth--
	n.depthMu.Unlock()
}

// noteFire is called by a rule ProductionNode each time it is about to
// assert a consequent. It returns false once the production has exceeded
// its divergence budget for the current externally-triggered cascade, in
// which case the caller must skip the assertion rather than recurse forever.
func (n *Network) noteFire(name string) bool {
	n.fireMu.Lock()
	defer n.fireMu.Unlock()
	n.fireCounts[name]++
	n.metrics.ProductionsFired++
	if n.fireCounts[name] <= n.options.DivergenceBudget {
		return true
	}
	if !n.divergedRules[name] {
		n.divergedRules[name] = true
		n.metrics.DivergenceTrips++
		n.emitDivergence(name)
	}
	return false
}

func (n *Network) emitDivergence(name string) {
	typeVal := Sym(n.Symbols.Intern("divergence"))
	ruleKey := n.Symbols.Intern("rule")
	budgetKey := n.Symbols.Intern("budget")
	f := NewFact(map[symbol.ID]Value{
		n.typeKey:  typeVal,
		ruleKey:    Str(name),
		budgetKey:  Int(int64(n.options.DivergenceBudget)),
	})
	_, _, _ = n.facts.Add(f, Provenance{Asserted: true})
}

func (n *Network) routeAdd(f *Fact) {
	typ, ok := f.Get(n.typeKey)
	if !ok {
		return
	}
	symID, ok := typ.SymbolID()
	if !ok {
		return
	}
	n.alphaMu.Lock()
	memories := append([]*AlphaMemory(nil), n.alphaByTyp[symID]...)
	n.alphaMu.Unlock()
	for _, am := range memories {
		if am.cond.matches(n.typeKey, f) {
			am.insert(f)
		}
	}
}

func (n *Network) routeRemove(f *Fact) {
	typ, ok := f.Get(n.typeKey)
	if !ok {
		return
	}
	symID, ok := typ.SymbolID()
	if !ok {
		return
	}
	n.alphaMu.Lock()
	memories := append([]*AlphaMemory(nil), n.alphaByTyp[symID]...)
	n.alphaMu.Unlock()
	for _, am := range memories {
		am.remove(f)
	}
}

// compileCondition returns the (possibly shared) alpha memory for cond,
// building and seeding it with already-live matching facts on first
// reference node sharing).
func (n *Network) compileCondition(cond *Condition) *AlphaMemory {
	sig := cond.signature(n.Symbols)
	key := []byte(sig)

	n.alphaMu.Lock()
	if am, ok := n.alphaTree.Get(key); ok {
		am.refs++
		n.alphaMu.Unlock()
		return am
	}
	am := newAlphaMemory(sig, cond)
	am.refs = 1
	tree, _, _ := n.alphaTree.Insert(key, am)
	n.alphaTree = tree
	n.alphaByTyp[cond.Type] = append(n.alphaByTyp[cond.Type], am)
	n.alphaMu.Unlock()

	for _, f := range n.facts.All() {
		if cond.matches(n.typeKey, f) {
			am.insert(f)
		}
	}
	return am
}

// joinKey builds the node-sharing key for a join step: the same (parent,
// alpha memory, tests) triple always yields the same joinNode, so two
// productions whose conditions share a prefix share the upstream chain.
func joinKey(parent *joinNode, am *AlphaMemory, tests []JoinTest) string {
	s := fmt.Sprintf("%p|%s", parent, am.signature)
	for _, t := range tests {
		s += fmt.Sprintf("|%d:%d:%d", t.Kind, t.Left, t.Right)
	}
	return s
}

func (n *Network) getOrCreateJoin(parent *joinNode, am *AlphaMemory, tests []JoinTest) *joinNode {
	key := joinKey(parent, am, tests)

	n.joinMu.Lock()
	if jn, ok := n.joinCache[key]; ok {
		n.joinMu.Unlock()
		return jn
	}
	jn := newJoinNode(n, am, tests, nil)
	n.joinCache[key] = jn
	n.joinMu.Unlock()

	if parent == nil {
		jn.dummyTopActivate()
	} else {
		parent.addChild(jn)
	}
	return jn
}

// compileChain builds (or reuses, via node sharing) the left-deep join
// chain for an ordered list of conditions plus the inter-condition tests
// that apply once each new condition joins in. tests[i] holds the tests
// that gate condition i joining onto the chain built from conditions
// 0..i-1; tests[0] is conventionally empty (the first condition has no prior
// bindings to test against, so its join node is the Cartesian "dummy top"
// case).
func (n *Network) compileChain(conditions []*Condition, tests [][]JoinTest) *joinNode {
	var chain *joinNode
	for i, cond := range conditions {
		am := n.compileCondition(cond)
		var t []JoinTest
		if i < len(tests) {
			t = tests[i]
		}
		chain = n.getOrCreateJoin(chain, am, t)
	}
	return chain
}

// OnFactType calls handler for every live and future fact whose "type"
// attribute is typeName, routed through an ordinary (and shareable) alpha
// memory. Catalogue templates whose condition arity depends on a fact's
// structured-data payload (property-chain length, key-property count) use
// this instead of AddRule to react to the whole fact rather than a join's
// bindings — the instantiation trigger itself is ordinary alpha-network
// membership.
func (n *Network) OnFactType(typeName string, handler func(f *Fact)) {
	cond := NewCondition(n.Symbols.Intern(typeName))
	am := n.compileCondition(cond)
	am.addChild(&funcAlphaChild{fn: handler})
}

// AddRule registers a named rule production. conditions must be non-empty;
// tests[i] are the join tests gating conditions[i] onto the chain (tests[0]
// is normally nil: the first condition joins against the empty root token,
// so an equality test there has no left value and never matches).
func (n *Network) AddRule(name string, conditions []*Condition, tests [][]JoinTest, filters []Filter, build ConsequentBuilder) (*ProductionNode, error) {
	if len(conditions) == 0 {
		return nil, newBadFact("rule %q: at least one condition is required", name)
	}
	n.prodMu.Lock()
	if _, exists := n.rules[name]; exists {
		n.prodMu.Unlock()
		return nil, newBadFact("rule %q: already registered", name)
	}
	n.prodMu.Unlock()

	chain := n.compileChain(conditions, tests)
	prod := newRuleProductionNode(n, name, build)
	prod.filters = filters
	chain.addChild(prod)

	n.prodMu.Lock()
	n.rules[name] = prod
	n.prodMu.Unlock()
	return prod, nil
}

// RemoveRule unregisters a rule production by name. The underlying alpha
// and join nodes stay in place (they may be shared by other productions);
// only the terminal production node is disabled so it stops firing and
// retracting.
func (n *Network) RemoveRule(name string) bool {
	n.prodMu.Lock()
	defer n.prodMu.Unlock()
	p, ok := n.rules[name]
	if ok {
		delete(n.rules, name)
		p.mu.Lock()
		p.build = nil
		p.derived = make(map[*Token][]Fingerprint)
		p.mu.Unlock()
	}
	return ok
}

// Rule returns the named production, if registered.
func (n *Network) Rule(name string) (*ProductionNode, bool) {
	n.prodMu.RLock()
	defer n.prodMu.RUnlock()
	p, ok := n.rules[name]
	return p, ok
}

// CompileQuery compiles (or returns, from cache) the anonymous query
// production for the given pattern under cacheKey — normally the query's
// own canonicalised text. A cache hit returns a production already carrying
// every row it has accumulated since it was first built.
func (n *Network) CompileQuery(cacheKey string, conditions []*Condition, tests [][]JoinTest, filters []Filter) *ProductionNode {
	if p, ok := n.cache.Get(cacheKey); ok {
		return p
	}
	chain := n.compileChain(conditions, tests)
	prod := newQueryProductionNode(n, cacheKey)
	prod.filters = filters
	chain.addChild(prod)
	n.cache.Add(cacheKey, prod)
	return prod
}

// Metrics returns a snapshot of the network's counters.
func (n *Network) Metrics() Metrics { return n.metrics }
