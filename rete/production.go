package rete

import (
	"sync"

	"github.com/asaskevich/EventBus"
)

// ConsequentBuilder constructs the zero or more facts a rule production
// asserts from a fully-joined token's bindings. Returning no facts is valid
// — some productions exist only for their side effects via the activation
// bus.
type ConsequentBuilder func(b Bindings) []*Fact

// ProductionKind distinguishes a named rule production from an anonymous or
// cached query production.
type ProductionKind uint8

const (
	RuleProduction ProductionKind = iota
	QueryProduction
)

// ProductionNode is the terminal node of a production's join chain: the
// node every left-deep chain of joinNodes ultimately feeds. It is where the
// propagation engine's incremental add/remove meets either side effect:
// asserting inferred facts (rule productions) or accumulating bindings
// (query productions).
type ProductionNode struct {
	Name    string
	Kind    ProductionKind
	network *Network
	bus     EventBus.Bus

	build   ConsequentBuilder // nil for query productions
	filters []Filter          // built-ins checked once a token's bindings are complete

	mu       sync.Mutex
	derived  map[*Token][]Fingerprint // rule: token -> consequent fingerprints it produced
	bindings []Bindings               // query: accumulated result rows, insertion order
	byToken  map[*Token]int           // query: token -> index in bindings, for retraction
}

func newRuleProductionNode(net *Network, name string, build ConsequentBuilder) *ProductionNode {
	return &ProductionNode{
		Name:    name,
		Kind:    RuleProduction,
		network: net,
		bus:     EventBus.New(),
		build:   build,
		derived: make(map[*Token][]Fingerprint),
	}
}

func newQueryProductionNode(net *Network, name string) *ProductionNode {
	return &ProductionNode{
		Name:    name,
		Kind:    QueryProduction,
		network: net,
		bus:     EventBus.New(),
		byToken: make(map[*Token]int),
	}
}

// OnActivate subscribes fn to be called whenever this production fires. fn
// receives the production's name and the triggering token's bindings.
func (p *ProductionNode) OnActivate(fn func(name string, b Bindings)) {
	_ = p.bus.Subscribe("activate", fn)
}

// leftActivate implements betaChild: the production's join chain completed
// a new token.
func (p *ProductionNode) leftActivate(t *Token) {
	for _, flt := range p.filters {
		if !flt(t.Bindings) {
			return
		}
	}
	switch p.Kind {
	case RuleProduction:
		p.fireRule(t)
	case QueryProduction:
		p.fireQuery(t)
	}
	go p.bus.Publish("activate", p.Name, t.Bindings)
	go p.network.bus.Publish("activate", p.Name, "activate", t.Bindings)
}

// leftDeactivate implements betaChild: a token this production fired on has
// been retracted upstream. Rule productions drop their provenance tag from
// every fact they derived from it; query productions drop the corresponding
// result row.
func (p *ProductionNode) leftDeactivate(t *Token) {
	switch p.Kind {
	case RuleProduction:
		p.mu.Lock()
		fps := p.derived[t]
		delete(p.derived, t)
		p.mu.Unlock()
		for _, fp := range fps {
			p.network.facts.DropRuleProvenance(fp, p.Name)
		}
	case QueryProduction:
		p.mu.Lock()
		idx, ok := p.byToken[t]
		if ok {
			delete(p.byToken, t)
			p.bindings[idx] = nil
		}
		p.mu.Unlock()
	}
	go p.bus.Publish("retract", p.Name, t.Bindings)
	go p.network.bus.Publish("activate", p.Name, "retract", t.Bindings)
}

func (p *ProductionNode) fireRule(t *Token) {
	if p.build == nil {
		return
	}
	if !p.network.noteFire(p.Name) {
		return
	}
	facts := p.build(t.Bindings)
	if len(facts) == 0 {
		return
	}
	fps := make([]Fingerprint, 0, len(facts))
	for _, f := range facts {
		stored, _, err := p.network.facts.Add(f, Provenance{Rules: map[string]struct{}{p.Name: {}}})
		if err != nil {
			Debug("production " + p.Name + ": " + err.Error())
			continue
		}
		fps = append(fps, stored.ID())
	}
	p.mu.Lock()
	p.derived[t] = fps
	p.mu.Unlock()
}

func (p *ProductionNode) fireQuery(t *Token) {
	p.mu.Lock()
	idx := len(p.bindings)
	p.bindings = append(p.bindings, t.Bindings)
	p.byToken[t] = idx
	p.mu.Unlock()
}

// Results returns the accumulated, still-live binding rows of a query
// production, in activation order — the query package folds this into a
// ResultSet.
func (p *ProductionNode) Results() []Bindings {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Bindings, 0, len(p.bindings))
	for _, b := range p.bindings {
		if b != nil {
			out = append(out, b)
		}
	}
	return out
}
