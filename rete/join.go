package rete

import (
	"strings"
	"sync"
)

// betaChild is notified when a join node's beta memory gains or loses a
// token — either the next join node in a production's left-deep chain, or
// the production node itself.
type betaChild interface {
	leftActivate(t *Token)
	leftDeactivate(t *Token)
}

// joinNode implements one step of a production's left-deep join chain. Its
// left parent is either the dummy top (for the first condition) or the
// previous join node's beta memory; its right parent is an alpha memory.
type joinNode struct {
	network *Network

	leftIsRoot bool
	right      *AlphaMemory

	equalTests []JoinTest // drive the indexed join
	otherTests []JoinTest // inequality tests, checked post-index-match
	filters    []Filter   // built-ins, checked once bindings are complete

	mu       sync.Mutex
	leftMem  map[string][]*Token // index key ("*" when cartesian) -> left tokens received
	rootTok  []*Token            // the single root token, once activated
	byKey    map[string][]rightEntry
	children []betaChild

	cartesian bool // true if equalTests is empty (Cartesian join)

	// derivedFromLeft/derivedFromRight form a reverse index from token to
	// supporting facts, keyed by token and fact pointer: every combined
	// token this node emitted, indexed by each of its two parents, so
	// retracting either parent cascades the retraction downstream without
	// rescanning the network.
	derivedFromLeft  map[*Token][]*Token
	derivedFromRight map[*Fact][]*Token
}

type rightEntry struct {
	fact     *Fact
	bindings Bindings
}

func newJoinNode(net *Network, right *AlphaMemory, tests []JoinTest, filters []Filter) *joinNode {
	jn := &joinNode{
		network:          net,
		right:            right,
		leftMem:          make(map[string][]*Token),
		byKey:            make(map[string][]rightEntry),
		filters:          filters,
		derivedFromLeft:  make(map[*Token][]*Token),
		derivedFromRight: make(map[*Fact][]*Token),
	}
	for _, t := range tests {
		if t.Kind == JoinEqual {
			jn.equalTests = append(jn.equalTests, t)
		} else {
			jn.otherTests = append(jn.otherTests, t)
		}
	}
	jn.cartesian = len(jn.equalTests) == 0
	if jn.cartesian {
		net.metrics.CartesianJoins++
	}
	right.addChild(jn)
	return jn
}

func (jn *joinNode) addChild(c betaChild) {
	jn.mu.Lock()
	jn.children = append(jn.children, c)
	var replay []*Token
	if jn.leftIsRoot {
		for _, rt := range jn.rootTok {
			replay = append(replay, jn.derivedFromLeft[rt]...)
		}
	} else {
		for _, toks := range jn.leftMem {
			for _, lt := range toks {
				replay = append(replay, jn.derivedFromLeft[lt]...)
			}
		}
	}
	jn.mu.Unlock()
	for _, t := range replay {
		c.leftActivate(t)
	}
}

func leftKeyFor(tests []JoinTest, b Bindings) (string, bool) {
	if len(tests) == 0 {
		return "", false
	}
	var sb strings.Builder
	for _, t := range tests {
		v, ok := b[t.Left]
		if !ok {
			return "", false
		}
		sb.WriteString(v.Render(nil))
		sb.WriteByte(0)
	}
	return sb.String(), true
}

func rightKeyFor(tests []JoinTest, b Bindings) (string, bool) {
	if len(tests) == 0 {
		return "", false
	}
	var sb strings.Builder
	for _, t := range tests {
		v, ok := b[t.Right]
		if !ok {
			return "", false
		}
		sb.WriteString(v.Render(nil))
		sb.WriteByte(0)
	}
	return sb.String(), true
}

// leftActivate is called when the left parent (root or previous join's beta
// memory) gains a token. It looks up matching right entries and, for each,
// emits a combined token through the full test/filter gate.
func (jn *joinNode) leftActivate(t *Token) {
	jn.mu.Lock()
	if jn.cartesian {
		var rights []rightEntry
		for _, es := range jn.byKey {
			rights = append(rights, es...)
		}
		jn.leftMem["*"] = append(jn.leftMem["*"], t)
		jn.mu.Unlock()
		jn.combineAll(t, rights)
		return
	}

	key, ok := leftKeyFor(jn.equalTests, t.Bindings)
	if !ok {
		jn.mu.Unlock()
		return
	}
	jn.leftMem[key] = append(jn.leftMem[key], t)
	rights := append([]rightEntry(nil), jn.byKey[key]...)
	jn.mu.Unlock()

	jn.combineAll(t, rights)
}

func (jn *joinNode) leftDeactivate(t *Token) {
	jn.mu.Lock()
	for k, toks := range jn.leftMem {
		for i, tok := range toks {
			if tok == t {
				jn.leftMem[k] = append(toks[:i], toks[i+1:]...)
				break
			}
		}
	}
	derived := jn.derivedFromLeft[t]
	delete(jn.derivedFromLeft, t)
	children := append([]betaChild(nil), jn.children...)
	jn.mu.Unlock()

	for _, nt := range derived {
		jn.forgetDerived(nt)
		for _, c := range children {
			c.leftDeactivate(nt)
		}
	}
}

// rightActivate is called when the right alpha memory gains a fact.
func (jn *joinNode) rightActivate(f *Fact, bindings Bindings) {
	jn.mu.Lock()
	if jn.cartesian {
		jn.byKey["*"] = append(jn.byKey["*"], rightEntry{fact: f, bindings: bindings})
		var lefts []*Token
		for _, toks := range jn.leftMem {
			lefts = append(lefts, toks...)
		}
		jn.mu.Unlock()
		for _, lt := range lefts {
			jn.tryCombine(lt, f, bindings)
		}
		return
	}

	key, ok := rightKeyFor(jn.equalTests, bindings)
	if !ok {
		jn.mu.Unlock()
		return
	}
	jn.byKey[key] = append(jn.byKey[key], rightEntry{fact: f, bindings: bindings})
	lefts := append([]*Token(nil), jn.leftMem[key]...)
	jn.mu.Unlock()

	for _, lt := range lefts {
		jn.tryCombine(lt, f, bindings)
	}
}

func (jn *joinNode) rightDeactivate(f *Fact) {
	jn.mu.Lock()
	for k, es := range jn.byKey {
		for i, e := range es {
			if e.fact == f {
				jn.byKey[k] = append(es[:i], es[i+1:]...)
				break
			}
		}
	}
	derived := jn.derivedFromRight[f]
	delete(jn.derivedFromRight, f)
	children := append([]betaChild(nil), jn.children...)
	jn.mu.Unlock()

	for _, nt := range derived {
		jn.forgetDerived(nt)
		for _, c := range children {
			c.leftDeactivate(nt)
		}
	}
}

// forgetDerived removes nt from whichever opposite-side derivation list it
// is also registered under, so a token retracted from one side doesn't get
// retracted (and its children re-notified) a second time from the other.
func (jn *joinNode) forgetDerived(nt *Token) {
	jn.mu.Lock()
	defer jn.mu.Unlock()
	for parent, list := range jn.derivedFromLeft {
		for i, x := range list {
			if x == nt {
				jn.derivedFromLeft[parent] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
	for fact, list := range jn.derivedFromRight {
		for i, x := range list {
			if x == nt {
				jn.derivedFromRight[fact] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
}

func (jn *joinNode) combineAll(t *Token, rights []rightEntry) {
	for _, r := range rights {
		jn.tryCombine(t, r.fact, r.bindings)
	}
}

func (jn *joinNode) tryCombine(t *Token, f *Fact, bindings Bindings) {
	for _, test := range jn.otherTests {
		if !test.eval(t.Bindings, bindings) {
			return
		}
	}
	if !t.Bindings.compatible(bindings) {
		return
	}
	nt := t.extend(f, bindings)
	for _, flt := range jn.filters {
		if !flt(nt.Bindings) {
			return
		}
	}
	jn.network.metrics.JoinActivations++
	jn.mu.Lock()
	jn.derivedFromLeft[t] = append(jn.derivedFromLeft[t], nt)
	jn.derivedFromRight[f] = append(jn.derivedFromRight[f], nt)
	children := append([]betaChild(nil), jn.children...)
	jn.mu.Unlock()
	for _, c := range children {
		c.leftActivate(nt)
	}
}

// dummyTopActivate seeds the first join node in a chain with the single
// root token, standing in for the chain's "dummy top" left parent.
func (jn *joinNode) dummyTopActivate() {
	jn.leftIsRoot = true
	rt := rootToken()
	jn.mu.Lock()
	jn.rootTok = append(jn.rootTok, rt)
	jn.mu.Unlock()
	jn.leftActivate(rt)
}
