package rete

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/nimbit-software/rete-reasoner/symbol"
)

// TypeKey is the well-known attribute symbol every fact must carry, holding
// its fact-type name as a symbol reference. Networks intern it once and
// share the id.
var typeKeyName = "type"

// indexKey identifies one (attribute, value) index the store maintains
// lazily.
type indexKey struct {
	attr symbol.ID
	val  Value
}

// attrValueIndex is one lazily-built, incrementally-extended index from an
// (attribute,value) pair to the set of matching fact sequence numbers. It
// carries two invalidation bits:
//   - dirty: the index must be rebuilt from scratch before it can be trusted.
//   - more:  facts appended (by sequence number) since the last full build,
//     represented as a compact Roaring bitmap so a lookup can fold them in
//     without rescanning the whole store.
type attrValueIndex struct {
	mu      sync.Mutex
	facts   map[uint64]*Fact // seq -> fact, fully rebuilt contents
	dirty   bool
	more    *roaring.Bitmap
}

func newAttrValueIndex() *attrValueIndex {
	return &attrValueIndex{facts: make(map[uint64]*Fact), more: roaring.New()}
}

// FactStore is the typed multi-attribute record store: content-hash
// deduplication, provenance merging, monotonic sequence numbers, and
// lazily-built/invalidated attribute-value indexes.
type FactStore struct {
	symbols *symbol.Table
	typeKey symbol.ID

	mu       sync.RWMutex
	byID     map[Fingerprint]*Fact
	bySeq    map[uint64]*Fact
	nextSeq  uint64

	idxMu   sync.Mutex
	indexes map[indexKey]*attrValueIndex

	// provenanceMeta holds per-fingerprint source-location metadata
	// supplied by ingestion.
	provMu       sync.RWMutex
	provenanceMeta map[Fingerprint]string

	onAdd    func(f *Fact)
	onRemove func(f *Fact)
}

// NewFactStore creates an empty store bound to tbl (the symbol table used to
// intern "type" and other attribute keys).
func NewFactStore(tbl *symbol.Table) *FactStore {
	return &FactStore{
		symbols:        tbl,
		typeKey:        tbl.Intern(typeKeyName),
		byID:           make(map[Fingerprint]*Fact),
		bySeq:          make(map[uint64]*Fact),
		indexes:        make(map[indexKey]*attrValueIndex),
		provenanceMeta: make(map[Fingerprint]string),
	}
}

// OnAdd/OnRemove register the network's routing hooks; FactStore doesn't
// import rete's network types to avoid a cycle, so these are set by Network
// at construction time.
func (s *FactStore) OnAdd(fn func(f *Fact))    { s.onAdd = fn }
func (s *FactStore) OnRemove(fn func(f *Fact)) { s.onRemove = fn }

// TypeKey returns the interned "type" attribute symbol.
func (s *FactStore) TypeKey() symbol.ID { return s.typeKey }

// Add inserts fact, deduplicating by content fingerprint.
// Returns the stored fact (which may not be the same pointer passed in, if
// an identical fact already existed), whether a new row was created, and a
// *BadFactError if the fact is malformed.
func (s *FactStore) Add(f *Fact, prov Provenance) (*Fact, bool, error) {
	if _, ok := f.Get(s.typeKey); !ok {
		return nil, false, newBadFact("fact missing required %q attribute", typeKeyName)
	}

	fp := f.ID()

	s.mu.Lock()
	if existing, ok := s.byID[fp]; ok {
		existing.provenance.merge(prov)
		s.mu.Unlock()
		return existing, false, nil
	}
	s.nextSeq++
	f.seq = s.nextSeq
	f.provenance = prov
	s.byID[fp] = f
	s.bySeq[f.seq] = f
	s.mu.Unlock()

	s.indexFact(f)
	if s.onAdd != nil {
		s.onAdd(f)
	}
	return f, true, nil
}

// Remove tombstones the fact identified by id. Removing an unknown id is a
// no-op. The fact's sequence number is never reused.
func (s *FactStore) Remove(id Fingerprint) {
	s.mu.Lock()
	f, ok := s.byID[id]
	if !ok || f.tombstoned {
		s.mu.Unlock()
		return
	}
	f.tombstoned = true
	delete(s.byID, id)
	s.mu.Unlock()

	s.markIndexesDirtyFor(f)
	if s.onRemove != nil {
		s.onRemove(f)
	}
}

// Get returns the fact for a fingerprint, if live.
func (s *FactStore) Get(id Fingerprint) (*Fact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.byID[id]
	return f, ok
}

// Len returns the number of live (non-tombstoned) facts.
func (s *FactStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// All returns every live fact, in insertion order. Used by snapshot save and
// by full index rebuilds.
func (s *FactStore) All() []*Fact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Fact, 0, len(s.byID))
	for seq := uint64(1); seq <= s.nextSeq; seq++ {
		if f, ok := s.bySeq[seq]; ok && !f.tombstoned {
			out = append(out, f)
		}
	}
	return out
}

// SetProvenanceMeta stores ingestion-supplied source-location metadata for a
// fact fingerprint.
func (s *FactStore) SetProvenanceMeta(id Fingerprint, loc string) {
	s.provMu.Lock()
	defer s.provMu.Unlock()
	s.provenanceMeta[id] = loc
}

// LookupProvenance returns ingestion-supplied source-location metadata for a
// fact fingerprint, if any.
func (s *FactStore) LookupProvenance(id Fingerprint) (string, bool) {
	s.provMu.RLock()
	defer s.provMu.RUnlock()
	loc, ok := s.provenanceMeta[id]
	return loc, ok
}

// indexFact records f's sequence number in the "more" delta bitmap of every
// already-built, non-dirty (attribute,value) index for its attributes; a
// dirty index picks f up on its next full rebuild instead. Indexes are
// created lazily: indexFact never
// constructs a new attrValueIndex — LookupByPattern does that on first
// reference.
func (s *FactStore) indexFact(f *Fact) {
	s.idxMu.Lock()
	defer s.idxMu.Unlock()
	for attr, val := range f.Attrs {
		key := indexKey{attr: attr, val: val}
		idx, ok := s.indexes[key]
		if !ok {
			continue
		}
		idx.mu.Lock()
		if idx.dirty {
			idx.mu.Unlock()
			continue
		}
		idx.more.Add(uint32(f.seq))
		idx.mu.Unlock()
	}
}

// markIndexesDirtyFor flips the dirty bit on every index that might contain
// f, forcing a rebuild on next lookup rather than trying to do a precise
// incremental delete: dirty means "needs full rebuild".
func (s *FactStore) markIndexesDirtyFor(f *Fact) {
	s.idxMu.Lock()
	defer s.idxMu.Unlock()
	for attr, val := range f.Attrs {
		key := indexKey{attr: attr, val: val}
		if idx, ok := s.indexes[key]; ok {
			idx.mu.Lock()
			idx.dirty = true
			idx.mu.Unlock()
		}
	}
}

// LookupByPattern returns every live fact matching every (attribute,value)
// constraint in constants. It is O(k) in the number of matching facts once
// the relevant indexes have been built once; on a cold index it does one
// full scan.
func (s *FactStore) LookupByPattern(constants map[symbol.ID]Value) []*Fact {
	if len(constants) == 0 {
		return s.All()
	}

	// Drive iteration from one constraint's index (whichever the map
	// iteration yields first), then filter candidates against every
	// constraint.
	var driveAttr symbol.ID
	var driveVal Value
	first := true
	for a, v := range constants {
		if first {
			driveAttr, driveVal = a, v
			first = false
		}
	}

	idx := s.indexFor(driveAttr, driveVal)
	candidates := idx.snapshot(s, driveAttr, driveVal)

	out := make([]*Fact, 0, len(candidates))
	for _, f := range candidates {
		if f.tombstoned {
			continue
		}
		if matchesAll(f, constants) {
			out = append(out, f)
		}
	}
	return out
}

func matchesAll(f *Fact, constants map[symbol.ID]Value) bool {
	for a, v := range constants {
		got, ok := f.Get(a)
		if !ok || !got.Equal(v) {
			return false
		}
	}
	return true
}

// indexFor returns the (lazily built, lazily rebuilt) index for (attr,val),
// constructing it on first reference.
func (s *FactStore) indexFor(attr symbol.ID, val Value) *attrValueIndex {
	s.idxMu.Lock()
	key := indexKey{attr: attr, val: val}
	idx, ok := s.indexes[key]
	if !ok {
		idx = newAttrValueIndex()
		idx.dirty = true
		s.indexes[key] = idx
	}
	s.idxMu.Unlock()
	return idx
}

// snapshot returns the index's current fact list, rebuilding fully from the
// live facts carrying (attr,val) if dirty or folding in the "more" delta
// otherwise.
func (idx *attrValueIndex) snapshot(s *FactStore, attr symbol.ID, val Value) []*Fact {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.dirty {
		idx.facts = make(map[uint64]*Fact)
		for _, f := range s.All() {
			if got, ok := f.Get(attr); ok && got.Equal(val) {
				idx.facts[f.seq] = f
			}
		}
		idx.dirty = false
		idx.more = roaring.New()
	} else if !idx.more.IsEmpty() {
		it := idx.more.Iterator()
		for it.HasNext() {
			seq := uint64(it.Next())
			if f, ok := s.bySeq[seq]; ok && !f.tombstoned {
				idx.facts[f.seq] = f
			}
		}
		idx.more = roaring.New()
	}

	out := make([]*Fact, 0, len(idx.facts))
	for _, f := range idx.facts {
		if !f.tombstoned {
			out = append(out, f)
		}
	}
	return out
}

// NextSeq exposes the current high-water sequence number, used by snapshot
// save/load to restore FactStore.nextSeq exactly.
func (s *FactStore) NextSeq() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextSeq
}

// RestoreSeq sets the store's next-sequence counter directly, used only by
// snapshot load before any facts are re-inserted.
func (s *FactStore) RestoreSeq(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq > s.nextSeq {
		s.nextSeq = seq
	}
}

// DropRuleProvenance removes rule from the set of rules that derived the
// fact identified by id. If the fact's provenance becomes completely empty
// (not asserted and no remaining inferring rule) it is removed from the
// store entirely, cascading further retraction through the network. Returns
// true if the fact was removed as a result.
func (s *FactStore) DropRuleProvenance(id Fingerprint, rule string) bool {
	s.mu.Lock()
	f, ok := s.byID[id]
	if !ok || f.tombstoned {
		s.mu.Unlock()
		return false
	}
	delete(f.provenance.Rules, rule)
	empty := !f.provenance.Asserted && len(f.provenance.Rules) == 0
	s.mu.Unlock()

	if empty {
		s.Remove(id)
		return true
	}
	return false
}

// RestoreFact re-inserts a fact exactly as it was at snapshot time,
// preserving its sequence number and provenance instead of assigning a fresh
// one. It does not route the fact through the network — the caller replays
// routing afterward (or relies on index rebuild) so that productions don't
// re-fire during load.
func (s *FactStore) RestoreFact(f *Fact, seq uint64, prov Provenance) {
	f.seq = seq
	f.provenance = prov
	fp := f.ID()

	s.mu.Lock()
	s.byID[fp] = f
	s.bySeq[seq] = f
	if seq > s.nextSeq {
		s.nextSeq = seq
	}
	s.mu.Unlock()

	s.indexFact(f)
}
