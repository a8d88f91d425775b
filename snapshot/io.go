package snapshot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/nimbit-software/rete-reasoner/rete"
	"github.com/nimbit-software/rete-reasoner/symbol"
)

// Save writes net's full state to path, atomically: the document is written
// to a uniquely-named temp file in the same directory, then renamed into
// place, so a crash or a concurrent reader never observes a partial file.
func Save(net *rete.Network, path string) error {
	doc := buildDocument(net)
	data, err := marshal(doc)
	if err != nil {
		return &rete.SnapshotIOError{Path: path, Err: err}
	}

	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%s", filepath.Base(path), uuid.NewString()))

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &rete.SnapshotIOError{Path: path, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return &rete.SnapshotIOError{Path: path, Err: err}
	}
	return nil
}

// Load reads path and rebuilds a network: the symbol table is restored
// verbatim, every fact is restored with its original sequence number and
// provenance, and only then does register run (typically owlrl.Register) to
// rebuild alpha/beta indexes and production state by replaying the
// now-populated fact store through freshly compiled rule conditions.
//
// opts is passed straight through to rete.NewNetwork; pass nil for defaults.
func Load(path string, opts *rete.NetworkOptions, register func(*rete.Network)) (*rete.Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &rete.SnapshotIOError{Path: path, Err: err}
	}

	doc, err := unmarshal(data)
	if err != nil {
		return nil, &rete.SnapshotIOError{Path: path, Err: err}
	}
	if doc.Version != formatVersion {
		return nil, &rete.SnapshotIOError{Path: path, Err: fmt.Errorf("unsupported snapshot version %d", doc.Version)}
	}

	tbl := symbol.Restore(doc.Symbols)
	net := rete.NewNetwork(tbl, opts)

	applyFacts(net, doc)

	if register != nil {
		register(net)
	}
	return net, nil
}
