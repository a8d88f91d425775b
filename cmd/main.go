// Command rete is an external collaborator of the reasoning core: parse an
// ontology's JSON fact batch, load it, optionally save/load a snapshot, run
// one graph-pattern query, and report an exit code reflecting caller errors
// or (in strict mode) uncaught inconsistency facts.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/asaskevich/EventBus"

	"github.com/nimbit-software/rete-reasoner/owlrl"
	"github.com/nimbit-software/rete-reasoner/query"
	"github.com/nimbit-software/rete-reasoner/rete"
	"github.com/nimbit-software/rete-reasoner/snapshot"
	"github.com/nimbit-software/rete-reasoner/symbol"
)

const progressEvent = "rete:progress"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("rete", flag.ContinueOnError)
	input := fs.String("input", "", "path to a JSON fact-batch file to ingest")
	loadPath := fs.String("load", "", "path to a snapshot to load instead of starting empty")
	savePath := fs.String("save", "", "path to save a snapshot to after ingestion")
	queryText := fs.String("query", "", "a graph-pattern query to run and print")
	queryTimeout := fs.Int("query-timeout-ms", 0, "query deadline in milliseconds (0 = no timeout)")
	strict := fs.Bool("strict", false, "exit non-zero if any inconsistency facts are present")
	progress := fs.Bool("progress", false, "print ingestion progress to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	bus := EventBus.New()
	if *progress {
		_ = bus.Subscribe(progressEvent, func(processed, total int, message string) {
			fmt.Fprintf(os.Stderr, "progress: %d/%d %s\n", processed, total, message)
		})
	}

	var net *rete.Network
	if *loadPath != "" {
		loaded, err := snapshot.Load(*loadPath, nil, func(n *rete.Network) { owlrl.Register(n) })
		if err != nil {
			fmt.Fprintln(os.Stderr, "load:", err)
			return 1
		}
		net = loaded
	} else {
		net = rete.NewNetwork(symbol.New(), nil)
		owlrl.Register(net)
	}

	if *input != "" {
		data, err := os.ReadFile(*input)
		if err != nil {
			fmt.Fprintln(os.Stderr, "input:", err)
			return 1
		}
		errs, inserted := ingestBatch(net, data, func(processed, total int, message string) {
			bus.Publish(progressEvent, processed, total, message)
		})
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, "parse error:", e.String())
		}
		fmt.Fprintf(os.Stderr, "ingested %d new facts (%d records rejected)\n", inserted, len(errs))
	}

	if *savePath != "" {
		if err := snapshot.Save(net, *savePath); err != nil {
			fmt.Fprintln(os.Stderr, "save:", err)
			return 1
		}
	}

	if *queryText != "" {
		ex := query.NewExecutor(net)
		res, err := ex.Run(*queryText, *queryTimeout)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			return 1
		}
		printResult(res, net.Symbols)
	}

	if *strict && hasInconsistency(net) {
		return 3
	}
	return 0
}

func printResult(res *query.ResultSet, tbl *symbol.Table) {
	rows := res.ToPylist(tbl)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(rows)
}

// hasInconsistency reports whether net holds any contradiction the reasoner
// detected. Hard contradictions (disjoint-class clashes, functional-property
// clashes, and the like) are surfaced as "violation" facts, not as a
// separate "inconsistency" fact type — vocab.violation is the only code path
// that ever emits one — so strict mode has to scan for both type tags.
func hasInconsistency(net *rete.Network) bool {
	typeKey := net.TypeKey()
	inconsistency := net.Symbols.Intern("inconsistency")
	violation := net.Symbols.Intern("violation")
	for _, f := range net.Facts().All() {
		v, ok := f.Get(typeKey)
		if !ok {
			continue
		}
		sym, ok := v.SymbolID()
		if !ok {
			continue
		}
		if sym == inconsistency || sym == violation {
			return true
		}
	}
	return false
}
