package main

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/nimbit-software/rete-reasoner/rete"
	"github.com/nimbit-software/rete-reasoner/symbol"
)

// ingestError is one (location, message) pair from a failed record. Parse
// and validation errors are treated as external: the record is skipped and
// nothing is recorded for it.
type ingestError struct {
	Location string
	Message  string
}

func (e ingestError) String() string { return fmt.Sprintf("%s: %s", e.Location, e.Message) }

// decodeRecord turns one parsed gjson record into a fact's attribute map.
// Every bare JSON string is interned as a symbol reference (record types
// and individual/class/property names are the overwhelming case); a
// datatype string literal is written as {"lit":"..."} to route it through
// Str instead, since a generic JSON record otherwise has no way to
// distinguish a symbol reference from a literal string value.
func decodeRecord(tbl *symbol.Table, rec gjson.Result) (map[symbol.ID]rete.Value, map[symbol.ID][]string, map[symbol.ID][]float64, error) {
	if !rec.IsObject() {
		return nil, nil, nil, fmt.Errorf("record is not a JSON object")
	}
	attrs := make(map[symbol.ID]rete.Value)
	strLists := make(map[symbol.ID][]string)
	floatLists := make(map[symbol.ID][]float64)

	var walkErr error
	rec.ForEach(func(key, val gjson.Result) bool {
		k := tbl.Intern(key.String())
		switch val.Type {
		case gjson.String:
			attrs[k] = rete.Sym(tbl.Intern(val.String()))
		case gjson.Number:
			if val.Num == float64(int64(val.Num)) {
				attrs[k] = rete.Int(int64(val.Num))
			} else {
				attrs[k] = rete.Float(val.Num)
			}
		case gjson.True, gjson.False:
			attrs[k] = rete.Bool(val.Bool())
		case gjson.JSON:
			if val.IsArray() {
				items := val.Array()
				if len(items) == 0 {
					strLists[k] = nil
					return true
				}
				if items[0].Type == gjson.Number {
					vals := make([]float64, len(items))
					for i, it := range items {
						vals[i] = it.Num
					}
					floatLists[k] = vals
				} else {
					vals := make([]string, len(items))
					for i, it := range items {
						vals[i] = it.String()
					}
					strLists[k] = vals
				}
				return true
			}
			if lit := val.Get("lit"); lit.Exists() {
				attrs[k] = rete.Str(lit.String())
				return true
			}
			walkErr = fmt.Errorf("attribute %q: unsupported object value", key.String())
			return false
		default:
			attrs[k] = rete.Null
		}
		return true
	})
	if walkErr != nil {
		return nil, nil, nil, walkErr
	}
	return attrs, strLists, floatLists, nil
}

// ingestBatch feeds every record in data (a JSON array of record objects)
// into net, one fact per record; records asserted in sequence within one
// call share a single reported progress pass. progress, if non-nil, is
// invoked at each record boundary.
func ingestBatch(net *rete.Network, data []byte, progress func(processed, total int, message string)) ([]ingestError, int) {
	top := gjson.ParseBytes(data)
	records := top.Array()
	total := len(records)
	var errs []ingestError
	inserted := 0

	for i, rec := range records {
		loc := fmt.Sprintf("record[%d]", i)
		attrs, strLists, floatLists, err := decodeRecord(net.Symbols, rec)
		if err != nil {
			errs = append(errs, ingestError{Location: loc, Message: err.Error()})
			if progress != nil {
				progress(i+1, total, "skipped: "+err.Error())
			}
			continue
		}
		_, created, err := net.AddStructuredFact(attrs, strLists, floatLists, true)
		if err != nil {
			errs = append(errs, ingestError{Location: loc, Message: err.Error()})
			if progress != nil {
				progress(i+1, total, "rejected: "+err.Error())
			}
			continue
		}
		if created {
			inserted++
		}
		if progress != nil {
			progress(i+1, total, loc)
		}
	}
	return errs, inserted
}
