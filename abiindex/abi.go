// Package abiindex parses Solidity ABI JSON documents into a deduplicated
// table of events (component C, spec §4.C), the input the matcher and row
// decoder join raw logs against.
package abiindex

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/0xsequence/logdecoder/evmsig"
)

// rawEntry mirrors one element of a Solidity ABI JSON array.
type rawEntry struct {
	Type            string     `json:"type"`
	Name            string     `json:"name"`
	Anonymous       bool       `json:"anonymous"`
	StateMutability string     `json:"stateMutability"`
	Inputs          []rawParam `json:"inputs"`
}

// rawParam mirrors one element of an ABI entry's "inputs" array.
type rawParam struct {
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Indexed    bool       `json:"indexed"`
	Components []rawParam `json:"components"`
}

// rawDocument is the object shape of an ABI document, carrying the array
// under an "abi" key; parseDocument handles the bare-array shape itself.
type rawDocument struct {
	ABI []rawEntry `json:"abi"`
}

// parseDocument parses one ABI JSON document (spec §4.C "a single
// document, each either an ABI array or an object with an abi field").
func parseDocument(data []byte) ([]rawEntry, error) {
	trimmed := strings.TrimLeft(string(data), " \t\r\n")
	if strings.HasPrefix(trimmed, "[") {
		var entries []rawEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("abiindex: invalid ABI array: %w", err)
		}
		return entries, nil
	}

	var doc rawDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("abiindex: invalid ABI document: %w", err)
	}
	return doc.ABI, nil
}

// buildTypeExpr converts a raw ABI parameter's "type"/"components" fields
// into a TypeExpr, handling bare elementary types, tuple/tuple[]/tuple[N]
// forms, and arrays of any of the above.
func buildTypeExpr(p rawParam) (evmsig.TypeExpr, error) {
	if !strings.HasPrefix(p.Type, "tuple") {
		t, err := evmsig.ParseTypeString(p.Type)
		if err != nil {
			return evmsig.TypeExpr{}, fmt.Errorf("abiindex: param %q: %w", p.Name, err)
		}
		return t, nil
	}

	members := make([]evmsig.TypeExpr, 0, len(p.Components))
	for _, c := range p.Components {
		mt, err := buildTypeExpr(c)
		if err != nil {
			return evmsig.TypeExpr{}, err
		}
		members = append(members, mt)
	}
	base := evmsig.TypeExpr{Kind: evmsig.KindTuple, Tuple: members}

	suffix := strings.TrimPrefix(p.Type, "tuple")
	return applySuffixToTuple(base, suffix)
}

// applySuffixToTuple wraps a parsed tuple type with any trailing "[]"/"[N]"
// array suffixes taken verbatim from the ABI JSON "type" string, e.g.
// "tuple[2][]".
func applySuffixToTuple(base evmsig.TypeExpr, suffix string) (evmsig.TypeExpr, error) {
	if suffix == "" {
		return base, nil
	}
	// Reuse the standalone type parser's suffix handling by parsing a
	// throwaway elementary type with the same suffix, then substituting
	// our tuple as the base element at the bottom of the chain.
	probe, err := evmsig.ParseTypeString("bool" + suffix)
	if err != nil {
		return evmsig.TypeExpr{}, fmt.Errorf("abiindex: invalid tuple array suffix %q: %w", suffix, err)
	}
	return substituteBase(probe, base), nil
}

// substituteBase walks an array-of-array chain rooted at a placeholder
// elementary type and replaces that root with replacement.
func substituteBase(t evmsig.TypeExpr, replacement evmsig.TypeExpr) evmsig.TypeExpr {
	if t.Kind != evmsig.KindArray && t.Kind != evmsig.KindFixedArray {
		return replacement
	}
	elem := substituteBase(*t.Elem, replacement)
	t.Elem = &elem
	return t
}

func buildParams(raw []rawParam) ([]evmsig.Param, error) {
	params := make([]evmsig.Param, 0, len(raw))
	for _, p := range raw {
		t, err := buildTypeExpr(p)
		if err != nil {
			return nil, err
		}
		params = append(params, evmsig.Param{Name: p.Name, Type: t, Indexed: p.Indexed})
	}
	return params, nil
}
