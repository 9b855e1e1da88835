// Package logmatch joins raw logs to ABI index entries on topic0 and
// address (component D, spec §4.D).
package logmatch

import (
	"sort"

	"github.com/0xsequence/logdecoder/abiindex"
	"github.com/0xsequence/logdecoder/evmsig"
)

// Algorithm selects one of the two join strategies recognized by
// dconfig's "decoder.algorithm" option.
type Algorithm string

const (
	AlgorithmTopic0Address Algorithm = "topic0_address"
	AlgorithmTopic0        Algorithm = "topic0"
)

type addressTopic struct {
	address evmsig.Address
	topic0  evmsig.Hash
}

// Index is the matcher's precomputed view over an abiindex.Index: an
// (address, topic0) lookup table plus, for the topic0-only algorithm, a
// pre-resolved representative signature per topic0. Built once per batch
// and read concurrently by every worker (spec §5 "the ABI index is built
// once per batch and shared read-only across workers").
type Index struct {
	byAddressTopic map[addressTopic]abiindex.AbiEvent
	byTopic0       map[evmsig.Hash][]abiindex.AbiEvent
	representative map[evmsig.Hash]abiindex.AbiEvent
}

// BuildIndex precomputes both join tables from an ABI index's events.
// Anonymous events (zero topic0) are excluded — spec §4.D "Anonymous
// events are not matched by this join".
func BuildIndex(events []abiindex.AbiEvent) *Index {
	idx := &Index{
		byAddressTopic: map[addressTopic]abiindex.AbiEvent{},
		byTopic0:       map[evmsig.Hash][]abiindex.AbiEvent{},
		representative: map[evmsig.Hash]abiindex.AbiEvent{},
	}

	for _, ev := range events {
		if ev.Anonymous || ev.Topic0.IsZero() {
			continue
		}
		key := addressTopic{address: ev.Address, topic0: ev.Topic0}
		if _, ok := idx.byAddressTopic[key]; !ok {
			idx.byAddressTopic[key] = ev
		}
		idx.byTopic0[ev.Topic0] = append(idx.byTopic0[ev.Topic0], ev)
	}

	// Pick one representative per topic0: highest occurrence count across
	// the index, ties broken lexicographically by full_signature
	// (spec §4.D, scenario 6 in §8).
	for topic0, candidates := range idx.byTopic0 {
		counts := map[string]int{}
		for _, c := range candidates {
			counts[c.FullSignature]++
		}

		sigs := make([]string, 0, len(counts))
		for sig := range counts {
			sigs = append(sigs, sig)
		}
		sort.Slice(sigs, func(i, j int) bool {
			if counts[sigs[i]] != counts[sigs[j]] {
				return counts[sigs[i]] > counts[sigs[j]]
			}
			return sigs[i] < sigs[j]
		})
		winner := sigs[0]

		for _, c := range candidates {
			if c.FullSignature == winner {
				idx.representative[topic0] = c
				break
			}
		}
	}

	return idx
}

// Match resolves a raw log's (address, topic0) against the index using
// the selected algorithm. ok is false when the log should be dropped
// (spec §7 "Match-miss ... Drop, not error").
func (idx *Index) Match(alg Algorithm, address evmsig.Address, topic0 evmsig.Hash) (abiindex.AbiEvent, bool) {
	if ev, ok := idx.byAddressTopic[addressTopic{address: address, topic0: topic0}]; ok {
		return ev, true
	}
	if alg == AlgorithmTopic0Address {
		return abiindex.AbiEvent{}, false
	}

	ev, ok := idx.representative[topic0]
	return ev, ok
}

// MatchAnonymous resolves an anonymous event by an externally supplied
// canonical full_signature, since anonymous logs carry no topic0 to join
// on (spec §4.B "Anonymous events", §4.D).
func MatchAnonymous(events []abiindex.AbiEvent, fullSignature string) (abiindex.AbiEvent, bool) {
	for _, ev := range events {
		if ev.Anonymous && ev.FullSignature == fullSignature {
			return ev, true
		}
	}
	return abiindex.AbiEvent{}, false
}
