// Package rowdecode orchestrates per-row decoding (component E, spec
// §4.E): splitting a matched event's parameters into indexed/non-indexed
// streams, invoking the type codec on each, and serializing the result
// into the three output columns the batch executor appends.
package rowdecode

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/0xsequence/logdecoder/abiindex"
	"github.com/0xsequence/logdecoder/evmsig"
)

// RawLog is one input row: the required binary columns plus whatever
// pass-through columns the caller's schema carries (spec §3 "RawLog",
// §6 "all other columns are pass-through").
type RawLog struct {
	Address evmsig.Address
	Topic0  *evmsig.Hash
	Topic1  *evmsig.Hash
	Topic2  *evmsig.Hash
	Topic3  *evmsig.Hash
	Data    []byte

	Extra map[string]any
}

// DecodedRow is a RawLog extended with the appended decode-result columns
// (spec §3 "DecodedRow", §6 "Decoded output table schema").
type DecodedRow struct {
	RawLog

	FullSignature  string
	Name           string
	Anonymous      bool
	NumIndexedArgs int

	EventValues string
	EventKeys   string
	EventJSON   string

	// Error is empty on success. A non-empty Error means EventValues,
	// EventKeys and EventJSON are all empty — the null-decoded-columns
	// sentinel of spec §7.
	Error string

	Warnings []string
}

type eventJSONEntry struct {
	Name      string `json:"name"`
	Index     int    `json:"index"`
	ValueType string `json:"value_type"`
	Value     string `json:"value"`
}

// DecodeOptions carries the Config Registry tunables that affect how a
// row's columns are rendered, resolved once per batch from a
// dconfig.Snapshot and passed to every Decode call (spec §4.G
// "decoder.output_hex_string_encoding"). The zero value renders
// lowercase hex, matching the engine's default.
type DecodeOptions struct {
	HexCase evmsig.HexCase
}

// Decode decodes one row against its matched AbiEvent. It never panics;
// any failure is reported through the returned row's Error field rather
// than a Go error, since a per-row decode failure does not abort the
// batch (spec §4.F).
func Decode(log RawLog, event abiindex.AbiEvent, opts DecodeOptions) DecodedRow {
	row := DecodedRow{
		RawLog:         log,
		FullSignature:  event.FullSignature,
		Name:           event.Name,
		Anonymous:      event.Anonymous,
		NumIndexedArgs: event.NumIndexedArgs,
	}

	indexedTopics := collectIndexedTopics(log, event.Anonymous)

	nonIndexedTypes := make([]evmsig.TypeExpr, 0, len(event.Inputs))
	for _, p := range event.Inputs {
		if !p.Indexed {
			nonIndexedTypes = append(nonIndexedTypes, p.Type)
		}
	}

	wantIndexed := 0
	for _, p := range event.Inputs {
		if p.Indexed {
			wantIndexed++
		}
	}
	if len(indexedTopics) < wantIndexed {
		row.Error = fmt.Sprintf("%s: event declares %d indexed params but log has %d indexed topics",
			evmsig.ErrTagPayloadTruncated, wantIndexed, len(indexedTopics))
		return row
	}

	dataValues, warnings, err := evmsig.Decode(log.Data, nonIndexedTypes)
	if err != nil {
		row.Error = err.Error()
		return row
	}
	row.Warnings = append(row.Warnings, warnings...)

	values := make([]evmsig.Value, len(event.Inputs))
	indexedIdx, dataIdx := 0, 0
	for i, p := range event.Inputs {
		if p.Indexed {
			v, w, err := evmsig.DecodeIndexedParam(p.Type, indexedTopics[indexedIdx])
			if err != nil {
				row.Error = err.Error()
				return row
			}
			values[i] = v
			row.Warnings = append(row.Warnings, w...)
			indexedIdx++
		} else {
			values[i] = dataValues[dataIdx]
			dataIdx++
		}
	}

	row.EventValues = serializeEventValues(values, opts.HexCase)
	row.EventKeys = serializeEventKeys(event.Inputs)
	row.EventJSON = serializeEventJSON(event.Inputs, values, opts.HexCase)
	return row
}

// collectIndexedTopics assembles the indexed-value stream in declared
// order (spec §4.E "assemble the indexed-value stream from topics
// 1..num_indexed_args"). Non-anonymous events reserve topic0 for the
// signature hash; anonymous events have no such reservation and may use
// all four topic slots for indexed values (spec §4.B "Anonymous events").
func collectIndexedTopics(log RawLog, anonymous bool) []evmsig.Hash {
	var slots []*evmsig.Hash
	if anonymous {
		slots = []*evmsig.Hash{log.Topic0, log.Topic1, log.Topic2, log.Topic3}
	} else {
		slots = []*evmsig.Hash{log.Topic1, log.Topic2, log.Topic3}
	}

	topics := make([]evmsig.Hash, 0, len(slots))
	for _, t := range slots {
		if t == nil {
			break
		}
		topics = append(topics, *t)
	}
	return topics
}

// serializeEventValues renders "[TypeTag(value),TypeTag(value),...]"
// (spec §4.E), with address/bytes hex cased per hexCase.
func serializeEventValues(values []evmsig.Value, hexCase evmsig.HexCase) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.SerializeCase(hexCase)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// serializeEventKeys renders the declared parameter names as a
// JSON-style string list (spec §4.E).
func serializeEventKeys(inputs []evmsig.Param) string {
	names := make([]string, len(inputs))
	for i, p := range inputs {
		names[i] = p.Name
	}
	b, _ := json.Marshal(names)
	return string(b)
}

// serializeEventJSON renders the self-describing per-parameter record
// array (spec §4.E: "{name, index, value_type, value}"), with
// address/bytes hex cased per hexCase.
func serializeEventJSON(inputs []evmsig.Param, values []evmsig.Value, hexCase evmsig.HexCase) string {
	entries := make([]eventJSONEntry, len(inputs))
	for i, p := range inputs {
		entries[i] = eventJSONEntry{
			Name:      p.Name,
			Index:     i,
			ValueType: p.Type.String(),
			Value:     values[i].SerializeCase(hexCase),
		}
	}
	b, _ := json.Marshal(entries)
	return string(b)
}
