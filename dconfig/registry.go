// Package dconfig holds the process-wide, read-mostly Config Registry
// (component G, spec §4.G): a mapping from namespaced option name to value,
// populated at startup and published as an immutable Snapshot consumed by
// each batch run.
package dconfig

import (
	"fmt"
	"sync"
)

// Recognized option names (spec §4.G). Registry.Set accepts any string key
// so callers can carry forward unrecognized options, but only these are
// interpreted by the rest of the engine.
const (
	OptMainRawLogsFolder  = "main.raw_logs_folder"
	OptMainAbiDfPath      = "main.abi_df_path"
	OptMainAbiFolderPath  = "main.abi_folder_path"
	OptDecoderAlgorithm   = "decoder.algorithm"
	OptDecoderHexEncoding = "decoder.output_hex_string_encoding"
	OptDecoderMaxChunk    = "decoder.max_chunk_size"
	OptAbiReaderUniqueKey = "abi_reader.unique_key"
	OptAbiReaderHexEncode = "abi_reader.output_hex_string_encoding"

	// OptDecoderSchemaAliasPrefix namespaces column-rename overrides, e.g.
	// "decoder.schema.alias_event_values" (spec §4.G
	// "decoder.schema.alias_*").
	OptDecoderSchemaAliasPrefix = "decoder.schema.alias_"
)

const (
	HexEncodingLowercase = "lowercase"
	HexEncodingUppercase = "uppercase"
)

// Registry is a mutable, concurrency-safe option store used during
// configuration setup. It is not the object batches read from directly —
// call Snapshot to publish an immutable view (spec §4.G "published to an
// immutable snapshot used by each batch invocation to avoid mid-batch
// changes").
type Registry struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewRegistry returns an empty Registry seeded with the engine's defaults.
func NewRegistry() *Registry {
	r := &Registry{values: map[string]string{}}
	for k, v := range defaults {
		r.values[k] = v
	}
	return r
}

var defaults = map[string]string{
	OptDecoderAlgorithm:   "topic0_address",
	OptDecoderHexEncoding: HexEncodingLowercase,
	OptDecoderMaxChunk:    "2000",
	OptAbiReaderHexEncode: HexEncodingLowercase,
}

// Set assigns a single option. Safe for concurrent use, but callers should
// finish all Set calls before the batch that reads a Snapshot begins —
// there is no synchronization between Set and a previously taken Snapshot.
func (r *Registry) Set(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
}

// Get returns the current value for key and whether it was set.
func (r *Registry) Get(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	return v, ok
}

// Snapshot is a plain copy of the registry's values at the moment it was
// taken. It carries no mutex and no reference back to the Registry, so a
// batch holding one is immune to any Set call that happens concurrently
// (spec §4.G, §5 "Global config").
type Snapshot struct {
	values map[string]string
}

// Snapshot publishes the registry's current state as an immutable
// Snapshot.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return Snapshot{values: out}
}

// Get returns the raw string value for an option name.
func (s Snapshot) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// String returns the option's value or def when unset.
func (s Snapshot) String(key, def string) string {
	if v, ok := s.values[key]; ok {
		return v
	}
	return def
}

// Int parses the option's value as a decimal integer, returning def on
// error or when unset.
func (s Snapshot) Int(key string, def int) int {
	v, ok := s.values[key]
	if !ok {
		return def
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return def
	}
	return n
}

// SchemaAlias returns the overridden column name for a decoded-column
// name, or the name itself when no alias is configured (spec §4.G
// "decoder.schema.alias_*": override added column names").
func (s Snapshot) SchemaAlias(columnName string) string {
	return s.String(OptDecoderSchemaAliasPrefix+columnName, columnName)
}
