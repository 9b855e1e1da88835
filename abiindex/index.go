package abiindex

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/goware/superr"

	"github.com/0xsequence/logdecoder/dconfig"
	"github.com/0xsequence/logdecoder/evmsig"
)

// Sentinel categories for warnings recorded during ABI parsing, so a
// caller can classify a warning with errors.Is without string-matching
// its text (spec §7 "ABI-parse errors ... Warning per offender").
var (
	ErrUnreadableFile = errors.New("abiindex: file could not be read")
	ErrMalformedJSON  = errors.New("abiindex: malformed ABI JSON")
	ErrInvalidEntry   = errors.New("abiindex: entry skipped")
)

// AbiEvent is one row of the ABI index (spec §3 "AbiEvent"). Uniqueness
// key is (Address, Topic0, FullSignature).
type AbiEvent struct {
	Topic0          evmsig.Hash
	FullSignature   string
	Name            string
	Anonymous       bool
	NumIndexedArgs  int
	StateMutability string
	Inputs          []evmsig.Param
	Address         evmsig.Address
	SourceFile      string
}

// UniqueKeyField names one component of the ABI index's dedup key,
// selectable via the Config Registry's "abi_reader.unique_key" option
// (spec §4.G "dedup key composition").
type UniqueKeyField string

const (
	UniqueKeyAddress       UniqueKeyField = "address"
	UniqueKeyTopic0        UniqueKeyField = "topic0"
	UniqueKeyFullSignature UniqueKeyField = "full_signature"
)

var defaultUniqueKeyFields = []UniqueKeyField{UniqueKeyAddress, UniqueKeyTopic0, UniqueKeyFullSignature}

// ParseUniqueKeyFields parses a comma-separated "abi_reader.unique_key"
// option value (e.g. "address,topic0") into the field list Index uses to
// build its dedup key. Unrecognized tokens are dropped; an empty or
// entirely unrecognized value falls back to the default three-field key.
func ParseUniqueKeyFields(s string) []UniqueKeyField {
	var fields []UniqueKeyField
	for _, tok := range strings.Split(s, ",") {
		switch UniqueKeyField(strings.TrimSpace(tok)) {
		case UniqueKeyAddress:
			fields = append(fields, UniqueKeyAddress)
		case UniqueKeyTopic0:
			fields = append(fields, UniqueKeyTopic0)
		case UniqueKeyFullSignature:
			fields = append(fields, UniqueKeyFullSignature)
		}
	}
	if len(fields) == 0 {
		return defaultUniqueKeyFields
	}
	return fields
}

// Index is the deduplicated, append-only ABI event table (component C).
// Safe for concurrent AddFile/AddDir/Merge calls — the spec requires
// warning accumulation from multiple ABI-reading workers to use a
// concurrent append discipline (spec §5); this Index protects both the
// event slice and the warning slice under one mutex rather than asking
// callers to merge per-worker partials themselves.
type Index struct {
	mu              sync.Mutex
	events          []AbiEvent
	seen            map[string]struct{}
	warnings        []error
	uniqueKeyFields []UniqueKeyField
	hexCase         evmsig.HexCase
}

// IndexOption configures an Index at construction time.
type IndexOption func(*Index)

// WithUniqueKeyFields overrides the dedup key composition (spec §4.G
// "abi_reader.unique_key"). The default is (address, topic0,
// full_signature).
func WithUniqueKeyFields(fields []UniqueKeyField) IndexOption {
	return func(idx *Index) {
		if len(fields) > 0 {
			idx.uniqueKeyFields = fields
		}
	}
}

// WithHexCase sets the letter case Formatted uses to render address and
// topic0 hex strings (spec §4.G "abi_reader.output_hex_string_encoding").
func WithHexCase(c evmsig.HexCase) IndexOption {
	return func(idx *Index) {
		idx.hexCase = c
	}
}

func NewIndex(opts ...IndexOption) *Index {
	idx := &Index{
		seen:            map[string]struct{}{},
		uniqueKeyFields: defaultUniqueKeyFields,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// NewIndexFromSnapshot builds an Index configured from a Config Registry
// snapshot's "abi_reader.unique_key" and
// "abi_reader.output_hex_string_encoding" options (spec §4.G), the
// resolved-options path a batch driver uses instead of setting IndexOptions
// by hand.
func NewIndexFromSnapshot(snap dconfig.Snapshot) *Index {
	opts := []IndexOption{
		WithHexCase(evmsig.ParseHexCase(snap.String(dconfig.OptAbiReaderHexEncode, ""))),
	}
	if uk, ok := snap.Get(dconfig.OptAbiReaderUniqueKey); ok {
		opts = append(opts, WithUniqueKeyFields(ParseUniqueKeyFields(uk)))
	}
	return NewIndex(opts...)
}

// addrFromFilename is the address embedded in a filename per spec §4.C:
// "Each file's base name (minus extension) may carry the 20-byte address
// in 0x-prefixed hex; when absent, the event is recorded with a sentinel
// zero address."
var addrFromFilename = regexp.MustCompile(`(?i)0x[0-9a-f]{40}`)

func addressFromBaseName(path string) evmsig.Address {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if m := addrFromFilename.FindString(base); m != "" {
		return evmsig.HexToAddress(m)
	}
	return evmsig.Address{}
}

// AddDocument parses one ABI JSON document and adds its event and function entries,
// recording the given address/source label on each. Parse and field
// failures are recorded as warnings and skip only the offending
// file/entry, per the §4.C failure policy.
func (idx *Index) AddDocument(data []byte, address evmsig.Address, sourceFile string) {
	entries, err := parseDocument(data)
	if err != nil {
		idx.addWarning(superr.New(ErrMalformedJSON, fmt.Errorf("%s: %w", sourceFile, err)))
		return
	}

	for i, e := range entries {
		if e.Type != "event" && e.Type != "function" {
			continue
		}
		if e.Name == "" {
			idx.addWarning(superr.New(ErrInvalidEntry, fmt.Errorf("%s: entry %d has no name", sourceFile, i)))
			continue
		}

		params, err := buildParams(e.Inputs)
		if err != nil {
			idx.addWarning(superr.New(ErrInvalidEntry, fmt.Errorf("%s: entry %d (%s): %w", sourceFile, i, e.Name, err)))
			continue
		}

		numIndexed := 0
		for _, p := range params {
			if p.Indexed {
				numIndexed++
			}
		}

		sig := evmsig.CanonicalSignature(e.Name, params)
		var topic0 evmsig.Hash
		if e.Type == "event" && !e.Anonymous {
			topic0 = evmsig.Topic0(sig)
		}

		ev := AbiEvent{
			Topic0:          topic0,
			FullSignature:   sig,
			Name:            e.Name,
			Anonymous:       e.Anonymous,
			NumIndexedArgs:  numIndexed,
			StateMutability: e.StateMutability,
			Inputs:          params,
			Address:         address,
			SourceFile:      sourceFile,
		}
		idx.add(ev)
	}
}

// AddFile reads and parses a single ABI JSON file.
func (idx *Index) AddFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		idx.addWarning(superr.New(ErrUnreadableFile, fmt.Errorf("%s: %w", path, err)))
		return nil
	}
	idx.AddDocument(data, addressFromBaseName(path), path)
	return nil
}

// AddDir walks a directory of ABI JSON files (spec §4.C "a directory of
// JSON documents"), adding every *.json file found.
func (idx *Index) AddDir(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			idx.addWarning(superr.New(ErrUnreadableFile, fmt.Errorf("%s: %w", path, err)))
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".json") {
			return nil
		}
		return idx.AddFile(path)
	})
}

// keyFor builds the dedup key string from whichever fields
// idx.uniqueKeyFields names (spec §4.G "abi_reader.unique_key"). The key
// always uses lowercase hex internally regardless of the configured
// display HexCase — it is never shown to a caller, only compared.
func (idx *Index) keyFor(ev AbiEvent) string {
	parts := make([]string, 0, len(idx.uniqueKeyFields))
	for _, f := range idx.uniqueKeyFields {
		switch f {
		case UniqueKeyAddress:
			parts = append(parts, ev.Address.String())
		case UniqueKeyTopic0:
			parts = append(parts, ev.Topic0.String())
		case UniqueKeyFullSignature:
			parts = append(parts, ev.FullSignature)
		}
	}
	return strings.Join(parts, "\x1f")
}

func (idx *Index) add(ev AbiEvent) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	key := idx.keyFor(ev)
	if _, ok := idx.seen[key]; ok {
		return
	}
	idx.seen[key] = struct{}{}
	idx.events = append(idx.events, ev)
}

func (idx *Index) addWarning(err error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.warnings = append(idx.warnings, err)
}

// Events returns a snapshot of the indexed events. The returned slice is
// a fresh copy, but each event's Inputs slice is shared with the Index
// and must not be mutated.
func (idx *Index) Events() []AbiEvent {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	out := make([]AbiEvent, len(idx.events))
	copy(out, idx.events)
	return out
}

// Warnings returns every warning recorded so far, in the order in which
// offending files/entries were encountered (not guaranteed stable across
// concurrent AddFile callers beyond "every warning is present"). Each
// warning is classifiable with errors.Is against ErrUnreadableFile,
// ErrMalformedJSON, or ErrInvalidEntry.
func (idx *Index) Warnings() []error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	out := make([]error, len(idx.warnings))
	copy(out, idx.warnings)
	return out
}

// Merge unions another index's events into idx using idx's own
// configured dedup key, keeping the first occurrence — spec §4.C "When
// merging into an existing persistent table, the union is computed with
// the same deduplication key."
func (idx *Index) Merge(other *Index) {
	for _, ev := range other.Events() {
		idx.add(ev)
	}
	for _, w := range other.Warnings() {
		idx.addWarning(w)
	}
}

// Sorted returns events ordered by (address, topic0, full_signature), a
// stable presentation order for persisting the index table; it has no
// bearing on matching, which is keyed, not ordered.
func (idx *Index) Sorted() []AbiEvent {
	events := idx.Events()
	sort.Slice(events, func(i, j int) bool {
		if events[i].Address != events[j].Address {
			return events[i].Address.String() < events[j].Address.String()
		}
		if events[i].Topic0 != events[j].Topic0 {
			return events[i].Topic0.String() < events[j].Topic0.String()
		}
		return events[i].FullSignature < events[j].FullSignature
	})
	return events
}

// FormattedEvent is an ABI index entry rendered for the external abi_df
// table (spec §4.G "main.abi_df_path"), with address/topic0 as hex
// strings in the Index's configured case.
type FormattedEvent struct {
	Address       string
	Topic0        string
	FullSignature string
	Name          string
	Anonymous     bool
}

// Formatted returns every event in Sorted order, rendered with address
// and topic0 hex cased per the Index's configured HexCase (spec §4.G
// "abi_reader.output_hex_string_encoding").
func (idx *Index) Formatted() []FormattedEvent {
	events := idx.Sorted()
	out := make([]FormattedEvent, len(events))
	for i, ev := range events {
		out[i] = FormattedEvent{
			Address:       ev.Address.StringCase(idx.hexCase),
			Topic0:        ev.Topic0.StringCase(idx.hexCase),
			FullSignature: ev.FullSignature,
			Name:          ev.Name,
			Anonymous:     ev.Anonymous,
		}
	}
	return out
}
