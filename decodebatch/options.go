package decodebatch

import (
	"github.com/goware/breaker"
	"github.com/goware/logger"

	"github.com/0xsequence/logdecoder/dconfig"
	"github.com/0xsequence/logdecoder/evmsig"
)

// Option configures an Executor, following the teacher's functional-options
// convention (see ethrpc.Option / ethrpc2.Provider).
type Option func(*Executor)

// WithLogger sets the logger used to report per-chunk warnings and errors.
func WithLogger(log logger.Logger) Option {
	return func(e *Executor) {
		e.log = log
	}
}

// WithBreaker installs a breaker that wraps each row's match-and-decode
// work within a chunk. The default executor runs with no breaker (br is
// nil and guardRow calls the row work directly), since per-row timeouts
// are not part of this engine's contract (spec §5 "Per-row timeouts are
// not provided") — a breaker is only useful here as a circuit on repeated
// failures.
func WithBreaker(br breaker.Breaker) Option {
	return func(e *Executor) {
		e.br = br
	}
}

// WithChunkSize overrides the default row count per chunk. Must be
// positive; non-positive values are ignored.
func WithChunkSize(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

// WithMaxRowPayloadBytes overrides the payload-size ceiling used in place
// of a per-row timeout (spec §5 "checked against a configurable maximum").
func WithMaxRowPayloadBytes(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxRowPayloadBytes = n
		}
	}
}

// WithParallelism overrides the number of rows decoded concurrently within
// a chunk. Non-positive values are ignored.
func WithParallelism(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// WithHexCase sets the letter case used when rendering address/bytes hex
// in decoded output columns (spec §4.G "decoder.output_hex_string_encoding").
func WithHexCase(c evmsig.HexCase) Option {
	return func(e *Executor) {
		e.hexCase = c
	}
}

// WithConfig resolves the Config Registry options this package consumes
// from a snapshot (spec §4.G "decoder.output_hex_string_encoding",
// "decoder.max_chunk_size"), the resolved-options path a batch driver uses
// instead of calling WithHexCase/WithChunkSize by hand.
func WithConfig(snap dconfig.Snapshot) Option {
	return func(e *Executor) {
		WithHexCase(evmsig.ParseHexCase(snap.String(dconfig.OptDecoderHexEncoding, "")))(e)
		WithChunkSize(snap.Int(dconfig.OptDecoderMaxChunk, e.chunkSize))(e)
	}
}
