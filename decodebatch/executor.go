// Package decodebatch applies the row decoder across a columnar batch of
// raw logs in chunks, with per-row error isolation and chunk-boundary
// cancellation (component F, spec §4.F).
package decodebatch

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/goware/breaker"
	"github.com/goware/logger"
	"golang.org/x/sync/errgroup"

	"github.com/0xsequence/logdecoder/abiindex"
	"github.com/0xsequence/logdecoder/evmsig"
	"github.com/0xsequence/logdecoder/logmatch"
	"github.com/0xsequence/logdecoder/rowdecode"
)

// defaultChunkSize is the default row count per chunk, chosen to keep
// per-chunk working memory bounded independent of total input size
// (spec §4.F).
const defaultChunkSize = 2000

// defaultMaxRowPayloadBytes is the default ceiling on a single row's data
// payload, checked in place of a per-row timeout (spec §5).
const defaultMaxRowPayloadBytes = 1 << 20

// defaultParallelism bounds how many rows within one chunk are decoded
// concurrently.
const defaultParallelism = 8

// Stats accumulates per-Run counters, reset at the start of every Run call.
// RunID correlates the counters and every log line a Run emits with one
// invocation, the way a request ID ties together a scattered log trail.
type Stats struct {
	RunID        string
	RowsIn       int
	RowsDecoded  int
	RowsDropped  int
	RowsTooLarge int
	RowsErrored  int
	Warnings     int
	ChunksRun    int
	Cancelled    bool
}

// Executor applies the matcher and row decoder to a stream of raw log
// chunks. Modeled on the teacher's ethrpc2.Provider / ethreceipts.Listener
// shape: a logger, a breaker, and a functional-options constructor.
type Executor struct {
	log logger.Logger
	br  breaker.Breaker

	chunkSize          int
	maxRowPayloadBytes int
	parallelism        int
	hexCase            evmsig.HexCase

	matchIndex *logmatch.Index
	algorithm  logmatch.Algorithm
}

// NewExecutor builds an Executor that matches rows against matchIndex
// using the given join algorithm. The ABI index backing matchIndex must
// already be built and is treated as an immutable, read-only snapshot for
// the lifetime of every Run call (spec §5 "shared read-only across
// workers").
func NewExecutor(matchIndex *logmatch.Index, algorithm logmatch.Algorithm, options ...Option) *Executor {
	e := &Executor{
		chunkSize:          defaultChunkSize,
		maxRowPayloadBytes: defaultMaxRowPayloadBytes,
		parallelism:        defaultParallelism,
		matchIndex:         matchIndex,
		algorithm:          algorithm,
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

func (e *Executor) logf(level string, format string, args ...any) {
	if e.log == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	switch level {
	case "warn":
		e.log.Warn(msg)
	case "error":
		e.log.Error(msg)
	default:
		e.log.Info(msg)
	}
}

// Run decodes every row in the given partition, chunking the work and
// processing chunks sequentially while parallelizing rows within a chunk
// (spec §4.F, §5). The returned slice preserves input row order. Run is
// cooperatively cancellable only at chunk boundaries: on ctx cancellation
// it finishes the in-flight chunk, returns what it has decoded so far, and
// sets Stats.Cancelled.
func (e *Executor) Run(ctx context.Context, rows []rowdecode.RawLog) ([]rowdecode.DecodedRow, Stats) {
	var stats Stats
	stats.RunID = uuid.NewString()
	stats.RowsIn = len(rows)

	e.logf("info", "decodebatch: run %s starting, %d rows", stats.RunID, len(rows))

	out := make([]rowdecode.DecodedRow, 0, len(rows))

	for start := 0; start < len(rows); start += e.chunkSize {
		select {
		case <-ctx.Done():
			stats.Cancelled = true
			e.logf("warn", "decodebatch: run %s cancelled after %d chunks", stats.RunID, stats.ChunksRun)
			return out, stats
		default:
		}

		end := start + e.chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		decoded, tooLarge := e.runChunk(ctx, chunk)
		out = append(out, decoded...)
		stats.ChunksRun++
		stats.RowsTooLarge += tooLarge
		stats.RowsDropped += len(chunk) - len(decoded) - tooLarge

		for _, row := range decoded {
			switch {
			case row.Error != "":
				stats.RowsErrored++
			default:
				stats.RowsDecoded++
			}
			stats.Warnings += len(row.Warnings)
		}

		select {
		case <-ctx.Done():
			stats.Cancelled = true
			return out, stats
		default:
		}
	}

	return out, stats
}

// matchOutcome distinguishes the reasons a row can fail to produce a
// decoded output, so callers can tell "no signature matched" apart from
// "payload exceeded the configured ceiling" (spec §5, §7).
type matchOutcome int

const (
	matchOK matchOutcome = iota
	matchMiss
	matchPayloadTooLarge
)

// runChunk matches and decodes one chunk's rows independently, in
// declaration order within the output slice regardless of the order
// workers finish in (spec §4.F "preserves input row order within a
// partition"). A row that fails to match is dropped, not errored (spec §7
// "Match-miss ... Drop, not error"); the dropped and too-large counts are
// tracked via the zero-value slot filtered out below.
func (e *Executor) runChunk(ctx context.Context, chunk []rowdecode.RawLog) ([]rowdecode.DecodedRow, int) {
	type slot struct {
		row     rowdecode.DecodedRow
		outcome matchOutcome
	}
	slots := make([]slot, len(chunk))
	opts := rowdecode.DecodeOptions{HexCase: e.hexCase}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)

	for i, log := range chunk {
		i, log := i, log
		g.Go(func() error {
			return e.guardRow(gctx, func() error {
				event, outcome := e.match(log)
				if outcome != matchOK {
					slots[i] = slot{outcome: outcome}
					return nil
				}
				slots[i] = slot{row: rowdecode.Decode(log, event, opts), outcome: matchOK}
				return nil
			})
		})
	}

	if err := g.Wait(); err != nil {
		e.logf("warn", "decodebatch: chunk encountered an unrecoverable error: %v", err)
	}

	decoded := make([]rowdecode.DecodedRow, 0, len(chunk))
	tooLarge := 0
	for _, s := range slots {
		switch s.outcome {
		case matchOK:
			decoded = append(decoded, s.row)
		case matchPayloadTooLarge:
			tooLarge++
		}
	}
	return decoded, tooLarge
}

// match resolves one row's (address, topic0) against the matcher index,
// reporting why a row did not yield a match when it didn't.
func (e *Executor) match(log rowdecode.RawLog) (abiindex.AbiEvent, matchOutcome) {
	if log.Topic0 == nil {
		return abiindex.AbiEvent{}, matchMiss
	}
	if len(log.Data) > e.maxRowPayloadBytes {
		return abiindex.AbiEvent{}, matchPayloadTooLarge
	}
	event, ok := e.matchIndex.Match(e.algorithm, log.Address, *log.Topic0)
	if !ok {
		return abiindex.AbiEvent{}, matchMiss
	}
	return event, matchOK
}

// guardRow runs fn directly, or through the breaker when one is
// configured. The breaker is not a per-row timeout (none is provided, per
// spec §5) — it is a circuit against a chunk whose work keeps failing.
func (e *Executor) guardRow(ctx context.Context, fn func() error) error {
	if e.br == nil {
		return fn()
	}
	return e.br.Do(ctx, fn)
}
