package rowdecode

import "context"

// RowSource streams RawLog partitions from wherever the caller's table
// I/O facility reads them (spec §6 "the core does not mandate a specific
// [persisted format]... assumes a table I/O facility is supplied
// externally"). A concrete implementation might wrap a Parquet reader;
// none ships here.
type RowSource interface {
	// Next returns the next partition of rows, or io.EOF (wrapped) when
	// the source is exhausted.
	Next(ctx context.Context) ([]RawLog, error)
}

// RowSink accepts one partition of decoded rows, preserving input row
// order within the partition (spec §4.F "preserves input row order
// within a partition").
type RowSink interface {
	Write(ctx context.Context, rows []DecodedRow) error
}
