package evmsig

import "fmt"

// Decode error tags, surfaced verbatim in a DecodedRow's error column
// (spec §7 "Decode errors (per row)").
const (
	ErrTagPayloadTruncated    = "payload_truncated"
	ErrTagOffsetOutOfRange    = "offset_out_of_range"
	ErrTagBoolInvalid         = "bool_invalid"
	ErrTagArrayLengthExceeded = "array_length_exceeds_data"
	ErrTagInvalidUTF8         = "invalid_utf8"
)

// DecodeError is a row-level decode failure tagged with one of the
// diagnostic classes from spec §7/§8. The core never panics on untrusted
// input; every decode path that can fail on malformed bytes returns one
// of these instead.
type DecodeError struct {
	Tag string
	Msg string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Tag, e.Msg)
}

func newDecodeError(tag, format string, args ...any) *DecodeError {
	return &DecodeError{Tag: tag, Msg: fmt.Sprintf(format, args...)}
}
