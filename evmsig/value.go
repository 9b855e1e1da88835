package evmsig

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// ValueKind tags the variant of a decoded Value.
type ValueKind int

const (
	VUint ValueKind = iota
	VInt
	VAddress
	VBool
	VFixedBytes
	VBytes
	VString
	VArray
	VTuple
)

// Value is a decoded ABI value. Values live only for the duration of one
// row's decoding (spec §3 "Lifetimes") — the executor materializes them
// into string columns before discarding them.
type Value struct {
	Kind ValueKind

	Int  *big.Int // VUint, VInt
	Bits int      // VUint, VInt bit width

	Addr Address // VAddress

	Bool bool // VBool

	Bytes     []byte // VFixedBytes, VBytes
	FixedSize int    // VFixedBytes: declared N

	// IsHash marks a VBytes value as the Keccak-256 hash substituted for
	// an indexed reference-typed event parameter (spec §4.B "Indexed
	// event parameters", case b) rather than the original bytes payload.
	IsHash bool

	Str string // VString

	Items []Value // VArray, VTuple
}

func NewUint(n *big.Int, bits int) Value   { return Value{Kind: VUint, Int: n, Bits: bits} }
func NewInt(n *big.Int, bits int) Value    { return Value{Kind: VInt, Int: n, Bits: bits} }
func NewAddress(a Address) Value           { return Value{Kind: VAddress, Addr: a} }
func NewBool(b bool) Value                 { return Value{Kind: VBool, Bool: b} }
func NewString(s string) Value             { return Value{Kind: VString, Str: s} }
func NewArray(items []Value) Value         { return Value{Kind: VArray, Items: items} }
func NewTuple(items []Value) Value         { return Value{Kind: VTuple, Items: items} }

func NewFixedBytes(b []byte, n int) Value {
	return Value{Kind: VFixedBytes, Bytes: append([]byte(nil), b...), FixedSize: n}
}

func NewBytes(b []byte) Value {
	return Value{Kind: VBytes, Bytes: append([]byte(nil), b...)}
}

// NewIndexedHash wraps a Keccak-256 digest as the synthetic value emitted
// for an indexed reference-typed parameter (spec §4.B case b).
func NewIndexedHash(h []byte) Value {
	return Value{Kind: VBytes, Bytes: append([]byte(nil), h...), IsHash: true}
}

// TypeTag returns the serialization tag used in event_values, e.g. "Uint".
func (v Value) TypeTag() string {
	switch v.Kind {
	case VUint:
		return "Uint"
	case VInt:
		return "Int"
	case VAddress:
		return "Address"
	case VBool:
		return "Bool"
	case VFixedBytes:
		return "FixedBytes"
	case VBytes:
		return "Bytes"
	case VString:
		return "String"
	case VArray:
		return "Array"
	case VTuple:
		return "Tuple"
	default:
		return "Unknown"
	}
}

// Serialize renders a value as "TypeTag(value)", matching spec §4.E:
// integers in decimal, addresses/bytes as 0x-prefixed lowercase hex,
// strings quoted with backslash escaping, arrays/tuples recursive. It is
// SerializeCase(HexLower); callers that need to honor the Config
// Registry's "decoder.output_hex_string_encoding" option should call
// SerializeCase directly.
func (v Value) Serialize() string {
	return v.SerializeCase(HexLower)
}

// SerializeCase renders a value as Serialize does, but with address/bytes
// hex in the given case (spec §4.G "decoder.output_hex_string_encoding").
func (v Value) SerializeCase(c HexCase) string {
	switch v.Kind {
	case VUint, VInt:
		n := v.Int
		if n == nil {
			n = big.NewInt(0)
		}
		return fmt.Sprintf("%s(%s)", v.TypeTag(), n.String())
	case VAddress:
		return fmt.Sprintf("Address(%s)", v.Addr.StringCase(c))
	case VBool:
		return fmt.Sprintf("Bool(%t)", v.Bool)
	case VFixedBytes, VBytes:
		return fmt.Sprintf("%s(%s)", v.TypeTag(), EncodeHexCase(v.Bytes, c))
	case VString:
		return fmt.Sprintf("String(%s)", QuoteEscape(v.Str))
	case VArray, VTuple:
		parts := make([]string, len(v.Items))
		for i, it := range v.Items {
			parts[i] = it.SerializeCase(c)
		}
		return fmt.Sprintf("%s(%s)", v.TypeTag(), strings.Join(parts, ","))
	default:
		return "Unknown()"
	}
}

// QuoteEscape quotes s and backslash-escapes quote and non-printable
// characters, matching the quoting spec §4.E requires for event_values
// string members. Adapted from the teacher's util.QuoteString, which
// wraps an encoding.TextMarshaler's output in quotes — here applied
// directly to a Go string instead of a marshaled byte slice, since Value
// does not implement TextMarshaler.
func QuoteEscape(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if strconv.IsPrint(r) {
				b.WriteRune(r)
			} else {
				b.WriteString(fmt.Sprintf(`\u%04x`, r))
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
