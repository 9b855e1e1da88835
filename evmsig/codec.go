package evmsig

import (
	"fmt"
	"math/big"
	"unicode/utf8"

	"github.com/holiman/uint256"
)

const wordSize = 32

// maxDecodeElements bounds how many elements a single dynamic array or
// fixed array of dynamic elements may claim to have, so that a corrupt or
// adversarial length word cannot force a multi-gigabyte allocation before
// the out-of-range read actually fails.
const maxDecodeElements = 1 << 20

// decoder walks a byte stream against a TypeExpr tree and accumulates
// non-fatal warnings (e.g. non-zero high bytes on a uint) alongside the
// decoded Values. It carries no other state: one decoder per row.
type decoder struct {
	buf      []byte
	warnings *[]string
}

func (d *decoder) warn(format string, args ...any) {
	if d.warnings == nil {
		return
	}
	*d.warnings = append(*d.warnings, fmt.Sprintf(format, args...))
}

// Decode decodes data as the head/tail encoding of the given top-level
// types (e.g. a function's or event's non-indexed parameters), returning
// one Value per type in declared order plus any non-fatal warnings
// collected along the way. This is the entry point for component B
// (spec §4.B).
func Decode(data []byte, types []TypeExpr) ([]Value, []string, error) {
	var warnings []string
	d := &decoder{buf: data, warnings: &warnings}
	values, err := d.decodeSequence(types, 0)
	if err != nil {
		return nil, warnings, err
	}
	return values, warnings, nil
}

// decodeSequence decodes a list of types sharing one head/tail frame
// starting at frameStart: the top-level argument list, a tuple's members,
// or an array's elements (with an element type repeated length times).
// This single function implements all three cases uniformly — a static
// tuple and a dynamic array's elements differ only in what Elem/frameStart
// the caller passes in, not in how the frame itself is walked.
func (d *decoder) decodeSequence(types []TypeExpr, frameStart int) ([]Value, error) {
	headPos := make([]int, len(types))
	pos := frameStart
	for i, t := range types {
		headPos[i] = pos
		if t.IsDynamic() {
			pos += wordSize
		} else {
			pos += t.HeadWords() * wordSize
		}
	}

	values := make([]Value, len(types))
	for i, t := range types {
		v, err := d.decodeValue(t, headPos[i], frameStart)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// decodeValue decodes one type whose head slot lives at headPos, within
// the frame that started at frameStart (used to resolve the type's own
// offset, if it has one).
func (d *decoder) decodeValue(t TypeExpr, headPos, frameStart int) (Value, error) {
	if !t.IsDynamic() {
		return d.decodeStatic(t, headPos)
	}

	word, err := d.readWord(headPos)
	if err != nil {
		return Value{}, err
	}
	offset, err := offsetFromWord(word)
	if err != nil {
		return Value{}, err
	}
	absPos := frameStart + offset
	if absPos < 0 || absPos > len(d.buf) {
		return Value{}, newDecodeError(ErrTagOffsetOutOfRange,
			"offset %d (abs %d) is outside the %d-byte payload", offset, absPos, len(d.buf))
	}

	switch t.Kind {
	case KindBytes:
		b, err := d.readDynamicBytes(absPos)
		if err != nil {
			return Value{}, err
		}
		return NewBytes(b), nil

	case KindString:
		b, err := d.readDynamicBytes(absPos)
		if err != nil {
			return Value{}, err
		}
		if !utf8.Valid(b) {
			return Value{}, newDecodeError(ErrTagInvalidUTF8, "string payload at offset %d is not valid UTF-8", absPos)
		}
		return NewString(string(b)), nil

	case KindArray:
		length, err := d.readLength(absPos)
		if err != nil {
			return Value{}, err
		}
		if err := d.checkElementBudget(*t.Elem, length); err != nil {
			return Value{}, err
		}
		items, err := d.decodeSequence(repeatType(*t.Elem, length), absPos+wordSize)
		if err != nil {
			return Value{}, err
		}
		return NewArray(items), nil

	case KindFixedArray:
		// Dynamic because Elem is dynamic: N head slots then tails,
		// no length word (spec §4.B "array(T, N)").
		items, err := d.decodeSequence(repeatType(*t.Elem, t.Size), absPos)
		if err != nil {
			return Value{}, err
		}
		return NewArray(items), nil

	case KindTuple:
		items, err := d.decodeSequence(t.Tuple, absPos)
		if err != nil {
			return Value{}, err
		}
		return NewTuple(items), nil

	default:
		return Value{}, newDecodeError(ErrTagOffsetOutOfRange, "unexpected dynamic kind for type %s", t.String())
	}
}

// decodeStatic decodes a static (non-indirected) type occupying one or
// more contiguous head slots starting at pos.
func (d *decoder) decodeStatic(t TypeExpr, pos int) (Value, error) {
	switch t.Kind {
	case KindUint:
		word, err := d.readWord(pos)
		if err != nil {
			return Value{}, err
		}
		return NewUint(d.decodeUintWord(word, t.Bits), t.Bits), nil

	case KindInt:
		word, err := d.readWord(pos)
		if err != nil {
			return Value{}, err
		}
		return NewInt(d.decodeIntWord(word, t.Bits), t.Bits), nil

	case KindAddress:
		word, err := d.readWord(pos)
		if err != nil {
			return Value{}, err
		}
		for _, b := range word[:12] {
			if b != 0 {
				d.warn("address slot at byte %d has non-zero padding in the high 12 bytes", pos)
				break
			}
		}
		var a Address
		copy(a[:], word[12:])
		return NewAddress(a), nil

	case KindBool:
		word, err := d.readWord(pos)
		if err != nil {
			return Value{}, err
		}
		last := word[31]
		if last > 1 {
			return Value{}, newDecodeError(ErrTagBoolInvalid, "bool slot at byte %d has invalid value 0x%02x", pos, last)
		}
		for _, b := range word[:31] {
			if b != 0 {
				d.warn("bool slot at byte %d has non-zero padding bytes", pos)
				break
			}
		}
		return NewBool(last == 1), nil

	case KindFixedBytes:
		word, err := d.readWord(pos)
		if err != nil {
			return Value{}, err
		}
		return NewFixedBytes(word[:t.Size], t.Size), nil

	case KindFixedArray:
		items, err := d.decodeSequence(repeatType(*t.Elem, t.Size), pos)
		if err != nil {
			return Value{}, err
		}
		return NewArray(items), nil

	case KindTuple:
		items, err := d.decodeSequence(t.Tuple, pos)
		if err != nil {
			return Value{}, err
		}
		return NewTuple(items), nil

	default:
		return Value{}, newDecodeError(ErrTagOffsetOutOfRange, "unexpected static kind for type %s", t.String())
	}
}

func (d *decoder) readWord(pos int) ([]byte, error) {
	if pos < 0 || pos+wordSize > len(d.buf) {
		return nil, newDecodeError(ErrTagPayloadTruncated,
			"need %d bytes at offset %d, payload is %d bytes", wordSize, pos, len(d.buf))
	}
	return d.buf[pos : pos+wordSize], nil
}

// readLength reads the 32-byte length word at pos and returns it as an
// int, bounded by maxDecodeElements and by what could plausibly fit in
// the remaining payload.
func (d *decoder) readLength(pos int) (int, error) {
	word, err := d.readWord(pos)
	if err != nil {
		return 0, err
	}
	n := new(big.Int).SetBytes(word)
	if !n.IsInt64() || n.Int64() < 0 || n.Int64() > maxDecodeElements {
		return 0, newDecodeError(ErrTagArrayLengthExceeded,
			"array length %s at offset %d exceeds the %d-element limit", n.String(), pos, maxDecodeElements)
	}
	length := int(n.Int64())
	if length > len(d.buf) {
		// Even a bytes1 element per entry can't fit; fail fast instead of
		// allocating a slice for an adversarial length.
		return 0, newDecodeError(ErrTagArrayLengthExceeded,
			"array length %d at offset %d exceeds the %d-byte payload", length, pos, len(d.buf))
	}
	return length, nil
}

// readDynamicBytes reads a length-prefixed byte string (bytes or string)
// starting at pos: a 32-byte length word followed by that many bytes.
func (d *decoder) readDynamicBytes(pos int) ([]byte, error) {
	length, err := d.readLength(pos)
	if err != nil {
		return nil, err
	}
	start := pos + wordSize
	if start+length > len(d.buf) {
		return nil, newDecodeError(ErrTagPayloadTruncated,
			"need %d bytes at offset %d, payload is %d bytes", length, start, len(d.buf))
	}
	return d.buf[start : start+length], nil
}

// checkElementBudget rejects element counts that cannot possibly be
// backed by the remaining payload, before decodeSequence builds a
// length-sized type slice for them.
func (d *decoder) checkElementBudget(elem TypeExpr, length int) error {
	minPerElem := wordSize
	if !elem.IsDynamic() {
		minPerElem = elem.HeadWords() * wordSize
	}
	if minPerElem == 0 {
		minPerElem = wordSize
	}
	if length > len(d.buf)/minPerElem+1 {
		return newDecodeError(ErrTagArrayLengthExceeded,
			"array of %d elements cannot fit in the %d-byte payload", length, len(d.buf))
	}
	return nil
}

func repeatType(t TypeExpr, n int) []TypeExpr {
	out := make([]TypeExpr, n)
	for i := range out {
		out[i] = t
	}
	return out
}

// offsetFromWord interprets a head slot as a byte offset, rejecting
// values that cannot be a legitimate in-stream, word-aligned position
// (spec §4.B "every offset must be within the byte stream and
// 32-aligned"). Overlapping or backwards offsets are not rejected here —
// only the bounds check in decodeValue/readWord enforces "within the
// stream".
func offsetFromWord(word []byte) (int, error) {
	n := new(big.Int).SetBytes(word)
	if !n.IsInt64() || n.Int64() < 0 || n.Int64() > (1<<31) {
		return 0, newDecodeError(ErrTagOffsetOutOfRange, "offset %s is not a plausible byte position", n.String())
	}
	offset := int(n.Int64())
	if offset%wordSize != 0 {
		return 0, newDecodeError(ErrTagOffsetOutOfRange, "offset %d is not 32-byte aligned", offset)
	}
	return offset, nil
}

// decodeUintWord decodes an unsigned integer of the given bit width from
// a 32-byte word. bits is always a multiple of 8 (spec §4.B), so the
// value occupies exactly the low bits/8 bytes; the high padding bytes
// must be zero, but a violation is only ever a warning, never a reject
// (spec §4.B "high bytes must be zero... log a warning... do not
// reject"). The 256-bit path goes through holiman/uint256, which keeps
// the common case off math/big's allocator.
func (d *decoder) decodeUintWord(word []byte, bits int) *big.Int {
	if bits == 256 {
		var u uint256.Int
		u.SetBytes32(word)
		return u.ToBig()
	}
	nbytes := bits / 8
	for _, b := range word[:wordSize-nbytes] {
		if b != 0 {
			d.warn("uint%d value has non-zero bytes above the declared width", bits)
			break
		}
	}
	return new(big.Int).SetBytes(word[wordSize-nbytes:])
}

// decodeIntWord decodes a signed two's-complement integer of the given
// bit width, sign-extended from the low bits/8 bytes of the word.
func (d *decoder) decodeIntWord(word []byte, bits int) *big.Int {
	nbytes := bits / 8
	valueBytes := word[wordSize-nbytes:]
	n := new(big.Int).SetBytes(valueBytes)

	negative := valueBytes[0]&0x80 != 0
	if negative {
		modulus := new(big.Int).Lsh(big.NewInt(1), uint(bits))
		n.Sub(n, modulus)
	}

	signByte := byte(0x00)
	if negative {
		signByte = 0xff
	}
	for _, b := range word[:wordSize-nbytes] {
		if b != signByte {
			d.warn("int%d value's padding bytes are not a valid sign extension", bits)
			break
		}
	}
	return n
}
