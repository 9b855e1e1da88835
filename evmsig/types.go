// Package evmsig computes canonical EVM event/function signatures and
// decodes ABI-encoded byte streams into typed values.
package evmsig

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Hash is a 32-byte Keccak-256 digest, e.g. an event topic0.
type Hash [32]byte

func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

// StringCase renders h as a 0x-prefixed hex string in the given case.
func (h Hash) StringCase(c HexCase) string {
	return EncodeHexCase(h[:], c)
}

// Address is a 20-byte EVM account/contract address.
type Address [20]byte

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) IsZero() bool {
	return a == Address{}
}

// StringCase renders a as a 0x-prefixed hex string in the given case.
func (a Address) StringCase(c HexCase) string {
	return EncodeHexCase(a[:], c)
}

// HexToHash decodes a 0x-prefixed (or bare) hex string into a Hash. Short
// input is left-padded with zeros, matching how a topic slot is read.
func HexToHash(s string) Hash {
	var h Hash
	b := MustTrimHex(s)
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	copy(h[32-len(b):], b)
	return h
}

// HexToAddress decodes a 0x-prefixed (or bare) hex string into an Address.
func HexToAddress(s string) Address {
	var a Address
	b := MustTrimHex(s)
	if len(b) > 20 {
		b = b[len(b)-20:]
	}
	copy(a[20-len(b):], b)
	return a
}

// MustTrimHex decodes a 0x-prefixed hex string, returning nil on error.
// Used internally for best-effort decoding of fixed-width fields where the
// caller has already validated overall shape.
func MustTrimHex(s string) []byte {
	b, err := DecodeHex(s)
	if err != nil {
		return nil
	}
	return b
}

// DecodeHex decodes a 0x-prefixed (or bare) hex string.
func DecodeHex(s string) ([]byte, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s)%2 != 0 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("evmsig: invalid hex string: %w", err)
	}
	return b, nil
}

// EncodeHex renders bytes as a 0x-prefixed lowercase hex string.
func EncodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// HexCase selects the letter case used when rendering bytes as a hex
// string, the choice named by the Config Registry's
// "decoder.output_hex_string_encoding" and
// "abi_reader.output_hex_string_encoding" options (spec §4.G).
type HexCase int

const (
	HexLower HexCase = iota
	HexUpper
)

// ParseHexCase maps a Config Registry option value ("lowercase" |
// "uppercase") to a HexCase, defaulting to HexLower for any other value
// (including an unset option).
func ParseHexCase(s string) HexCase {
	if strings.EqualFold(s, "uppercase") {
		return HexUpper
	}
	return HexLower
}

// EncodeHexCase renders bytes as a 0x-prefixed hex string in the given
// case.
func EncodeHexCase(b []byte, c HexCase) string {
	s := hex.EncodeToString(b)
	if c == HexUpper {
		s = strings.ToUpper(s)
	}
	return "0x" + s
}
