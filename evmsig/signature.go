package evmsig

import (
	"fmt"
	"strings"
)

// Param is one ABI parameter: its declared name (possibly empty), its
// Solidity type, and — for event parameters — whether it is indexed.
type Param struct {
	Name    string
	Type    TypeExpr
	Indexed bool
}

// CanonicalSignature renders "name(T1,T2,...)" using each parameter's
// canonical type string, with no names, no spaces, and no "indexed"
// markers, per spec §4.A.
func CanonicalSignature(name string, inputs []Param) string {
	parts := make([]string, len(inputs))
	for i, p := range inputs {
		parts[i] = p.Type.String()
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ","))
}

// Topic0 computes the Keccak-256 hash of a canonical event signature.
func Topic0(signature string) Hash {
	return Keccak256Hash([]byte(signature))
}

// FunctionSelector computes the 4-byte selector of a canonical function
// signature: the first 4 bytes of Keccak-256(signature). Reserved for a
// future trace-decoding extension (spec §1 Non-goals).
func FunctionSelector(signature string) [4]byte {
	var sel [4]byte
	copy(sel[:], Keccak256([]byte(signature)))
	return sel
}

// ParseCanonicalSignature parses a canonical signature string of the form
// "Name(T1,T2,...)" — no parameter names, no "indexed" markers — into a
// name and an ordered list of TypeExpr. This is the format the matcher
// accepts for an anonymous event's caller-supplied signature hint
// (spec §4.B "Anonymous events").
func ParseCanonicalSignature(sig string) (string, []TypeExpr, error) {
	sig = strings.TrimSpace(sig)
	open := strings.IndexByte(sig, '(')
	if open < 0 || sig[len(sig)-1] != ')' {
		return "", nil, fmt.Errorf("evmsig: invalid signature %q, expected Name(T1,T2,...)", sig)
	}
	name := sig[:open]
	inner := sig[open+1 : len(sig)-1]

	if strings.TrimSpace(inner) == "" {
		return name, nil, nil
	}

	parts, err := splitTopLevel(inner)
	if err != nil {
		return "", nil, err
	}
	types := make([]TypeExpr, 0, len(parts))
	for _, p := range parts {
		t, err := ParseTypeString(p)
		if err != nil {
			return "", nil, fmt.Errorf("evmsig: invalid signature %q: %w", sig, err)
		}
		types = append(types, t)
	}
	return name, types, nil
}
