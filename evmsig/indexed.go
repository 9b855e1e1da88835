package evmsig

// DecodeIndexedParam decodes one indexed event parameter from its topic
// slot (spec §4.B "Indexed event parameters"). A value-typed parameter
// (uint/int/address/bool/bytesN) is encoded directly in the topic and is
// decoded the same way a static head slot is. A reference-typed
// parameter (string, bytes, array, tuple) is never present in the log —
// the topic already holds the Keccak-256 hash the producing contract
// computed over the parameter's would-be ABI encoding, so it is wrapped
// as-is rather than decoded.
func DecodeIndexedParam(t TypeExpr, topic Hash) (Value, []string, error) {
	if !t.IsValueType() {
		return NewIndexedHash(topic[:]), nil, nil
	}

	var warnings []string
	d := &decoder{buf: topic[:], warnings: &warnings}
	v, err := d.decodeStatic(t, 0)
	if err != nil {
		return Value{}, warnings, err
	}
	return v, warnings, nil
}
