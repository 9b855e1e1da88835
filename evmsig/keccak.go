package evmsig

import "golang.org/x/crypto/sha3"

// Keccak256 returns the Keccak-256 digest of input. Ethereum's hash
// function uses the original Keccak padding, not the NIST SHA-3 padding,
// hence NewLegacyKeccak256 rather than sha3.New256.
func Keccak256(input []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(input)
	return h.Sum(nil)
}

// Keccak256Hash is Keccak256 with the digest wrapped as a Hash.
func Keccak256Hash(input []byte) Hash {
	var h Hash
	copy(h[:], Keccak256(input))
	return h
}
