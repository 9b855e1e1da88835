package evmsig

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueSerializeScalars(t *testing.T) {
	require.Equal(t, "Uint(42)", NewUint(big.NewInt(42), 256).Serialize())
	require.Equal(t, "Int(-7)", NewInt(big.NewInt(-7), 256).Serialize())
	require.Equal(t, "Bool(true)", NewBool(true).Serialize())

	addr := HexToAddress("0x52908400098527886e0f7030069857d2e4169ee7")
	require.Equal(t, "Address(0x52908400098527886e0f7030069857d2e4169ee7)", NewAddress(addr).Serialize())

	require.Equal(t, `Bytes(0xdead)`, NewBytes([]byte{0xde, 0xad}).Serialize())
	require.Equal(t, `FixedBytes(0xdead000000000000000000000000000000000000000000000000000000000000)`,
		NewFixedBytes(append([]byte{0xde, 0xad}, make([]byte, 30)...), 32).Serialize())
}

func TestValueSerializeString(t *testing.T) {
	got := NewString("hi \"there\"\n").Serialize()
	require.Equal(t, `String("hi \"there\"\n")`, got)
}

func TestValueSerializeNested(t *testing.T) {
	arr := NewArray([]Value{
		NewUint(big.NewInt(1), 256),
		NewUint(big.NewInt(2), 256),
	})
	require.Equal(t, "Array(Uint(1),Uint(2))", arr.Serialize())

	tup := NewTuple([]Value{
		NewAddress(HexToAddress("0x0")),
		NewBool(false),
	})
	require.Equal(t, "Tuple(Address(0x0000000000000000000000000000000000000000),Bool(false))", tup.Serialize())
}

func TestValueSerializeIndexedHash(t *testing.T) {
	h := Keccak256([]byte("hello"))
	v := NewIndexedHash(h)
	require.Equal(t, "Bytes("+EncodeHex(h)+")", v.Serialize())
	require.True(t, v.IsHash)
}

func TestValueSerializeCaseUppercase(t *testing.T) {
	addr := HexToAddress("0x52908400098527886e0f7030069857d2e4169ee7")
	require.Equal(t, "Address(0x52908400098527886E0F7030069857D2E4169EE7)", NewAddress(addr).SerializeCase(HexUpper))
	require.Equal(t, "Bytes(0xDEAD)", NewBytes([]byte{0xde, 0xad}).SerializeCase(HexUpper))

	arr := NewArray([]Value{NewAddress(addr)})
	require.Equal(t, "Array(Address(0x52908400098527886E0F7030069857D2E4169EE7))", arr.SerializeCase(HexUpper))
}

func TestParseHexCase(t *testing.T) {
	require.Equal(t, HexUpper, ParseHexCase("uppercase"))
	require.Equal(t, HexUpper, ParseHexCase("Uppercase"))
	require.Equal(t, HexLower, ParseHexCase("lowercase"))
	require.Equal(t, HexLower, ParseHexCase(""))
	require.Equal(t, HexLower, ParseHexCase("bogus"))
}
