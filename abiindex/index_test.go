package abiindex

import (
	"strings"
	"testing"

	"github.com/0xsequence/logdecoder/dconfig"
	"github.com/0xsequence/logdecoder/evmsig"
	"github.com/stretchr/testify/require"
)

const erc20ABI = `[
	{"type":"event","name":"Transfer","anonymous":false,"inputs":[
		{"name":"from","type":"address","indexed":true},
		{"name":"to","type":"address","indexed":true},
		{"name":"value","type":"uint256","indexed":false}
	]},
	{"type":"event","name":"Approval","anonymous":false,"inputs":[
		{"name":"owner","type":"address","indexed":true},
		{"name":"spender","type":"address","indexed":true},
		{"name":"value","type":"uint256","indexed":false}
	]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[
		{"name":"to","type":"address"},
		{"name":"amount","type":"uint256"}
	]}
]`

func TestAddDocumentParsesEventsAndFunctions(t *testing.T) {
	idx := NewIndex()
	idx.AddDocument([]byte(erc20ABI), evmsig.Address{}, "erc20.json")

	events := idx.Events()
	require.Len(t, events, 3)
	require.Empty(t, idx.Warnings())

	var transfer AbiEvent
	for _, e := range events {
		if e.Name == "Transfer" {
			transfer = e
		}
	}
	require.Equal(t, "Transfer(address,address,uint256)", transfer.FullSignature)
	require.Equal(t, evmsig.Topic0("Transfer(address,address,uint256)"), transfer.Topic0)
	require.Equal(t, 2, transfer.NumIndexedArgs)
}

func TestAddDocumentWrappedInABIField(t *testing.T) {
	idx := NewIndex()
	idx.AddDocument([]byte(`{"contractName":"Token","abi":`+erc20ABI+`}`), evmsig.Address{}, "token.json")
	require.Len(t, idx.Events(), 3)
}

func TestAddDocumentDedupesByKey(t *testing.T) {
	idx := NewIndex()
	idx.AddDocument([]byte(erc20ABI), evmsig.Address{}, "a.json")
	idx.AddDocument([]byte(erc20ABI), evmsig.Address{}, "b.json")
	require.Len(t, idx.Events(), 3, "second load of the same events at the same address must be deduped")
}

func TestAddDocumentSkipsMalformedJSON(t *testing.T) {
	idx := NewIndex()
	idx.AddDocument([]byte(`not json`), evmsig.Address{}, "broken.json")
	require.Empty(t, idx.Events())
	require.Len(t, idx.Warnings(), 1)
	require.ErrorIs(t, idx.Warnings()[0], ErrMalformedJSON)
}

func TestAddDocumentSkipsUnnamedEntry(t *testing.T) {
	idx := NewIndex()
	idx.AddDocument([]byte(`[{"type":"event","anonymous":false,"inputs":[]}]`), evmsig.Address{}, "x.json")
	require.Empty(t, idx.Events())
	require.Len(t, idx.Warnings(), 1)
}

func TestAddressFromBaseName(t *testing.T) {
	addr := addressFromBaseName("/abis/0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2.json")
	require.Equal(t, "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", addr.String())

	none := addressFromBaseName("/abis/erc20.json")
	require.True(t, none.IsZero())
}

func TestAnonymousEventHasZeroTopic0(t *testing.T) {
	idx := NewIndex()
	idx.AddDocument([]byte(`[{"type":"event","name":"X","anonymous":true,"inputs":[
		{"name":"a","type":"uint256","indexed":true},
		{"name":"b","type":"uint256","indexed":true}
	]}]`), evmsig.Address{}, "anon.json")

	events := idx.Events()
	require.Len(t, events, 1)
	require.True(t, events[0].Anonymous)
	require.True(t, events[0].Topic0.IsZero())
	require.Equal(t, "X(uint256,uint256)", events[0].FullSignature)
}

func TestTupleComponentsBuildNestedTypeExpr(t *testing.T) {
	idx := NewIndex()
	idx.AddDocument([]byte(`[{"type":"event","name":"Order","anonymous":false,"inputs":[
		{"name":"o","type":"tuple","indexed":false,"components":[
			{"name":"maker","type":"address"},
			{"name":"amount","type":"uint256"}
		]}
	]}]`), evmsig.Address{}, "order.json")

	events := idx.Events()
	require.Len(t, events, 1)
	require.Equal(t, "Order((address,uint256))", events[0].FullSignature)
}

func TestTupleArrayComponentsBuildArrayOfTuple(t *testing.T) {
	idx := NewIndex()
	idx.AddDocument([]byte(`[{"type":"event","name":"Batch","anonymous":false,"inputs":[
		{"name":"os","type":"tuple[]","indexed":false,"components":[
			{"name":"maker","type":"address"},
			{"name":"amount","type":"uint256"}
		]}
	]}]`), evmsig.Address{}, "batch.json")

	events := idx.Events()
	require.Len(t, events, 1)
	require.Equal(t, "Batch((address,uint256)[])", events[0].FullSignature)
}

func TestMergeUsesSameDedupKey(t *testing.T) {
	a := NewIndex()
	a.AddDocument([]byte(erc20ABI), evmsig.Address{}, "a.json")

	b := NewIndex()
	b.AddDocument([]byte(erc20ABI), evmsig.Address{}, "b.json")

	a.Merge(b)
	require.Len(t, a.Events(), 3)
}

func TestSortedIsDeterministic(t *testing.T) {
	idx := NewIndex()
	idx.AddDocument([]byte(erc20ABI), evmsig.Address{}, "erc20.json")

	first := idx.Sorted()
	second := idx.Sorted()
	require.Equal(t, first, second)
	require.Len(t, first, 3)
}

func TestParseUniqueKeyFieldsDefaultsOnEmptyOrUnrecognized(t *testing.T) {
	require.Equal(t, defaultUniqueKeyFields, ParseUniqueKeyFields(""))
	require.Equal(t, defaultUniqueKeyFields, ParseUniqueKeyFields("bogus"))
	require.Equal(t, []UniqueKeyField{UniqueKeyAddress, UniqueKeyTopic0}, ParseUniqueKeyFields("address,topic0"))
}

func TestUniqueKeyFieldsNarrowsDedup(t *testing.T) {
	// Same event at two different addresses: under the default 3-field
	// key these are distinct entries, but narrowing the key to just
	// full_signature collapses them.
	addrA := evmsig.HexToAddress("0x00000000000000000000000000000000000001")
	addrB := evmsig.HexToAddress("0x00000000000000000000000000000000000002")

	wide := NewIndex()
	wide.AddDocument([]byte(erc20ABI), addrA, "a.json")
	wide.AddDocument([]byte(erc20ABI), addrB, "b.json")
	require.Len(t, wide.Events(), 6, "distinct addresses must not dedup under the default key")

	narrow := NewIndex(WithUniqueKeyFields([]UniqueKeyField{UniqueKeyFullSignature}))
	narrow.AddDocument([]byte(erc20ABI), addrA, "a.json")
	narrow.AddDocument([]byte(erc20ABI), addrB, "b.json")
	require.Len(t, narrow.Events(), 3, "full_signature-only key must dedup across addresses")
}

func TestFormattedUsesConfiguredHexCase(t *testing.T) {
	addr := evmsig.HexToAddress("0x52908400098527886e0f7030069857d2e4169ee7")

	lower := NewIndex()
	lower.AddDocument([]byte(erc20ABI), addr, "erc20.json")
	formatted := lower.Formatted()
	require.Len(t, formatted, 3)
	require.Equal(t, "0x52908400098527886e0f7030069857d2e4169ee7", formatted[0].Address)

	upper := NewIndex(WithHexCase(evmsig.HexUpper))
	upper.AddDocument([]byte(erc20ABI), addr, "erc20.json")
	require.Equal(t, "0x52908400098527886E0F7030069857D2E4169EE7", upper.Formatted()[0].Address)
}

func TestNewIndexFromSnapshotAppliesAbiReaderOptions(t *testing.T) {
	r := dconfig.NewRegistry()
	r.Set(dconfig.OptAbiReaderUniqueKey, "full_signature")
	r.Set(dconfig.OptAbiReaderHexEncode, "uppercase")

	addrA := evmsig.HexToAddress("0x00000000000000000000000000000000000001")
	addrB := evmsig.HexToAddress("0x00000000000000000000000000000000000002")

	idx := NewIndexFromSnapshot(r.Snapshot())
	idx.AddDocument([]byte(erc20ABI), addrA, "a.json")
	idx.AddDocument([]byte(erc20ABI), addrB, "b.json")

	require.Len(t, idx.Events(), 3, "unique_key=full_signature must dedup across addresses")
	for _, f := range idx.Formatted() {
		require.Equal(t, strings.ToUpper(f.Address), f.Address)
	}
}
