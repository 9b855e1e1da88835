package dconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRegistryCarriesDefaults(t *testing.T) {
	r := NewRegistry()
	snap := r.Snapshot()
	require.Equal(t, "topic0_address", snap.String(OptDecoderAlgorithm, ""))
	require.Equal(t, 2000, snap.Int(OptDecoderMaxChunk, 0))
}

func TestSnapshotIsImmutableAfterSet(t *testing.T) {
	r := NewRegistry()
	snap := r.Snapshot()

	r.Set(OptDecoderAlgorithm, "topic0")

	require.Equal(t, "topic0_address", snap.String(OptDecoderAlgorithm, ""), "a previously taken snapshot must not observe later Set calls")
	require.Equal(t, "topic0", r.Snapshot().String(OptDecoderAlgorithm, ""))
}

func TestSchemaAliasFallsBackToColumnName(t *testing.T) {
	r := NewRegistry()
	snap := r.Snapshot()
	require.Equal(t, "event_values", snap.SchemaAlias("event_values"))

	r.Set(OptDecoderSchemaAliasPrefix+"event_values", "decoded_values")
	snap = r.Snapshot()
	require.Equal(t, "decoded_values", snap.SchemaAlias("event_values"))
}

func TestLoadTOMLPopulatesRecognizedOptions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	doc := `
[main]
raw_logs_folder = "/data/raw"
abi_folder_path = "/data/abi"

[decoder]
algorithm = "topic0"
output_hex_string_encoding = "uppercase"
max_chunk_size = 500

[decoder.schema]
event_values = "decoded_values"
event_keys = "decoded_keys"

[abi_reader]
unique_key = "address,topic0"
output_hex_string_encoding = "lowercase"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	r, err := LoadTOML(path)
	require.NoError(t, err)

	snap := r.Snapshot()
	require.Equal(t, "/data/raw", snap.String(OptMainRawLogsFolder, ""))
	require.Equal(t, "/data/abi", snap.String(OptMainAbiFolderPath, ""))
	require.Equal(t, "topic0", snap.String(OptDecoderAlgorithm, ""))
	require.Equal(t, "uppercase", snap.String(OptDecoderHexEncoding, ""))
	require.Equal(t, 500, snap.Int(OptDecoderMaxChunk, 0))
	require.Equal(t, "address,topic0", snap.String(OptAbiReaderUniqueKey, ""))
	require.Equal(t, "decoded_values", snap.SchemaAlias("event_values"))
	require.Equal(t, "decoded_keys", snap.SchemaAlias("event_keys"))
}

func TestLoadTOMLMissingFileReturnsError(t *testing.T) {
	_, err := LoadTOML(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestLoadTOMLUnsetFieldsKeepDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[main]\nraw_logs_folder = \"/data\"\n"), 0o644))

	r, err := LoadTOML(path)
	require.NoError(t, err)

	snap := r.Snapshot()
	require.Equal(t, "topic0_address", snap.String(OptDecoderAlgorithm, ""))
	require.Equal(t, 2000, snap.Int(OptDecoderMaxChunk, 0))
}
