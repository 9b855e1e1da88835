package dconfig

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// tomlDocument mirrors the namespaced table layout spec §4.G describes:
// one table per option namespace, with decoder.schema carrying the
// alias_* overrides as a nested map since TOML has no wildcard key
// syntax.
type tomlDocument struct {
	Main struct {
		RawLogsFolder string `toml:"raw_logs_folder"`
		AbiDfPath     string `toml:"abi_df_path"`
		AbiFolderPath string `toml:"abi_folder_path"`
	} `toml:"main"`

	Decoder struct {
		Algorithm             string            `toml:"algorithm"`
		OutputHexStringEncode string            `toml:"output_hex_string_encoding"`
		MaxChunkSize          int               `toml:"max_chunk_size"`
		Schema                map[string]string `toml:"schema"`
	} `toml:"decoder"`

	AbiReader struct {
		UniqueKey             string `toml:"unique_key"`
		OutputHexStringEncode string `toml:"output_hex_string_encoding"`
	} `toml:"abi_reader"`
}

// LoadTOML populates a new Registry from a TOML document, the config
// file format named by spec §4.G ("populated at startup from a TOML
// file"). Recognized tables/keys map onto the Opt* constants; any
// decoder.schema entry becomes a "decoder.schema.alias_<key>" option.
func LoadTOML(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dconfig: reading %s: %w", path, err)
	}

	var doc tomlDocument
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("dconfig: parsing %s: %w", path, err)
	}

	r := NewRegistry()

	setIfNonEmpty(r, OptMainRawLogsFolder, doc.Main.RawLogsFolder)
	setIfNonEmpty(r, OptMainAbiDfPath, doc.Main.AbiDfPath)
	setIfNonEmpty(r, OptMainAbiFolderPath, doc.Main.AbiFolderPath)
	setIfNonEmpty(r, OptDecoderAlgorithm, doc.Decoder.Algorithm)
	setIfNonEmpty(r, OptDecoderHexEncoding, doc.Decoder.OutputHexStringEncode)
	if doc.Decoder.MaxChunkSize > 0 {
		r.Set(OptDecoderMaxChunk, fmt.Sprintf("%d", doc.Decoder.MaxChunkSize))
	}
	setIfNonEmpty(r, OptAbiReaderUniqueKey, doc.AbiReader.UniqueKey)
	setIfNonEmpty(r, OptAbiReaderHexEncode, doc.AbiReader.OutputHexStringEncode)

	for column, alias := range doc.Decoder.Schema {
		r.Set(OptDecoderSchemaAliasPrefix+column, alias)
	}

	return r, nil
}

func setIfNonEmpty(r *Registry, key, value string) {
	if value != "" {
		r.Set(key, value)
	}
}
