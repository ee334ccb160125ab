package miniconfig

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
)

// Codec holds the serialization rules for mini-config side-car files. It is
// passed in explicitly so independent configurations can coexist; there is
// no process-wide serializer.
type Codec struct {
	// Indent is the indentation unit for encoded output; empty means
	// compact encoding
	Indent string

	// SlashPaths normalizes path fields to forward slashes on encode so
	// side-car files are reproducible across platforms
	SlashPaths bool
}

// DefaultCodec returns the codec used for side-car files: indented,
// slash-normalized output. Struct fields encode in declaration order and
// map keys sort, so the output is stable for byte comparison.
func DefaultCodec() Codec {
	return Codec{Indent: "  ", SlashPaths: true}
}

// Encode writes the config to w.
func (c Codec) Encode(w io.Writer, config *MiniConfig) error {
	if c.SlashPaths {
		config = slashPaths(config)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", c.Indent)

	if err := enc.Encode(config); err != nil {
		return fmt.Errorf("failed to encode mini config: %w", err)
	}

	return nil
}

// Decode reads a config previously written by Encode.
func (c Codec) Decode(r io.Reader) (*MiniConfig, error) {
	var config MiniConfig
	if err := json.NewDecoder(r).Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to decode mini config: %w", err)
	}

	if config.Libraries == nil {
		config.Libraries = make(map[string]*LibraryValue)
	}

	return &config, nil
}

// slashPaths returns a copy with all path fields forward-slashed.
func slashPaths(config *MiniConfig) *MiniConfig {
	out := &MiniConfig{
		Libraries:           make(map[string]*LibraryValue, len(config.Libraries)),
		BuildFiles:          toSlashAll(config.BuildFiles),
		CleanCommands:       config.CleanCommands,
		BuildTargetsCommand: config.BuildTargetsCommand,
	}

	for name, lib := range config.Libraries {
		out.Libraries[name] = &LibraryValue{
			Abi:          lib.Abi,
			ArtifactName: lib.ArtifactName,
			BuildCommand: lib.BuildCommand,
			Output:       filepath.ToSlash(lib.Output),
			RuntimeFiles: toSlashAll(lib.RuntimeFiles),
		}
	}

	return out
}

func toSlashAll(paths []string) []string {
	if paths == nil {
		return nil
	}

	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.ToSlash(p)
	}

	return out
}
