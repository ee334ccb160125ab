// Package miniconfig parses a native build system's JSON description into a
// compact, randomly-accessible model.
//
// The full build description can be large (one entry per source file per
// ABI), but most consumers only need the per-library essentials: the ABI,
// the artifact name, the build command, and the produced outputs. Rather
// than materializing the whole document, the parser streams tokens and
// drives visitor callbacks; the builder accumulates only the fields the
// mini model keeps. The result is cached in a side-car file next to the
// source JSON so unchanged inputs skip the parse entirely.
package miniconfig

// LibraryValue is the mini model of a single native library target.
type LibraryValue struct {
	// Abi is the target ABI (e.g., "x86", "arm64-v8a")
	Abi string `json:"abi"`

	// ArtifactName is the unmangled target name, shared across ABIs
	ArtifactName string `json:"artifactName"`

	// BuildCommand builds just this library
	BuildCommand string `json:"buildCommand"`

	// Output is the path to the built artifact. Empty when the build
	// system declares no output (header-only or aggregate targets).
	Output string `json:"output,omitempty"`

	// RuntimeFiles are additional files the library needs at runtime,
	// in declaration order
	RuntimeFiles []string `json:"runtimeFiles,omitempty"`
}

// MiniConfig is the compact parsed representation of a native build
// description. It is immutable once returned by a parse or cache load.
type MiniConfig struct {
	// Libraries maps library name to its mini model
	Libraries map[string]*LibraryValue `json:"libraries"`

	// BuildFiles lists the files that invalidate the cached config
	// when changed
	BuildFiles []string `json:"buildFiles,omitempty"`

	// CleanCommands are the commands that clean the build, in order
	CleanCommands []string `json:"cleanCommands,omitempty"`

	// BuildTargetsCommand builds an arbitrary list of targets. Empty
	// when the build system does not provide one.
	BuildTargetsCommand string `json:"buildTargetsCommand,omitempty"`
}

// Equal reports structural equality of two configs.
func (m *MiniConfig) Equal(other *MiniConfig) bool {
	if m == nil || other == nil {
		return m == other
	}

	if m.BuildTargetsCommand != other.BuildTargetsCommand {
		return false
	}

	if !stringSlicesEqual(m.BuildFiles, other.BuildFiles) {
		return false
	}

	if !stringSlicesEqual(m.CleanCommands, other.CleanCommands) {
		return false
	}

	if len(m.Libraries) != len(other.Libraries) {
		return false
	}

	for name, lib := range m.Libraries {
		otherLib, ok := other.Libraries[name]
		if !ok || !lib.equal(otherLib) {
			return false
		}
	}

	return true
}

func (l *LibraryValue) equal(other *LibraryValue) bool {
	return l.Abi == other.Abi &&
		l.ArtifactName == other.ArtifactName &&
		l.BuildCommand == other.BuildCommand &&
		l.Output == other.Output &&
		stringSlicesEqual(l.RuntimeFiles, other.RuntimeFiles)
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
