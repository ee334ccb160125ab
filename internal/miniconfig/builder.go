package miniconfig

import "fmt"

// Builder accumulates visitor callbacks into a MiniConfig. The current
// library is tracked as an explicit key so that a per-library callback
// arriving with no open library is a defensive error rather than a nil
// dereference.
type Builder struct {
	config  MiniConfig
	current string
}

// NewBuilder creates an empty builder. A builder is good for one parse;
// create a fresh one per document.
func NewBuilder() *Builder {
	return &Builder{
		config: MiniConfig{
			Libraries: make(map[string]*LibraryValue),
		},
	}
}

// Build returns the accumulated config after validating that every library
// carries an ABI and an artifact name.
func (b *Builder) Build() (*MiniConfig, error) {
	for name, lib := range b.config.Libraries {
		if lib.Abi == "" {
			return nil, fmt.Errorf("library %q has no abi", name)
		}

		if lib.ArtifactName == "" {
			return nil, fmt.Errorf("library %q has no artifact name", name)
		}
	}

	return &b.config, nil
}

func (b *Builder) BeginLibrary(name string) error {
	b.config.Libraries[name] = &LibraryValue{}
	b.current = name

	return nil
}

// library returns the entry opened by the last BeginLibrary.
func (b *Builder) library() (*LibraryValue, error) {
	if b.current == "" {
		return nil, fmt.Errorf("library callback with no open library")
	}

	return b.config.Libraries[b.current], nil
}

func (b *Builder) VisitLibraryAbi(abi string) error {
	lib, err := b.library()
	if err != nil {
		return err
	}

	lib.Abi = abi

	return nil
}

func (b *Builder) VisitLibraryArtifactName(name string) error {
	lib, err := b.library()
	if err != nil {
		return err
	}

	lib.ArtifactName = name

	return nil
}

func (b *Builder) VisitLibraryBuildCommand(command string) error {
	lib, err := b.library()
	if err != nil {
		return err
	}

	lib.BuildCommand = command

	return nil
}

// VisitLibraryOutput with a nil path is a no-op: some build systems omit
// output paths for header-only or aggregate targets.
func (b *Builder) VisitLibraryOutput(path *string) error {
	if path == nil {
		return nil
	}

	lib, err := b.library()
	if err != nil {
		return err
	}

	lib.Output = *path

	return nil
}

func (b *Builder) VisitLibraryRuntimeFile(path string) error {
	lib, err := b.library()
	if err != nil {
		return err
	}

	lib.RuntimeFiles = append(lib.RuntimeFiles, path)

	return nil
}

func (b *Builder) VisitCleanCommands(command string) error {
	b.config.CleanCommands = append(b.config.CleanCommands, command)

	return nil
}

func (b *Builder) VisitBuildFile(path string) error {
	b.config.BuildFiles = append(b.config.BuildFiles, path)

	return nil
}

func (b *Builder) VisitBuildTargetsCommand(command *string) error {
	if command == nil {
		return nil
	}

	b.config.BuildTargetsCommand = *command

	return nil
}
