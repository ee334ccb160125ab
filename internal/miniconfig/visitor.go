package miniconfig

// Visitor receives typed callbacks as the streaming parser walks a native
// build config document. Per-library callbacks apply to the library opened
// by the most recent BeginLibrary. A callback error aborts the parse.
type Visitor interface {
	// BeginLibrary opens a new library entry; subsequent per-library
	// callbacks target it until the next BeginLibrary
	BeginLibrary(name string) error

	// VisitLibraryAbi records the ABI of the current library
	VisitLibraryAbi(abi string) error

	// VisitLibraryArtifactName records the artifact name of the current library
	VisitLibraryArtifactName(name string) error

	// VisitLibraryBuildCommand records the build command of the current library
	VisitLibraryBuildCommand(command string) error

	// VisitLibraryOutput records the output path of the current library.
	// A nil path means the build system declared no output; implementations
	// must treat it as a no-op, not an error.
	VisitLibraryOutput(path *string) error

	// VisitLibraryRuntimeFile appends a runtime file to the current library
	VisitLibraryRuntimeFile(path string) error

	// VisitCleanCommands appends a clean command
	VisitCleanCommands(command string) error

	// VisitBuildFile records a file that invalidates the config when changed
	VisitBuildFile(path string) error

	// VisitBuildTargetsCommand records the build-targets command, if any
	VisitBuildTargetsCommand(command *string) error
}

// CompositeVisitor forwards every callback to an ordered list of delegates,
// preserving call order. The first delegate error aborts the fan-out.
type CompositeVisitor struct {
	delegates []Visitor
}

// NewCompositeVisitor creates a composite over the given delegates. The
// delegate order is the dispatch order.
func NewCompositeVisitor(delegates ...Visitor) *CompositeVisitor {
	return &CompositeVisitor{delegates: delegates}
}

func (c *CompositeVisitor) each(fn func(Visitor) error) error {
	for _, d := range c.delegates {
		if err := fn(d); err != nil {
			return err
		}
	}

	return nil
}

func (c *CompositeVisitor) BeginLibrary(name string) error {
	return c.each(func(v Visitor) error { return v.BeginLibrary(name) })
}

func (c *CompositeVisitor) VisitLibraryAbi(abi string) error {
	return c.each(func(v Visitor) error { return v.VisitLibraryAbi(abi) })
}

func (c *CompositeVisitor) VisitLibraryArtifactName(name string) error {
	return c.each(func(v Visitor) error { return v.VisitLibraryArtifactName(name) })
}

func (c *CompositeVisitor) VisitLibraryBuildCommand(command string) error {
	return c.each(func(v Visitor) error { return v.VisitLibraryBuildCommand(command) })
}

func (c *CompositeVisitor) VisitLibraryOutput(path *string) error {
	return c.each(func(v Visitor) error { return v.VisitLibraryOutput(path) })
}

func (c *CompositeVisitor) VisitLibraryRuntimeFile(path string) error {
	return c.each(func(v Visitor) error { return v.VisitLibraryRuntimeFile(path) })
}

func (c *CompositeVisitor) VisitCleanCommands(command string) error {
	return c.each(func(v Visitor) error { return v.VisitCleanCommands(command) })
}

func (c *CompositeVisitor) VisitBuildFile(path string) error {
	return c.each(func(v Visitor) error { return v.VisitBuildFile(path) })
}

func (c *CompositeVisitor) VisitBuildTargetsCommand(command *string) error {
	return c.each(func(v Visitor) error { return v.VisitBuildTargetsCommand(command) })
}
