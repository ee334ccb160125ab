package miniconfig

// Stats summarizes a build config document in a single streaming pass.
type Stats struct {
	Libraries           int
	LibrariesWithOutput int
	RuntimeFiles        int
	BuildFiles          int
	CleanCommands       int
}

// StatsVisitor counts document features. It is typically fanned out through
// a CompositeVisitor alongside a Builder so both are fed by one parse.
type StatsVisitor struct {
	stats Stats
}

// NewStatsVisitor creates a zeroed statistics collector.
func NewStatsVisitor() *StatsVisitor {
	return &StatsVisitor{}
}

// Stats returns the counts accumulated so far.
func (s *StatsVisitor) Stats() Stats {
	return s.stats
}

func (s *StatsVisitor) BeginLibrary(string) error {
	s.stats.Libraries++

	return nil
}

func (s *StatsVisitor) VisitLibraryAbi(string) error { return nil }

func (s *StatsVisitor) VisitLibraryArtifactName(string) error { return nil }

func (s *StatsVisitor) VisitLibraryBuildCommand(string) error { return nil }

func (s *StatsVisitor) VisitLibraryOutput(path *string) error {
	if path != nil {
		s.stats.LibrariesWithOutput++
	}

	return nil
}

func (s *StatsVisitor) VisitLibraryRuntimeFile(string) error {
	s.stats.RuntimeFiles++

	return nil
}

func (s *StatsVisitor) VisitCleanCommands(string) error {
	s.stats.CleanCommands++

	return nil
}

func (s *StatsVisitor) VisitBuildFile(string) error {
	s.stats.BuildFiles++

	return nil
}

func (s *StatsVisitor) VisitBuildTargetsCommand(*string) error { return nil }
