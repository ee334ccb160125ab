package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/incbuild/incbuild/internal/config"
	"github.com/incbuild/incbuild/internal/logging"
	"github.com/incbuild/incbuild/internal/miniconfig"
)

var parseCmd = &cobra.Command{
	Use:          "parse <build-config.json>",
	Short:        "Parse a native build config into a mini config",
	Long:         `Parse a native build config JSON document into its mini config, reusing the side-car cache file when it is newer than the source.`,
	RunE:         runParse,
	SilenceUsage: true,
}

func init() {
	parseCmd.Flags().Bool("no-cache", false, "Ignore the side-car cache and re-parse")
	parseCmd.Flags().Bool("stats", false, "Collect and print document statistics")
}

func runParse(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("requires exactly one file argument")
	}

	file := args[0]
	if !strings.HasSuffix(file, ".json") {
		return fmt.Errorf("file must have .json extension")
	}

	absFile, err := filepath.Abs(file)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	cfg, err := config.NewLoader().LoadForCommand(cmd, args)
	if err != nil {
		return err
	}

	if err := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		return err
	}
	defer logging.Sync()

	withStats, _ := cmd.Flags().GetBool("stats")

	var stats *miniconfig.StatsVisitor
	var extra []miniconfig.Visitor
	if withStats {
		stats = miniconfig.NewStatsVisitor()
		extra = append(extra, stats)
	}

	mini, err := loadMiniConfig(cfg, absFile, extra)
	if err != nil {
		return err
	}

	fmt.Print(formatSummary(absFile, mini))

	if stats != nil {
		fmt.Print(formatStats(stats.Stats()))
	}

	return nil
}

// loadMiniConfig parses directly when the cache is disabled, otherwise goes
// through the side-car cache. Extra visitors force a direct parse: a cache
// hit skips the streaming pass, which would leave them with no callbacks
// and zeroed results.
func loadMiniConfig(cfg *config.Config, absFile string, extra []miniconfig.Visitor) (*miniconfig.MiniConfig, error) {
	if !cfg.NoCache && len(extra) == 0 {
		return miniconfig.NewConfigCache(miniconfig.DefaultCodec()).Load(absFile)
	}

	f, err := os.Open(absFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open build config: %w", err)
	}
	defer f.Close()

	builder := miniconfig.NewBuilder()
	visitor := miniconfig.Visitor(builder)
	if len(extra) > 0 {
		visitor = miniconfig.NewCompositeVisitor(append([]miniconfig.Visitor{builder}, extra...)...)
	}

	if err := miniconfig.Parse(f, visitor); err != nil {
		return nil, err
	}

	return builder.Build()
}

func formatSummary(source string, mini *miniconfig.MiniConfig) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Source: %s\n", source)
	fmt.Fprintf(&sb, "Libraries: %d\n", len(mini.Libraries))

	names := make([]string, 0, len(mini.Libraries))
	for name := range mini.Libraries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		lib := mini.Libraries[name]
		fmt.Fprintf(&sb, "  %s (%s) -> %s\n", name, lib.Abi, orNone(lib.Output))
	}

	fmt.Fprintf(&sb, "Build files: %d\n", len(mini.BuildFiles))
	fmt.Fprintf(&sb, "Clean commands: %d\n", len(mini.CleanCommands))

	if mini.BuildTargetsCommand != "" {
		fmt.Fprintf(&sb, "Build targets command: %s\n", mini.BuildTargetsCommand)
	}

	return sb.String()
}

func formatStats(stats miniconfig.Stats) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Stats:\n")
	fmt.Fprintf(&sb, "  libraries: %d (%d with output)\n", stats.Libraries, stats.LibrariesWithOutput)
	fmt.Fprintf(&sb, "  runtime files: %d\n", stats.RuntimeFiles)
	fmt.Fprintf(&sb, "  build files: %d\n", stats.BuildFiles)
	fmt.Fprintf(&sb, "  clean commands: %d\n", stats.CleanCommands)

	return sb.String()
}

func orNone(s string) string {
	if s == "" {
		return "(no output)"
	}

	return s
}
