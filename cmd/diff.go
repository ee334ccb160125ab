package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/incbuild/incbuild/internal/config"
	"github.com/incbuild/incbuild/internal/filecache"
	"github.com/incbuild/incbuild/internal/incremental"
	"github.com/incbuild/incbuild/internal/logging"
)

var diffCmd = &cobra.Command{
	Use:          "diff <zip-or-directory>",
	Short:        "Diff a source against its cached baseline",
	Long:         `Compute the added/changed/removed file set between a zip archive or directory and the baseline snapshot recorded in the cache. The baseline is only replaced with --commit, so an uncommitted diff reproduces the same delta on retry.`,
	RunE:         runDiff,
	SilenceUsage: true,
}

func init() {
	diffCmd.Flags().Bool("commit", false, "Apply the deferred cache updates after printing the delta")
}

func runDiff(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("requires exactly one source argument")
	}

	cfg, err := config.NewLoader().LoadForCommand(cmd, args)
	if err != nil {
		return err
	}

	if err := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		return err
	}
	defer logging.Sync()

	cache, err := filecache.New(cfg.CacheDir)
	if err != nil {
		return err
	}
	defer cache.Close()

	delta, updates, err := incremental.Diff(args[0], cache)
	if err != nil {
		return err
	}

	fmt.Print(formatDelta(delta))

	commit, _ := cmd.Flags().GetBool("commit")
	if !commit {
		return nil
	}

	if err := incremental.Apply(updates, cache); err != nil {
		return fmt.Errorf("failed to commit baseline: %w", err)
	}

	logging.Debug("baseline committed", zap.Int("updates", len(updates)))

	return nil
}

// formatDelta renders the delta sorted by relative path; the map itself has
// no defined order.
func formatDelta(delta map[incremental.RelativeFile]incremental.Status) string {
	if len(delta) == 0 {
		return "No changes\n"
	}

	files := make([]incremental.RelativeFile, 0, len(delta))
	for f := range delta {
		files = append(files, f)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelativePath < files[j].RelativePath })

	var sb strings.Builder
	for _, f := range files {
		fmt.Fprintf(&sb, "%-8s %s\n", delta[f], f.RelativePath)
	}

	return sb.String()
}
