package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/incbuild/incbuild/internal/config"
	"github.com/incbuild/incbuild/internal/filecache"
)

var cacheCmd = &cobra.Command{
	Use:          "cache",
	Short:        "Inspect or clear the file-set snapshot cache",
	SilenceUsage: true,
}

var cacheStatsCmd = &cobra.Command{
	Use:          "stats",
	Short:        "Print snapshot cache statistics",
	RunE:         runCacheStats,
	SilenceUsage: true,
}

var cacheClearCmd = &cobra.Command{
	Use:          "clear",
	Short:        "Remove all cached snapshots",
	RunE:         runCacheClear,
	SilenceUsage: true,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func openCache(cmd *cobra.Command, args []string) (*filecache.Cache, error) {
	cfg, err := config.NewLoader().LoadForCommand(cmd, args)
	if err != nil {
		return nil, err
	}

	return filecache.New(cfg.CacheDir)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	cache, err := openCache(cmd, args)
	if err != nil {
		return err
	}
	defer cache.Close()

	snapshots, entries, err := cache.Stats()
	if err != nil {
		return err
	}

	fmt.Printf("Snapshots: %d\nEntries: %d\n", snapshots, entries)

	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cache, err := openCache(cmd, args)
	if err != nil {
		return err
	}
	defer cache.Close()

	if err := cache.Clear(); err != nil {
		return err
	}

	fmt.Println("Cache cleared")

	return nil
}
