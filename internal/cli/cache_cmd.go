package cli

import (
	"errors"
	"fmt"

	"github.com/mgpai22/xcaption/internal/cache"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the caption cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show caption cache usage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCache()
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Count(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Path:    %s\n", store.Path())
		fmt.Fprintf(out, "Entries: %d\n", n)
		fmt.Fprintf(out, "TTL:     %s\n", cfg.CacheTTL())
		return nil
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove cached captions",
	Long: `Remove cached captions. By default entries older than the configured TTL
are removed; --all empties the cache.

Examples:
  xcaption cache purge
  xcaption cache purge --older-than 2h
  xcaption cache purge --all`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		olderThan, _ := cmd.Flags().GetDuration("older-than")
		if all {
			olderThan = 0
		} else if olderThan <= 0 {
			olderThan = cfg.CacheTTL()
		}

		store, err := openCache()
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Purge(cmd.Context(), olderThan)
		if err != nil {
			return err
		}
		logger.Debugw("cache purged", "removed", n, "older_than", olderThan)
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached entries\n", n)
		return nil
	},
}

func openCache() (*cache.Store, error) {
	if !cfg.Cache.Enabled {
		return nil, errors.New("cache is disabled in the configuration")
	}
	return cache.Open(cfg.Cache.Path)
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePurgeCmd)

	cachePurgeCmd.Flags().
		Bool("all", false, "Remove every entry")
	cachePurgeCmd.Flags().
		Duration("older-than", 0, "Remove entries older than this (default: cache TTL)")
}

