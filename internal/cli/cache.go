package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the transcript cache",
	}
	cmd.AddCommand(newCacheStatsCmd(), newCacheClearCmd())
	return cmd
}

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print cache entry count and location",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cache, cfg, err := buildService()
			if err != nil {
				return err
			}
			defer cache.Close()

			n, err := cache.Len()
			if err != nil {
				return err
			}
			return printJSON(map[string]any{
				"dir":     cfg.CacheDir,
				"entries": n,
			})
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	var expiredOnly bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop cached transcripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cache, _, err := buildService()
			if err != nil {
				return err
			}
			defer cache.Close()

			if expiredOnly {
				n, err := cache.ClearExpired()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired entries\n", n)
				return nil
			}
			if err := cache.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
			return nil
		},
	}
	cmd.Flags().BoolVar(&expiredOnly, "expired", false, "remove only expired or stale-schema entries")
	return cmd
}
