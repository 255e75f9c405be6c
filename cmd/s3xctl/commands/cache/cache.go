// Package cache implements s3xctl's cache and connection-pool maintenance
// commands.
package cache

import "github.com/spf13/cobra"

// Cmd is the parent command for cache maintenance.
var Cmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the per-profile connection cache",
	Long: `Inspect and maintain the process-wide per-profile connection cache and
index-store connection pool.

Examples:
  # Show cache counters
  s3xctl cache status

  # Pre-build a profile's connection before a batch of commands
  s3xctl cache warmup --profile my-profile

  # Release a profile's cached connection and pooled handles
  s3xctl cache cleanup --profile my-profile

  # Release everything
  s3xctl cache clear`,
}

func init() {
	Cmd.AddCommand(statusCmd)
	Cmd.AddCommand(warmupCmd)
	Cmd.AddCommand(cleanupCmd)
	Cmd.AddCommand(clearCmd)
}
