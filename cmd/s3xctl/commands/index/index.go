// Package index implements s3xctl's local-index commands: running a
// bucket's initial indexation, querying index statistics, searching the
// index, and clearing it.
package index

import "github.com/spf13/cobra"

// Cmd is the parent command for index management.
var Cmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the local object index",
	Long: `Manage the per-profile local object index that answers listing, search,
and size queries without hitting S3.

Examples:
  # Index a bucket (bounded to 50 list requests)
  s3xctl index run --profile my-profile my-bucket --max-requests 50

  # Show a bucket's index statistics
  s3xctl index stats --profile my-profile my-bucket

  # Search indexed objects by name
  s3xctl index search --profile my-profile my-bucket report

  # List every indexed bucket for a profile
  s3xctl index list --profile my-profile

  # Drop a bucket's index (S3 itself is untouched)
  s3xctl index clear --profile my-profile my-bucket`,
}

func init() {
	Cmd.AddCommand(runCmd)
	Cmd.AddCommand(statsCmd)
	Cmd.AddCommand(searchCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(clearCmd)
}

func profileFlag(cmd *cobra.Command) {
	cmd.Flags().String("profile", "", "Profile ID to use")
	_ = cmd.MarkFlagRequired("profile")
}
