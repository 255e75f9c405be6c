// Package object implements s3xctl's object browsing and manipulation
// commands.
package object

import "github.com/spf13/cobra"

// Cmd is the parent command for object operations.
var Cmd = &cobra.Command{
	Use:   "object",
	Short: "Browse and manage objects within a bucket",
	Long: `List, delete, copy, move, and presign objects within a bucket.

Examples:
  # List objects under a prefix
  s3xctl object list --profile my-profile my-bucket --prefix logs/

  # Delete an object
  s3xctl object delete --profile my-profile my-bucket logs/old.txt

  # Copy an object
  s3xctl object copy --profile my-profile my-bucket src.txt my-bucket dst.txt

  # Presign a download URL
  s3xctl object presign --profile my-profile my-bucket report.csv`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(copyCmd)
	Cmd.AddCommand(moveCmd)
	Cmd.AddCommand(presignCmd)
}

func profileFlag(cmd *cobra.Command) {
	cmd.Flags().String("profile", "", "Profile ID to use")
	_ = cmd.MarkFlagRequired("profile")
}
