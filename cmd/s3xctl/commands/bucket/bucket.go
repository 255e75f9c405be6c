// Package bucket implements s3xctl's bucket lifecycle commands.
package bucket

import "github.com/spf13/cobra"

// Cmd is the parent command for bucket management.
var Cmd = &cobra.Command{
	Use:   "bucket",
	Short: "Manage S3 buckets",
	Long: `List, create, and delete buckets under a profile's credentials.

Examples:
  # List buckets
  s3xctl bucket list --profile my-profile

  # Create a bucket
  s3xctl bucket create --profile my-profile new-bucket

  # Delete an empty bucket
  s3xctl bucket delete --profile my-profile old-bucket`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(deleteCmd)
}

func profileFlag(cmd *cobra.Command) {
	cmd.Flags().String("profile", "", "Profile ID to use")
	_ = cmd.MarkFlagRequired("profile")
}
