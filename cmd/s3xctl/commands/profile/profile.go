// Package profile implements s3xctl's profile management commands.
package profile

import "github.com/spf13/cobra"

// Cmd is the parent command for profile management.
var Cmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage S3 connection profiles",
	Long: `Manage the saved S3 connection profiles S3Explorer indexes and
transfers against.

Examples:
  # List saved profiles
  s3xctl profile list

  # Add a profile interactively
  s3xctl profile add

  # Test a saved profile's credentials
  s3xctl profile test my-bucket-profile

  # Remove a profile
  s3xctl profile remove my-bucket-profile`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(removeCmd)
	Cmd.AddCommand(testCmd)
}
