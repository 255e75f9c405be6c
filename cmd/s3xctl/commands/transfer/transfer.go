// Package transfer implements s3xctl's upload/download commands, blocking
// on the console emitter's Wait* channel so the process doesn't exit before
// the background transfer goroutine reaches a terminal state.
package transfer

import "github.com/spf13/cobra"

// Cmd is the parent command for transfer operations.
var Cmd = &cobra.Command{
	Use:     "transfer",
	Aliases: []string{"xfr"},
	Short:   "Upload and download objects",
	Long: `Start an upload or download and wait for it to finish, rendering a
progress bar to stderr.

Examples:
  # Upload a file
  s3xctl transfer upload --profile my-profile ./report.csv my-bucket reports/report.csv

  # Download an object
  s3xctl transfer download --profile my-profile my-bucket reports/report.csv ./report.csv

  # Cancel an in-flight transfer from another terminal
  s3xctl transfer cancel <transfer-id>`,
}

func init() {
	Cmd.AddCommand(uploadCmd)
	Cmd.AddCommand(downloadCmd)
	Cmd.AddCommand(cancelCmd)
}

func profileFlag(cmd *cobra.Command) {
	cmd.Flags().String("profile", "", "Profile ID to use")
	_ = cmd.MarkFlagRequired("profile")
}
