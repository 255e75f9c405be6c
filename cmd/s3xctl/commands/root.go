// Package commands implements s3xctl's CLI commands: a rootCmd with
// persistent global flags synced into cmdutil.Flags, and one child package
// per resource adding its own *cobra.Command tree.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/cmdutil"
	bucketcmd "github.com/AccessDevops/S3Explorer/cmd/s3xctl/commands/bucket"
	cachecmd "github.com/AccessDevops/S3Explorer/cmd/s3xctl/commands/cache"
	indexcmd "github.com/AccessDevops/S3Explorer/cmd/s3xctl/commands/index"
	objectcmd "github.com/AccessDevops/S3Explorer/cmd/s3xctl/commands/object"
	profilecmd "github.com/AccessDevops/S3Explorer/cmd/s3xctl/commands/profile"
	transfercmd "github.com/AccessDevops/S3Explorer/cmd/s3xctl/commands/transfer"
)

// Version information injected at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "s3xctl",
	Short: "S3Explorer command-line client",
	Long: `s3xctl drives S3Explorer's indexing and transfer core directly: manage
connection profiles, browse buckets and objects, run uploads and downloads,
and control the local object index, all without a UI shell attached.

Use "s3xctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cmdutil.Flags.Output, _ = cmd.Flags().GetString("output")
		cmdutil.Flags.NoColor, _ = cmd.Flags().GetBool("no-color")
		cmdutil.Flags.Verbose, _ = cmd.Flags().GetBool("verbose")
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json|yaml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(profilecmd.Cmd)
	rootCmd.AddCommand(bucketcmd.Cmd)
	rootCmd.AddCommand(objectcmd.Cmd)
	rootCmd.AddCommand(transfercmd.Cmd)
	rootCmd.AddCommand(indexcmd.Cmd)
	rootCmd.AddCommand(cachecmd.Cmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print s3xctl's version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.Printf("s3xctl %s (%s) built %s\n", Version, Commit, Date)
		return nil
	},
}

// Exit prints an error and exits with code 1.
func Exit(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
	os.Exit(1)
}
