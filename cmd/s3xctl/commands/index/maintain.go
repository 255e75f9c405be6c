package index

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/cmdutil"
)

var purgeCmd = &cobra.Command{
	Use:   "purge <bucket>",
	Short: "Delete stale index rows for a bucket",
	Long: `Delete index rows not refreshed within the stale window. Rows removed
from S3 externally stop being refreshed by listings and age out here.`,
	Args: cobra.ExactArgs(1),
	RunE: runPurge,
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Compact a profile's index database",
	RunE:  runOptimize,
}

func init() {
	profileFlag(purgeCmd)
	purgeCmd.Flags().Int("hours", 0, "Stale window in hours (0 = store default)")
	profileFlag(optimizeCmd)

	Cmd.AddCommand(purgeCmd)
	Cmd.AddCommand(optimizeCmd)
}

func runPurge(cmd *cobra.Command, args []string) error {
	profileID, _ := cmd.Flags().GetString("profile")
	hours, _ := cmd.Flags().GetInt("hours")

	deleted, err := cmdutil.GetFacade().PurgeStaleIndex(context.Background(), profileID, args[0], hours)
	if err != nil {
		return err
	}
	cmdutil.PrintSuccess(fmt.Sprintf("Purged %d stale rows from the index of %s.", deleted, args[0]))
	return nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	profileID, _ := cmd.Flags().GetString("profile")

	if err := cmdutil.GetFacade().OptimizeIndex(context.Background(), profileID); err != nil {
		return err
	}
	cmdutil.PrintSuccess("Index database optimized.")
	return nil
}
