package cache

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/cmdutil"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Release a profile's cached connection and pooled handles",
	RunE:  runCleanup,
}

func init() {
	cleanupCmd.Flags().String("profile", "", "Profile ID to clean up")
	_ = cleanupCmd.MarkFlagRequired("profile")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	profileID, _ := cmd.Flags().GetString("profile")
	if err := cmdutil.GetFacade().CleanupProfile(profileID); err != nil {
		return err
	}
	cmdutil.PrintSuccess(fmt.Sprintf("Cached connection for profile %s released.", profileID))
	return nil
}
