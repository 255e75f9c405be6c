package cache

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/cmdutil"
)

var warmupCmd = &cobra.Command{
	Use:   "warmup",
	Short: "Pre-build a profile's connection",
	RunE:  runWarmup,
}

func init() {
	warmupCmd.Flags().String("profile", "", "Profile ID to warm up")
	_ = warmupCmd.MarkFlagRequired("profile")
}

func runWarmup(cmd *cobra.Command, args []string) error {
	profileID, _ := cmd.Flags().GetString("profile")
	if err := cmdutil.GetFacade().Warmup(context.Background(), profileID); err != nil {
		return err
	}
	cmdutil.PrintSuccess(fmt.Sprintf("Connection for profile %s warmed up.", profileID))
	return nil
}
