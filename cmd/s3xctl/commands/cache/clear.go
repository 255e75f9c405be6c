package cache

import (
	"github.com/spf13/cobra"

	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/cmdutil"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Release every cached connection across every profile",
	RunE:  runClear,
}

func runClear(cmd *cobra.Command, args []string) error {
	if err := cmdutil.GetFacade().ClearAllCaches(); err != nil {
		return err
	}
	cmdutil.PrintSuccess("All cached connections released.")
	return nil
}
