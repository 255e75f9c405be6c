package bucket

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/cmdutil"
)

var createCmd = &cobra.Command{
	Use:   "create <bucket>",
	Short: "Create a bucket",
	Args:  cobra.ExactArgs(1),
	RunE:  runCreate,
}

func init() {
	profileFlag(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	profileID, _ := cmd.Flags().GetString("profile")
	if err := cmdutil.GetFacade().CreateBucket(context.Background(), profileID, args[0]); err != nil {
		return err
	}
	cmdutil.PrintSuccess("Bucket " + args[0] + " created.")
	return nil
}
