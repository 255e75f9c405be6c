package bucket

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/cmdutil"
	"github.com/AccessDevops/S3Explorer/internal/cliutil/prompt"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <bucket>",
	Short: "Delete an empty bucket",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var deleteForce bool

func init() {
	profileFlag(deleteCmd)
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip the confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
	profileID, _ := cmd.Flags().GetString("profile")
	bucket := args[0]

	if !deleteForce {
		canDelete, err := cmdutil.GetFacade().CanDeleteBucket(context.Background(), profileID, bucket)
		if err != nil {
			return err
		}
		if !canDelete {
			return fmt.Errorf("bucket %s is not empty", bucket)
		}
		ok, err := prompt.Confirm(fmt.Sprintf("Delete bucket %s", bucket), false)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	if err := cmdutil.GetFacade().DeleteBucket(context.Background(), profileID, bucket); err != nil {
		return err
	}
	cmdutil.PrintSuccess("Bucket " + bucket + " deleted.")
	return nil
}
