package object

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/cmdutil"
	"github.com/AccessDevops/S3Explorer/internal/cliutil/prompt"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <bucket> <key>",
	Short: "Delete an object",
	Args:  cobra.ExactArgs(2),
	RunE:  runDelete,
}

var deleteForce bool

func init() {
	profileFlag(deleteCmd)
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip the confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
	profileID, _ := cmd.Flags().GetString("profile")
	bucket, key := args[0], args[1]

	if !deleteForce {
		ok, err := prompt.Confirm(fmt.Sprintf("Delete %s/%s", bucket, key), false)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	if err := cmdutil.GetFacade().DeleteObject(context.Background(), profileID, bucket, key); err != nil {
		return err
	}
	cmdutil.PrintSuccess("Deleted " + bucket + "/" + key)
	return nil
}
