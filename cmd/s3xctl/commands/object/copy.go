package object

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/cmdutil"
)

var copyCmd = &cobra.Command{
	Use:   "copy <src-bucket> <src-key> <dst-bucket> <dst-key>",
	Short: "Copy an object",
	Args:  cobra.ExactArgs(4),
	RunE:  runCopy,
}

func init() {
	profileFlag(copyCmd)
}

func runCopy(cmd *cobra.Command, args []string) error {
	profileID, _ := cmd.Flags().GetString("profile")
	if err := cmdutil.GetFacade().CopyObject(context.Background(), profileID, args[0], args[1], args[2], args[3]); err != nil {
		return err
	}
	cmdutil.PrintSuccess("Copied " + args[0] + "/" + args[1] + " to " + args[2] + "/" + args[3])
	return nil
}
