package object

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/cmdutil"
)

var moveCmd = &cobra.Command{
	Use:   "move <src-bucket> <src-key> <dst-bucket> <dst-key>",
	Short: "Move an object (copy then delete the source)",
	Args:  cobra.ExactArgs(4),
	RunE:  runMove,
}

func init() {
	profileFlag(moveCmd)
}

func runMove(cmd *cobra.Command, args []string) error {
	profileID, _ := cmd.Flags().GetString("profile")
	if err := cmdutil.GetFacade().MoveObject(context.Background(), profileID, args[0], args[1], args[2], args[3]); err != nil {
		return err
	}
	cmdutil.PrintSuccess("Moved " + args[0] + "/" + args[1] + " to " + args[2] + "/" + args[3])
	return nil
}
