package profile

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/cmdutil"
	"github.com/AccessDevops/S3Explorer/internal/cliutil/prompt"
)

var removeCmd = &cobra.Command{
	Use:   "remove <profile-id>",
	Short: "Remove a saved profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

var removeForce bool

func init() {
	removeCmd.Flags().BoolVarP(&removeForce, "force", "f", false, "Skip the confirmation prompt")
}

func runRemove(cmd *cobra.Command, args []string) error {
	id := args[0]
	if !removeForce {
		ok, err := prompt.Confirm(fmt.Sprintf("Remove profile %s and its cached index", id), false)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	removed, err := cmdutil.GetFacade().DeleteProfile(id)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("profile %s not found", id)
	}
	cmdutil.PrintSuccess("Profile " + id + " removed.")
	return nil
}
