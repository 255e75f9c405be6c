package index

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/cmdutil"
	"github.com/AccessDevops/S3Explorer/internal/cliutil/prompt"
)

var clearCmd = &cobra.Command{
	Use:   "clear <bucket>",
	Short: "Drop a bucket's local index",
	Long: `Drop every indexed object, prefix status, and bucket record for the
bucket. S3 itself is untouched; the next listing or "index run" rebuilds
the index from scratch.`,
	Args: cobra.ExactArgs(1),
	RunE: runClear,
}

func init() {
	profileFlag(clearCmd)
	clearCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
}

func runClear(cmd *cobra.Command, args []string) error {
	profileID, _ := cmd.Flags().GetString("profile")
	yes, _ := cmd.Flags().GetBool("yes")
	bucket := args[0]

	if !yes {
		ok, err := prompt.Confirm(fmt.Sprintf("Drop the local index for bucket %s", bucket), false)
		if err != nil || !ok {
			return err
		}
	}

	if err := cmdutil.GetFacade().ClearIndex(context.Background(), profileID, bucket); err != nil {
		return err
	}
	cmdutil.PrintSuccess(fmt.Sprintf("Index for bucket %s cleared.", bucket))
	return nil
}
