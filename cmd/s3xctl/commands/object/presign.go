package object

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/cmdutil"
)

var presignCmd = &cobra.Command{
	Use:   "presign <bucket> <key>",
	Short: "Generate a time-bounded presigned URL",
	Args:  cobra.ExactArgs(2),
	RunE:  runPresign,
}

func init() {
	profileFlag(presignCmd)
	presignCmd.Flags().Duration("expiry", 15*time.Minute, "URL lifetime")
	presignCmd.Flags().Bool("upload", false, "Presign a PUT instead of a GET")
}

func runPresign(cmd *cobra.Command, args []string) error {
	profileID, _ := cmd.Flags().GetString("profile")
	expiry, _ := cmd.Flags().GetDuration("expiry")
	forUpload, _ := cmd.Flags().GetBool("upload")

	url, err := cmdutil.GetFacade().PresignURL(context.Background(), profileID, args[0], args[1], expiry, forUpload)
	if err != nil {
		return err
	}
	fmt.Println(url)
	return nil
}
