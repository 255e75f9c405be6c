package transfer

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/cmdutil"
	"github.com/AccessDevops/S3Explorer/pkg/events"
	"github.com/AccessDevops/S3Explorer/pkg/transfer"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file> <bucket> <key>",
	Short: "Upload a local file",
	Args:  cobra.ExactArgs(3),
	RunE:  runUpload,
}

func init() {
	profileFlag(uploadCmd)
	uploadCmd.Flags().String("content-type", "", "Content-Type to set on the object")
}

func runUpload(cmd *cobra.Command, args []string) error {
	profileID, _ := cmd.Flags().GetString("profile")
	contentType, _ := cmd.Flags().GetString("content-type")
	filePath, bucket, key := args[0], args[1], args[2]

	emitter := cmdutil.GetEmitter()

	transferID, err := cmdutil.GetFacade().StartUpload(context.Background(), profileID, transfer.UploadInput{
		Bucket: bucket, Key: key, FilePath: filePath, ContentType: contentType,
	})
	if err != nil {
		return err
	}
	// The upload's background goroutine is already running by the time
	// StartUpload returns; the emitter buffers the terminal event if a
	// tiny-file transfer beats this registration.
	final := <-emitter.WaitForUpload(transferID)
	emitter.Wait()
	if final.Status != events.StatusCompleted {
		return fmt.Errorf("upload failed: %s", final.Error)
	}
	cmdutil.PrintSuccess(fmt.Sprintf("Uploaded %s to %s/%s (transfer %s)", filePath, bucket, key, transferID))
	return nil
}
