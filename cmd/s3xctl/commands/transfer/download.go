package transfer

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/cmdutil"
	"github.com/AccessDevops/S3Explorer/pkg/events"
)

var downloadCmd = &cobra.Command{
	Use:   "download <bucket> <key> <dest>",
	Short: "Download an object to a local file",
	Args:  cobra.ExactArgs(3),
	RunE:  runDownload,
}

func init() {
	profileFlag(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	profileID, _ := cmd.Flags().GetString("profile")
	bucket, key, dest := args[0], args[1], args[2]

	emitter := cmdutil.GetEmitter()

	transferID, err := cmdutil.GetFacade().StartDownload(context.Background(), profileID, bucket, key, dest)
	if err != nil {
		return err
	}
	final := <-emitter.WaitForDownload(transferID)
	emitter.Wait()
	if final.Status != events.StatusCompleted {
		return fmt.Errorf("download failed: %s", final.Error)
	}
	cmdutil.PrintSuccess(fmt.Sprintf("Downloaded %s/%s to %s (%s)", bucket, key, dest, humanize.Bytes(uint64(final.DownloadedBytes))))
	return nil
}
