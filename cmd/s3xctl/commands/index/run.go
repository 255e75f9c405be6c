package index

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/cmdutil"
	"github.com/AccessDevops/S3Explorer/pkg/events"
	"github.com/AccessDevops/S3Explorer/pkg/index"
)

var runCmd = &cobra.Command{
	Use:   "run <bucket>",
	Short: "Run a bucket's initial indexation",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	profileFlag(runCmd)
	runCmd.Flags().Int("max-requests", 0, "Maximum list requests to make (0 = unlimited)")
	runCmd.Flags().Int32("batch-size", 1000, "Objects requested per list call (1..1000)")
}

func runRun(cmd *cobra.Command, args []string) error {
	profileID, _ := cmd.Flags().GetString("profile")
	maxRequests, _ := cmd.Flags().GetInt("max-requests")
	batchSize, _ := cmd.Flags().GetInt32("batch-size")
	bucket := args[0]

	emitter := cmdutil.GetEmitter()

	err := cmdutil.GetFacade().StartIndexing(context.Background(), profileID, bucket, index.IndexingConfig{
		MaxInitialRequests: maxRequests,
		BatchSize:          batchSize,
	})
	if err != nil {
		return err
	}
	final := <-emitter.WaitForIndex(profileID, bucket)

	switch final.Status {
	case events.IndexFailed:
		return fmt.Errorf("indexing failed: %s", final.Error)
	case events.IndexCancelled:
		cmdutil.PrintSuccess(fmt.Sprintf("Indexing cancelled after %s objects; partial index kept.",
			humanize.Comma(final.ObjectsIndexed)))
	case events.IndexPartial:
		cmdutil.PrintSuccess(fmt.Sprintf("Indexed %s objects in %d requests (bucket not fully indexed; raise --max-requests to continue).",
			humanize.Comma(final.ObjectsIndexed), final.RequestsMade))
	default:
		cmdutil.PrintSuccess(fmt.Sprintf("Indexed %s objects in %d requests; bucket fully indexed.",
			humanize.Comma(final.ObjectsIndexed), final.RequestsMade))
	}
	return nil
}
