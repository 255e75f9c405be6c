package index

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/cmdutil"
	"github.com/AccessDevops/S3Explorer/internal/cliutil/output"
	"github.com/AccessDevops/S3Explorer/pkg/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every indexed bucket for a profile",
	RunE:  runList,
}

func init() {
	profileFlag(listCmd)
}

type bucketIndexList []store.BucketIndexSummary

func (bl bucketIndexList) Headers() []string {
	return []string{"BUCKET", "OBJECTS", "SIZE", "COMPLETE", "LAST-CHECKED"}
}

func (bl bucketIndexList) Rows() [][]string {
	rows := make([][]string, 0, len(bl))
	for _, b := range bl {
		lastChecked := "-"
		if b.LastCheckedAt != nil {
			lastChecked = humanize.Time(*b.LastCheckedAt)
		}
		rows = append(rows, []string{
			b.Bucket,
			humanize.Comma(b.ObjectsCount),
			humanize.Bytes(uint64(b.TotalSize)),
			fmt.Sprintf("%t", b.InitialIndexCompleted),
			output.EmptyOr(lastChecked, "-"),
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	profileID, _ := cmd.Flags().GetString("profile")

	summaries, err := cmdutil.GetFacade().GetAllBucketIndexes(context.Background(), profileID)
	if err != nil {
		return err
	}
	return cmdutil.PrintOutput(os.Stdout, summaries, len(summaries) == 0, "No buckets indexed for this profile.", bucketIndexList(summaries))
}
