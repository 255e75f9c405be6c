package index

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/cmdutil"
)

var statsCmd = &cobra.Command{
	Use:   "stats <bucket>",
	Short: "Show a bucket's (or prefix's) index statistics",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	profileFlag(statsCmd)
	statsCmd.Flags().String("prefix", "", "Restrict statistics to one prefix")
}

// bucketStatsView renders index statistics as a two-column table.
type bucketStatsView struct {
	Bucket     string `json:"bucket"`
	Prefix     string `json:"prefix,omitempty"`
	Objects    int64  `json:"objects"`
	TotalSize  int64  `json:"total_size"`
	IsComplete *bool  `json:"is_complete,omitempty"`
	FileSize   int64  `json:"index_file_size"`
}

func (v bucketStatsView) Headers() []string { return []string{"FIELD", "VALUE"} }

func (v bucketStatsView) Rows() [][]string {
	rows := [][]string{
		{"Bucket", v.Bucket},
	}
	if v.Prefix != "" {
		rows = append(rows, []string{"Prefix", v.Prefix})
	}
	rows = append(rows,
		[]string{"Objects", humanize.Comma(v.Objects)},
		[]string{"Total size", humanize.Bytes(uint64(v.TotalSize))},
	)
	if v.IsComplete != nil {
		rows = append(rows, []string{"Fully indexed", fmt.Sprintf("%t", *v.IsComplete)})
	}
	rows = append(rows, []string{"Index file size", humanize.Bytes(uint64(v.FileSize))})
	return rows
}

func runStats(cmd *cobra.Command, args []string) error {
	profileID, _ := cmd.Flags().GetString("profile")
	prefix, _ := cmd.Flags().GetString("prefix")
	bucket := args[0]
	ctx := context.Background()
	f := cmdutil.GetFacade()

	fileSize, err := f.GetIndexFileSize(profileID)
	if err != nil {
		return err
	}

	view := bucketStatsView{Bucket: bucket, Prefix: prefix, FileSize: fileSize}
	if prefix != "" {
		count, size, err := f.GetPrefixIndexStats(ctx, profileID, bucket, prefix)
		if err != nil {
			return err
		}
		view.Objects, view.TotalSize = count, size
	} else {
		stats, err := f.GetBucketIndexStats(ctx, profileID, bucket)
		if err != nil {
			return err
		}
		view.Objects, view.TotalSize = stats.Count, stats.Size
		view.IsComplete = &stats.IsComplete
	}
	return cmdutil.PrintResource(os.Stdout, view, view)
}
