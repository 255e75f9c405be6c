package bucket

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/cmdutil"
	"github.com/AccessDevops/S3Explorer/pkg/gateway"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List buckets visible to a profile",
	RunE:  runList,
}

func init() {
	profileFlag(listCmd)
}

type bucketList []gateway.BucketSummary

func (bl bucketList) Headers() []string { return []string{"NAME", "CREATED"} }

func (bl bucketList) Rows() [][]string {
	rows := make([][]string, 0, len(bl))
	for _, b := range bl {
		rows = append(rows, []string{b.Name, b.CreationDate})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	profileID, _ := cmd.Flags().GetString("profile")
	buckets, err := cmdutil.GetFacade().ListBuckets(context.Background(), profileID)
	if err != nil {
		return err
	}
	return cmdutil.PrintOutput(os.Stdout, buckets, len(buckets) == 0, "No buckets found.", bucketList(buckets))
}
