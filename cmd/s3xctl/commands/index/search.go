package index

import (
	"context"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/cmdutil"
	"github.com/AccessDevops/S3Explorer/pkg/model"
)

var searchCmd = &cobra.Command{
	Use:   "search <bucket> <query>",
	Short: "Search indexed objects by name substring",
	Args:  cobra.ExactArgs(2),
	RunE:  runSearch,
}

func init() {
	profileFlag(searchCmd)
	searchCmd.Flags().String("prefix", "", "Restrict the search to one prefix")
	searchCmd.Flags().Int("limit", 100, "Maximum results to return (0 = unlimited)")
}

type searchResults []*model.IndexedObject

func (rs searchResults) Headers() []string { return []string{"KEY", "SIZE", "MODIFIED", "STORAGE-CLASS"} }

func (rs searchResults) Rows() [][]string {
	rows := make([][]string, 0, len(rs))
	for _, o := range rs {
		rows = append(rows, []string{
			o.Key,
			humanize.Bytes(uint64(o.Size)),
			o.LastModified,
			o.StorageClass,
		})
	}
	return rows
}

func runSearch(cmd *cobra.Command, args []string) error {
	profileID, _ := cmd.Flags().GetString("profile")
	prefix, _ := cmd.Flags().GetString("prefix")
	limit, _ := cmd.Flags().GetInt("limit")
	bucket, query := args[0], args[1]

	results, err := cmdutil.GetFacade().SearchObjects(context.Background(), profileID, bucket, query, prefix, limit)
	if err != nil {
		return err
	}
	return cmdutil.PrintOutput(os.Stdout, results, len(results) == 0, "No matching objects in the index.", searchResults(results))
}
