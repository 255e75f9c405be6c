package object

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/cmdutil"
	"github.com/AccessDevops/S3Explorer/pkg/gateway"
)

var listCmd = &cobra.Command{
	Use:   "list <bucket>",
	Short: "List objects under a prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

func init() {
	profileFlag(listCmd)
	listCmd.Flags().String("prefix", "", "Prefix to list under")
	listCmd.Flags().String("continuation-token", "", "Resume a previous page")
}

type objectList []gateway.ObjectSummary

func (ol objectList) Headers() []string { return []string{"KEY", "SIZE", "LAST MODIFIED", "STORAGE CLASS"} }

func (ol objectList) Rows() [][]string {
	rows := make([][]string, 0, len(ol))
	for _, o := range ol {
		key := o.Key
		if o.IsPrefix {
			rows = append(rows, []string{key, "-", "-", "(folder)"})
			continue
		}
		rows = append(rows, []string{key, humanize.Bytes(uint64(o.Size)), o.LastModified, o.StorageClass})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	profileID, _ := cmd.Flags().GetString("profile")
	prefix, _ := cmd.Flags().GetString("prefix")
	token, _ := cmd.Flags().GetString("continuation-token")

	page, err := cmdutil.GetFacade().ListObjects(context.Background(), profileID, args[0], prefix, token)
	if err != nil {
		return err
	}
	if err := cmdutil.PrintOutput(os.Stdout, page.Objects, len(page.Objects) == 0, "No objects found.", objectList(page.Objects)); err != nil {
		return err
	}
	if page.IsTruncated {
		fmt.Fprintf(os.Stderr, "more results available; continue with --continuation-token=%s\n", page.NextContinuationToken)
	}
	return nil
}
