package cache

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/cmdutil"
	"github.com/AccessDevops/S3Explorer/pkg/cache"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show connection cache counters",
	RunE:  runStatus,
}

type statusView cache.Stats

func (v statusView) Headers() []string { return []string{"FIELD", "VALUE"} }

func (v statusView) Rows() [][]string {
	return [][]string{
		{"Entries", fmt.Sprintf("%d", v.Len)},
		{"Hits", fmt.Sprintf("%d", v.Hits)},
		{"Misses", fmt.Sprintf("%d", v.Misses)},
		{"Hit rate", fmt.Sprintf("%.1f%%", cache.Stats(v).HitRate()*100)},
		{"Evictions", fmt.Sprintf("%d", v.Evictions)},
		{"Insertions", fmt.Sprintf("%d", v.Insertions)},
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	stats := cmdutil.GetFacade().CacheStatus()
	return cmdutil.PrintResource(os.Stdout, stats, statusView(stats))
}
