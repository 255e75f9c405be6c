package profile

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/cmdutil"
	"github.com/AccessDevops/S3Explorer/internal/cliutil/output"
	"github.com/AccessDevops/S3Explorer/pkg/profile"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved profiles",
	RunE:  runList,
}

// profileList renders a slice of profile.Profile as a table.
type profileList []profile.Profile

func (pl profileList) Headers() []string { return []string{"ID", "NAME", "ENDPOINT", "REGION", "PATH-STYLE"} }

func (pl profileList) Rows() [][]string {
	rows := make([][]string, 0, len(pl))
	for _, p := range pl {
		pathStyle := "false"
		if p.PathStyle {
			pathStyle = "true"
		}
		rows = append(rows, []string{p.ID, p.Name, output.EmptyOr(p.Endpoint, "(aws)"), p.Region, pathStyle})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	profiles, err := cmdutil.GetFacade().ListProfiles()
	if err != nil {
		return err
	}
	return cmdutil.PrintOutput(os.Stdout, profiles, len(profiles) == 0, "No profiles found.", profileList(profiles))
}
