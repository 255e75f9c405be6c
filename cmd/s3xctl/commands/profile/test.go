package profile

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/cmdutil"
	"github.com/AccessDevops/S3Explorer/pkg/facade"
)

var testCmd = &cobra.Command{
	Use:   "test <profile-id>",
	Short: "Test a saved profile's credentials against its endpoint",
	Args:  cobra.ExactArgs(1),
	RunE:  runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	id := args[0]
	profiles, err := cmdutil.GetFacade().ListProfiles()
	if err != nil {
		return err
	}
	for _, p := range profiles {
		if p.ID != id {
			continue
		}
		result, err := cmdutil.GetFacade().TestConnection(context.Background(), facade.ProfileCredentials{
			Endpoint: p.Endpoint, Region: p.Region, AccessKey: p.AccessKey,
			SecretKey: p.SecretKey, SessionToken: p.SessionToken, PathStyle: p.PathStyle,
		})
		if err != nil {
			return err
		}
		if result.SuggestPathStyle {
			cmdutil.PrintSuccess("Connection succeeded, but path-style addressing is recommended for this endpoint.")
			return nil
		}
		if !result.Success {
			return fmt.Errorf("connection test failed: %s", result.Error)
		}
		cmdutil.PrintSuccess("Connection succeeded.")
		return nil
	}
	return fmt.Errorf("profile %s not found", id)
}
