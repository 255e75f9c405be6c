package profile

import (
	"github.com/spf13/cobra"

	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/cmdutil"
	"github.com/AccessDevops/S3Explorer/internal/cliutil/prompt"
	"github.com/AccessDevops/S3Explorer/pkg/profile"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new connection profile interactively",
	Long: `Prompts for a profile's name, endpoint, region, and credentials, then
saves it encrypted at rest.

An empty endpoint targets real AWS; set one (http://localhost:9000, for
example) for an S3-compatible service such as MinIO.`,
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	name, err := prompt.InputRequired("Profile name")
	if err != nil {
		return err
	}
	endpoint, err := prompt.Input("Endpoint (blank for AWS)", "")
	if err != nil {
		return err
	}
	region, err := prompt.Input("Region", "us-east-1")
	if err != nil {
		return err
	}
	accessKey, err := prompt.InputRequired("Access key")
	if err != nil {
		return err
	}
	secretKey, err := prompt.Password("Secret key")
	if err != nil {
		return err
	}
	pathStyle := false
	if endpoint != "" {
		pathStyle, err = prompt.Confirm("Use path-style addressing", true)
		if err != nil {
			return err
		}
	}

	saved, err := cmdutil.GetFacade().SaveProfile(profile.Profile{
		Name: name, Endpoint: endpoint, Region: region,
		AccessKey: accessKey, SecretKey: secretKey, PathStyle: pathStyle,
	})
	if err != nil {
		return err
	}

	cmdutil.PrintSuccess("Profile " + saved.Name + " (" + saved.ID + ") saved.")
	return nil
}
