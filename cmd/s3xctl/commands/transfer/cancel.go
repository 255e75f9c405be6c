package transfer

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/cmdutil"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <transfer-id>",
	Short: "Cancel an in-flight transfer",
	Long: `Cancel a transfer owned by a running "s3xctl serve" process, addressed
by the transfer id printed when it started. Transfers started by a plain
upload/download command belong to that process; interrupt it instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runCancel,
}

func init() {
	cancelCmd.Flags().String("addr", "", "Address of the serve process (default from config, http.addr)")
}

func runCancel(cmd *cobra.Command, args []string) error {
	transferID := args[0]
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cmdutil.GetConfig().HTTP.Addr
	}

	client := &http.Client{Timeout: 10 * time.Second}
	// The id alone doesn't say which registry holds it; try uploads first,
	// then downloads. Cancel is idempotent and unknown ids are a no-op on
	// the server, so the double shot is harmless.
	for _, kind := range []string{"uploads", "downloads"} {
		req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("http://%s/api/v1/%s/%s", addr, kind, transferID), nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("reach serve process at %s: %w", addr, err)
		}
		resp.Body.Close()
	}
	cmdutil.PrintSuccess(fmt.Sprintf("Cancellation requested for transfer %s", transferID))
	return nil
}
