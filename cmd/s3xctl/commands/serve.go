package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/cmdutil"
	"github.com/AccessDevops/S3Explorer/internal/logger"
	"github.com/AccessDevops/S3Explorer/pkg/httpapi"
	"github.com/AccessDevops/S3Explorer/pkg/metrics/promexport"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP bridge for UI shells",
	Long: `Serve the command surface over a local HTTP API, with progress and
metrics events streamed to subscribers over SSE at /api/v1/events and
Prometheus metrics exposed at /metrics.

A UI shell (or "s3xctl transfer cancel" from another terminal) talks to
this process instead of driving the facade in-process.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from config, http.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cmdutil.GetConfig().HTTP.Addr
	}

	broadcaster := httpapi.NewBroadcaster()
	exporter := promexport.New()
	cmdutil.GetFacade().AttachEmitter(broadcaster)
	cmdutil.GetFacade().AttachEmitter(promexport.EmitterFor(exporter))

	srv := &http.Server{
		Addr:    addr,
		Handler: httpapi.NewRouter(cmdutil.GetFacade(), broadcaster, exporter),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("http bridge listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-stop:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
