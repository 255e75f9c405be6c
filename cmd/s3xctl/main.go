package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/cmdutil"
	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/commands"
	"github.com/AccessDevops/S3Explorer/cmd/s3xctl/progress"
	"github.com/AccessDevops/S3Explorer/internal/appconfig"
	"github.com/AccessDevops/S3Explorer/internal/cryptoutil"
	"github.com/AccessDevops/S3Explorer/internal/logger"
	"github.com/AccessDevops/S3Explorer/internal/telemetry"
	"github.com/AccessDevops/S3Explorer/pkg/cache"
	"github.com/AccessDevops/S3Explorer/pkg/facade"
	"github.com/AccessDevops/S3Explorer/pkg/metrics"
	"github.com/AccessDevops/S3Explorer/pkg/pool"
	"github.com/AccessDevops/S3Explorer/pkg/profile"
	"github.com/AccessDevops/S3Explorer/pkg/transfer"
)

// Build-time variables injected via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := appconfig.Load(os.Getenv("S3X_CONFIG"))
	if err != nil {
		return err
	}
	logger.Init(logger.Config(cfg.Logging))

	shutdownTracing, err := telemetry.Init(context.Background(), telemetry.Config{
		Enabled:        os.Getenv("S3X_OTLP_ENDPOINT") != "",
		ServiceName:    "s3xctl",
		ServiceVersion: version,
		Endpoint:       os.Getenv("S3X_OTLP_ENDPOINT"),
		Insecure:       true,
		SampleRate:     1.0,
	})
	if err != nil {
		logger.L().Warn("tracing disabled", "error", err)
	} else {
		defer func() { _ = shutdownTracing(context.Background()) }()
	}

	stopProfiling, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        os.Getenv("S3X_PYROSCOPE_URL") != "",
		ServiceName:    "s3xctl",
		ServiceVersion: version,
		Endpoint:       os.Getenv("S3X_PYROSCOPE_URL"),
	})
	if err != nil {
		logger.L().Warn("profiling disabled", "error", err)
	} else {
		defer func() { _ = stopProfiling() }()
	}

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return err
	}
	key, err := cryptoutil.LoadOrCreateKeyFile(filepath.Join(cfg.DataDir, "profile.key"))
	if err != nil {
		return err
	}
	profiles, err := profile.Open(filepath.Join(cfg.DataDir, "profiles.json"), key)
	if err != nil {
		return err
	}
	defer profiles.Close()

	// metrics.Open runs the 30-day auto-purge itself. A broken metrics
	// store must not block the tool.
	sink, err := metrics.Open(cfg.Metrics.DatabasePath)
	if err != nil {
		logger.L().Warn("metrics store unavailable", "error", err)
		sink = nil
	} else {
		defer sink.Close()
	}

	emitter := progress.NewConsoleEmitter()
	f := facade.New(facade.Config{
		DataDir: cfg.DataDir,
		Pool: pool.Config{
			MaxSize: cfg.Pool.MaxSize, MinIdle: cfg.Pool.MinIdle,
			IdleTimeout: cfg.Pool.IdleTimeout, AcquisitionTimeout: cfg.Pool.AcquisitionTimeout,
		},
		Cache: cache.Config{
			MaxEntries: cfg.Cache.MaxEntries, IdleTimeout: cfg.Cache.IdleTTL, TTL: cfg.Cache.AbsoluteTTL,
		},
		Transfer: transfer.Config{
			Threshold: cfg.Transfer.MultipartThresholdBytes,
			PartSize:  cfg.Transfer.PartSizeBytes,
			ChunkSize: cfg.Transfer.ChunkSizeBytes,
		},
	}, profiles, sink, emitter)
	defer func() { _ = f.Shutdown() }()

	cmdutil.SetConfig(cfg)
	cmdutil.SetFacade(f)
	cmdutil.SetEmitter(emitter)

	return commands.Execute()
}
