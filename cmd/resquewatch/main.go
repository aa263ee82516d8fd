// Command resquewatch samples Resque queue statistics from Redis and publishes them
// to CloudWatch or an HTTP collector, once or on a fixed interval.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/vshulcz/resquewatch/internal/config"
	"github.com/vshulcz/resquewatch/pkg/util"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	cfg, err := config.LoadConfig(os.Args[1:], os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	info := util.BuildInfo{Version: buildVersion, Date: buildDate, Commit: buildCommit}
	if cfg.ShowVersion {
		if err := info.Fprint(os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("resquewatch starting",
		zap.Stringer("build", info),
		zap.String("backend", cfg.Backend),
		zap.String("redis_namespace", cfg.RedisNamespace),
		zap.String("cw_namespace", cfg.CWNamespace),
		zap.Duration("interval", cfg.Interval),
		zap.Stringer("skip", cfg.Metric.Skip),
		zap.Stringer("extra", cfg.Metric.Extra),
		zap.Bool("dryrun", cfg.DryRun),
	)
	if err := run(ctx, cfg, logger, os.Stdout); err != nil {
		logger.Fatal("resquewatch stopped", zap.Error(err))
	}
}
