package main

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	auditfile "github.com/vshulcz/resquewatch/internal/adapters/audit/file"
	remoteaudit "github.com/vshulcz/resquewatch/internal/adapters/audit/remote"
	"github.com/vshulcz/resquewatch/internal/adapters/collector/resque"
	"github.com/vshulcz/resquewatch/internal/adapters/http/ginserver"
	"github.com/vshulcz/resquewatch/internal/adapters/http/ginserver/middlewares"
	"github.com/vshulcz/resquewatch/internal/adapters/publisher/cloudwatch"
	"github.com/vshulcz/resquewatch/internal/adapters/publisher/httpjson"
	redisrepo "github.com/vshulcz/resquewatch/internal/adapters/repository/redis"
	"github.com/vshulcz/resquewatch/internal/config"
	"github.com/vshulcz/resquewatch/internal/domain"
	"github.com/vshulcz/resquewatch/internal/ports"
	"github.com/vshulcz/resquewatch/internal/services/agent"
	"github.com/vshulcz/resquewatch/internal/services/audit"
	"github.com/vshulcz/resquewatch/internal/services/status"
	"github.com/vshulcz/resquewatch/pkg/observer"
)

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

// run wires the pipeline and blocks until the scheduler stops. Dry-run dumps go to out.
func run(ctx context.Context, cfg config.Config, log *zap.Logger, out io.Writer) error {
	opts, err := cfg.RedisOptions()
	if err != nil {
		return err
	}
	rdb := redis.NewClient(opts)
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn("close redis client", zap.Error(err))
		}
	}()
	repo := redisrepo.New(rdb, "")

	pub, err := newPublisher(ctx, cfg)
	if err != nil {
		return err
	}

	events := observer.NewSubject[domain.IterationEvent](agent.LogObserver(log))
	events.SetErrorHandler(func(evt domain.IterationEvent, err error) {
		log.Warn("iteration observer failed", zap.Uint64("seq", evt.Seq), zap.Error(err))
	})

	if err := attachAudit(events, cfg, log); err != nil {
		return err
	}

	svc := agent.New(cfg, repo, resque.New(repo), pub, agent.WithLogger(log), agent.WithOutput(out))
	sched := agent.NewScheduler(svc, cfg.Interval, events, log)

	var srv *ginserver.Server
	if cfg.StatusAddr != "" {
		tracker := status.New(repo)
		events.Attach(tracker)
		router := ginserver.NewRouter(ginserver.NewHandler(tracker),
			middlewares.ZapLogger(log),
			middlewares.GzipResponse(),
			middlewares.HashSHA256(cfg.Key),
		)
		srv = ginserver.NewServer(cfg.StatusAddr, router, log)
	}

	g, gctx := errgroup.WithContext(ctx)
	srvCtx, stopServer := context.WithCancel(gctx)
	defer stopServer()

	g.Go(func() error {
		defer stopServer()
		return sched.Run(gctx)
	})
	if srv != nil {
		g.Go(func() error {
			if err := srv.Serve(srvCtx); err != nil {
				return fmt.Errorf("status server: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// attachAudit journals finished iterations to the configured file and URL.
func attachAudit(events *observer.Subject[domain.IterationEvent], cfg config.Config, log *zap.Logger) error {
	if cfg.AuditFile == "" && cfg.AuditURL == "" {
		return nil
	}
	sink := audit.NewSubject()
	sink.SetErrorHandler(func(evt audit.Event, err error) {
		log.Warn("audit sink failed", zap.Uint64("seq", evt.Seq), zap.Error(err))
	})
	if cfg.AuditFile != "" {
		sink.Attach(auditfile.New(cfg.AuditFile))
	}
	if cfg.AuditURL != "" {
		rc, err := remoteaudit.New(cfg.AuditURL, &http.Client{Timeout: cfg.HTTPTimeout}, cfg.Key)
		if err != nil {
			return err
		}
		sink.Attach(rc)
	}
	events.Attach(audit.Forward(sink))
	return nil
}

// newPublisher picks the backend. Dry runs never talk to one, so none is built.
func newPublisher(ctx context.Context, cfg config.Config) (ports.Publisher, error) {
	if cfg.DryRun {
		return nil, nil
	}
	switch cfg.Backend {
	case config.BackendCloudWatch:
		return cloudwatch.New(ctx, cfg.Region, cfg.Endpoint)
	case config.BackendHTTP:
		return httpjson.New(cfg.Endpoint, &http.Client{Timeout: cfg.HTTPTimeout}, cfg.Key)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
