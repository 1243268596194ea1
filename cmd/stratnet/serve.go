package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/stratnet/pkg/api"
	"github.com/dd0wney/stratnet/pkg/api/middleware"
	"github.com/dd0wney/stratnet/pkg/artifact"
	"github.com/dd0wney/stratnet/pkg/catalog"
	"github.com/dd0wney/stratnet/pkg/config"
	"github.com/dd0wney/stratnet/pkg/engine"
	"github.com/dd0wney/stratnet/pkg/feed"
	"github.com/dd0wney/stratnet/pkg/health"
	"github.com/dd0wney/stratnet/pkg/logging"
	"github.com/dd0wney/stratnet/pkg/metrics"
	"github.com/dd0wney/stratnet/pkg/pubsub"
	"github.com/dd0wney/stratnet/pkg/server"
	tlspkg "github.com/dd0wney/stratnet/pkg/tls"
	"github.com/dd0wney/stratnet/pkg/watch"
)

const (
	controllerStale     = 5 * time.Second
	readinessTimeout    = 2 * time.Second
	systemMetricsPeriod = 15 * time.Second
)

func serveCmd(opts *rootOptions) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the layout service",
		Long:  "Runs the layout controller and serves HTTP, GraphQL and WebSocket clients, with the frame feed and import watcher when configured.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			return runServe(cmd.Context(), cfg, opts.logger(cfg, nil))
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP port; overrides config")
	return cmd
}

func runServe(parent context.Context, cfg *config.Config, logger logging.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := context.WithCancel(parent)
	defer stop()

	start := time.Now()
	reg := metrics.NewRegistry()
	bus := pubsub.NewPubSub()
	defer bus.Shutdown()

	eng, err := engine.New(cfg.Engine(),
		engine.WithCallbacks(api.EngineCallbacks(bus)),
		engine.WithLogger(logger),
		engine.WithMetrics(reg),
	)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	ctl := engine.NewController(eng, engine.ControllerConfig{
		TickInterval: cfg.Layout.TickInterval,
		OnFrame:      api.FramePublisher(bus),
		Logger:       logger,
	})

	hc := health.NewHealthChecker()
	hc.RegisterLivenessCheck("controller", health.ControllerCheck(ctl.Running, ctl.LastTick, controllerStale))
	hc.RegisterReadinessCheck("catalog", health.CatalogCheck(ctl.HasRoot, readinessTimeout))
	hc.RegisterCheck("memory", health.MemoryCheck(nil))

	artifacts, err := newArtifactWriter(ctx, cfg.Artifact, reg)
	if err != nil {
		return err
	}
	trusted, err := middleware.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return fmt.Errorf("invalid trusted proxies: %w", err)
	}
	var rateLimit *middleware.RateLimitConfig
	if rl, enabled := cfg.RateLimiter(); enabled {
		rateLimit = rl
	}

	srv, err := api.NewServer(api.Config{
		Control:         ctl,
		Bus:             bus,
		Health:          hc,
		Metrics:         reg,
		Artifacts:       artifacts,
		RateLimit:       rateLimit,
		CORS:            cfg.CORS(),
		TrustedProxies:  trusted,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
		GraphQLMaxDepth: cfg.Server.GraphQLMaxDepth,
		Logger:          logger,
		Version:         version,
	})
	if err != nil {
		return err
	}
	defer srv.Close()

	tlsConfig, err := tlspkg.Load(cfg.Server.TLS)
	if err != nil {
		return err
	}
	gs := server.NewGracefulServer(cfg.Addr(), srv.Handler(), server.Options{
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		TLSConfig:       tlsConfig,
		Logger:          logger,
	})
	go gs.HandleSignals(ctx, stop)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ctl.Run(gctx) })

	if cfg.Layout.DataFile != "" {
		load := func(ctx context.Context) error {
			return importFile(ctx, ctl, bus, reg, cfg.Layout.DataFile, logger)
		}
		if err := load(gctx); err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		gs.SetReloadFunc(load)
	}

	if cfg.Feed.Enabled {
		pub, err := feed.New(bus, feed.Config{Listen: cfg.Feed.Listen}, logger, reg)
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		defer pub.Close()
		g.Go(func() error { return pub.Run(gctx) })
	}

	if cfg.Import.WatchDir != "" {
		w, err := watch.New(cfg.Import.WatchDir, ctl, watch.Options{
			Debounce: cfg.Import.Debounce,
			Logger:   logger,
			Metrics:  reg,
			OnResult: func(r watch.Result) {
				if r.Err == nil {
					bus.Publish(pubsub.TopicCatalogImported, r.Merge)
				}
			},
		})
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		defer w.Close()
		g.Go(func() error { return w.Run(gctx) })
	}

	g.Go(func() error {
		ticker := time.NewTicker(systemMetricsPeriod)
		defer ticker.Stop()
		for {
			reg.UpdateSystemMetrics(start)
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	g.Go(func() error {
		err := gs.Run(gctx)
		// A listener failure must stop everything else.
		stop()
		return err
	})

	logger.Info("stratnet started",
		logging.String("addr", cfg.Addr()),
		logging.String("version", version),
		logging.String("artifact_sink", cfg.Artifact.Kind()),
		logging.Bool("feed", cfg.Feed.Enabled),
	)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("stratnet stopped")
	return nil
}

// newArtifactWriter returns nil when no sink is configured.
func newArtifactWriter(ctx context.Context, cfg config.ArtifactConfig, reg *metrics.Registry) (*artifact.Writer, error) {
	var sink artifact.Sink
	switch cfg.Kind() {
	case "s3":
		s, err := artifact.NewS3SinkFromConfig(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		sink = s
	case "file":
		s, err := artifact.NewFileSink(cfg.Dir)
		if err != nil {
			return nil, err
		}
		sink = s
	default:
		return nil, nil
	}
	return artifact.NewWriter(sink, cfg.Compress, reg), nil
}

// importFile merges a JSON document through the controller.
func importFile(ctx context.Context, ctl engine.Control, bus *pubsub.PubSub, reg *metrics.Registry, path string, logger logging.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		reg.RecordImport("file", err)
		return fmt.Errorf("failed to read data file: %w", err)
	}
	p, err := catalog.ParsePayload(data)
	if err == nil {
		var res *catalog.MergeResult
		if res, err = ctl.ImportData(ctx, p); err == nil {
			reg.RecordImport("file", nil)
			bus.Publish(pubsub.TopicCatalogImported, res)
			logger.Info("data file imported",
				logging.Path(path),
				logging.Int("nodes_added", res.NodesAdded),
				logging.Int("nodes_updated", res.NodesUpdated),
				logging.Int("links_added", res.LinksAdded),
			)
			return nil
		}
	}
	reg.RecordImport("file", err)
	return fmt.Errorf("failed to import %s: %w", path, err)
}
