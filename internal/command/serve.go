package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/TomasB/geolocate/internal/config"
	"github.com/TomasB/geolocate/internal/data"
	grpchandler "github.com/TomasB/geolocate/internal/handler/grpc"
	"github.com/TomasB/geolocate/internal/handler/health"
	"github.com/TomasB/geolocate/internal/handler/lookup"
	"github.com/TomasB/geolocate/internal/metrics"
	"github.com/TomasB/geolocate/internal/reload"
	"github.com/gin-gonic/gin"
	"github.com/google/subcommands"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const shutdownTimeout = 30 * time.Second

// Serve implements subcommands.Command for the "serve" command.
type Serve struct {
	watch bool
}

// Name implements subcommands.Command.Name.
func (*Serve) Name() string {
	return "serve"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Serve) Synopsis() string {
	return "serve lookups over HTTP and gRPC"
}

// Usage implements subcommands.Command.Usage.
func (*Serve) Usage() string {
	return `serve [flags]

Serves the lookup API on PORT, the gRPC API on GRPC_PORT and Prometheus
metrics on /metrics until interrupted. Addresses that the record files do
not cover are looked up in the MaxMind database at MMDB_PATH, if set.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (s *Serve) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&s.watch, "watch", false, "reload the tables when a source file changes")
}

// Execute implements subcommands.Command.Execute.
func (s *Serve) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	env := envFrom(args)
	if f.NArg() != 0 {
		return exit(env, f, usagef("unexpected arguments"))
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return exit(env, f, s.run(ctx, env.Config))
}

// server holds everything the serve command runs.
type server struct {
	live     *data.Live
	lookup   data.CountryLookup
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	router   *gin.Engine
	grpc     *grpc.Server
	health   *grpchealth.Server
}

// newServer loads the tables and wires the HTTP and gRPC handlers.
func newServer(c *config.Config) (*server, error) {
	tables, err := loadTables(c)
	if err != nil {
		return nil, err
	}
	slog.Info("tables loaded",
		"ipv4_blocks", tables.V4.Len(),
		"ipv6_blocks", tables.V6.Len(),
		"countries", tables.Countries.Len(),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)
	m.ObserveTables(tables)

	live := data.NewLive(tables)
	chain := data.Chain{live}
	if c.MMDBPath != "" {
		reader, err := data.NewMmdbReader(c.MMDBPath, tables.Countries)
		if err != nil {
			return nil, err
		}
		slog.Info("MMDB loaded", "path", c.MMDBPath)
		chain = append(chain, reader)
	}
	lk := m.Instrument(chain)

	if config.LogLevel(c.LogLevel) == slog.LevelDebug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginLogger(slog.Default()))
	router.Use(gin.Recovery())

	health.NewHandler(live).Register(router)
	lookup.NewHandler(lk).Register(router.Group("/api/v1"))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	gs := grpc.NewServer()
	grpchandler.Register(gs, grpchandler.NewHandler(lk))
	hs := grpchealth.NewServer()
	hs.SetServingStatus(grpchandler.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)

	return &server{
		live:     live,
		lookup:   lk,
		metrics:  m,
		registry: reg,
		router:   router,
		grpc:     gs,
		health:   hs,
	}, nil
}

func (s *Serve) run(ctx context.Context, c *config.Config) error {
	srv, err := newServer(c)
	if err != nil {
		return err
	}
	defer srv.lookup.Close()

	grpcLis, err := net.Listen("tcp", ":"+c.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen on gRPC port: %w", err)
	}

	var watcher *reload.Watcher
	if s.watch {
		// The MMDB fallback keeps the country table it was opened with.
		watcher, err = reload.New(c.Sources(), srv.live, srv.metrics).Watch()
		if err != nil {
			grpcLis.Close()
			return err
		}
	}
	httpSrv := &http.Server{
		Addr:    ":" + c.Port,
		Handler: srv.router,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("service started", "port", c.Port)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		slog.Info("gRPC service started", "port", c.GRPCPort)
		if err := srv.grpc.Serve(grpcLis); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	if watcher != nil {
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("service shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		srv.health.Shutdown()
		srv.grpc.GracefulStop()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	slog.Info("service stopped")
	return err
}

// ginLogger logs one line per HTTP request. Requests are identified by their
// route template, so looked-up addresses never reach the log.
func ginLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}

		switch {
		case len(c.Errors) > 0:
			logger.Error("http request failed", append(attrs, "errors", c.Errors.String())...)
		case status >= http.StatusInternalServerError:
			logger.Error("http request", attrs...)
		case status >= http.StatusBadRequest:
			logger.Warn("http request", attrs...)
		default:
			logger.Debug("http request", attrs...)
		}
	}
}
