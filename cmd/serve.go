package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/mj1618/remote-ui-mcp/internal/config"
	"github.com/mj1618/remote-ui-mcp/internal/server"
	"github.com/mj1618/remote-ui-mcp/internal/telemetry"
	"github.com/mj1618/remote-ui-mcp/internal/transport"
	"github.com/mj1618/remote-ui-mcp/internal/version"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start an HTTP server exposing the device as MCP tools on /mcp.

Settings come from the defaults, then the --config file, then REMOTE_UI_*
environment variables, then flags. The config file is watched; changes to
tool_timeout and log_level apply without a restart.

Examples:
  remote-ui serve
  remote-ui serve --address 0.0.0.0:8765 --config remote-ui.yaml
  remote-ui serve --layout device.yaml --cache-ttl 0`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("config", "", "Path to a YAML config file")
	serveCmd.Flags().String("address", "", "Listen address (host:port)")
	serveCmd.Flags().String("layout", "", "Serve a virtual device built from this YAML layout")
	serveCmd.Flags().Int("max-sessions", 0, "Maximum concurrent sessions")
	serveCmd.Flags().Duration("tool-timeout", 0, "Per-call tool timeout")
	serveCmd.Flags().Duration("cache-ttl", 0, "Tree snapshot cache TTL (0 disables caching)")
	serveCmd.Flags().Float64("rate-limit", 0, "Requests per second admitted on /mcp (0 = unlimited)")
	serveCmd.Flags().String("log-level", "", "Log level: debug, info, warn, error")
	serveCmd.Flags().String("trace-exporter", "", "Trace exporter: none, stdout, otlp")
	serveCmd.Flags().String("metric-exporter", "", "OpenTelemetry metric exporter: none, prometheus, stdout")
}

// flagOverrides returns a config override applying only the flags the user
// set explicitly.
func flagOverrides(cmd *cobra.Command) func(*config.ServerConfig) {
	flags := cmd.Flags()
	return func(c *config.ServerConfig) {
		if flags.Changed("address") {
			c.Address, _ = flags.GetString("address")
		}
		if flags.Changed("layout") {
			c.Layout, _ = flags.GetString("layout")
		}
		if flags.Changed("max-sessions") {
			c.MaxSessions, _ = flags.GetInt("max-sessions")
		}
		if flags.Changed("tool-timeout") {
			c.ToolTimeout, _ = flags.GetDuration("tool-timeout")
		}
		if flags.Changed("cache-ttl") {
			c.CacheTTL, _ = flags.GetDuration("cache-ttl")
		}
		if flags.Changed("rate-limit") {
			c.RateLimit, _ = flags.GetFloat64("rate-limit")
		}
		if flags.Changed("log-level") {
			c.LogLevel, _ = flags.GetString("log-level")
		}
		if flags.Changed("trace-exporter") {
			c.TraceExporter, _ = flags.GetString("trace-exporter")
		}
		if flags.Changed("metric-exporter") {
			c.MetricExporter, _ = flags.GetString("metric-exporter")
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfgProvider, err := config.NewFileProvider(configPath, flagOverrides(cmd))
	if err != nil {
		return err
	}
	cfg := cfgProvider.Current()

	level := new(slog.LevelVar)
	level.Set(cfg.Level())
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	cfgProvider.OnChange(func(c config.ServerConfig) { level.Set(c.Level()) })

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "remote-ui",
		ServiceVersion: version.Version,
		TraceExporter:  cfg.TraceExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		OTLPInsecure:   cfg.OTLPInsecure,
		MetricExporter: cfg.MetricExporter,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Warn("trace shutdown failed", slog.String("error", err.Error()))
		}
	}()

	device, err := openDevice(cfg.Layout)
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	srv := server.New(device, cfgProvider)
	defer func() {
		if err := srv.Close(context.Background()); err != nil {
			slog.Warn("server close failed", slog.String("error", err.Error()))
		}
	}()

	opts := transport.Options{
		Address:      cfg.Address,
		MaxBodyBytes: cfg.MaxBodyBytes,
		RateLimit:    cfg.RateLimit,
		RateBurst:    cfg.RateBurst,
	}
	if cfg.AuthToken != "" {
		opts.Gate = transport.BearerGate(cfg.AuthToken)
	} else if !isLoopback(cfg.Address) {
		slog.Warn("serving without authentication on a non-loopback address", slog.String("address", cfg.Address))
	}

	gin.SetMode(gin.ReleaseMode)
	sessions := transport.NewManager(cfg.MaxSessions, cfg.SessionIdleTimeout)
	httpSrv := transport.NewHTTPServer(srv.Dispatcher(), sessions, opts)

	slog.Info("starting remote-ui",
		slog.String("version", version.Version),
		slog.String("address", cfg.Address),
		slog.Int("max_sessions", cfg.MaxSessions),
		slog.Int("tools", srv.Registry().Len()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpSrv.Serve(gctx) })
	g.Go(func() error { return sessions.Run(gctx, cfg.ReaperInterval) })
	g.Go(func() error { return cfgProvider.Watch(gctx) })
	err = g.Wait()
	sessions.CloseAll("shutdown")
	return err
}

func isLoopback(address string) bool {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
