package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ppiankov/factlock/internal/pipeline"
	"github.com/ppiankov/factlock/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var serveNoCache bool

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the fact lock as an HTTP service",
	Long: `Serve exposes the fact lock over HTTP:

  POST /v1/verify   {"drafts": {...}, "comps": [...], "targetPrice": 500000}
  GET  /healthz     liveness
  GET  /metrics     Prometheus metrics (server.metrics)

Verification answers 200 with the outcome for VERIFIED and HALT, and 400 with
an ERROR outcome for malformed requests.

Example:
  factlock serve --listen :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", ":8080", "listen address")
	serveCmd.Flags().Bool("metrics", true, "expose Prometheus metrics on /metrics")
	serveCmd.Flags().BoolVar(&serveNoCache, "no-cache", false, "disable the verdict cache")

	_ = viper.BindPFlag("server.listen_address", serveCmd.Flags().Lookup("listen"))
	_ = viper.BindPFlag("server.metrics", serveCmd.Flags().Lookup("metrics"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveNoCache {
		cfg.Cache.Enabled = false
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []pipeline.Option{pipeline.WithLogger(logger)}

	var metrics *server.Metrics
	if cfg.Server.Metrics {
		metrics = server.NewMetrics()
		opts = append(opts, pipeline.WithObserver(metrics))
	}

	p := pipeline.NewPipeline(cfg, opts...)
	srv := server.NewServer(cfg.Server.ListenAddress, p, metrics, logger, Version)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}

	logger.Info("server stopped")
	return nil
}
