package powchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/manifest-network/powchain/internal/api"
	"github.com/manifest-network/powchain/internal/chain"
	"github.com/manifest-network/powchain/internal/config"
	"github.com/manifest-network/powchain/internal/metrics"
	"github.com/manifest-network/powchain/internal/metrics/collectors"
	"github.com/manifest-network/powchain/internal/session"
)

const shutdownTimeout = 5 * time.Second

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a chain over HTTP/JSON",
	Long: `Start an HTTP/JSON API over a single in-memory chain. Presentation layers read the
chain snapshot from it and submit appends, tampers and difficulty changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		chainCfg, err := loadChainConfig()
		if err != nil {
			return err
		}
		serveCfg := config.LoadServeConfigFromCLI()
		if err := serveCfg.Validate(); err != nil {
			return fmt.Errorf("invalid serve configuration: %w", err)
		}
		slog.Debug("Command-line arguments", "serveConfig", serveCfg)

		ctx, cancel := handleInterrupt(cmd.Context())
		defer cancel()

		return serve(ctx, chainCfg, serveCfg)
	},
}

func init() {
	ServeCmd.Flags().String("addr", "127.0.0.1:8080", "Address and port of the HTTP API")
	ServeCmd.Flags().Bool("enable-prometheus", false, "Enable Prometheus metrics server")
	ServeCmd.Flags().String("prometheus-addr", "0.0.0.0:2112", "Address and port of the Prometheus metrics server")

	if err := viper.BindPFlags(ServeCmd.Flags()); err != nil {
		slog.Error("Failed to bind ServeCmd flags", "error", err)
	}
}

// serve runs the API (and optionally the metrics server) until ctx ends.
func serve(ctx context.Context, chainCfg config.ChainConfig, serveCfg config.ServeConfig) error {
	c := chain.New(chainCfg.Difficulty, chain.WithBatchSize(chainCfg.BatchSize))
	mining := collectors.NewMiningCollector()
	sess := session.New(c, session.WithObserver(mining))

	ln, err := net.Listen("tcp", serveCfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", serveCfg.Addr, err)
	}
	apiServer := &http.Server{
		Handler:           api.NewServer(sess, chainCfg.Rehash),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	var metricsServer *http.Server
	if serveCfg.EnablePrometheus {
		metricsServer, err = metrics.CreateMetricsServer(c, serveCfg.PrometheusAddr, mining)
		if err != nil {
			ln.Close()
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		slog.Info("Starting API server", "addr", ln.Addr().String(), "difficulty", chainCfg.Difficulty, "rehash", chainCfg.Rehash)
		if err := apiServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("API server failed: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shut down API server: %w", err))
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("failed to shut down metrics server: %w", err))
			}
		}
		slog.Info("Servers stopped")
		return errors.Join(errs...)
	})

	return eg.Wait()
}
