package metrics

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	chaincollectors "github.com/manifest-network/powchain/internal/metrics/collectors"
)

// NewRegistry builds a Prometheus registry holding every registered chain
// collector for src, the Go runtime collectors and any extra collectors.
func NewRegistry(src chaincollectors.Source, extra ...prometheus.Collector) (*prometheus.Registry, error) {
	cs, err := chaincollectors.DefaultRegistry.CreateCollectors(src)
	if err != nil {
		return nil, fmt.Errorf("failed to create chain collectors: %w", err)
	}

	reg := prometheus.NewRegistry()
	cs = append(cs, collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	cs = append(cs, extra...)
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return reg, nil
}

// CreateMetricsServer starts serving /metrics on addr. The listener is bound
// before returning so that address errors surface immediately.
func CreateMetricsServer(src chaincollectors.Source, addr string, extra ...prometheus.Collector) (*http.Server, error) {
	reg, err := NewRegistry(src, extra...)
	if err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	server := &http.Server{Addr: ln.Addr().String(), Handler: mux}

	go func() {
		slog.Info("Starting Prometheus metrics server", "addr", server.Addr)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Failed to start metrics server", "error", err)
		}
	}()

	return server, nil
}
