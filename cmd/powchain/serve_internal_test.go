package powchain

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifest-network/powchain/internal/api"
	"github.com/manifest-network/powchain/internal/config"
	"github.com/manifest-network/powchain/internal/models"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().String()
}

func TestServe(t *testing.T) {
	chainCfg := config.ChainConfig{Difficulty: 1, BatchSize: 100}
	serveCfg := config.ServeConfig{
		Addr:             freeAddr(t),
		EnablePrometheus: true,
		PrometheusAddr:   freeAddr(t),
	}
	require.NoError(t, serveCfg.Validate())

	ctx, cancel := context.WithCancel(context.Background())
	errC := make(chan error, 1)
	go func() { errC <- serve(ctx, chainCfg, serveCfg) }()

	client := resty.New().SetBaseURL("http://" + serveCfg.Addr)
	require.Eventually(t, func() bool {
		resp, err := client.R().Get("/healthz")
		return err == nil && resp.StatusCode() == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	var block models.Block
	resp, err := client.R().SetBody(api.AppendRequest{Data: "served"}).SetResult(&block).Post("/chain/blocks")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode())
	assert.Equal(t, uint64(1), block.Index)

	metricsResp, err := resty.New().R().Get("http://" + serveCfg.PrometheusAddr + "/metrics")
	require.NoError(t, err)
	assert.Contains(t, metricsResp.String(), "powchain_chain_length 2")
	assert.Contains(t, metricsResp.String(), `powchain_mining_blocks_total{difficulty="1"} 1`)

	cancel()
	select {
	case err := <-errC:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestServeAddressInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	err = serve(context.Background(), config.ChainConfig{Difficulty: 1, BatchSize: 1}, config.ServeConfig{Addr: ln.Addr().String()})
	assert.ErrorContains(t, err, "failed to listen on")
}
