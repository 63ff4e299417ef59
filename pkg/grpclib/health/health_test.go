package health

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func check(t *testing.T, h *Server, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	t.Helper()
	resp, err := h.server.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

func TestServer(t *testing.T) {
	h := NewServer()
	h.InitService("orderbook")
	h.SetServing("orderbook/ETH-USDC", true)
	h.SetServing("orderbook/SOL-USDC", false)

	got, err := check(t, h, "orderbook")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, got)

	got, err = check(t, h, "orderbook/SOL-USDC")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, got)

	_, err = check(t, h, "orderbook/BTC-USDC")
	assert.Equal(t, codes.NotFound, status.Code(err))

	h.Shutdown()
	got, err = check(t, h, "orderbook/ETH-USDC")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, got)

	h.Resume()
	got, err = check(t, h, "orderbook/ETH-USDC")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, got)
}
