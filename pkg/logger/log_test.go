package logger

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/muhammadchandra19/orderbook-view/pkg/errors"
	"github.com/muhammadchandra19/orderbook-view/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_ContextFields(t *testing.T) {
	out := filepath.Join(t.TempDir(), "log.json")

	log, err := NewLogger(WithOutputPaths([]string{out}), WithLoggingLevel(DebugLevel))
	require.NoError(t, err)

	ctx := util.WithMarket(util.WithRequestID(context.Background(), "refresh-42"), "BTC-USDC")
	log.InfoContext(ctx, "refresh finished", NewField("bids", 3))
	log.DebugContext(ctx, "reduce stats")
	log.ErrorContext(ctx, errors.NewTracer("event_source_error").Wrap(stderrors.New("timeout")))
	require.NoError(t, log.Sync())

	content, err := os.ReadFile(out)
	require.NoError(t, err)

	assert.Contains(t, string(content), `"message":"refresh finished"`)
	assert.Contains(t, string(content), `"request_id":"refresh-42"`)
	assert.Contains(t, string(content), `"market":"BTC-USDC"`)
	assert.Contains(t, string(content), `"bids":3`)
	assert.Contains(t, string(content), "reduce stats")
	assert.Contains(t, string(content), "event_source_error: timeout")
}

func TestLogger_LevelFilter(t *testing.T) {
	out := filepath.Join(t.TempDir(), "log.json")

	log, err := NewLogger(WithOutputPaths([]string{out}), WithLoggingLevel(WarnLevel))
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown")
	require.NoError(t, log.Sync())

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "hidden")
	assert.Contains(t, string(content), "shown")
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	assert.NotPanics(t, func() {
		log.WithFields(NewField("market", "x")).Info("nothing")
		log.Error(stderrors.New("nothing"))
	})
}
