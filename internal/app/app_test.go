package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Qhawe-ma/predd/internal/config"
)

// Cancelling the root context is the normal shutdown path and must not be
// reported as a failure.
func TestRunReturnsNilOnShutdownSignal(t *testing.T) {
	cfg := config.Defaults()
	cfg.Server.Port = 0
	cfg.Venue.SeedMarkets = false

	a := New(&cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	// Give the server loop a moment to come up before pulling the plug.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancellation")
	}
}
