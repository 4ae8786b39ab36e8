package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-metrics/internal/config"
	"retail-metrics/internal/services"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewServer_OptionalRoutes(t *testing.T) {
	dashboard := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) }
	srv := NewServer(services.NewAnalytics(), quietLogger(), &TemplateHandlers{Dashboard: dashboard}, Options{})

	tests := []struct {
		path   string
		status int
	}{
		{"/", http.StatusTeapot},
		{"/health", http.StatusOK},
		{"/metrics", http.StatusNotFound},
		{"/figures/monthly_gmv_trend.png", http.StatusNotFound},
		{"/api/top-products", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func newTestGracefulServer(t *testing.T) (*GracefulServer, net.Listener) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	httpServer := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
	}
	cfg := config.ServerConfig{ShutdownTimeout: 5 * time.Second}
	return NewGracefulServer(httpServer, quietLogger(), cfg), ln
}

func TestGracefulServer_ShutdownRunsHooks(t *testing.T) {
	gs, ln := newTestGracefulServer(t)

	var calls atomic.Int32
	gs.RegisterShutdownHook(func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gs.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String())
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusNoContent
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestGracefulServer_HookError(t *testing.T) {
	gs, ln := newTestGracefulServer(t)
	hookErr := errors.New("flush failed")
	gs.RegisterShutdownHook(func(ctx context.Context) error { return hookErr })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := gs.Serve(ctx, ln)
	assert.ErrorIs(t, err, hookErr)
}

func TestGracefulServer_ListenFailure(t *testing.T) {
	gs := NewGracefulServer(&http.Server{Addr: "256.0.0.1:bad"}, quietLogger(), config.ServerConfig{})

	err := gs.ListenAndServe(context.Background())
	assert.Error(t, err)
}
