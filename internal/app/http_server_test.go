package app

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/shopcart/internal/health"
	"github.com/vladislavdragonenkov/shopcart/internal/version"
)

func TestMetricsMux_Endpoints(t *testing.T) {
	healthHandler := healthcheck.NewHandler(version.GetVersion())
	srv := httptest.NewServer(newMetricsMux(healthHandler))
	defer srv.Close()

	testCases := []struct {
		path string
		code int
		body string
	}{
		{path: "/metrics", code: http.StatusOK},
		{path: "/healthz", code: http.StatusOK},
		{path: "/livez", code: http.StatusOK, body: "ok"},
		{path: "/readyz", code: http.StatusOK, body: "ready"},
	}

	for _, tc := range testCases {
		resp, err := http.Get(srv.URL + tc.path)
		if err != nil {
			t.Fatalf("failed to get %s: %v", tc.path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != tc.code {
			t.Errorf("expected status %d for %s, got %d", tc.code, tc.path, resp.StatusCode)
		}
		if len(body) == 0 {
			t.Errorf("%s should return non-empty response", tc.path)
		}
		if tc.body != "" && string(body) != tc.body {
			t.Errorf("expected %q from %s, got %q", tc.body, tc.path, string(body))
		}
	}
}

func TestMetricsMux_NotReady(t *testing.T) {
	healthHandler := healthcheck.NewHandler("test")
	healthHandler.RegisterChecker("storage", healthcheck.NewSimpleChecker("storage", func(context.Context) error {
		return errors.New("connection refused")
	}))

	rec := httptest.NewRecorder()
	newMetricsMux(healthHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 from /readyz, got %d", rec.Code)
	}
}

func TestServeHTTP_StopsOnShutdown(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	srv := &http.Server{Handler: http.NotFoundHandler(), ReadHeaderTimeout: time.Second}
	done := make(chan error, 1)
	go func() { done <- serveHTTP(srv, lis) }()

	shutdownHTTP(srv, log.WithField("test", "http"))

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil after shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestShutdownHTTP_NilServer(_ *testing.T) {
	shutdownHTTP(nil, log.WithField("test", "http"))
}

func TestNewGRPCServer_Idempotent(t *testing.T) {
	logger := log.WithField("test", "grpc")

	first, _ := newGRPCServer(logger)
	second, _ := newGRPCServer(logger)
	defer first.Stop()
	defer second.Stop()

	if _, ok := first.GetServiceInfo()["grpc.health.v1.Health"]; !ok {
		t.Error("expected grpc health service to be registered")
	}
}
