package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"skycast/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := NewServer(&config.Config{Environment: "local"}, testLogger())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

type metricsCall struct {
	method, endpoint, status string
	duration                 time.Duration
}

type mockMetricsCollector struct {
	calls []metricsCall
}

func (m *mockMetricsCollector) RecordRequest(method, endpoint, status string, d time.Duration) {
	m.calls = append(m.calls, metricsCall{method, endpoint, status, d})
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestNewServer_Success(t *testing.T) {
	cfg := &config.Config{Environment: "local"}
	logger := testLogger()

	srv, err := NewServer(cfg, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if srv.Config != cfg || srv.Logger != logger {
		t.Error("dependencies not stored")
	}
	if srv.Validator == nil || srv.router == nil {
		t.Error("validator and router must be initialized")
	}
	if srv.Handler() == nil || srv.Router() != srv.router {
		t.Error("Handler/Router must expose the internal router")
	}
}

func TestNewServer_RequiresDependencies(t *testing.T) {
	if _, err := NewServer(nil, testLogger()); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := NewServer(&config.Config{}, nil); err == nil {
		t.Error("expected error for nil logger")
	}
}

func TestServer_ShutdownClosesResources(t *testing.T) {
	srv := newTestServer(t)
	var order []string
	srv.Closers = append(srv.Closers,
		closerFunc(func() error { order = append(order, "cache"); return nil }),
		closerFunc(func() error { order = append(order, "other"); return nil }),
	)

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if len(order) != 2 || order[0] != "cache" || order[1] != "other" {
		t.Errorf("closers ran as %v", order)
	}
}

func TestServer_ShutdownReportsCloseErrors(t *testing.T) {
	srv := newTestServer(t)
	boom := errors.New("boom")
	ran := false
	srv.Closers = append(srv.Closers,
		closerFunc(func() error { return boom }),
		closerFunc(func() error { ran = true; return nil }),
	)

	err := srv.Shutdown(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped close error, got %v", err)
	}
	if !ran {
		t.Error("later closers must still run after a failure")
	}
}
