// Package status serves the device's operational HTTP surface: liveness and
// readiness probes, Prometheus metrics, and a live snapshot of the running
// device session.
package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tamahiro5/iotlab-edge/internal/device"
)

// DeviceView is the read-only slice of the device client the server exposes.
type DeviceView interface {
	Snapshot() device.Snapshot
	Connected() bool
}

// Server is the status HTTP server.
type Server struct {
	echo *echo.Echo
	addr string
	view DeviceView
	log  *slog.Logger
}

// NewServer wires routes and middleware for the status surface on addr.
func NewServer(addr string, view DeviceView, log *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(Recovery(log))
	e.Use(RequestLog(log))
	e.Use(Metrics())

	s := &Server{
		echo: e,
		addr: addr,
		view: view,
		log:  log,
	}

	e.GET("/healthz", s.healthz)
	e.GET("/readyz", s.readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/v1/device", s.device)

	return s
}

// Start serves until Shutdown is called. A closed server returns nil.
func (s *Server) Start() error {
	s.log.Info("status server starting", "addr", s.addr)

	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("status server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("status server stopping")
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (*Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(c echo.Context) error {
	if !s.view.Connected() {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) device(c echo.Context) error {
	return c.JSON(http.StatusOK, s.view.Snapshot())
}
