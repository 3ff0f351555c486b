// Package server is a reference implementation of the backend endpoints the
// wizard consumes, storing drafts and applications in JetStream.
package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mark3labs/applywiz/internal/form"
	"github.com/mark3labs/applywiz/internal/logger"
	"github.com/mark3labs/applywiz/internal/store"
)

// Repository persists drafts and applications. *store.Store implements it.
type Repository interface {
	SaveDraft(ctx context.Context, owner string, scholarshipID, step int, data string, auto bool) (*store.Draft, error)
	LoadDraft(ctx context.Context, owner string, scholarshipID int) (*store.Draft, error)
	Submit(ctx context.Context, owner string, scholarshipID, step int, data string) (*store.Application, error)
}

// Server serves the wizard API.
type Server struct {
	echo     *echo.Echo
	repo     Repository
	steps    form.StepsConfig
	metrics  *Metrics
	registry *prometheus.Registry
}

// New builds the echo application and registers every route.
func New(repo Repository, steps form.StepsConfig) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	reg := prometheus.NewRegistry()
	s := &Server{
		echo:     e,
		repo:     repo,
		steps:    steps,
		metrics:  NewMetrics(reg),
		registry: reg,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("%s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	e.GET("/healthz", s.healthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	g := e.Group("/api", ownerMiddleware)
	g.GET("/steps-config", s.stepsConfig)
	g.GET("/draft", s.loadDraft)
	g.POST("/draft", s.saveDraft)
	g.POST("/applications/multi-step", s.submitApplication)

	return s
}

// ServeHTTP lets the server be mounted or tested as a plain handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Metrics exposes the server's counters.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Start listens on addr until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start(addr string) error {
	logger.Info("applywiz backend listening on %s", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(ctx)
}

const ownerKey = "owner"

// ownerMiddleware identifies the caller by X-User-ID, falling back to a
// digest of the bearer token, then "anonymous". Authentication itself is
// out of scope for this backend.
func ownerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		owner := strings.TrimSpace(c.Request().Header.Get("X-User-ID"))
		if owner == "" {
			if tok, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer "); ok && tok != "" {
				sum := sha256.Sum256([]byte(tok))
				owner = "token-" + hex.EncodeToString(sum[:8])
			}
		}
		if owner == "" {
			owner = "anonymous"
		}
		c.Set(ownerKey, owner)
		return next(c)
	}
}

func ownerOf(c echo.Context) string {
	owner, _ := c.Get(ownerKey).(string)
	return owner
}

// errorHandler renders every error as {"success": false, "error": "..."}.
func errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	message := http.StatusText(code)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	} else {
		logger.Error("Unhandled error on %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}

	if c.Response().Committed {
		return
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, echo.Map{"success": false, "error": message})
	}
	if err != nil {
		logger.Error("Failed to write error response: %v", err)
	}
}
