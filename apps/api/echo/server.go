package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/bitbox360/backend/core"
	"github.com/bitbox360/backend/core/scheduler"
)

type (
	ServerDeps struct {
		Conf     *core.Config
		Logger   core.Logger
		Registry *scheduler.ReminderRegistry
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.Logger())
	// do not recover in DEV|TEST mode
	if !(s.deps.Conf.Debug || s.deps.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Debug = s.deps.Conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", s.home)

	ops := s.app.Group("/v1/ops")
	ops.GET("/health", s.health)
	ops.GET("/reminders", s.reminders)
}

func (s *server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		s.errors <- s.app.Start(s.deps.Conf.Server.Addr)
	}()
}

func (s *server) Errors() <-chan error               { return s.errors }
func (s *server) ShutdownSignal() <-chan os.Signal   { return s.shutdown }
func (s *server) Shutdown(ctx context.Context) error { return s.app.Shutdown(ctx) }
func (s *server) Close() error                       { return s.app.Close() }
func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.app.ServeHTTP(w, r) } // for tests

func (s *server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Bitbox API!")
}

func (s *server) health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"build":  s.deps.Conf.Build,
		"env":    s.deps.Conf.Env,
	})
}

// reminders exposes the scheduled reminder instants per project, for
// operational inspection.
func (s *server) reminders(ctx echo.Context) error {
	snapshot := s.deps.Registry.Snapshot()

	out := make(map[string][]string, len(snapshot))
	for projectID, instants := range snapshot {
		formatted := make([]string, 0, len(instants))
		for _, at := range instants {
			formatted = append(formatted, at.UTC().Format(time.RFC3339))
		}
		out[projectID.String()] = formatted
	}
	return ctx.JSON(http.StatusOK, out)
}
