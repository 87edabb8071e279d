// Package web serves the authorization API: every request passes the session and guard
// middlewares before it reaches a handler.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/config"
	fiberlog "github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/logger/adapter/fiber"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/rbac"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/web/guard"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/web/handler/admin/assignment"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/web/handler/admin/policy"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/web/handler/admin/reconcile"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/web/handler/health"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/web/session"
)

// MetricsPath exposes prometheus metrics; it requires health:read.
const MetricsPath = "/metrics"

// Deps are the collaborators the web service is built from.
type Deps struct {
	DB         *gorm.DB
	Service    *rbac.Service
	Reconciler *rbac.Reconciler
	// Jobs enqueues reconciliation runs. Nil disables the run endpoint.
	Jobs reconcile.Enqueuer
}

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan error, 1)

	s.alive.Store(true)

	go func() {
		err := s.App.Listen(addr)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}

		doneFiber <- err
	}()

	return <-doneFiber // wait for fiber to stop
}

// Alive reports whether the service accepts traffic.
func (s *Service) Alive() bool {
	return s.alive.Load()
}

// WaitShutdown waits for a termination signal and shuts the service down gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	s.Shutdown()
}

// Shutdown marks the service as not alive, waits for load balancers to notice and stops
// the http server.
func (s *Service) Shutdown() {
	s.alive.Store(false)

	// Graceful shutdown for reverse proxies: health returns 503 so the LB removes this instance.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.Shutdown(); err != nil {
		log.Error().Err(err).Msg("")
	}

	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration.
// It fails when the route table does not validate against the permission catalog.
func New(cfg *config.Config, deps Deps) (*Service, error) {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if deps.DB == nil || deps.Service == nil || deps.Reconciler == nil {
		panic("db, rbac service and reconciler cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
		},
	)

	service := &Service{
		cfg:          cfg,
		App:          app,
		fastShutDown: cfg.DevMode,
	}

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New())
	}

	app.Use(fiberlog.New(fiberlog.Config{
		Config:        cfg.Log,
		CheckAliveURI: health.Path,
	}))

	app.Use(session.Middleware)

	authorize, err := guard.New(guard.Config{
		Resolver:     deps.Service.Resolver(),
		Routes:       guard.DefaultRoutes(),
		Public:       guard.DefaultPublic(),
		Superadmin:   guard.DefaultSuperadmin(),
		BranchHeader: cfg.Webserver.BranchHeader,
	})
	if err != nil {
		return nil, err
	}

	app.Use(authorize)

	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	// init handlers (they register their own routes; the guard already authorized them)
	err = errors.Join(
		health.Handler.Init(app, deps.DB, service.Alive),
		assignment.Handler.Init(app, deps.Service),
		reconcile.Handler.Init(app, deps.Reconciler, deps.Jobs),
		policy.Handler.Init(app, deps.DB),
	)
	if err != nil {
		return nil, err
	}

	return service, nil
}
