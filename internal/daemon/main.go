// Package daemon wires configuration, database, authorization services, the web service
// and the background worker together.
package daemon

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/config"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/db/controller/rbacpolicy"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/db/controller/rbacstore"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/db/dsn"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/jobs"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/rbac"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/web"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/web/session"
)

const sessionTable = "sessions"

// ErrNilConfig is returned when the daemon is created without configuration.
var ErrNilConfig = errors.New("config is nil")

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	catalog    *rbac.Catalog
	service    *rbac.Service
	reconciler *rbac.Reconciler
	redis      *redis.Client
	jobs       *jobs.Client
}

// New opens and migrates the database, seeds the system roles and builds the
// authorization services.
func New(ctx context.Context, cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	catalog := rbac.DefaultCatalog()

	if err = Migrate(ctx, db, catalog); err != nil {
		return nil, err
	}

	store := rbacstore.New(db)

	if err = seed(ctx, db, store, catalog); err != nil {
		return nil, fmt.Errorf("seed system roles: %w", err)
	}

	d := &Daemon{
		cfg:     cfg,
		db:      db,
		catalog: catalog,
		service: rbac.NewService(store, catalog),
		reconciler: rbac.NewReconciler(store, catalog, rbac.ReconcilerConfig{
			DefaultBranchID:     cfg.RBAC.DefaultBranchID,
			DefaultBranchLookup: rbacpolicy.DefaultBranchLookup(db),
		}),
	}

	if cfg.Jobs.Enabled {
		d.redis = jobs.NewRedis(cfg.Redis)
		d.jobs = jobs.NewClient(jobs.RedisOpt(cfg.Redis))
	}

	return d, nil
}

// Catalog returns the permission catalog.
func (d *Daemon) Catalog() *rbac.Catalog {
	return d.catalog
}

// Service returns the role assignment lifecycle service.
func (d *Daemon) Service() *rbac.Service {
	return d.service
}

// Reconciler returns the reconciliation routines.
func (d *Daemon) Reconciler() *rbac.Reconciler {
	return d.reconciler
}

// Runner returns a job runner. The run lock is used when jobs are enabled.
func (d *Daemon) Runner() *jobs.Runner {
	var locker *jobs.Locker
	if d.redis != nil {
		locker = jobs.NewLocker(d.redis, d.cfg.Jobs.LockTTL)
	}

	return jobs.NewRunner(d.reconciler, locker)
}

// sessionStorage selects the principal storage matching the database engine.
func (d *Daemon) sessionStorage() fiber.Storage {
	switch d.cfg.DB.GormEngine {
	case config.EngineMySQL:
		return sessionmysql.New(sessionmysql.Config{
			ConnectionURI: dsn.MySQL(d.cfg),
			Table:         sessionTable,
		})
	case config.EnginePostgres:
		return sessionpostgres.New(sessionpostgres.Config{
			ConnectionURI: dsn.Postgres(d.cfg),
			Table:         sessionTable,
		})
	default:
		log.Warn().Msg("sqlite engine: sessions are kept in memory and lost on restart")
		return nil
	}
}

// Start runs the web service until a termination signal arrives.
func (d *Daemon) Start() error {
	session.Init(d.sessionStorage())

	deps := web.Deps{
		DB:         d.db,
		Service:    d.service,
		Reconciler: d.reconciler,
	}
	if d.jobs != nil {
		deps.Jobs = d.jobs
	}

	svc, err := web.New(d.cfg, deps)
	if err != nil {
		return fmt.Errorf("init web service: %w", err)
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- svc.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
	}()

	go svc.WaitShutdown()

	return <-errCh
}

// Worker processes reconciliation tasks until ctx is cancelled.
func (d *Daemon) Worker(ctx context.Context) error {
	if d.redis == nil {
		return config.ErrRedisAddrRequired
	}

	w, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:     jobs.RedisOpt(d.cfg.Redis),
		Concurrency:   d.cfg.Jobs.Concurrency,
		Runner:        d.Runner(),
		ReconcileCron: d.cfg.Jobs.ReconcileCron,
	})
	if err != nil {
		return err
	}

	log.Info().Str("cron", d.cfg.Jobs.ReconcileCron).Int("concurrency", d.cfg.Jobs.Concurrency).
		Msg("reconciliation worker started")

	err = w.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

// Close releases the database and redis connections.
func (d *Daemon) Close() error {
	var errs []error

	if d.jobs != nil {
		errs = append(errs, d.jobs.Close())
	}

	if d.redis != nil {
		errs = append(errs, d.redis.Close())
	}

	if sqlDB, err := d.db.DB(); err == nil {
		errs = append(errs, sqlDB.Close())
	}

	return errors.Join(errs...)
}
