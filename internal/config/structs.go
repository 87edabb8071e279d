package config

import (
	"time"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	RBAC      RBAC
	Redis     Redis
	Jobs      Jobs
}

// Webserver implement webserver settings.
type Webserver struct {
	DisableRecover bool   // disable recover middleware
	Port           int    // listening port for the webserver
	ShutDownTime   int    // wait time for shutdown
	URL            string // base url for the webserver
	BranchHeader   string // request header carrying the branch context, X-Branch-ID if empty
}

// RBAC holds authorization settings.
type RBAC struct {
	// DefaultBranchID is the branch orphan roles are repaired into. It takes precedence over
	// the value stored in the rbac_policy setting. Empty selects the earliest active branch.
	DefaultBranchID string
}

// Redis holds the connection settings shared by the job queue and the run lock.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Jobs configures background reconciliation.
type Jobs struct {
	Enabled       bool          // start the worker and expose the run endpoint
	Concurrency   int           // worker concurrency
	ReconcileCron string        // cron spec of the periodic full reconciliation, disabled if empty
	LockTTL       time.Duration // lifetime of the per routine run lock
}
