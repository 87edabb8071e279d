// Package fiber provides the zerolog access log middleware of the web service.
package fiber

import (
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/logger"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/web/guard"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/web/session"
)

// HeaderLatency reports the handling time of a request in seconds.
const HeaderLatency = "X-Performance"

// Config configures the access log middleware.
type Config struct {
	// Next skips the middleware when it returns true.
	Next func(c *fiber.Ctx) bool

	// Config selects the access log outputs.
	Config logger.Log

	// CacheControlError is set on responses whose error handler failed.
	CacheControlError string

	// CheckAliveURI is not logged when Config.DisableCheckAlive is set.
	CheckAliveURI string
}

// ConfigDefault is the default config.
var ConfigDefault = Config{ //nolint:gochecknoglobals
	CacheControlError: "max-age=0",
}

func configDefault(config ...Config) Config {
	if len(config) < 1 {
		return ConfigDefault
	}

	cfg := config[0]
	if cfg.CacheControlError == "" {
		cfg.CacheControlError = ConfigDefault.CacheControlError
	}

	return cfg
}

// accessWriters returns the enabled access log outputs.
func accessWriters(cfg logger.Log) []io.Writer {
	var writers []io.Writer

	if cfg.File.Enabled {
		if err := os.MkdirAll(cfg.File.Path, 0o750); err != nil { //nolint:mnd
			log.Error().Err(err).Str("path", cfg.File.Path).Msg("can't create access log directory")
		} else if w := logger.RollingFile(cfg.File.Path, cfg.File.Access); w != nil {
			writers = append(writers, w)
		}
	}

	// the access log goes to the console only when console output is enabled at all
	if cfg.Console.Enabled && cfg.EnableAccessLogToConsole {
		if cfg.Console.UseConsoleWriter {
			writers = append(writers, zerolog.ConsoleWriter{
				Out:          os.Stdout,
				TimeFormat:   zerolog.TimeFieldFormat,
				PartsExclude: []string{zerolog.LevelFieldName},
			})
		} else {
			writers = append(writers, os.Stdout)
		}
	}

	return writers
}

// New returns the access log middleware. An entry is written after the handler chain ran,
// so it carries the principal and branch resolved by the session and guard middlewares,
// and whether the guard refused the request.
func New(config ...Config) fiber.Handler {
	var (
		cfg        = configDefault(config...)
		writers    = accessWriters(cfg.Config)
		once       sync.Once
		errHandler fiber.ErrorHandler
	)

	if len(writers) == 0 {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	access := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().Timestamp().Logger().
		Level(zerolog.NoLevel)

	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		once.Do(func() {
			errHandler = c.App().ErrorHandler
		})

		start := time.Now()

		chainErr := c.Next()
		if chainErr != nil {
			if err := errHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
				c.Response().Header.Set(fiber.HeaderCacheControl, cfg.CacheControlError)
			}
		}

		elapsed := time.Since(start)
		c.Response().Header.Set(HeaderLatency, strconv.FormatFloat(elapsed.Seconds(), 'f', 6, 64))

		// the raw request uri, fasthttp normalizes c.Path
		uri := c.OriginalURL()
		if cfg.Config.DisableCheckAlive && c.Path() == cfg.CheckAliveURI {
			return nil
		}

		status := c.Response().StatusCode()

		entry := access.Log().
			Str("ip", c.IP()).
			Int("status", status).
			Dur("latency", elapsed).
			Str("uri", uri).
			Str("method", c.Method()).
			Bytes("host", c.Request().Host()).
			Str("forwarded_for", c.Get(fiber.HeaderXForwardedFor)).
			Str("user_agent", c.Get(fiber.HeaderUserAgent))

		if p, ok := session.FromContext(c); ok {
			entry = entry.Uint64("user_id", p.UserID)
		}

		if branch := guard.BranchFromContext(c); branch != "" {
			entry = entry.Str("branch", branch)
		}

		if status == fiber.StatusUnauthorized || status == fiber.StatusForbidden {
			entry = entry.Bool("denied", true)
		}

		if chainErr != nil {
			entry = entry.Err(chainErr)
		}

		entry.Send()

		return nil
	}
}
