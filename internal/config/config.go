// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

const (
	// EnvConfigJSON names the environment variable holding a JSON config override.
	EnvConfigJSON = "RBACD_CONFIG_JSON"

	defaultConfigDir = "./etc/"
	mainConfigFile   = "main.toml"

	defaultShutDownTime   = 5
	defaultLockTTL        = 10 * time.Minute
	defaultJobConcurrency = 2
)

// ReadConfig loads main.toml from the directory path (./etc/ if empty) and applies
// the JSON override from RBACD_CONFIG_JSON on top of it.
func ReadConfig(path string) (Config, error) {
	if path == "" {
		path = defaultConfigDir
	}

	var c Config
	if _, err := toml.DecodeFile(filepath.Join(path, mainConfigFile), &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if override := os.Getenv(EnvConfigJSON); override != "" {
		if err := json.Unmarshal([]byte(override), &c); err != nil {
			return Config{}, errors.Wrap(err, "failed to decode "+EnvConfigJSON)
		}
	}

	return c, validate(&c)
}

// DumpConfig config as TOML String.
func DumpConfig(c Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate checks the settings the daemon cannot start without and fills in defaults.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	switch c.DB.GormEngine {
	case "":
		c.DB.GormEngine = EngineSQLite
	case EngineMySQL, EnginePostgres, EngineSQLite:
	default:
		return errors.Wrapf(ErrUnknownEngine, "%s: %q", invalidErrMessage, c.DB.GormEngine)
	}

	if c.Jobs.Enabled && c.Redis.Addr == "" {
		return errors.Wrap(ErrRedisAddrRequired, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if c.Jobs.LockTTL == 0 {
		c.Jobs.LockTTL = defaultLockTTL
	}

	if c.Jobs.Concurrency == 0 {
		c.Jobs.Concurrency = defaultJobConcurrency
	}

	return nil
}
