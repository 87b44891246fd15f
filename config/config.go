// Package config loads the engine's tunables from a gcfg-syntax
// (INI-like) file, the way gravwell's ingesters load theirs: a single
// Global section read with gcfg, environment-variable overrides
// applied afterward, then sanity-checked before use.
package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/gravwell/gcfg"

	"github.com/ncopa/ovs/dp"
	"github.com/ncopa/ovs/log"
)

const maxConfigSize int64 = 1024 * 1024 * 2 // 2MB; a tunables file has no business being bigger

const (
	envLevelLimit = "OVS_DP_LEVEL_LIMIT"
	envLogLevel   = "OVS_DP_LOG_LEVEL"
	envLogFile    = "OVS_DP_LOG_FILE"
	envCores      = "OVS_DP_CORES"
)

// rawConfig mirrors the on-disk gcfg shape.
type rawConfig struct {
	Global struct {
		// LevelLimit overrides dp.LevelLimit. Zero means "use the
		// default"; this exists for loop-detection testing, not for
		// production tuning — raising it defeats the guard it's there
		// to provide.
		LevelLimit int
		LogLevel   string
		LogFile    string
		Cores      int
	}
}

// Config holds the resolved, validated tunables.
type Config struct {
	LevelLimit int
	LogLevel   string
	LogFile    string
	Cores      int
}

// DefaultLevelLimit mirrors dp.LevelLimit so a config file that omits
// the setting entirely still documents what's in effect.
const DefaultLevelLimit = dp.LevelLimit

// Load reads and validates a tunables file at path, applying
// environment-variable overrides (which always win over the file, the
// same precedence gravwell's ingesters use).
func Load(path string) (*Config, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.Size() > maxConfigSize {
		return nil, errors.New("config: file far too large")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw rawConfig
	if err := gcfg.ReadStringInto(&raw, string(content)); err != nil {
		return nil, err
	}

	c := &Config{
		LevelLimit: raw.Global.LevelLimit,
		LogLevel:   raw.Global.LogLevel,
		LogFile:    raw.Global.LogFile,
		Cores:      raw.Global.Cores,
	}

	if err := applyEnvOverrides(c); err != nil {
		return nil, err
	}
	if err := verify(c); err != nil {
		return nil, err
	}
	return c, nil
}

func applyEnvOverrides(c *Config) error {
	if s := os.Getenv(envLevelLimit); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		c.LevelLimit = v
	}
	if s := os.Getenv(envLogLevel); s != "" {
		c.LogLevel = s
	}
	if s := os.Getenv(envLogFile); s != "" {
		c.LogFile = s
	}
	if s := os.Getenv(envCores); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		c.Cores = v
	}
	return nil
}

func verify(c *Config) error {
	if c.LevelLimit == 0 {
		c.LevelLimit = DefaultLevelLimit
	}
	if c.LevelLimit < 1 {
		return errors.New("config: LevelLimit must be at least 1")
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if _, err := log.LevelFromString(c.LogLevel); err != nil {
		return err
	}
	if c.Cores <= 0 {
		c.Cores = 1
	}
	return nil
}
