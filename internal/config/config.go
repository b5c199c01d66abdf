package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-logr/logr"
	"gopkg.in/yaml.v3"

	"github.com/backbone81/kvs/internal/store"
	"github.com/backbone81/kvs/internal/wal"
)

var ErrConfigInvalid = errors.New("invalid configuration")

// Config holds all settings for opening a store.
type Config struct {
	// Path is the location of the log file.
	Path string `yaml:"path"`

	// SyncPolicy is the name of the sync policy: none, immediate, periodic or grouped.
	SyncPolicy string `yaml:"sync_policy"`

	// SyncEvery and SyncAfterEntries configure the periodic sync policy.
	SyncEvery        time.Duration `yaml:"sync_every"`
	SyncAfterEntries int           `yaml:"sync_after_entries"`

	// SyncAfter configures the grouped sync policy.
	SyncAfter time.Duration `yaml:"sync_after"`

	// ReadAudit records every read in the log.
	ReadAudit bool `yaml:"read_audit"`

	// Verbosity is the log level of the command line interface.
	Verbosity int `yaml:"verbosity"`

	// MetricsTextfile is the file the command line interface writes its metrics to. Empty disables writing metrics.
	MetricsTextfile string `yaml:"metrics_textfile"`
}

// Default returns the configuration which is used when nothing else is specified.
func Default() Config {
	return Config{
		Path:             "wal.mp",
		SyncPolicy:       wal.DefaultSyncPolicy.String(),
		SyncEvery:        time.Second,
		SyncAfterEntries: 1000,
		SyncAfter:        time.Millisecond,
		ReadAudit:        true,
	}
}

// Load returns the default configuration, overwritten by the YAML file at path if path is not empty, overwritten by
// the KVS_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %q: %w", path, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides allows environment variables to override YAML config values.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("KVS_PATH"); v != "" {
		cfg.Path = v
	}
	if v := os.Getenv("KVS_SYNC_POLICY"); v != "" {
		cfg.SyncPolicy = v
	}
	if v := os.Getenv("KVS_METRICS_TEXTFILE"); v != "" {
		cfg.MetricsTextfile = v
	}

	var errs []error
	if v := os.Getenv("KVS_SYNC_EVERY"); v != "" {
		d, err := time.ParseDuration(v)
		errs = append(errs, envError("KVS_SYNC_EVERY", err))
		cfg.SyncEvery = d
	}
	if v := os.Getenv("KVS_SYNC_AFTER"); v != "" {
		d, err := time.ParseDuration(v)
		errs = append(errs, envError("KVS_SYNC_AFTER", err))
		cfg.SyncAfter = d
	}
	if v := os.Getenv("KVS_SYNC_AFTER_ENTRIES"); v != "" {
		n, err := strconv.Atoi(v)
		errs = append(errs, envError("KVS_SYNC_AFTER_ENTRIES", err))
		cfg.SyncAfterEntries = n
	}
	if v := os.Getenv("KVS_VERBOSITY"); v != "" {
		n, err := strconv.Atoi(v)
		errs = append(errs, envError("KVS_VERBOSITY", err))
		cfg.Verbosity = n
	}
	if v := os.Getenv("KVS_READ_AUDIT"); v != "" {
		b, err := strconv.ParseBool(v)
		errs = append(errs, envError("KVS_READ_AUDIT", err))
		cfg.ReadAudit = b
	}
	return errors.Join(errs...)
}

func envError(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrConfigInvalid, name, err)
}

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("%w: the log file path must not be empty", ErrConfigInvalid)
	}
	if _, err := wal.ParseSyncPolicyType(c.SyncPolicy); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}
	if c.SyncEvery <= 0 {
		return fmt.Errorf("%w: sync_every must be positive, got %s", ErrConfigInvalid, c.SyncEvery)
	}
	if c.SyncAfterEntries <= 0 {
		return fmt.Errorf("%w: sync_after_entries must be positive, got %d", ErrConfigInvalid, c.SyncAfterEntries)
	}
	if c.SyncAfter <= 0 {
		return fmt.Errorf("%w: sync_after must be positive, got %s", ErrConfigInvalid, c.SyncAfter)
	}
	if c.Verbosity < 0 {
		return fmt.Errorf("%w: verbosity must not be negative, got %d", ErrConfigInvalid, c.Verbosity)
	}
	return nil
}

// LogOptions returns the options for opening the write-ahead log.
func (c *Config) LogOptions(logger logr.Logger) ([]wal.Option, error) {
	syncPolicyType, err := wal.ParseSyncPolicyType(c.SyncPolicy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}

	options := []wal.Option{wal.WithLogger(logger)}
	switch syncPolicyType {
	case wal.SyncPolicyTypeNone:
		options = append(options, wal.WithSyncPolicyNone())
	case wal.SyncPolicyTypeImmediate:
		options = append(options, wal.WithSyncPolicyImmediate())
	case wal.SyncPolicyTypePeriodic:
		options = append(options, wal.WithSyncPolicyPeriodic(c.SyncAfterEntries, c.SyncEvery))
	case wal.SyncPolicyTypeGrouped:
		options = append(options, wal.WithSyncPolicyGrouped(c.SyncAfter))
	}
	return options, nil
}

// StoreOptions returns the options for opening the store, including the options for opening its log.
func (c *Config) StoreOptions(logger logr.Logger) ([]store.Option, error) {
	logOptions, err := c.LogOptions(logger)
	if err != nil {
		return nil, err
	}
	return []store.Option{
		store.WithLogger(logger),
		store.WithReadAudit(c.ReadAudit),
		store.WithLogOptions(logOptions...),
	}, nil
}
