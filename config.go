package plinder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Built-in defaults for the active dataset snapshot.
const (
	// DefaultRelease is the dataset snapshot date used when
	// PLINDER_RELEASE is unset.
	DefaultRelease = "2024-06"

	// DefaultIteration is the pipeline version tag used when
	// PLINDER_ITERATION is unset.
	DefaultIteration = "v2"

	// DefaultBucket is the remote bucket root used when
	// PLINDER_BUCKET is unset.
	DefaultBucket = "gs://plinder"
)

// Environment variables recognized by LoadConfig.
const (
	// EnvMount overrides the local mount directory.
	EnvMount = "PLINDER_MOUNT"

	// EnvBucket overrides the remote bucket root URI.
	EnvBucket = "PLINDER_BUCKET"

	// EnvRelease overrides the dataset release.
	EnvRelease = "PLINDER_RELEASE"

	// EnvIteration overrides the pipeline iteration.
	EnvIteration = "PLINDER_ITERATION"

	// EnvOffline enables offline mode. Unset or empty means online;
	// "1", "true" or "yes" (case-insensitive) mean offline.
	EnvOffline = "PLINDER_OFFLINE"

	// EnvConfigFile points at an optional YAML configuration file
	// consulted before the environment.
	EnvConfigFile = "PLINDER_CONFIG"
)

// Config describes where dataset assets live locally and remotely.
// It is constructed once (via LoadConfig or by hand) and passed down
// explicitly; nothing in this package mutates it after construction.
type Config struct {
	// Mount is the local root directory for materialized assets.
	Mount string `yaml:"mount"`

	// Bucket is the remote bucket root URI, e.g. "gs://plinder".
	Bucket string `yaml:"bucket"`

	// Release is the dataset snapshot date, e.g. "2024-06".
	Release string `yaml:"release"`

	// Iteration is the pipeline version tag, e.g. "v2".
	Iteration string `yaml:"iteration"`

	// Offline disallows remote fetches; only cached assets are usable.
	Offline bool `yaml:"offline"`
}

// LoadConfig resolves a Config from the environment plus built-in
// defaults, creating the mount directory if absent.
//
// Precedence per field: environment variable > PLINDER_CONFIG YAML
// file > built-in default. Repeated calls return an equivalent
// configuration as long as the environment is unchanged. Fails with an
// error wrapping ErrConfig only if the config file is unreadable or the
// mount directory cannot be created.
func LoadConfig() (Config, error) {
	var cfg Config

	if path := os.Getenv(EnvConfigFile); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("%w: reading %s: %v", ErrConfig, path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: parsing %s: %v", ErrConfig, path, err)
		}
	}

	if v := os.Getenv(EnvMount); v != "" {
		cfg.Mount = v
	}
	if v := os.Getenv(EnvBucket); v != "" {
		cfg.Bucket = v
	}
	if v := os.Getenv(EnvRelease); v != "" {
		cfg.Release = v
	}
	if v := os.Getenv(EnvIteration); v != "" {
		cfg.Iteration = v
	}
	if v := os.Getenv(EnvOffline); v != "" {
		cfg.Offline = parseBool(v)
	}

	cfg.applyDefaults()

	if err := cfg.ensureMount(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// applyDefaults fills unset fields with built-in defaults. The mount
// default depends on the platform; see mount_*.go.
func (c *Config) applyDefaults() {
	if c.Release == "" {
		c.Release = DefaultRelease
	}
	if c.Iteration == "" {
		c.Iteration = DefaultIteration
	}
	if c.Bucket == "" {
		c.Bucket = DefaultBucket
	}
	if c.Mount == "" {
		if dir, err := defaultMountDir(); err == nil {
			c.Mount = dir
		}
	}
}

// ensureMount validates the directory pair and creates the mount.
func (c *Config) ensureMount() error {
	if c.Mount == "" {
		return fmt.Errorf("%w: mount directory could not be determined", ErrConfig)
	}
	if !c.Offline && c.Bucket == "" {
		return fmt.Errorf("%w: bucket is required when not offline", ErrConfig)
	}
	if err := os.MkdirAll(c.rootDir(), 0755); err != nil {
		return fmt.Errorf("%w: creating mount directory: %v", ErrConfig, err)
	}
	return nil
}

// rootDir returns the local directory containing the active snapshot:
// <mount>/<release>/<iteration>.
func (c Config) rootDir() string {
	return filepath.Join(c.Mount, c.Release, c.Iteration)
}

// remoteRoot returns the remote URI of the active snapshot:
// <bucket>/<release>/<iteration>.
func (c Config) remoteRoot() string {
	return strings.TrimRight(c.Bucket, "/") + "/" + c.Release + "/" + c.Iteration
}

// parseBool interprets the PLINDER_OFFLINE convention: "1", "true" and
// "yes" (case-insensitive) enable, everything else disables.
func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
