package plinder

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// clearEnv unsets all recognized variables so tests start clean.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range []string{EnvMount, EnvBucket, EnvRelease, EnvIteration, EnvOffline, EnvConfigFile} {
		t.Setenv(v, "")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(EnvMount, t.TempDir())

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}

		if cfg.Release != DefaultRelease {
			t.Errorf("Release = %q, want %q", cfg.Release, DefaultRelease)
		}
		if cfg.Iteration != DefaultIteration {
			t.Errorf("Iteration = %q, want %q", cfg.Iteration, DefaultIteration)
		}
		if cfg.Bucket != DefaultBucket {
			t.Errorf("Bucket = %q, want %q", cfg.Bucket, DefaultBucket)
		}
		if cfg.Offline {
			t.Error("Offline = true, want false")
		}
	})

	t.Run("environment overrides", func(t *testing.T) {
		clearEnv(t)
		mount := t.TempDir()
		t.Setenv(EnvMount, mount)
		t.Setenv(EnvBucket, "s3://my-mirror")
		t.Setenv(EnvRelease, "2025-01")
		t.Setenv(EnvIteration, "v3")
		t.Setenv(EnvOffline, "true")

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}

		if cfg.Mount != mount || cfg.Bucket != "s3://my-mirror" ||
			cfg.Release != "2025-01" || cfg.Iteration != "v3" || !cfg.Offline {
			t.Errorf("LoadConfig() = %+v, env overrides not applied", cfg)
		}
	})

	t.Run("creates snapshot directory", func(t *testing.T) {
		clearEnv(t)
		mount := filepath.Join(t.TempDir(), "nested", "mount")
		t.Setenv(EnvMount, mount)

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}

		info, err := os.Stat(cfg.rootDir())
		if err != nil || !info.IsDir() {
			t.Errorf("snapshot dir %s not created", cfg.rootDir())
		}
	})

	t.Run("config file below environment", func(t *testing.T) {
		clearEnv(t)
		mount := t.TempDir()

		file := filepath.Join(t.TempDir(), "plinder.yaml")
		content := "mount: " + mount + "\nrelease: 2023-12\niteration: v9\n"
		if err := os.WriteFile(file, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		t.Setenv(EnvConfigFile, file)
		t.Setenv(EnvRelease, "2025-01")

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}

		if cfg.Release != "2025-01" {
			t.Errorf("Release = %q, want env value 2025-01", cfg.Release)
		}
		if cfg.Iteration != "v9" {
			t.Errorf("Iteration = %q, want file value v9", cfg.Iteration)
		}
		if cfg.Mount != mount {
			t.Errorf("Mount = %q, want file value %q", cfg.Mount, mount)
		}
	})

	t.Run("invalid config file", func(t *testing.T) {
		clearEnv(t)
		file := filepath.Join(t.TempDir(), "broken.yaml")
		if err := os.WriteFile(file, []byte("mount: [unclosed"), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		t.Setenv(EnvConfigFile, file)

		if _, err := LoadConfig(); !errors.Is(err, ErrConfig) {
			t.Errorf("LoadConfig() error = %v, want ErrConfig", err)
		}
	})

	t.Run("missing config file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(EnvConfigFile, filepath.Join(t.TempDir(), "absent.yaml"))

		if _, err := LoadConfig(); !errors.Is(err, ErrConfig) {
			t.Errorf("LoadConfig() error = %v, want ErrConfig", err)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(EnvMount, t.TempDir())

		first, err := LoadConfig()
		if err != nil {
			t.Fatalf("first LoadConfig() error = %v", err)
		}
		second, err := LoadConfig()
		if err != nil {
			t.Fatalf("second LoadConfig() error = %v", err)
		}
		if first != second {
			t.Errorf("configs differ: %+v vs %+v", first, second)
		}
	})
}

func TestParseBool(t *testing.T) {
	truthy := []string{"1", "true", "TRUE", "yes", "Yes", " true "}
	for _, v := range truthy {
		if !parseBool(v) {
			t.Errorf("parseBool(%q) = false, want true", v)
		}
	}

	falsy := []string{"", "0", "false", "no", "off", "maybe"}
	for _, v := range falsy {
		if parseBool(v) {
			t.Errorf("parseBool(%q) = true, want false", v)
		}
	}
}

func TestConfigPaths(t *testing.T) {
	cfg := Config{
		Mount:     "/data/plinder",
		Bucket:    "gs://plinder/",
		Release:   "2024-06",
		Iteration: "v2",
	}

	wantRoot := filepath.Join("/data/plinder", "2024-06", "v2")
	if got := cfg.rootDir(); got != wantRoot {
		t.Errorf("rootDir() = %q, want %q", got, wantRoot)
	}

	if got := cfg.remoteRoot(); got != "gs://plinder/2024-06/v2" {
		t.Errorf("remoteRoot() = %q, want %q", got, "gs://plinder/2024-06/v2")
	}
}
