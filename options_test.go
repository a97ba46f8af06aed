package plinder

import (
	"testing"
	"time"
)

func TestWithConcurrency(t *testing.T) {
	tests := []struct {
		name  string
		input int
		want  int
	}{
		{
			name:  "default value",
			input: -1, // will use default
			want:  DefaultConcurrency,
		},
		{
			name:  "zero clamped to 1",
			input: 0,
			want:  1,
		},
		{
			name:  "negative clamped to 1",
			input: -5,
			want:  1,
		},
		{
			name:  "above max clamped to MaxConcurrency",
			input: 100,
			want:  MaxConcurrency,
		},
		{
			name:  "exactly MaxConcurrency",
			input: MaxConcurrency,
			want:  MaxConcurrency,
		},
		{
			name:  "valid value preserved",
			input: 8,
			want:  8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newClientConfig()

			// For the "default value" test, don't apply any option
			if tt.name != "default value" {
				WithConcurrency(tt.input)(cfg)
			}

			if cfg.concurrency != tt.want {
				t.Errorf("concurrency = %d, want %d", cfg.concurrency, tt.want)
			}
		})
	}
}

func TestClientOptions(t *testing.T) {
	t.Run("default remote is nil", func(t *testing.T) {
		cfg := newClientConfig()
		if cfg.remote != nil {
			t.Error("default remote should be nil")
		}
	})

	t.Run("default logger is nil", func(t *testing.T) {
		cfg := newClientConfig()
		if cfg.logger != nil {
			t.Error("default logger should be nil")
		}
	})

	t.Run("default lock timeout", func(t *testing.T) {
		cfg := newClientConfig()
		if cfg.lockTimeout != DefaultLockTimeout {
			t.Errorf("lockTimeout = %v, want %v", cfg.lockTimeout, DefaultLockTimeout)
		}
	})

	t.Run("WithRemote sets custom remote", func(t *testing.T) {
		cfg := newClientConfig()
		remote := &fakeRemote{}

		WithRemote(remote)(cfg)

		if cfg.remote != Remote(remote) {
			t.Error("remote should be the custom remote")
		}
	})

	t.Run("WithLogger sets logger", func(t *testing.T) {
		cfg := newClientConfig()
		logger := &testLogger{}

		WithLogger(logger)(cfg)

		if cfg.logger != Logger(logger) {
			t.Error("logger should be set")
		}
	})

	t.Run("WithFetchTimeout sets timeout", func(t *testing.T) {
		cfg := newClientConfig()

		WithFetchTimeout(5 * time.Second)(cfg)

		if cfg.fetchTimeout != 5*time.Second {
			t.Errorf("fetchTimeout = %v, want 5s", cfg.fetchTimeout)
		}
	})
}

func TestDownloadOptions(t *testing.T) {
	t.Run("default force is false", func(t *testing.T) {
		cfg := &downloadConfig{}
		if cfg.force {
			t.Error("default force should be false")
		}
	})

	t.Run("WithForce sets to true", func(t *testing.T) {
		cfg := &downloadConfig{}
		WithForce()(cfg)
		if !cfg.force {
			t.Error("force should be true after WithForce()")
		}
	})

	t.Run("WithDownloadConcurrency clamps", func(t *testing.T) {
		cfg := &downloadConfig{}
		WithDownloadConcurrency(100)(cfg)
		if cfg.concurrency != MaxConcurrency {
			t.Errorf("concurrency = %d, want %d", cfg.concurrency, MaxConcurrency)
		}
	})

	t.Run("WithProgress assigns callback", func(t *testing.T) {
		cfg := &downloadConfig{}
		called := false
		fn := func(p DownloadProgress) {
			called = true
		}

		WithProgress(fn)(cfg)

		if cfg.progressFn == nil {
			t.Error("progressFn should not be nil after WithProgress()")
		}

		// Verify callback can be invoked
		cfg.progressFn(DownloadProgress{Phase: PhaseList})
		if !called {
			t.Error("progressFn was not invoked")
		}
	})
}

// testLogger is a simple Logger implementation for testing.
type testLogger struct {
	messages []string
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.messages = append(l.messages, "DEBUG: "+msg)
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.messages = append(l.messages, "INFO: "+msg)
}

func (l *testLogger) Warn(msg string, keysAndValues ...any) {
	l.messages = append(l.messages, "WARN: "+msg)
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.messages = append(l.messages, "ERROR: "+msg)
}

func TestConstants(t *testing.T) {
	tests := []struct {
		name string
		got  any
		want any
	}{
		{"DefaultConcurrency", DefaultConcurrency, 4},
		{"MaxConcurrency", MaxConcurrency, 16},
		{"DefaultLockTimeout", DefaultLockTimeout, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}
