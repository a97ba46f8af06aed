package plinder

import (
	"log/slog"
	"time"
)

// Concurrency constants for bulk downloads.
const (
	// DefaultConcurrency is the default number of concurrent fetches.
	DefaultConcurrency = 4

	// MaxConcurrency is the maximum allowed concurrent fetches.
	MaxConcurrency = 16

	// DefaultLockTimeout is the default timeout for acquiring the
	// cross-process lock that serializes same-asset fetches.
	DefaultLockTimeout = 30 * time.Second
)

// Option configures a Client.
type Option func(*clientConfig)

// clientConfig holds configuration for Client construction.
type clientConfig struct {
	// remote overrides the object-store client. Nil means the default
	// afs-backed remote addressed by Config.Bucket.
	remote Remote

	// logger receives diagnostic log messages.
	logger Logger

	// fetchTimeout bounds a single remote fetch. Zero means the remote
	// client's own defaults.
	fetchTimeout time.Duration

	// concurrency is the default worker count for bulk downloads.
	concurrency int

	// lockTimeout is the cross-process lock acquisition timeout.
	lockTimeout time.Duration
}

// newClientConfig returns a clientConfig with default values.
func newClientConfig() *clientConfig {
	return &clientConfig{
		concurrency: DefaultConcurrency,
		lockTimeout: DefaultLockTimeout,
	}
}

// WithRemote sets a custom object-store client.
// Useful for testing with in-memory remotes.
func WithRemote(r Remote) Option {
	return func(c *clientConfig) {
		c.remote = r
	}
}

// WithLogger sets a logger for diagnostic output.
// If not set, logging is disabled.
func WithLogger(logger Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithFetchTimeout bounds each remote fetch. The default of zero defers
// to the remote client's own timeouts.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.fetchTimeout = d
	}
}

// WithConcurrency sets the default number of concurrent fetches for
// bulk downloads. Values are clamped to the range [1, MaxConcurrency].
func WithConcurrency(n int) Option {
	return func(c *clientConfig) {
		c.concurrency = clampConcurrency(n)
	}
}

// clampConcurrency bounds n to [1, MaxConcurrency].
func clampConcurrency(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxConcurrency {
		return MaxConcurrency
	}
	return n
}

// DownloadOption configures a bulk download.
type DownloadOption func(*downloadConfig)

// downloadConfig holds configuration for a single bulk download.
type downloadConfig struct {
	// force re-fetches assets that already exist locally.
	force bool

	// concurrency overrides the client's default worker count.
	concurrency int

	// progressFn is called with progress updates during the download.
	progressFn func(DownloadProgress)
}

// WithForce re-fetches assets even if a local copy already exists.
func WithForce() DownloadOption {
	return func(c *downloadConfig) {
		c.force = true
	}
}

// WithDownloadConcurrency overrides the worker count for one download.
// Values are clamped to the range [1, MaxConcurrency].
func WithDownloadConcurrency(n int) DownloadOption {
	return func(c *downloadConfig) {
		c.concurrency = clampConcurrency(n)
	}
}

// WithProgress sets a callback for progress updates during a bulk
// download. The callback is invoked from worker goroutines and must be
// thread-safe.
func WithProgress(fn func(DownloadProgress)) DownloadOption {
	return func(c *downloadConfig) {
		c.progressFn = fn
	}
}

// Logger is the interface for diagnostic logging.
// Compatible with slog, zap, logrus, and other structured loggers.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs.
	Debug(msg string, keysAndValues ...any)

	// Info logs an info-level message with optional key-value pairs.
	Info(msg string, keysAndValues ...any)

	// Warn logs a warning-level message with optional key-value pairs.
	Warn(msg string, keysAndValues ...any)

	// Error logs an error-level message with optional key-value pairs.
	Error(msg string, keysAndValues ...any)
}

// slogLogger adapts a *slog.Logger to the Logger interface.
type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger returns a Logger backed by the given slog logger.
// If l is nil, slog.Default() is used.
func NewSlogLogger(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return &slogLogger{l: l}
}

func (s *slogLogger) Debug(msg string, keysAndValues ...any) { s.l.Debug(msg, keysAndValues...) }
func (s *slogLogger) Info(msg string, keysAndValues ...any)  { s.l.Info(msg, keysAndValues...) }
func (s *slogLogger) Warn(msg string, keysAndValues ...any)  { s.l.Warn(msg, keysAndValues...) }
func (s *slogLogger) Error(msg string, keysAndValues ...any) { s.l.Error(msg, keysAndValues...) }

// Ensure slogLogger implements Logger.
var _ Logger = (*slogLogger)(nil)
