// Package logger owns the process-wide zap logger.
package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects level, encoding and colouring of log output.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Color  bool
}

var (
	global *zap.Logger
	level  = zap.NewAtomicLevel()
	once   sync.Once
)

// ConfigFromEnv reads LOG_LEVEL, LOG_FORMAT, NO_COLOR and LOG_COLOR.
func ConfigFromEnv() Config {
	return Config{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "console"),
		Color:  colorEnabled(),
	}
}

// New builds a standalone logger. Most code should use Get instead.
func New(cfg Config) (*zap.Logger, error) {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder

	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoder = zapcore.NewJSONEncoder(enc)
	} else {
		enc.EncodeCaller = zapcore.ShortCallerEncoder
		enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		if cfg.Color {
			enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
			encoder = newHighlightEncoder(enc)
		} else {
			encoder = zapcore.NewConsoleEncoder(enc)
		}
	}

	level.SetLevel(parseLevel(cfg.Level))
	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)

	opts := []zap.Option{
		zap.AddCaller(),
		zap.ErrorOutput(zapcore.Lock(os.Stderr)),
	}
	if cfg.Level == "debug" {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	return zap.New(core, opts...), nil
}

// Initialize installs the global logger. Later calls are no-ops.
func Initialize(cfg Config) {
	once.Do(func() {
		l, err := New(cfg)
		if err != nil {
			panic("failed to initialize logger: " + err.Error())
		}
		global = l
		zap.ReplaceGlobals(l)
	})
}

// Get returns the global logger, initializing it from the environment if needed.
func Get() *zap.Logger {
	Initialize(ConfigFromEnv())
	return global
}

// SetLevel changes the level of every logger built by this package.
func SetLevel(lvl string) {
	level.SetLevel(parseLevel(lvl))
}

func Sync() {
	if global != nil {
		_ = global.Sync()
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return strings.ToLower(v)
	}
	return fallback
}

func parseLevel(lvl string) zapcore.Level {
	l, err := zapcore.ParseLevel(lvl)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

func colorEnabled() bool {
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		return false
	}
	if v := os.Getenv("LOG_COLOR"); v != "" {
		return v == "true" || v == "1"
	}
	return true
}
