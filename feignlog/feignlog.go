// Package feignlog adapts EdgeComet-engine's DynamicLogger (zap +
// lumberjack, runtime-switchable console/file levels) into a feign.Logger
// that renders one structured log entry per HTTP attempt.
package feignlog

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/gofeign/gofeign/feign"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	LogFormatJSON    = "json"
	LogFormatConsole = "console"
	LogFormatText    = "text"
)

// Config mirrors EdgeComet's configtypes.LogConfig shape, strict-decoded
// from YAML by feignconfig.
type Config struct {
	Level   string           `yaml:"level"`
	Console ConsoleLogConfig `yaml:"console"`
	File    FileLogConfig    `yaml:"file"`
}

type ConsoleLogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"`
	Level   string `yaml:"level,omitempty"`
}

type FileLogConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Path     string         `yaml:"path"`
	Format   string         `yaml:"format"`
	Level    string         `yaml:"level,omitempty"`
	Rotation RotationConfig `yaml:"rotation"`
}

type RotationConfig struct {
	MaxSize    int  `yaml:"max_size"`
	MaxAge     int  `yaml:"max_age"`
	MaxBackups int  `yaml:"max_backups"`
	Compress   bool `yaml:"compress"`
}

// DynamicLogger wraps zap.Logger with the ability to switch its console
// and file cores between a startup level and the configured level, and
// implements feign.Logger by rendering each feign.Attempt as one log
// entry at a severity derived from the attempt's outcome.
type DynamicLogger struct {
	*zap.Logger
	consoleLevel     *zap.AtomicLevel
	fileLevel        *zap.AtomicLevel
	configuredConfig Config
}

// SwitchToConfiguredLevel switches both cores to the originally configured
// level, used once startup logging is no longer needed.
func (dl *DynamicLogger) SwitchToConfiguredLevel() {
	globalLevel := parseLogLevel(dl.configuredConfig.Level)

	dl.Info("switching logger to configured level", zap.String("level", dl.configuredConfig.Level))

	if dl.consoleLevel != nil {
		dl.consoleLevel.SetLevel(resolveLogLevel(dl.configuredConfig.Console.Level, globalLevel))
	}
	if dl.fileLevel != nil {
		dl.fileLevel.SetLevel(resolveLogLevel(dl.configuredConfig.File.Level, globalLevel))
	}
}

// EnsureInfoLevelForShutdown raises both cores to at least INFO so the
// shutdown sequence is always visible regardless of the configured level.
func (dl *DynamicLogger) EnsureInfoLevelForShutdown() {
	changed := false
	if dl.consoleLevel != nil && dl.consoleLevel.Level() > zap.InfoLevel {
		dl.consoleLevel.SetLevel(zap.InfoLevel)
		changed = true
	}
	if dl.fileLevel != nil && dl.fileLevel.Level() > zap.InfoLevel {
		dl.fileLevel.SetLevel(zap.InfoLevel)
		changed = true
	}
	if changed {
		dl.Info("switched to INFO level for shutdown visibility")
	}
}

// NewLogger builds a DynamicLogger from config, mirroring EdgeComet's
// NewLogger: one zapcore.Core per enabled output, teed together.
func NewLogger(config Config) (*DynamicLogger, error) {
	globalLevel := parseLogLevel(config.Level)

	var cores []zapcore.Core
	var consoleLevel *zap.AtomicLevel
	var fileLevel *zap.AtomicLevel

	if config.Console.Enabled {
		level := zap.NewAtomicLevelAt(resolveLogLevel(config.Console.Level, globalLevel))
		consoleLevel = &level
		cores = append(cores, zapcore.NewCore(createEncoder(config.Console.Format), zapcore.Lock(os.Stdout), consoleLevel))
	}

	if config.File.Enabled {
		if config.File.Path == "" {
			return nil, fmt.Errorf("feignlog: file.path must be specified when file logging is enabled")
		}
		level := zap.NewAtomicLevelAt(resolveLogLevel(config.File.Level, globalLevel))
		fileLevel = &level
		cores = append(cores, zapcore.NewCore(createEncoder(config.File.Format), createFileWriter(config.File.Path, config.File.Rotation), fileLevel))
	}

	if len(cores) == 0 {
		return nil, fmt.Errorf("feignlog: at least one log output (console or file) must be enabled")
	}

	var core zapcore.Core
	if len(cores) == 1 {
		core = cores[0]
	} else {
		core = zapcore.NewTee(cores...)
	}

	return &DynamicLogger{
		Logger:           zap.New(core),
		consoleLevel:     consoleLevel,
		fileLevel:        fileLevel,
		configuredConfig: config,
	}, nil
}

// NewDefaultLogger returns a console-only, debug-level logger, used before
// configuration has been loaded (SPEC_FULL.md's ambient-stack startup
// sequence mirrors EdgeComet's cmd/*/main.go "log to console until the
// config file is read" pattern).
func NewDefaultLogger() (*DynamicLogger, error) {
	return NewLogger(Config{
		Level:   LogLevelDebug,
		Console: ConsoleLogConfig{Enabled: true, Format: LogFormatConsole},
	})
}

func parseLogLevel(level string) zapcore.Level {
	switch level {
	case LogLevelDebug:
		return zap.DebugLevel
	case LogLevelInfo:
		return zap.InfoLevel
	case LogLevelWarn:
		return zap.WarnLevel
	case LogLevelError:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

func resolveLogLevel(outputLevel string, globalLevel zapcore.Level) zapcore.Level {
	if outputLevel != "" {
		return parseLogLevel(outputLevel)
	}
	return globalLevel
}

func createEncoder(format string) zapcore.Encoder {
	if format == LogFormatJSON {
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	if format == LogFormatText {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func createFileWriter(path string, rotation RotationConfig) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    rotation.MaxSize,
		MaxAge:     rotation.MaxAge,
		MaxBackups: rotation.MaxBackups,
		Compress:   rotation.Compress,
	})
}

// LogAttempt implements feign.Logger: one structured entry per attempt,
// fields added progressively with level, matching the density the caller
// asked for via feign.LogLevel.
func (dl *DynamicLogger) LogAttempt(level feign.LogLevel, a feign.Attempt) {
	fields := []zap.Field{
		zap.String("config_key", a.ConfigKey),
		zap.String("correlation_id", a.CorrelationID),
		zap.String("method", a.Method),
		zap.String("url", a.URL),
		zap.Int("attempt", a.AttemptNumber),
		zap.Duration("duration", a.Duration),
	}
	if a.StatusCode != 0 {
		fields = append(fields, zap.Int("status", a.StatusCode))
	}
	if level >= feign.LogHeaders {
		fields = append(fields, zap.Any("request_headers", a.RequestHeaders), zap.Any("response_headers", a.ResponseHeaders))
	}
	if level >= feign.LogFull && len(a.ResponseBody) > 0 {
		fields = append(fields, zap.ByteString("response_body", a.ResponseBody))
	}

	switch {
	case a.Err != nil:
		dl.Warn("feign attempt failed", append(fields, zap.Error(a.Err))...)
	case a.StatusCode >= 400:
		dl.Warn("feign attempt returned error status", fields...)
	default:
		dl.Info("feign attempt", fields...)
	}
}
