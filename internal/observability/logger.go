// Package observability sets up the process loggers. Everything is written
// to stderr: in MCP stdio mode stdout carries the protocol stream, so it
// must stay clean of log output.
package observability

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// CLILogger is used by CLI commands (human-readable console output)
	CLILogger *zap.Logger = zap.NewNop()

	// ServerLogger is used in serve mode (structured JSON output)
	ServerLogger *zap.Logger = zap.NewNop()
)

// InitCLILogger initializes the CLI logger with console output.
func InitCLILogger(serviceName string, verbose bool) {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(os.Stderr),
		level,
	)

	CLILogger = zap.New(core).Named(serviceName)
}

// InitServerLogger initializes the server logger with JSON output.
func InitServerLogger(serviceName string, logLevel string) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.Lock(os.Stderr),
		parseLogLevel(logLevel),
	)

	ServerLogger = zap.New(core, zap.AddCaller()).With(
		zap.String("service", serviceName),
	)
}

// Sync flushes any buffered log entries. Called on shutdown.
func Sync() {
	_ = CLILogger.Sync()
	_ = ServerLogger.Sync()
}

// parseLogLevel converts a config log level string to a zap level.
func parseLogLevel(levelStr string) zapcore.Level {
	switch levelStr {
	case "trace", "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
