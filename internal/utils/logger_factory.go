package utils

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
)

// LogLevel names the minimum severity a logger emits.
type LogLevel string

// Supported log levels.
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat names the encoding of emitted log entries.
type LogFormat string

// Supported log formats.
const (
	LogFormatStructured LogFormat = "structured"
	LogFormatConsole    LogFormat = "console"
)

var zapLevels = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

// LoggerFactory builds zap loggers that share one destination.
type LoggerFactory struct {
	destination zapcore.WriteSyncer
}

// NewLoggerFactory returns a factory writing to standard error, leaving standard output to reports.
func NewLoggerFactory() *LoggerFactory {
	return NewLoggerFactoryWithDestination(os.Stderr)
}

// NewLoggerFactoryWithDestination returns a factory writing to destination.
func NewLoggerFactoryWithDestination(destination io.Writer) *LoggerFactory {
	if destination == nil {
		destination = os.Stderr
	}
	return &LoggerFactory{destination: zapcore.Lock(zapcore.AddSync(destination))}
}

// CreateLogger builds a logger for the requested level and format. Both values are matched
// case-insensitively after trimming.
func (factory *LoggerFactory) CreateLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (*zap.Logger, error) {
	normalizedLevel := LogLevel(normalizeLoggerSetting(string(requestedLogLevel)))
	zapLevel, levelSupported := zapLevels[normalizedLevel]
	if !levelSupported {
		return nil, fmt.Errorf(unsupportedLogLevelTemplateConstant, requestedLogLevel)
	}

	encoder, encoderError := newLogEncoder(LogFormat(normalizeLoggerSetting(string(requestedLogFormat))))
	if encoderError != nil {
		return nil, fmt.Errorf(unsupportedLogFormatTemplateConstant, requestedLogFormat)
	}

	core := zapcore.NewCore(encoder, factory.destination, zap.NewAtomicLevelAt(zapLevel))
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func newLogEncoder(format LogFormat) (zapcore.Encoder, error) {
	encoderConfiguration := zap.NewProductionEncoderConfig()
	encoderConfiguration.EncodeTime = zapcore.ISO8601TimeEncoder

	switch format {
	case LogFormatStructured:
		return zapcore.NewJSONEncoder(encoderConfiguration), nil
	case LogFormatConsole:
		encoderConfiguration.EncodeLevel = zapcore.CapitalLevelEncoder
		encoderConfiguration.StacktraceKey = zapcore.OmitKey
		return zapcore.NewConsoleEncoder(encoderConfiguration), nil
	default:
		return nil, fmt.Errorf(unsupportedLogFormatTemplateConstant, format)
	}
}

func normalizeLoggerSetting(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
