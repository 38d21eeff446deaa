package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log levels accepted in configuration.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Keys of the JSON file encoding. logtail decodes the same names.
const (
	TimeKey    = "ts"
	LevelKey   = "level"
	NameKey    = "logger"
	MessageKey = "msg"
)

// Options selects where log output goes.
type Options struct {
	Level string
	// File, when set, receives JSON lines through a size-rotated writer.
	File string
	// Console receives human-readable lines. Ignored when File is set.
	Console io.Writer
}

// ToLevel converts a textual level; unknown values map to info.
func ToLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds a logger per opts. The returned close function flushes and
// releases the file sink.
func New(opts Options) (*zap.Logger, func() error, error) {
	level := zap.NewAtomicLevelAt(ToLevel(opts.Level))

	if opts.File != "" {
		sink, err := newFileSink(opts.File)
		if err != nil {
			return nil, nil, err
		}
		core := zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig()), zapcore.AddSync(sink), level)
		log := zap.New(core)
		return log, func() error {
			_ = log.Sync()
			return sink.Close()
		}, nil
	}

	out := opts.Console
	if out == nil {
		out = os.Stderr
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig()), zapcore.Lock(zapcore.AddSync(out)), level)
	log := zap.New(core)
	return log, func() error {
		_ = log.Sync()
		return nil
	}, nil
}

func newFileSink(path string) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
		Compress:   true,
	}, nil
}

func fileEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = TimeKey
	cfg.LevelKey = LevelKey
	cfg.NameKey = NameKey
	cfg.MessageKey = MessageKey
	cfg.CallerKey = ""
	cfg.StacktraceKey = ""
	cfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	return cfg
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = ""
	cfg.CallerKey = ""
	cfg.StacktraceKey = ""
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg
}
