package logger

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// modulePrefix trims absolute paths down to repo-relative callers in collected logs.
const modulePrefix = "OraclePortfolio"

type Logger struct {
	zl        zerolog.Logger
	collector *LogCollector
}

type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr, or file path
	TimeFormat string
}

func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var output io.Writer
	switch cfg.Output {
	case "", "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("could not open log file: %w", err)
		}
		output = file
	}

	if cfg.TimeFormat == "" {
		cfg.TimeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = cfg.TimeFormat

	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: cfg.TimeFormat}
	}

	zl := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		CallerWithSkipFrameCount(3).
		Logger()

	return &Logger{zl: zl}, nil
}

// Nop returns a logger that discards everything. Used by tests and the CLI.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With returns a child logger carrying the given fields on every entry.
func (l *Logger) With(fields ...Field) *Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		key, value := f.GetKeyValue()
		ctx = ctx.Interface(key, value)
	}
	return &Logger{zl: ctx.Logger(), collector: l.collector}
}

func (l *Logger) Debug(msg string, fields ...Field) {
	l.write(l.zl.Debug(), msg, fields)
}

func (l *Logger) Info(msg string, fields ...Field) {
	l.write(l.zl.Info(), msg, fields)
}

func (l *Logger) Warn(msg string, fields ...Field) {
	l.write(l.zl.Warn(), msg, fields)
}

func (l *Logger) Error(msg string, fields ...Field) {
	l.write(l.zl.Error(), msg, fields)
	l.collect("error", msg, fields)
}

func (l *Logger) write(event *zerolog.Event, msg string, fields []Field) {
	for _, field := range fields {
		field.AddTo(event)
	}
	event.Msg(msg)
}

func (l *Logger) collect(level, msg string, fields []Field) {
	if l.collector == nil {
		return
	}

	caller := "unknown"
	// skip: collect -> Error -> user code
	if _, file, line, ok := runtime.Caller(2); ok {
		parts := strings.Split(file, modulePrefix)
		caller = fmt.Sprintf("%s:%d", parts[len(parts)-1], line)
	}

	fieldMap := make(map[string]interface{}, len(fields))
	for _, field := range fields {
		key, value := field.GetKeyValue()
		fieldMap[key] = value
	}

	l.collector.AddLog(level, msg, fieldMap, caller)
}

func (l *Logger) AddCollector(config *CollectionConfig) {
	if l.collector != nil {
		l.collector.Close()
	}
	l.collector = NewLogCollector(config)
}

func (l *Logger) RemoveCollector() {
	if l.collector != nil {
		l.collector.Close()
		l.collector = nil
	}
}
