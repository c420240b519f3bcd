// Package audit implements the append-only activity log. Entries are
// written as "<ISO-8601 timestamp> - <LEVEL> - <message>" lines so the
// log file stays greppable and tailable by external tooling. The engine
// only ever appends; it never reads its own past entries back to make
// decisions.
package audit

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// timeLayout keeps millisecond precision so entries from fast
// back-to-back operations still order readably.
const timeLayout = "2006-01-02T15:04:05.000Z0700"

// Log is a handle to the activity log. Appends from concurrent workers
// are serialized by the underlying zap core, so lines never interleave.
type Log struct {
	logger *zap.SugaredLogger
	file   *os.File
	path   string
}

// ParseLevel maps a configured log level name to a zap level.
// "warning" is accepted alongside "warn" to match the log line format.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// New opens (or creates) the activity log file in append mode. Entries
// below minLevel are not persisted.
func New(path string, minLevel zapcore.Level) (*Log, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open activity log: %w", err)
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		zapcore.Lock(zapcore.AddSync(file)),
		minLevel,
	)

	return &Log{
		logger: zap.New(core).Sugar(),
		file:   file,
		path:   path,
	}, nil
}

// NewNop returns a log that discards everything. Used in tests and by
// callers that have no log file configured.
func NewNop() *Log {
	return &Log{logger: zap.NewNop().Sugar()}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      levelEncoder,
		EncodeTime:       zapcore.TimeEncoderOfLayout(timeLayout),
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " - ",
	}
}

// levelEncoder renders WARNING instead of zap's WARN to keep the line
// format stable for external log consumers.
func levelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	if l == zapcore.WarnLevel {
		enc.AppendString("WARNING")
		return
	}
	enc.AppendString(l.CapitalString())
}

// Path returns the log file location, empty for a nop log.
func (l *Log) Path() string { return l.path }

func (l *Log) Debugf(format string, args ...any) { l.logger.Debugf(format, args...) }
func (l *Log) Infof(format string, args ...any)  { l.logger.Infof(format, args...) }
func (l *Log) Warnf(format string, args ...any)  { l.logger.Warnf(format, args...) }
func (l *Log) Errorf(format string, args ...any) { l.logger.Errorf(format, args...) }

// Sync flushes buffered entries to disk.
func (l *Log) Sync() error {
	return l.logger.Sync()
}

// Close flushes and closes the underlying file.
func (l *Log) Close() error {
	_ = l.logger.Sync()
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Tail returns up to n trailing lines of the log file for export to
// external reporting. The core itself never consumes this.
func (l *Log) Tail(n int) ([]string, error) {
	if l.path == "" {
		return nil, nil
	}
	if err := l.logger.Sync(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read activity log: %w", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil, nil
	}
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
