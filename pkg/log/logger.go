package log

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	svmerrors "github.com/YuminosukeSato/svmkit/pkg/errors"
)

// zerologLogger は Logger インターフェースの zerolog 実装です。
type zerologLogger struct {
	zl zerolog.Logger
}

func (l *zerologLogger) Debug(msg string, fields ...any) {
	appendFields(l.zl.Debug(), fields).Msg(msg)
}

func (l *zerologLogger) Info(msg string, fields ...any) {
	appendFields(l.zl.Info(), fields).Msg(msg)
}

func (l *zerologLogger) Warn(msg string, fields ...any) {
	appendFields(l.zl.Warn(), fields).Msg(msg)
}

func (l *zerologLogger) Error(msg string, fields ...any) {
	appendFields(l.zl.Error(), fields).Msg(msg)
}

func (l *zerologLogger) With(fields ...any) Logger {
	return &zerologLogger{zl: l.zl.With().Fields(fieldMap(fields)).Logger()}
}

func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	zl := toZerologLevel(level)
	return zl >= l.zl.GetLevel() && zl >= zerolog.GlobalLevel()
}

// ZerologProvider は zerolog をバックエンドとする LoggerProvider です。
type ZerologProvider struct {
	mu    sync.RWMutex
	out   io.Writer
	level Level
	base  zerolog.Logger
}

// NewZerologProvider は出力先と最小レベルを指定してプロバイダを作成します。
func NewZerologProvider(out io.Writer, level Level) *ZerologProvider {
	p := &ZerologProvider{out: out, level: level}
	p.rebuild()
	return p
}

func (p *ZerologProvider) rebuild() {
	p.base = zerolog.New(p.out).
		Level(toZerologLevel(p.level)).
		With().
		Timestamp().
		Logger()
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *ZerologProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &zerologLogger{zl: p.base}
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &zerologLogger{zl: p.base.With().Str(ComponentKey, name).Logger()}
}

// SetLevel implements LoggerProvider.SetLevel.
// 既に取得済みのロガーには影響しません。
func (p *ZerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = level
	p.rebuild()
}

// SetOutput は出力先を差し替えます。
func (p *ZerologProvider) SetOutput(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.out = w
	p.rebuild()
}

// WarnFunc は errors.Warn から渡された警告を warn レベルで出力する関数を返します。
func (p *ZerologProvider) WarnFunc() func(error) {
	return func(w error) {
		logger := p.GetLoggerWithName("warnings")
		logger.Warn(w.Error(), ErrAttrKey, w)
	}
}

var defaultProvider = NewZerologProvider(os.Stderr, LevelInfo)

// GetLogger returns the process-wide default logger.
func GetLogger() Logger {
	return defaultProvider.GetLogger()
}

// GetLoggerWithName returns the default logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	return defaultProvider.GetLoggerWithName(name)
}

// DefaultProvider returns the process-wide provider.
func DefaultProvider() *ZerologProvider {
	return defaultProvider
}

// SetOutput redirects the default provider.
func SetOutput(w io.Writer) {
	defaultProvider.SetOutput(w)
}

// SetupLogger はログレベル文字列を解釈して既定プロバイダを設定し、
// errors.Warn の出力先を zerolog に切り替えます。
func SetupLogger(loglevel string) error {
	level, err := ToLogLevel(loglevel)
	if err != nil {
		return err
	}
	defaultProvider.SetLevel(level)
	svmerrors.SetZerologWarnFunc(defaultProvider.WarnFunc())
	return nil
}

// ToLogLevel converts "debug", "info", "warn" or "error" (case-insensitive) to a Level.
func ToLogLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, errors.Mark(errors.Newf("invalid log level: %q", level), svmerrors.ErrInvalidArgument)
	}
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}
