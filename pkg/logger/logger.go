package logger

import (
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel определяет уровень логирования
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = map[LogLevel]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

var zapLevels = map[LogLevel]zapcore.Level{
	LevelDebug: zapcore.DebugLevel,
	LevelInfo:  zapcore.InfoLevel,
	LevelWarn:  zapcore.WarnLevel,
	LevelError: zapcore.ErrorLevel,
	LevelFatal: zapcore.FatalLevel,
}

// String возвращает имя уровня
func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseLevel разбирает уровень из строки (debug, info, warn, error, fatal)
func ParseLevel(s string) LogLevel {
	for level, name := range levelNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return level
		}
	}
	if strings.EqualFold(s, "warning") {
		return LevelWarn
	}
	return LevelInfo
}

// Logger представляет структурированный логгер поверх zap
type Logger struct {
	level zap.AtomicLevel
	zl    *zap.Logger
}

// New создает логгер для разработки (консольный вывод)
func New(level LogLevel) *Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return build(cfg, level)
}

// NewProduction создает JSON логгер для продакшена
func NewProduction(level LogLevel) *Logger {
	return build(zap.NewProductionConfig(), level)
}

// NewNop создает логгер, который ничего не пишет (для тестов)
func NewNop() *Logger {
	return &Logger{
		level: zap.NewAtomicLevelAt(zapcore.InfoLevel),
		zl:    zap.NewNop(),
	}
}

func build(cfg zap.Config, level LogLevel) *Logger {
	atom := zap.NewAtomicLevelAt(zapLevels[level])
	cfg.Level = atom

	zl, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		zl = zap.NewNop()
	}

	return &Logger{level: atom, zl: zl}
}

// SetLevel устанавливает уровень логирования
func (l *Logger) SetLevel(level LogLevel) {
	l.level.SetLevel(zapLevels[level])
}

// Debug записывает debug сообщение
func (l *Logger) Debug(msg string, fields ...Field) {
	l.zl.Debug(msg, toZap(fields)...)
}

// Info записывает info сообщение
func (l *Logger) Info(msg string, fields ...Field) {
	l.zl.Info(msg, toZap(fields)...)
}

// Warn записывает warning сообщение
func (l *Logger) Warn(msg string, fields ...Field) {
	l.zl.Warn(msg, toZap(fields)...)
}

// Error записывает error сообщение
func (l *Logger) Error(msg string, fields ...Field) {
	l.zl.Error(msg, toZap(fields)...)
}

// Fatal записывает fatal сообщение и завершает программу
func (l *Logger) Fatal(msg string, fields ...Field) {
	l.zl.Fatal(msg, toZap(fields)...)
}

// WithFields возвращает логгер с предустановленными полями
func (l *Logger) WithFields(fields ...Field) *Logger {
	return &Logger{
		level: l.level,
		zl:    l.zl.With(toZap(fields)...),
	}
}

// Named возвращает логгер с именем компонента
func (l *Logger) Named(component string) *Logger {
	return &Logger{
		level: l.level,
		zl:    l.zl.Named(component),
	}
}

// Sync сбрасывает буферы
func (l *Logger) Sync() error {
	return l.zl.Sync()
}

// Field представляет поле логирования
type Field struct {
	Key   string
	Value interface{}
}

func toZap(fields []Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

// Вспомогательные функции для создания полей
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}
