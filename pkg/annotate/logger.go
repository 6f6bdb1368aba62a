package annotate

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// LogLevel 日志级别
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	LogLevelNone
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "NONE"}

func (l LogLevel) String() string {
	if l < LogLevelDebug || l > LogLevelNone {
		return fmt.Sprintf("LogLevel(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLogLevel 解析 debug/info/warn/error/none（不区分大小写）
func ParseLogLevel(s string) (LogLevel, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return LogLevel(i), nil
		}
	}
	if strings.EqualFold(s, "warning") {
		return LogLevelWarn, nil
	}
	return LogLevelNone, fmt.Errorf("unknown log level: %q", s)
}

// Logger 分级日志记录器。scope 非空时附加在每条消息前，
// 用于区分不同查看器会话。
type Logger struct {
	core  *loggerCore
	scope string
}

type loggerCore struct {
	mu      sync.RWMutex
	level   LogLevel
	logger  *log.Logger
	enabled bool
}

var (
	defaultLogger *Logger
	loggerOnce    sync.Once
)

// GetLogger 获取默认日志记录器（单例）
func GetLogger() *Logger {
	loggerOnce.Do(func() {
		defaultLogger = NewLogger(LogLevelWarn, os.Stderr, "[annotate] ")
	})
	return defaultLogger
}

// NewLogger 创建新的日志记录器
func NewLogger(level LogLevel, output io.Writer, prefix string) *Logger {
	return &Logger{core: &loggerCore{
		level:   level,
		logger:  log.New(output, prefix, log.LstdFlags),
		enabled: true,
	}}
}

// With 返回共享级别和输出、带作用域前缀的记录器
func (l *Logger) With(scope string) *Logger {
	if l.scope != "" {
		scope = l.scope + " " + scope
	}
	return &Logger{core: l.core, scope: scope}
}

// SetLevel 设置日志级别
func (l *Logger) SetLevel(level LogLevel) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.level = level
}

// SetOutput 设置输出目标
func (l *Logger) SetOutput(w io.Writer) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.logger.SetOutput(w)
}

// SetEnabled 启用或禁用日志
func (l *Logger) SetEnabled(enabled bool) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.enabled = enabled
}

// Enabled 该级别的消息是否会被输出
func (l *Logger) Enabled(level LogLevel) bool {
	l.core.mu.RLock()
	defer l.core.mu.RUnlock()
	return l.core.enabled && level >= l.core.level && level < LogLevelNone
}

func (l *Logger) Debug(format string, v ...interface{}) { l.log(LogLevelDebug, format, v...) }
func (l *Logger) Info(format string, v ...interface{})  { l.log(LogLevelInfo, format, v...) }
func (l *Logger) Warn(format string, v ...interface{})  { l.log(LogLevelWarn, format, v...) }
func (l *Logger) Error(format string, v ...interface{}) { l.log(LogLevelError, format, v...) }

func (l *Logger) log(level LogLevel, format string, v ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	msg := fmt.Sprintf(format, v...)
	l.core.mu.RLock()
	defer l.core.mu.RUnlock()
	if l.scope != "" {
		l.core.logger.Printf("[%s] %s %s", level, l.scope, msg)
		return
	}
	l.core.logger.Printf("[%s] %s", level, msg)
}

// 全局便捷函数
func Debug(format string, v ...interface{}) {
	GetLogger().Debug(format, v...)
}

func Info(format string, v ...interface{}) {
	GetLogger().Info(format, v...)
}

func Warn(format string, v ...interface{}) {
	GetLogger().Warn(format, v...)
}

func LogError(format string, v ...interface{}) {
	GetLogger().Error(format, v...)
}

// SetLogLevel 设置全局日志级别
func SetLogLevel(level LogLevel) {
	GetLogger().SetLevel(level)
}

// EnableLogging 启用或禁用全局日志
func EnableLogging(enabled bool) {
	GetLogger().SetEnabled(enabled)
}
