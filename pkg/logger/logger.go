package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Logger 全局日志实例
	Logger *logrus.Logger
	// currentLogFile 当前日志文件路径
	currentLogFile string
	logMu          sync.Mutex
)

// Config 日志配置
type Config struct {
	Level          string // 日志级别: debug, info, warn, error
	OutputFile     string // 日志文件路径（可选，为空则只输出到控制台）
	MaxSize        int    // 日志文件最大大小（MB）
	MaxBackups     int    // 保留的旧日志文件数量
	MaxAge         int    // 保留旧日志文件的天数
	Compress       bool   // 是否压缩旧日志文件
	DisableConsole bool   // 不输出到控制台（终端界面模式下使用）
}

func newFormatter() logrus.Formatter {
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "06-01-02 15:04:05", // 格式: yy-mm-dd HH:MM:ss
		ForceColors:     true,
	}
}

// Init 初始化日志系统
func Init(config Config) error {
	logMu.Lock()
	defer logMu.Unlock()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}

	var writers []io.Writer
	if !config.DisableConsole {
		writers = append(writers, os.Stdout)
	}

	currentLogFile = ""
	if config.OutputFile != "" {
		if err := os.MkdirAll(filepath.Dir(config.OutputFile), 0755); err != nil {
			return err
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   config.OutputFile,
			MaxSize:    withDefault(config.MaxSize, 100),
			MaxBackups: withDefault(config.MaxBackups, 3),
			MaxAge:     withDefault(config.MaxAge, 7),
			Compress:   config.Compress,
		})
		currentLogFile = config.OutputFile
	}

	out := io.Discard
	if len(writers) > 0 {
		out = io.MultiWriter(writers...)
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(newFormatter())
	logger.SetOutput(out)

	// 各组件通过 logrus.WithField 创建的 logger 同样写入这里
	logrus.SetOutput(out)
	logrus.SetLevel(level)
	logrus.SetFormatter(newFormatter())

	Logger = logger
	return nil
}

// InitDefault 使用默认配置初始化日志系统
func InitDefault() error {
	return Init(Config{Level: "info"})
}

func withDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Info 记录 INFO 级别日志
func Info(args ...interface{}) {
	if Logger != nil {
		Logger.Info(args...)
	}
}

// Infof 记录格式化的 INFO 级别日志
func Infof(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Infof(format, args...)
	}
}

// Warnf 记录格式化的 WARN 级别日志
func Warnf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Warnf(format, args...)
	}
}

// Errorf 记录格式化的 ERROR 级别日志
func Errorf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Errorf(format, args...)
	}
}

// GetCurrentLogFile 获取当前日志文件路径
func GetCurrentLogFile() string {
	logMu.Lock()
	defer logMu.Unlock()
	return currentLogFile
}
