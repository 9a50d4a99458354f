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
	// Logger is the shared instance; Init replaces it.
	Logger = logrus.New()
	mu     sync.Mutex
)

type Config struct {
	Level      string `yaml:"level"`       // debug, info, warn, error
	OutputFile string `yaml:"output_file"` // empty = console only
	MaxSize    int    `yaml:"max_size"`    // MB per file
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"` // days
	Compress   bool   `yaml:"compress"`
}

// Init configures the shared logger and the global logrus instance so
// component loggers created with logrus.WithField share the same output.
func Init(config Config) error {
	mu.Lock()
	defer mu.Unlock()

	l := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	formatter := &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "06-01-02 15:04:05",
	}
	l.SetFormatter(formatter)

	writers := []io.Writer{os.Stdout}
	if config.OutputFile != "" {
		if err := os.MkdirAll(filepath.Dir(config.OutputFile), 0o755); err != nil {
			return err
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   config.OutputFile,
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAge,
			Compress:   config.Compress,
		})
	}
	out := io.MultiWriter(writers...)
	l.SetOutput(out)

	logrus.SetOutput(out)
	logrus.SetLevel(level)
	logrus.SetFormatter(formatter)

	Logger = l
	return nil
}

func Info(args ...any)                 { Logger.Info(args...) }
func Infof(format string, args ...any) { Logger.Infof(format, args...) }
func Warn(args ...any)                 { Logger.Warn(args...) }
func Warnf(format string, args ...any) { Logger.Warnf(format, args...) }
func Error(args ...any)                { Logger.Error(args...) }
func Errorf(format string, args ...any) {
	Logger.Errorf(format, args...)
}
func Debugf(format string, args ...any) { Logger.Debugf(format, args...) }
