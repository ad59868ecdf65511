package core

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var once sync.Once

type logger struct {
	*log.Logger
	out io.Closer
}

var singleton *logger

func getLogger() *logger {
	once.Do(func() {
		l := log.NewWithOptions(os.Stderr, log.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          "RenderGraph 🎞️ ",
			CallerOffset:    1,
		})
		l.SetLevel(log.DebugLevel)
		singleton = &logger{Logger: l}
	})
	return singleton
}

// LogConfigure applies the logger section of the configuration.
// Accepted levels are trace, debug, info, warn, error, critical and off.
// Output is stderr, stdout or a file path opened in append mode.
func LogConfigure(level string, output string) error {
	l := getLogger()

	switch strings.ToLower(output) {
	case "", "stderr":
		l.SetOutput(os.Stderr)
	case "stdout":
		l.SetOutput(os.Stdout)
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log output %q: %w", output, err)
		}
		if l.out != nil {
			_ = l.out.Close()
		}
		l.out = f
		l.SetOutput(f)
	}

	switch strings.ToLower(level) {
	case "trace":
		l.SetLevel(log.DebugLevel)
	case "critical":
		l.SetLevel(log.FatalLevel)
	case "off":
		l.SetOutput(io.Discard)
	default:
		lvl, err := log.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("unknown log level %q: %w", level, err)
		}
		l.SetLevel(lvl)
	}
	return nil
}

// LogShutdown closes a file output opened by LogConfigure.
func LogShutdown() error {
	l := getLogger()
	if l.out == nil {
		return nil
	}
	l.SetOutput(os.Stderr)
	err := l.out.Close()
	l.out = nil
	return err
}

func LogDebug(msg string, args ...interface{}) {
	getLogger().Debugf(msg, args...)
}

func LogInfo(msg string, args ...interface{}) {
	getLogger().Infof(msg, args...)
}

func LogWarn(msg string, args ...interface{}) {
	getLogger().Warnf(msg, args...)
}

func LogError(msg string, args ...interface{}) {
	getLogger().Errorf(msg, args...)
}

func LogFatal(msg string, args ...interface{}) {
	getLogger().Fatalf(msg, args...)
}
