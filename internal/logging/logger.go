package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/2beens/blogapp/internal/config"
	"github.com/2beens/blogapp/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const sentryFlushTimeout = 5 * time.Second

// Rotation limits of the log file.
type Rotation struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Params struct {
	Level       string
	FormatJSON  bool
	File        string // empty means stdout only
	ToStdout    bool
	Rotation    Rotation
	Environment string
	// SentryDSN empty leaves sentry off.
	SentryDSN  string
	ServerName string
}

// ParamsFromConfig maps the logging part of the service config.
// The sentry DSN is a secret and does not live in the config file.
func ParamsFromConfig(cfg *config.Config, sentryDSN, serverName string) Params {
	p := Params{
		Level:      cfg.LogLevel,
		FormatJSON: cfg.LogFormatJSON,
		File:       cfg.LogsPath,
		ToStdout:   cfg.LogToStdout,
		Rotation: Rotation{
			MaxSizeMB:  cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
			MaxAgeDays: cfg.LogMaxAgeDays,
			Compress:   cfg.LogCompress,
		},
		Environment: cfg.Environment,
		ServerName:  serverName,
	}
	if cfg.SentryEnabled {
		p.SentryDSN = sentryDSN
	}
	return p
}

// Setup configures the global logrus logger: level, format, output and the
// sentry hook for error levels. The returned func flushes sentry and closes
// the log file, call it last on shutdown.
func Setup(p Params) (func(), error) {
	if p.FormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	logrus.SetLevel(GetLevel(p.Level))

	out, file := output(p)
	logrus.SetOutput(out)

	closeFn := func() {
		if file != nil {
			if err := file.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "close log file: %s\n", err)
			}
		}
	}

	if p.SentryDSN == "" {
		logrus.Debugln("sentry disabled")
		return closeFn, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Environment:      p.Environment,
		Dsn:              p.SentryDSN,
		TracesSampleRate: 1.0,
		ServerName:       p.ServerName,
	})
	if err != nil {
		return closeFn, fmt.Errorf("sentry init: %w", err)
	}
	logrus.AddHook(NewSentryHook([]logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
	}))
	logrus.Infoln("sentry set up")

	return func() {
		if ok := sentry.Flush(sentryFlushTimeout); !ok {
			fmt.Fprintln(os.Stderr, "sentry flush timed out")
		}
		closeFn()
	}, nil
}

// output picks the log writer. file is nil when logging to stdout only.
func output(p Params) (io.Writer, io.Closer) {
	if p.File == "" {
		return os.Stdout, nil
	}

	fileName := p.File
	if !strings.HasSuffix(fileName, ".log") {
		fileName += ".log"
	}
	file := &lumberjack.Logger{
		Filename:   fileName,
		MaxSize:    p.Rotation.MaxSizeMB,
		MaxBackups: p.Rotation.MaxBackups,
		MaxAge:     p.Rotation.MaxAgeDays,
		Compress:   p.Rotation.Compress,
	}

	if p.ToStdout {
		return pkg.NewCombinedWriter(os.Stdout, file), file
	}
	return file, file
}

// GetLevel parses a level name, unknown names fall back to info.
func GetLevel(level string) logrus.Level {
	l, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return l
}
