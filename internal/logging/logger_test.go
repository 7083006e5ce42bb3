package logging

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/2beens/blogapp/internal/config"
	"github.com/2beens/blogapp/pkg"
)

func TestGetLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, GetLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, GetLevel("warn"))
	assert.Equal(t, logrus.InfoLevel, GetLevel("info"))
	assert.Equal(t, logrus.TraceLevel, GetLevel(" trace "))
	assert.Equal(t, logrus.InfoLevel, GetLevel("whatever"))
}

func TestParamsFromConfig(t *testing.T) {
	cfg := &config.Config{
		Environment:   "production",
		LogLevel:      "info",
		LogsPath:      "/var/log/blogapp/service",
		LogFormatJSON: true,
		LogMaxSizeMB:  100,
		LogMaxBackups: 7,
		LogMaxAgeDays: 14,
		LogCompress:   true,
	}

	p := ParamsFromConfig(cfg, "https://key@sentry.example/1", "blogapp-test")
	assert.Equal(t, Rotation{MaxSizeMB: 100, MaxBackups: 7, MaxAgeDays: 14, Compress: true}, p.Rotation)
	assert.Equal(t, "/var/log/blogapp/service", p.File)
	assert.True(t, p.FormatJSON)
	assert.Equal(t, "blogapp-test", p.ServerName)
	// sentry stays off unless enabled in the config
	assert.Empty(t, p.SentryDSN)

	cfg.SentryEnabled = true
	p = ParamsFromConfig(cfg, "https://key@sentry.example/1", "blogapp-test")
	assert.Equal(t, "https://key@sentry.example/1", p.SentryDSN)
}

func TestOutput(t *testing.T) {
	out, file := output(Params{})
	assert.Equal(t, os.Stdout, out)
	assert.Nil(t, file)

	rotation := Rotation{MaxSizeMB: 10, MaxBackups: 2, MaxAgeDays: 3, Compress: true}
	path := filepath.Join(t.TempDir(), "service")

	out, file = output(Params{File: path, Rotation: rotation})
	lj, ok := out.(*lumberjack.Logger)
	require.True(t, ok)
	assert.Equal(t, lj, file)
	assert.Equal(t, path+".log", lj.Filename)
	assert.Equal(t, 10, lj.MaxSize)
	assert.Equal(t, 2, lj.MaxBackups)
	assert.Equal(t, 3, lj.MaxAge)
	assert.True(t, lj.Compress)

	out, file = output(Params{File: path, ToStdout: true, Rotation: rotation})
	combined, ok := out.(*pkg.CombinedWriter)
	require.True(t, ok)
	require.Len(t, combined.Writers, 2)
	assert.Equal(t, os.Stdout, combined.Writers[0])
	assert.Equal(t, file, combined.Writers[1])
}

func TestSetup_WritesToFile(t *testing.T) {
	defer func() {
		logrus.SetOutput(os.Stderr)
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.TextFormatter{})
	}()

	path := filepath.Join(t.TempDir(), "service.log")
	closeLogs, err := Setup(Params{
		Level:      "warn",
		FormatJSON: true,
		File:       path,
		Rotation:   Rotation{MaxSizeMB: 1},
	})
	require.NoError(t, err)

	logrus.Infoln("not written")
	logrus.Warnln("blog 3 publish retried")
	closeLogs()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"blog 3 publish retried"`)
	assert.NotContains(t, string(content), "not written")
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())
}

func TestSentryHook_Fire(t *testing.T) {
	var sent []*sentry.Event
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			sent = append(sent, event)
			return nil
		},
	})
	require.NoError(t, err)

	hook := &SentryHook{
		levels: []logrus.Level{logrus.ErrorLevel},
		hub:    sentry.NewHub(client, sentry.NewScope()),
	}
	assert.Equal(t, []logrus.Level{logrus.ErrorLevel}, hook.Levels())

	logger := logrus.New()
	require.NoError(t, hook.Fire(logrus.NewEntry(logger).
		WithField("blog_id", 3).
		WithError(errors.New("db down"))))
	require.NoError(t, hook.Fire(&logrus.Entry{
		Logger:  logger,
		Level:   logrus.ErrorLevel,
		Message: "publish failed",
		Data:    logrus.Fields{},
	}))

	require.Len(t, sent, 2)
	require.Len(t, sent[0].Exception, 1)
	assert.Equal(t, "db down", sent[0].Exception[0].Value)
	assert.Equal(t, 3, sent[0].Extra["blog_id"])
	assert.Equal(t, "publish failed", sent[1].Exception[0].Value)
	assert.Equal(t, sentry.LevelError, sent[1].Level)
}

func TestSentryLevel(t *testing.T) {
	assert.Equal(t, sentry.LevelFatal, sentryLevel(logrus.PanicLevel))
	assert.Equal(t, sentry.LevelWarning, sentryLevel(logrus.WarnLevel))
	assert.Equal(t, sentry.LevelDebug, sentryLevel(logrus.TraceLevel))
}
