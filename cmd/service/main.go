package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/blogapp/internal"
	"github.com/2beens/blogapp/internal/config"
	"github.com/2beens/blogapp/internal/logging"
	"github.com/2beens/blogapp/pkg"
)

func main() {
	fmt.Println("starting ...")

	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	envFile := flag.String("env-file", ".env", "optional file with env vars (secrets)")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		log.Debugf("env file [%s] not loaded: %s", *envFile, err)
	}

	log.Warnf("---->> running in [%s] environment", *env)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	closeLogs, err := logging.Setup(
		logging.ParamsFromConfig(cfg, os.Getenv("SENTRY_DSN"), "blogapp-service"),
	)
	if err != nil {
		log.Errorf("logging setup: %s", err)
	}
	defer closeLogs()

	log.Debugf("using port: %d", cfg.Port)
	log.Debugf("using server logs path: [%s]", cfg.LogsPath)

	versionInfo, err := tryGetLastCommitHash()
	if err != nil {
		log.Tracef("failed to get last commit hash / version info: %s", err)
	} else {
		log.Tracef("running version: %s", versionInfo)
	}

	redisPassword := os.Getenv("BLOGAPP_REDIS_PASS")
	if redisPassword == "" {
		log.Errorf("redis password not set. use BLOGAPP_REDIS_PASS")
	}

	postgresPassword := os.Getenv("BLOGAPP_POSTGRES_PASS")
	if postgresPassword == "" {
		log.Warnln("postgres password not set. use BLOGAPP_POSTGRES_PASS")
	}

	sessionKey := os.Getenv("BLOGAPP_SESSION_KEY")
	if sessionKey == "" {
		log.Errorf("session cookie key not set. use BLOGAPP_SESSION_KEY, generating a random one")
		sessionKey, err = pkg.GenerateRandomString(32)
		if err != nil {
			log.Fatalf("generate session key: %s", err)
		}
	}

	honeycombEnabled := os.Getenv("HONEYCOMB_ENABLED") == "true"
	honeycombApiKey := os.Getenv("HONEYCOMB_API_KEY")
	if honeycombEnabled {
		if honeycombApiKey == "" {
			log.Warnln("HONEYCOMB_API_KEY env var not set")
		}
	} else {
		log.Debugln("honeycomb tracing disabled")
	}

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())

	server, err := internal.NewServer(
		ctx,
		internal.NewServerParams{
			Config:                  cfg,
			VersionInfo:             versionInfo,
			PostgresPassword:        postgresPassword,
			RedisPassword:           redisPassword,
			SessionKey:              []byte(sessionKey),
			HoneycombTracingEnabled: honeycombEnabled,
			HoneycombAPIKey:         honeycombApiKey,
		},
	)
	if err != nil {
		log.Fatalf("new server: %s", err)
	}

	server.Serve(cfg.Host, cfg.Port)

	receivedSig := <-chOsInterrupt
	log.Warnf("signal [%s] received, killing everything ...", receivedSig)
	cancel()

	server.GracefulShutdown()
}

// tryGetLastCommitHash will try to get the last commit hash
// assumes that the built main executable is in project root
func tryGetLastCommitHash() (string, error) {
	cmd := exec.Command("/usr/bin/git", "rev-parse", "HEAD")
	stdout, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(pkg.BytesToString(stdout)), nil
}
