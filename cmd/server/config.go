// cmd/server/config.go
package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/gpcards/internal/cache"
	"github.com/jason-s-yu/gpcards/internal/config"
	"github.com/spf13/cobra"
)

type Config struct {
	bind            string
	port            int
	decks           string
	logLevel        string
	reportMalformed bool
	listSessions    bool
	publicURL       string
	allowedOrigins  []string
	shutdownTimeout time.Duration

	redisAddr     string
	redisDB       int
	redisQueue    string
	publishBuffer int
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.publishBuffer < 1 {
		return errors.New("--publish-buffer must be at least 1")
	}
	return nil
}

func newCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gpcards-server",
		Short:         "Real-time session and turn engine for the GP cards game.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return Serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: GPCARDS_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8787, "port to listen on (env: GPCARDS_PORT)")
	fs.StringVar(&cfg.decks, "decks", "decks.json", "path to the card decks file (env: GPCARDS_DECKS)")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "logrus level: debug, info, warn, error (env: GPCARDS_LOG_LEVEL)")
	fs.BoolVar(&cfg.reportMalformed, "report-malformed", false, "answer malformed or unknown messages with a BAD_MESSAGE error instead of dropping them (env: GPCARDS_REPORT_MALFORMED)")
	fs.BoolVar(&cfg.listSessions, "list-sessions", false, "serve GET /sessions, which lists every live session ID; for operators only (env: GPCARDS_LIST_SESSIONS)")
	fs.StringVar(&cfg.publicURL, "public-url", "", "client base URL used in join QR codes; derived from the request when empty (env: GPCARDS_PUBLIC_URL)")
	fs.StringSliceVar(&cfg.allowedOrigins, "allowed-origins", nil, "CORS origins for the HTTP API (env: GPCARDS_ALLOWED_ORIGINS)")
	fs.DurationVar(&cfg.shutdownTimeout, "shutdown-timeout", 5*time.Second, "grace period for in-flight HTTP requests on shutdown (env: GPCARDS_SHUTDOWN_TIMEOUT)")
	fs.StringVar(&cfg.redisAddr, "redis-addr", "", "redis address for the historian queue; empty disables publishing (env: GPCARDS_REDIS_ADDR)")
	fs.IntVar(&cfg.redisDB, "redis-db", 0, "redis database index (env: GPCARDS_REDIS_DB)")
	fs.StringVar(&cfg.redisQueue, "redis-queue", cache.DefaultQueueName, "redis list session events are pushed to (env: GPCARDS_REDIS_QUEUE)")
	fs.IntVar(&cfg.publishBuffer, "publish-buffer", 256, "session events buffered in memory before drops (env: GPCARDS_PUBLISH_BUFFER)")

	config.BindEnv(fs)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("gpcards-server v{{.Version}}\n")

	return cmd
}
