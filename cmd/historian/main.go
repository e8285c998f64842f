// cmd/historian is an asynchronous service that pops session events from a
// Redis queue and persists them to PostgreSQL.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/gpcards/internal/cache"
	"github.com/jason-s-yu/gpcards/internal/config"
	"github.com/jason-s-yu/gpcards/internal/database"
	"github.com/jason-s-yu/gpcards/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

type Config struct {
	logLevel     string
	databaseURL  string
	ensureSchema bool
	redisAddr    string
	redisDB      int
	hist         historian.Config
}

func main() {
	cfg := &Config{}
	cobra.CheckErr(newCmd(cfg).Execute())
}

func newCmd(cfg *Config) *cobra.Command {
	def := historian.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "gpcards-historian",
		Short:         "Persists finished turns and sessions from the Redis queue to PostgreSQL.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.databaseURL == "" {
				return fmt.Errorf("--database-url is required (env: %s)", config.EnvName("database-url"))
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&cfg.logLevel, "log-level", "info", "logrus level (env: GPCARDS_LOG_LEVEL)")
	fs.StringVar(&cfg.databaseURL, "database-url", "", "postgres connection URL (env: GPCARDS_DATABASE_URL)")
	fs.BoolVar(&cfg.ensureSchema, "ensure-schema", true, "create the historian tables on startup (env: GPCARDS_ENSURE_SCHEMA)")
	fs.StringVar(&cfg.redisAddr, "redis-addr", "localhost:6379", "redis address (env: GPCARDS_REDIS_ADDR)")
	fs.IntVar(&cfg.redisDB, "redis-db", 0, "redis database index (env: GPCARDS_REDIS_DB)")
	fs.StringVar(&cfg.hist.QueueName, "redis-queue", cache.DefaultQueueName, "redis list to consume (env: GPCARDS_REDIS_QUEUE)")
	fs.IntVar(&cfg.hist.BatchSize, "batch-size", def.BatchSize, "events per database transaction (env: GPCARDS_BATCH_SIZE)")
	fs.DurationVar(&cfg.hist.FlushInterval, "flush-interval", def.FlushInterval, "max time an event waits in a partial batch (env: GPCARDS_FLUSH_INTERVAL)")
	fs.DurationVar(&cfg.hist.PopTimeout, "pop-timeout", def.PopTimeout, "BLPOP timeout (env: GPCARDS_POP_TIMEOUT)")
	fs.DurationVar(&cfg.hist.Inactivity, "inactivity-timeout", def.Inactivity, "idle time before a session is marked abandoned (env: GPCARDS_INACTIVITY_TIMEOUT)")
	fs.DurationVar(&cfg.hist.InactivityCheck, "inactivity-check", def.InactivityCheck, "how often idle sessions are swept (env: GPCARDS_INACTIVITY_CHECK)")

	config.BindEnv(fs)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	return cmd
}

func run(ctx context.Context, cfg *Config) error {
	logger, err := config.NewLogger(cfg.logLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.databaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.ensureSchema {
		schemaCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := database.EnsureSchema(schemaCtx, pool)
		cancel()
		if err != nil {
			return err
		}
	}

	rdb, err := cache.Connect(ctx, cfg.redisAddr, cfg.redisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	svc := historian.New(rdb, database.NewStore(pool), cfg.hist, logger)
	svc.Run(ctx)
	logger.Info("Historian shutdown complete.")
	return nil
}
