// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jason-s-yu/gpcards/internal/cache"
	"github.com/jason-s-yu/gpcards/internal/config"
	"github.com/jason-s-yu/gpcards/internal/deck"
	"github.com/jason-s-yu/gpcards/internal/game"
	"github.com/jason-s-yu/gpcards/internal/handlers"
	"github.com/jason-s-yu/gpcards/internal/hub"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

const releaseVersion = "0.1.0"

func main() {
	cfg := &Config{}
	cobra.CheckErr(newCmd(cfg).Execute())
}

// Serve runs the websocket and HTTP endpoints until SIGINT or SIGTERM.
func Serve(ctx context.Context, cfg *Config) error {
	logger, err := config.NewLogger(cfg.logLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	decks := deck.Load(cfg.decks, logger)
	h := hub.New(logger)

	var sink game.EventSink
	if cfg.redisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.redisAddr, cfg.redisDB)
		if err != nil {
			logger.Warnf("Session events will not be published: %v", err)
		} else {
			defer rdb.Close()
			pub := cache.NewPublisher(rdb, cfg.redisQueue, cfg.publishBuffer, logger)
			go pub.Run(ctx)
			sink = pub
			logger.Infof("Publishing session events to redis list %s at %s", cfg.redisQueue, cfg.redisAddr)
		}
	}

	store := game.NewSessionStore(decks, sink, handlers.SnapshotBroadcaster(h))
	srv := handlers.NewSessionServer(store, h, logger)
	srv.ReportMalformed = cfg.reportMalformed
	srv.ListSessions = cfg.listSessions
	srv.PublicURL = cfg.publicURL
	srv.ServerPort = cfg.port

	httpSrv := &http.Server{
		Addr:              net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		Handler:           handlers.NewRouter(srv, cfg.allowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       10 * time.Minute,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Infof("Running on %s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	logger.Infof("Shutting down with %d live sessions", store.Len())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.shutdownTimeout)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
