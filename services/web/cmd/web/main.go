package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"qanunai/internal/usertoken"
	"qanunai/internal/util"
	"qanunai/services/web/internal/apiclient"
	"qanunai/services/web/internal/config"
	"qanunai/services/web/internal/messaging"
	"qanunai/services/web/internal/server"
	"qanunai/services/web/internal/session"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := util.InitLogger("web", cfg.LogLevel)

	sessionTTL := mustDuration("sessionTTL", cfg.SessionTTL, 7*24*time.Hour)
	requestTimeout := mustDuration("requestTimeout", cfg.RequestTimeout, apiclient.DefaultTimeout)
	refreshLeeway := mustDuration("refreshLeeway", cfg.RefreshLeeway, usertoken.DefaultLeeway)
	intervals := messaging.Intervals{
		Thread:  mustDuration("threadPollInterval", cfg.ThreadPollInterval, messaging.DefaultThreadInterval),
		Summary: mustDuration("summaryPollInterval", cfg.SummaryPollInterval, messaging.DefaultSummaryInterval),
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer rdb.Close()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	err = rdb.Ping(pingCtx).Err()
	cancelPing()
	if err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}

	var sealer *session.Sealer
	if cfg.CredentialKey != "" {
		sealer, err = session.NewSealer(cfg.CredentialKey)
		if err != nil {
			log.Fatalf("failed to init credential sealer: %v", err)
		}
	} else {
		logger.Warn("credentialKey not set; session records are stored unsealed")
	}
	persister, err := session.NewRedisPersister(rdb, sessionTTL, sealer)
	if err != nil {
		log.Fatalf("failed to init session persister: %v", err)
	}

	web, err := server.New(server.Config{
		API:                         apiclient.NewClient(cfg.APIBaseURL, requestTimeout),
		Admin:                       apiclient.NewClient(cfg.AdminAPIBaseURL, requestTimeout),
		Persister:                   persister,
		Redis:                       rdb,
		RefreshLeeway:               refreshLeeway,
		SessionTTL:                  sessionTTL,
		SessionCookieName:           cfg.SessionCookieName,
		SessionCookieSecure:         cfg.SessionCookieSecure,
		PollIntervals:               intervals,
		LoginRateLimitPerMinute:     cfg.LoginRateLimitPerMinute,
		AssistantRateLimitPerMinute: cfg.AssistantRateLimitPerMinute,
		MaxUploadBytes:              cfg.MaxUploadBytes,
		AllowedExtensions:           cfg.AllowedExtensions,
		AllowedOrigins:              cfg.AllowedOrigins,
		TrustedProxyCIDRs:           cfg.TrustedProxyCIDRs,
		AssistantTimeout:            2 * requestTimeout,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}
	defer web.Close()

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           web.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2*requestTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func mustDuration(name, value string, fallback time.Duration) time.Duration {
	d, err := config.ParseDuration(value, fallback)
	if err != nil {
		log.Fatalf("failed to parse %s: %v", name, err)
	}
	if d == 0 {
		return fallback
	}
	return d
}
