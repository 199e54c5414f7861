package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	dirhandler "medcred/internal/directory/handler"
	dirmodels "medcred/internal/directory/models"
	dirservice "medcred/internal/directory/service"
	dirstore "medcred/internal/directory/store"
	"medcred/internal/issuance/catalog"
	"medcred/internal/issuance/client"
	"medcred/internal/issuance/events"
	issuehandler "medcred/internal/issuance/handler"
	"medcred/internal/issuance/service"
	"medcred/internal/issuance/store"
	"medcred/internal/issuance/token"
	"medcred/internal/platform/config"
	"medcred/internal/platform/health"
	"medcred/internal/platform/httpserver"
	"medcred/internal/platform/kafka"
	"medcred/internal/platform/kafka/producer"
	"medcred/internal/platform/logger"
	"medcred/internal/platform/metrics"
	"medcred/internal/platform/privacy"
	platformredis "medcred/internal/platform/redis"
	"medcred/internal/platform/tracer"
	httptransport "medcred/internal/transport/http"
	clientmw "medcred/pkg/platform/middleware/client"
	"medcred/pkg/platform/middleware/request"
)

const (
	shutdownTimeout      = 10 * time.Second
	producerFlushTimeout = 5 * time.Second
)

// main wires dependencies, exposes the HTTP router, and keeps the server
// lifecycle small. Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("initializing medcred",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"issuance_api", cfg.Issuance.APIBase,
		"callback_url", cfg.Issuance.CallbackURL,
		"callback_secret", privacy.MaskSecret(cfg.Issuance.CallbackSecret),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)
	tr := tracer.NewOTel()
	healthHandler := health.New(cfg.Environment)
	noteMissingSettings(healthHandler, cfg, log)

	directory, err := newDirectory(cfg, log, m)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	svcOpts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithTracer(tr),
	}

	redisClient, err := platformredis.New(ctx, cfg.Redis, reg)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck // process exit
		svcOpts = append(svcOpts, service.WithStore(store.NewRedis(redisClient.Client, cfg.Issuance.SessionTTL)))
		healthHandler.RegisterChecker(redisClient)
		g.Go(func() error {
			redisClient.RunPoolStats(gctx, platformredis.DefaultStatsInterval, log)
			return nil
		})
		log.Info("issuance sessions stored in redis")
	}

	if cfg.Kafka.Brokers != "" {
		p, err := producer.New(cfg.Kafka, log)
		if err != nil {
			return fmt.Errorf("create kafka producer: %w", err)
		}
		defer p.Close(producerFlushTimeout) //nolint:errcheck // logged by the producer
		svcOpts = append(svcOpts, service.WithPublisher(events.NewKafkaPublisher(p, cfg.Kafka.Topic, log)))
		healthHandler.RegisterChecker(kafka.NewHealthChecker(p))
		log.Info("callback events published to kafka", "topic", cfg.Kafka.Topic)
	}

	identity := token.NewManagedIdentityProvider(cfg.Identity,
		token.WithLogger(log),
		token.WithMetrics(m),
		token.WithTracer(tr),
	)
	tokens := token.NewCachingProvider(identity, cfg.Identity.RefreshSkew, token.WithCacheMetrics(m))
	issuanceClient := client.New(cfg.Issuance,
		client.WithLogger(log),
		client.WithMetrics(m),
		client.WithTracer(tr),
	)
	issuance := service.NewService(cfg.Issuance, tokens, directory, issuanceClient, svcOpts...)

	clientMW, err := clientmw.New(cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("parse TRUSTED_PROXIES: %w", err)
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:             log,
		Gatherer:           reg,
		Latency:            request.NewMetrics(reg),
		Client:             clientMW,
		Health:             healthHandler,
		Directory:          dirhandler.New(directory, log),
		Issuance:           issuehandler.New(issuance, catalog.Default(cfg.Issuance.ManifestBaseURL), log),
		AdminToken:         cfg.AdminToken,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		PublicDir:          cfg.PublicDir,
		ManifestsDir:       cfg.ManifestsDir,
	})
	srv := httpserver.New(cfg.Addr, router)

	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}

// newDirectory loads the users file. A missing file starts the demo with an
// empty directory so the static site and probes still come up.
func newDirectory(cfg config.Server, log *slog.Logger, m *metrics.Metrics) (*dirservice.Service, error) {
	users, err := dirstore.Load(cfg.UsersFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn("users file not found; directory is empty", "path", cfg.UsersFile)
		users, err = dirstore.New(nil)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("load users: %w", err)
	}

	initial := dirmodels.UserID(cfg.DefaultUserID)
	if initial.IsNil() {
		initial = users.InitialActiveID()
	}
	svc := dirservice.NewService(users, initial,
		dirservice.WithLogger(log),
		dirservice.WithMetrics(m),
	)
	log.Info("user directory loaded",
		"users", len(users.List()),
		"active_user_id", svc.ActiveID(),
	)
	return svc, nil
}

// noteMissingSettings reports issuance settings that are absent. They are
// checked again per request, so the process still starts without them.
func noteMissingSettings(h *health.Handler, cfg config.Server, log *slog.Logger) {
	missing := map[string]string{
		"AUTHORITY_DID":     cfg.Issuance.AuthorityDID,
		"TENANT_ID":         cfg.Issuance.TenantID,
		"IDENTITY_ENDPOINT": cfg.Identity.Endpoint,
		"IDENTITY_HEADER":   cfg.Identity.Header,
	}
	for name, value := range missing {
		if value != "" {
			continue
		}
		h.Note(name, "not configured")
		log.Warn("issuance setting not configured", "setting", name)
	}
}
