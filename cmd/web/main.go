package main

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/afresh/afresh-web/internal/config"
	"github.com/afresh/afresh-web/internal/email"
	"github.com/afresh/afresh-web/internal/gateway"
	"github.com/afresh/afresh-web/internal/handler"
	"github.com/afresh/afresh-web/internal/handler/auth"
	"github.com/afresh/afresh-web/internal/handler/booking"
	"github.com/afresh/afresh-web/internal/handler/catalog"
	"github.com/afresh/afresh-web/internal/handler/contact"
	"github.com/afresh/afresh-web/internal/handler/health"
	"github.com/afresh/afresh-web/internal/handler/overview"
	"github.com/afresh/afresh-web/internal/handler/prometheus"
	"github.com/afresh/afresh-web/internal/handler/public"
	"github.com/afresh/afresh-web/internal/handler/settings"
	"github.com/afresh/afresh-web/internal/middleware"
	"github.com/afresh/afresh-web/internal/router"
	authService "github.com/afresh/afresh-web/internal/service/auth"
	bookingService "github.com/afresh/afresh-web/internal/service/booking"
	catalogService "github.com/afresh/afresh-web/internal/service/catalog"
	"github.com/afresh/afresh-web/internal/service/content"
	"github.com/afresh/afresh-web/internal/session"
	"github.com/afresh/afresh-web/internal/web"
	"github.com/afresh/afresh-web/pkg/logger"
	"github.com/afresh/afresh-web/pkg/metrics"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	m := metrics.New("afresh")

	backend, closeBackend, err := newSessionBackend(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize session backend")
	}
	defer closeBackend()

	store, err := session.NewStore(backend, session.Config{
		CookiePrefix: cfg.Session.CookiePrefix,
		TabTTL:       cfg.Session.TabTTL,
		DurableTTL:   cfg.Session.DurableTTL,
		Secure:       cfg.Session.Secure,
		Secret:       cfg.Security.Secret,
	}, m)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize session store")
	}

	client, err := gateway.New(gateway.Config{
		BaseURL:         cfg.API.BaseURL,
		Timeout:         cfg.API.Timeout,
		BreakerFailures: cfg.API.BreakerFailures,
		BreakerTimeout:  cfg.API.BreakerTimeout,
	}, m)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize api client")
	}

	mailer := email.NewService(email.NewSender(email.Config{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		FromName: cfg.Mail.FromName,
	}))
	if !mailer.Enabled() {
		log.Warn().Msg("mail.host is not set, outgoing email is disabled")
	}

	site, err := content.Load(cfg.Content.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load site content")
	}
	contentSvc := content.NewService(site, client, cfg.API.TeamCacheTTL)

	authSvc := authService.NewService(client, store)
	catalogSvc := catalogService.NewService(client)
	bookingSvc := bookingService.NewService(client, mailer, cfg.Location())

	renderer, err := web.NewRenderer(template.FuncMap{"markdown": contentSvc.Markdown})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse templates")
	}

	base := handler.NewBase(site.Company, cfg.Location())
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  rate.Limit(cfg.RateLimit.LoginRPS),
		Burst: cfg.RateLimit.LoginBurst,
	})

	r, err := router.NewRouter(router.Config{
		Mode:           cfg.Server.Mode,
		TrustedProxies: cfg.Server.TrustedProxies,
		Secure:         cfg.Session.Secure,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		RequestTimeout: cfg.Server.RequestTimeout,
		CSRF: middleware.CSRFConfig{
			Enabled:        cfg.Security.CSRFEnabled,
			Secret:         cfg.Security.Secret,
			Secure:         cfg.Session.Secure,
			TrustedOrigins: cfg.Security.TrustedOrigins,
		},
	}, renderer, store, m, router.Handlers{
		Public: []router.Handler{
			public.NewHandler(base, contentSvc, client),
			auth.NewHandler(base, authSvc, limiter),
		},
		Admin: []router.Handler{
			overview.NewHandler(base, contentSvc),
			catalog.NewHandler(base, catalogSvc),
			booking.NewHandler(base, bookingSvc, mailer),
			contact.NewHandler(base, contentSvc, mailer),
			settings.NewHandler(base, contentSvc),
		},
		Ops: []router.Handler{
			health.NewHandler(store.Backend()),
			prometheus.New(m),
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize router")
	}
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("api", cfg.API.BaseURL).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited properly")
}

func newSessionBackend(cfg *config.Config) (session.Backend, func(), error) {
	if cfg.Session.Backend != "redis" {
		return session.NewMemoryBackend(time.Minute), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Redis.DialTimeout+time.Second)
	defer cancel()
	backend, err := session.NewRedisBackend(ctx, session.RedisConfig{
		URL:          cfg.Redis.URL,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return backend, func() {
		if err := backend.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close redis")
		}
	}, nil
}
