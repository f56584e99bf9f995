package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/afresh/afresh-web/internal/handler"
	"github.com/afresh/afresh-web/internal/middleware"
	"github.com/afresh/afresh-web/internal/session"
	"github.com/afresh/afresh-web/internal/web"
	apperrors "github.com/afresh/afresh-web/pkg/errors"
	"github.com/afresh/afresh-web/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// Handlers groups the views by where they are mounted.
type Handlers struct {
	// Public handlers are mounted at the site root.
	Public []Handler
	// Admin handlers are mounted under /admin behind the session guard.
	Admin []Handler
	// Ops handlers (health, metrics) skip CSRF and the HTML error page.
	Ops []Handler
}

type Config struct {
	Mode           string
	TrustedProxies []string
	Secure         bool
	MaxBodyBytes   int64
	RequestTimeout time.Duration
	CSRF           middleware.CSRFConfig
}

type Router struct {
	engine   *gin.Engine
	store    *session.Store
	handlers Handlers
	csrf     gin.HandlerFunc
}

func NewRouter(cfg Config, renderer render.HTMLRender, store *session.Store, m *metrics.Metrics, handlers Handlers) (*Router, error) {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	handler.ConfigureValidation()

	csrf, err := middleware.CSRF(cfg.CSRF)
	if err != nil {
		return nil, fmt.Errorf("csrf: %w", err)
	}

	engine := gin.New()
	engine.HTMLRender = renderer
	// the login rate limiter keys on ClientIP
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Metrics(m),
		middleware.Recovery(),
		middleware.ErrorHandler(),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig(cfg.Secure)),
	)

	sizeLimit := middleware.DefaultSizeLimitConfig()
	if cfg.MaxBodyBytes > 0 {
		sizeLimit.MaxBodySize = cfg.MaxBodyBytes
	}
	engine.Use(
		middleware.SizeLimit(sizeLimit),
		middleware.Timeout(cfg.RequestTimeout),
		middleware.Compress(middleware.DefaultCompressConfig()),
	)

	return &Router{engine: engine, store: store, handlers: handlers, csrf: csrf}, nil
}

func (r *Router) Setup() {
	for _, h := range r.handlers.Ops {
		h.RegisterRoutes(&r.engine.RouterGroup)
	}

	static := r.engine.Group("/static", middleware.Cache(middleware.StaticCacheConfig()))
	static.StaticFS("/", web.Static())

	site := r.engine.Group("", r.csrf)
	for _, h := range r.handlers.Public {
		h.RegisterRoutes(site)
	}

	admin := site.Group("/admin",
		middleware.RequireSession(r.store),
		middleware.Cache(middleware.NoStoreConfig()),
	)
	for _, h := range r.handlers.Admin {
		h.RegisterRoutes(admin)
	}

	r.engine.NoRoute(func(c *gin.Context) {
		handler.Abort(c, apperrors.NotFound("Page", nil))
	})
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
