package middleware

import (
	"context"
	"errors"
	"html/template"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/afresh/afresh-web/internal/model"
	"github.com/afresh/afresh-web/internal/session"
	apperrors "github.com/afresh/afresh-web/pkg/errors"
	"github.com/afresh/afresh-web/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	engine := gin.New()
	engine.SetHTMLTemplate(template.Must(template.New(ErrorPage).Parse(`{{.Status}}|{{.Message}}|{{.RequestID}}`)))
	engine.Use(RequestID(), ErrorHandler(), Recovery())
	engine.Use(mw...)
	return engine
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	engine := newEngine()
	engine.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	t.Run("generated", func(t *testing.T) {
		w := serve(engine, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, w.Body.String())
		assert.Equal(t, w.Body.String(), w.Header().Get(HeaderXRequestID))
	})

	t.Run("reuses valid incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderXRequestID, "1b4e28ba-2fa1-11d2-883f-0016d3cca427")
		w := serve(engine, req)
		assert.Equal(t, "1b4e28ba-2fa1-11d2-883f-0016d3cca427", w.Body.String())
	})

	t.Run("replaces malformed id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderXRequestID, "<script>")
		w := serve(engine, req)
		assert.NotEqual(t, "<script>", w.Body.String())
	})
}

func TestErrorHandler(t *testing.T) {
	engine := newEngine()
	engine.GET("/missing", func(c *gin.Context) { c.Error(apperrors.NotFound("Booking", nil)) })
	engine.GET("/boom", func(c *gin.Context) { c.Error(errors.New("database password leaked")) })
	engine.GET("/written", func(c *gin.Context) {
		c.Error(errors.New("logged only"))
		c.String(http.StatusOK, "fine")
	})

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "404|Booking not found|")

	w = serve(engine, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.Contains(t, w.Body.String(), "Something went wrong")

	w = serve(engine, httptest.NewRequest(http.MethodGet, "/written", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fine", w.Body.String())
}

func TestRecovery(t *testing.T) {
	engine := newEngine()
	engine.GET("/panic", func(c *gin.Context) { panic("nil map") })

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "500|Something went wrong")
}

func TestRateLimit(t *testing.T) {
	limiter := NewRateLimiter(RateLimiterConfig{Rate: rate.Every(time.Hour), Burst: 2})
	engine := newEngine(limiter.RateLimit())
	engine.POST("/login", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	login := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":5000"
		return serve(engine, req).Code
	}

	assert.Equal(t, http.StatusNoContent, login("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, login("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, login("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, login("10.0.0.2"), "limits are per client")
}

func TestSecurityHeaders(t *testing.T) {
	engine := newEngine(SecurityHeaders(DefaultSecurityConfig(false)))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "img-src 'self' data: https:")
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	engine = newEngine(SecurityHeaders(DefaultSecurityConfig(true)))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	w = serve(engine, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "max-age=31536000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
}

func TestSizeLimit(t *testing.T) {
	engine := newEngine(SizeLimit(SizeLimitConfig{MaxBodySize: 16, MaxHeaderSize: 1 << 10}))
	engine.POST("/contact", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader("short"))
	assert.Equal(t, http.StatusNoContent, serve(engine, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(strings.Repeat("x", 17)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, serve(engine, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/contact", nil)
	req.Header.Set("X-Padding", strings.Repeat("y", 2<<10))
	assert.Equal(t, http.StatusRequestEntityTooLarge, serve(engine, req).Code)
}

func TestCache(t *testing.T) {
	engine := newEngine()
	engine.GET("/static/site.css", Cache(StaticCacheConfig()), func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/admin", Cache(NoStoreConfig()), func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.POST("/admin", Cache(StaticCacheConfig()), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/static/site.css", nil))
	assert.Equal(t, "public, max-age=86400", w.Header().Get("Cache-Control"))

	w = serve(engine, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, "private, no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "Cookie", w.Header().Get("Vary"))

	w = serve(engine, httptest.NewRequest(http.MethodPost, "/admin", nil))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestRequireSession(t *testing.T) {
	store, err := session.NewStore(session.NewMemoryBackend(time.Minute), session.Config{Secret: "test-secret"}, nil)
	require.NoError(t, err)

	engine := newEngine()
	engine.GET("/seed", func(c *gin.Context) {
		require.NoError(t, store.SetToken(c, "tok-1", false))
		require.NoError(t, store.SetUser(c, model.User{ID: "u1", Email: "admin@afresh.com"}, false))
		c.Status(http.StatusNoContent)
	})
	engine.GET("/admin", RequireSession(store), func(c *gin.Context) {
		sess := session.FromContext(c)
		require.NotNil(t, sess)
		c.String(http.StatusOK, sess.Token+" "+sess.User.Email)
	})

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, LoginPath, w.Header().Get("Location"))

	seeded := serve(engine, httptest.NewRequest(http.MethodGet, "/seed", nil))
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	for _, ck := range seeded.Result().Cookies() {
		req.AddCookie(ck)
	}
	w = serve(engine, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tok-1 admin@afresh.com", w.Body.String())
}

func TestCSRF(t *testing.T) {
	protect, err := CSRF(CSRFConfig{Enabled: true, Secret: "test-secret"})
	require.NoError(t, err)

	engine := newEngine(protect)
	engine.GET("/contact", func(c *gin.Context) { c.String(http.StatusOK, csrf.Token(c.Request)) })
	engine.POST("/contact", func(c *gin.Context) { c.String(http.StatusOK, "sent") })

	page := serve(engine, httptest.NewRequest(http.MethodGet, "/contact", nil))
	require.Equal(t, http.StatusOK, page.Code)
	token := page.Body.String()
	require.NotEmpty(t, token)

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader("message=hi"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		for _, ck := range page.Result().Cookies() {
			req.AddCookie(ck)
		}
		w := serve(engine, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "The form has expired")
	})

	t.Run("valid token", func(t *testing.T) {
		form := url.Values{CSRFFieldName: {token}, "message": {"hi"}}
		req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		for _, ck := range page.Result().Cookies() {
			req.AddCookie(ck)
		}
		w := serve(engine, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "sent", w.Body.String())
	})
}

func TestCSRFDisabled(t *testing.T) {
	protect, err := CSRF(CSRFConfig{Enabled: false})
	require.NoError(t, err)

	engine := newEngine(protect)
	engine.POST("/contact", func(c *gin.Context) { c.String(http.StatusOK, string(csrf.TemplateField(c.Request))) })

	w := serve(engine, httptest.NewRequest(http.MethodPost, "/contact", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestMetrics(t *testing.T) {
	m := metrics.New("test")
	engine := newEngine(Metrics(m))
	engine.GET("/admin/services", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(engine, httptest.NewRequest(http.MethodGet, "/admin/services", nil))
	serve(engine, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestTotal.WithLabelValues("GET", "/admin/services", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorTotal.WithLabelValues("GET", "unmatched", "http")))
}

func TestCompress(t *testing.T) {
	page := strings.Repeat("<p>AfrESH</p>", 200)
	engine := newEngine(Compress(DefaultCompressConfig()))
	engine.GET("/page", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
	})
	engine.GET("/image", func(c *gin.Context) {
		c.Data(http.StatusOK, "image/png", []byte("png"))
	})
	engine.GET("/metrics", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	t.Run("compresses html", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/page", nil)
		req.Header.Set("Accept-Encoding", "gzip, deflate")
		w := serve(engine, req)
		require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
		assert.Contains(t, w.Header().Values("Vary"), "Accept-Encoding")

		zr, err := gzip.NewReader(w.Body)
		require.NoError(t, err)
		body, err := io.ReadAll(zr)
		require.NoError(t, err)
		assert.Equal(t, page, string(body))
	})

	t.Run("client without gzip", func(t *testing.T) {
		w := serve(engine, httptest.NewRequest(http.MethodGet, "/page", nil))
		assert.Empty(t, w.Header().Get("Content-Encoding"))
		assert.Equal(t, page, w.Body.String())
	})

	for _, path := range []string{"/image", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Accept-Encoding", "gzip")
		w := serve(engine, req)
		assert.Empty(t, w.Header().Get("Content-Encoding"), path)
	}
}

func TestTimeout(t *testing.T) {
	engine := newEngine(Timeout(50 * time.Millisecond))
	engine.GET("/", func(c *gin.Context) {
		deadline, ok := c.Request.Context().Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 50*time.Millisecond)
		<-c.Request.Context().Done()
		assert.ErrorIs(t, c.Request.Context().Err(), context.DeadlineExceeded)
		c.Status(http.StatusNoContent)
	})

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	open := newEngine(Timeout(0))
	open.GET("/", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		assert.False(t, ok)
	})
	serve(open, httptest.NewRequest(http.MethodGet, "/", nil))
}
