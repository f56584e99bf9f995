package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"

	apperrors "github.com/afresh/afresh-web/pkg/errors"
	"github.com/afresh/afresh-web/pkg/security"
)

const CSRFFieldName = "csrf_token"

type CSRFConfig struct {
	Enabled        bool
	Secret         string
	Secure         bool
	TrustedOrigins []string
}

type ginContextKey struct{}

// CSRF adapts gorilla/csrf to gin. Unsafe methods without a valid token are
// aborted with 403 and rendered by ErrorHandler. When disabled the handler is
// a no-op and csrf.TemplateField renders nothing.
func CSRF(cfg CSRFConfig) (gin.HandlerFunc, error) {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }, nil
	}

	key, err := security.DeriveKey([]byte(cfg.Secret), "csrf")
	if err != nil {
		return nil, err
	}

	reject := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := r.Context().Value(ginContextKey{}).(*gin.Context)
		if !ok {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		c.Error(apperrors.Forbidden("The form has expired. Please reload the page and try again.", csrf.FailureReason(r)))
	})

	protect := csrf.Protect(key,
		csrf.Secure(cfg.Secure),
		csrf.Path("/"),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.FieldName(CSRFFieldName),
		csrf.TrustedOrigins(cfg.TrustedOrigins),
		csrf.ErrorHandler(reject),
	)

	return func(c *gin.Context) {
		passed := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Next()
		})

		req := c.Request.WithContext(context.WithValue(c.Request.Context(), ginContextKey{}, c))
		if !cfg.Secure {
			req = csrf.PlaintextHTTPRequest(req)
		}
		protect(next).ServeHTTP(c.Writer, req)

		if !passed {
			c.Abort()
		}
	}, nil
}
