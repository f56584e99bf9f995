package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/afresh/afresh-web/internal/session"
)

// LoginPath is where the guard sends visitors without a session.
const LoginPath = "/login"

// RequireSession lets a request through only when a token is stored in
// either scope. The token is not validated. The loaded session is placed in
// the context under session.ContextKey.
func RequireSession(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := store.Load(c)
		if sess == nil {
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}
		c.Set(session.ContextKey, sess)
		c.Next()
	}
}
