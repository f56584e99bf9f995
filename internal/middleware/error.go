package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	apperrors "github.com/afresh/afresh-web/pkg/errors"
)

// ErrorPage is the template rendered for failed requests.
const ErrorPage = "error.html"

// ErrorHandler renders the error page for errors attached with c.Error when
// the handler has not written a response itself.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		logger := zerolog.Ctx(c.Request.Context())
		for _, e := range c.Errors {
			logger.Error().
				Err(e.Err).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Msg("request error")
		}

		if c.Writer.Written() {
			return
		}

		last := c.Errors.Last().Err
		status := http.StatusInternalServerError
		message := "Something went wrong. Please try again."

		var appErr *apperrors.AppError
		if errors.As(last, &appErr) {
			status = appErr.StatusCode()
			if status < http.StatusInternalServerError {
				message = appErr.Message
			}
		}
		renderError(c, status, message)
	}
}

func renderError(c *gin.Context, status int, message string) {
	c.HTML(status, ErrorPage, gin.H{
		"Status":    status,
		"Title":     http.StatusText(status),
		"Message":   message,
		"RequestID": c.GetString(ContextRequestID),
	})
}
