package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
)

type CompressConfig struct {
	Level int
	// Types are the content types worth compressing.
	Types []string
	// Skip lists path prefixes that are never compressed.
	Skip []string
}

func DefaultCompressConfig() CompressConfig {
	return CompressConfig{
		Level: gzip.DefaultCompression,
		Types: []string{
			"text/html",
			"text/css",
			"text/plain",
			"image/svg+xml",
		},
		Skip: []string{"/healthz", "/metrics"},
	}
}

// gzipWriter decides on the first body write, once the handler has set the
// content type, whether to compress. gin defers the status line until then.
type gzipWriter struct {
	gin.ResponseWriter
	config  CompressConfig
	gz      *gzip.Writer
	decided bool
}

func (w *gzipWriter) decide() {
	if w.decided {
		return
	}
	w.decided = true

	h := w.Header()
	if h.Get("Content-Encoding") != "" || !w.compressible(h.Get("Content-Type")) {
		return
	}
	gz, err := gzip.NewWriterLevel(w.ResponseWriter, w.config.Level)
	if err != nil {
		return
	}
	w.gz = gz
	h.Set("Content-Encoding", "gzip")
	h.Add("Vary", "Accept-Encoding")
	h.Del("Content-Length")
}

func (w *gzipWriter) compressible(contentType string) bool {
	for _, t := range w.config.Types {
		if strings.HasPrefix(contentType, t) {
			return true
		}
	}
	return false
}

func (w *gzipWriter) Write(data []byte) (int, error) {
	w.decide()
	if w.gz == nil {
		return w.ResponseWriter.Write(data)
	}
	return w.gz.Write(data)
}

func (w *gzipWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Compress gzips text responses for clients that accept it.
func Compress(config CompressConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, prefix := range config.Skip {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}
		if c.Request.Method == "HEAD" || !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") {
			c.Next()
			return
		}

		w := &gzipWriter{ResponseWriter: c.Writer, config: config}
		c.Writer = w
		// the error page is rendered after this returns, uncompressed
		defer func() {
			if w.gz != nil {
				w.gz.Close()
			}
			c.Writer = w.ResponseWriter
		}()
		c.Next()
	}
}
