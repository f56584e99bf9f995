package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// CacheConfig represents cache control configuration
type CacheConfig struct {
	MaxAge         int
	Private        bool
	NoStore        bool
	MustRevalidate bool
	Immutable      bool
	Vary           []string
}

// StaticCacheConfig is used for embedded assets.
func StaticCacheConfig() CacheConfig {
	return CacheConfig{MaxAge: 86400}
}

// NoStoreConfig is used for pages that show session data.
func NoStoreConfig() CacheConfig {
	return CacheConfig{Private: true, NoStore: true, Vary: []string{"Cookie"}}
}

func (config CacheConfig) header() string {
	var directives []string
	if config.Private {
		directives = append(directives, "private")
	} else {
		directives = append(directives, "public")
	}
	if config.NoStore {
		return strings.Join(append(directives, "no-store"), ", ")
	}
	if config.MaxAge > 0 {
		directives = append(directives, "max-age="+strconv.Itoa(config.MaxAge))
	}
	if config.MustRevalidate {
		directives = append(directives, "must-revalidate")
	}
	if config.Immutable {
		directives = append(directives, "immutable")
	}
	return strings.Join(directives, ", ")
}

// Cache adds cache control headers to responses
func Cache(config CacheConfig) gin.HandlerFunc {
	value := config.header()
	vary := strings.Join(config.Vary, ", ")

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Header("Cache-Control", "no-store")
			c.Next()
			return
		}
		c.Header("Cache-Control", value)
		if vary != "" {
			c.Header("Vary", vary)
		}
		c.Next()
	}
}
