package middleware

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tayylorngo/t-testing-sub000/pkg/appenv"
)

// CORSMiddleware configures cross-origin headers. Outside production
// any origin is allowed for convenience; in production only origins
// listed in the comma-separated ALLOWED_ORIGINS env var are reflected.
func CORSMiddleware() gin.HandlerFunc {
	isProd := appenv.IsProduction() || gin.Mode() == gin.ReleaseMode

	allowed := make(map[string]struct{})
	for _, o := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if origin := strings.TrimSpace(o); origin != "" {
			allowed[origin] = struct{}{}
		}
	}
	allowCredentials := strings.EqualFold(os.Getenv("ALLOW_CREDENTIALS"), "true")

	const methods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	const headers = "Origin, Content-Type, Authorization, X-Client-ID"

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		c.Header("Vary", "Origin")

		switch {
		case !isProd:
			c.Header("Access-Control-Allow-Origin", "*")
			c.Header("Access-Control-Allow-Methods", methods)
			c.Header("Access-Control-Allow-Headers", headers)
		case origin != "":
			if _, ok := allowed[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Access-Control-Allow-Methods", methods)
				c.Header("Access-Control-Allow-Headers", headers)
				if allowCredentials {
					c.Header("Access-Control-Allow-Credentials", "true")
				}
			}
		}

		if c.Request.Method == http.MethodOptions {
			// Preflight. If the origin was not allowed the headers above
			// are absent and the browser blocks the request.
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
