package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RedirectMiddleware maps legacy paths onto the current routes.
func RedirectMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		redirects := map[string]string{
			"/index":     "/",
			"/dashboard": "/",
			"/signin":    "/login",
		}

		path := c.Request.URL.Path
		for from, to := range redirects {
			if path == from || strings.HasPrefix(path, from+"/") {
				newPath := to + path[len(from):]

				c.Redirect(http.StatusMovedPermanently, newPath)
				c.Abort()
				return
			}
		}

		c.Next()
	}
}
