// Package controller provides the HTTP request handlers for the pulmoscan
// portal: signup, login, the upload dashboard and the history page.
package controller

import (
	"net/http"
	"net/url"

	"pulmoscan/web/session"

	"github.com/gin-gonic/gin"
)

// BaseController provides common functionality for all controllers,
// including the authentication gate.
type BaseController struct{}

// checkLogin is a middleware that redirects unauthenticated requests to the
// login page, carrying the originally requested path in the `next` query
// parameter.
func (a *BaseController) checkLogin(c *gin.Context) {
	if !session.IsLogin(c) {
		next := url.QueryEscape(c.Request.URL.RequestURI())
		c.Redirect(http.StatusTemporaryRedirect, "/login?next="+next)
		c.Abort()
		return
	}
	c.Next()
}
