package controller

import (
	"net"
	"net/http"
	"strings"

	"pulmoscan/config"
	"pulmoscan/web/entity"
	"pulmoscan/web/session"

	"github.com/gin-gonic/gin"
)

// getRemoteIp extracts the real IP address from the request headers or
// remote address.
func getRemoteIp(c *gin.Context) string {
	value := c.GetHeader("X-Real-IP")
	if value != "" {
		return value
	}
	value = c.GetHeader("X-Forwarded-For")
	if value != "" {
		ips := strings.Split(value, ",")
		return ips[0]
	}
	addr := c.Request.RemoteAddr
	ip, _, _ := net.SplitHostPort(addr)
	return ip
}

// jsonObj sends a standard JSON response with an object and error status.
func jsonObj(c *gin.Context, obj any, err error) {
	m := entity.Msg{Obj: obj}
	if err == nil {
		m.Success = true
	} else {
		m.Msg = err.Error()
	}
	c.JSON(http.StatusOK, m)
}

// html renders an HTML template with the session identity, queued flash
// notices and version context merged into the provided data.
func html(c *gin.Context, name string, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["title"] = title
	data["cur_ver"] = config.GetVersion()
	data["flashes"] = session.TakeFlashes(c)
	if user := session.GetLoginUser(c); user != nil {
		data["user"] = user
	}
	c.HTML(http.StatusOK, name, data)
}

// safeNext validates a post-login redirect target: only relative paths on
// this host are honored.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	return next
}
