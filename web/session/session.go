// Package session holds the server-signed, client-held identity state for
// one browser session, plus one-shot flash notices.
package session

import (
	"encoding/gob"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	loginUser = "LOGIN_USER"
	flashKey  = "FLASH"
)

// User is the identity carried by an authenticated session.
type User struct {
	UserID string
	Name   string
	Role   string
}

// Flash is a one-shot notice surfaced on the next rendered page.
type Flash struct {
	Category string // "success" or "error"
	Message  string
}

func init() {
	gob.Register(User{})
	gob.Register(Flash{})
}

// SetLoginUser (re)populates the session with the authenticated identity.
func SetLoginUser(c *gin.Context, user User) error {
	s := sessions.Default(c)
	s.Set(loginUser, user)
	return s.Save()
}

// GetLoginUser returns the session identity, or nil when unauthenticated.
func GetLoginUser(c *gin.Context) *User {
	s := sessions.Default(c)
	if obj := s.Get(loginUser); obj != nil {
		if user, ok := obj.(User); ok {
			return &user
		}
	}
	return nil
}

func IsLogin(c *gin.Context) bool {
	return GetLoginUser(c) != nil
}

// ClearSession drops the session identity and any queued flashes. Clearing
// an already-empty session is not an error. The cookie itself survives so a
// post-logout notice can still be flashed into it.
func ClearSession(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	return s.Save()
}

// AddFlash queues a one-shot notice for the next rendered page.
func AddFlash(c *gin.Context, category, message string) {
	s := sessions.Default(c)
	s.AddFlash(Flash{Category: category, Message: message}, flashKey)
	_ = s.Save()
}

// TakeFlashes drains and returns the queued notices.
func TakeFlashes(c *gin.Context) []Flash {
	s := sessions.Default(c)
	raw := s.Flashes(flashKey)
	if len(raw) > 0 {
		_ = s.Save()
	}
	flashes := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			flashes = append(flashes, f)
		}
	}
	return flashes
}
