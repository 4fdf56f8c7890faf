package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"study-planner/internal/planner"
)

const (
	// SessionCookie names the cookie carrying the planner session id.
	SessionCookie = "study_session"

	sessionKey   = "session"
	sessionIDKey = "sessionId"
)

// SessionOptions controls the session cookie.
type SessionOptions struct {
	TTL    time.Duration
	Secure bool
}

// Session resolves the caller's planner session from the cookie, creating a
// fresh one when the cookie is missing or the session has expired.
func Session(store *planner.SessionStore, opts SessionOptions) gin.HandlerFunc {
	maxAge := int(opts.TTL / time.Second)
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		id, _ := c.Cookie(SessionCookie)
		sess, created := store.GetOrCreate(id)

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, sess.ID, maxAge, "/", "", opts.Secure, true)
		c.Set(sessionKey, sess)
		c.Set(sessionIDKey, sess.ID)
		c.Set("sessionCreated", created)
		c.Next()
	}
}

// SessionFromContext fetches the session stored by the Session middleware.
func SessionFromContext(c *gin.Context) *planner.Session {
	if c == nil {
		return nil
	}
	val, _ := c.Get(sessionKey)
	if sess, ok := val.(*planner.Session); ok {
		return sess
	}
	return nil
}

// SessionIDFromContext fetches the session id stored by the Session middleware.
func SessionIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(sessionIDKey)
}
